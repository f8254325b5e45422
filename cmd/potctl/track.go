package main

import (
	"context"
	"fmt"
	"os"

	"github.com/guptarohit/asciigraph"

	"github.com/gwillem/potctl/pkg/console"
	"github.com/gwillem/potctl/pkg/tracker"
)

type TrackCommand struct {
	Serial string `long:"serial" description:"Talk to the user over this serial port instead of stdin/stdout"`
	Baud   int    `long:"baud" default:"115200" description:"Baud rate of --serial"`
	Plot   bool   `long:"plot" description:"Plot the trajectory after each move"`
}

func (c *TrackCommand) Execute(args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	con := console.New(os.Stdin, os.Stdout)
	if c.Serial != "" {
		con, err = console.OpenSerial(c.Serial, c.Baud)
		if err != nil {
			return err
		}
		defer con.Close()
		e.logger.Info("console on serial port", "port", c.Serial, "baud", c.Baud)
	}

	var path []float64
	var trackerOpts []tracker.Option
	if c.Plot {
		trackerOpts = append(trackerOpts, tracker.WithObserver(func(s tracker.Sample) {
			path = append(path, s.Position)
		}))
	}

	tr, err := newTracker(ctx, e, trackerOpts...)
	if err != nil {
		return err
	}

	s := tracker.NewSession(tr, con)
	if c.Plot {
		s.AfterMove = func(res tracker.Result) {
			con.WriteLine(plotPath(path, res.Target))
			path = path[:0]
		}
	}
	return s.Run(ctx)
}

type GotoCommand struct {
	Args struct {
		Length string `positional-arg-name:"length" description:"Stroke length in inches"`
	} `positional-args:"yes" required:"yes"`
}

func (c *GotoCommand) Execute(args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	tr, err := newTracker(ctx, e)
	if err != nil {
		return err
	}
	_, err = tracker.NewSession(tr, console.New(os.Stdin, os.Stdout)).Move(ctx, c.Args.Length)
	return err
}

func newTracker(ctx context.Context, e *env, extra ...tracker.Option) (*tracker.Tracker, error) {
	sensor, err := e.rig.Sensor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open sensor: %w", err)
	}
	act, err := e.rig.Actuator(ctx)
	if err != nil {
		return nil, fmt.Errorf("open actuator: %w", err)
	}
	trackerOpts := append([]tracker.Option{tracker.WithLogger(e.logger)}, extra...)
	return tracker.New(e.cfg.Tracker, sensor, act, trackerOpts...)
}

// plotPath draws the positions of one move with the target as a flat line.
func plotPath(path []float64, target float64) string {
	if len(path) == 0 {
		return ""
	}
	goal := make([]float64, len(path))
	for i := range goal {
		goal[i] = target
	}
	return asciigraph.PlotMany([][]float64{path, goal},
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption(fmt.Sprintf("length (in) over %d polls, target %.2fin", len(path), target)),
	)
}
