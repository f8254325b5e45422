package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/potctl/pkg/follow"
)

type FollowCommand struct {
	Hz    int  `long:"hz" description:"Update rate (default from config)"`
	Quiet bool `short:"q" long:"quiet" description:"Do not print readings"`
}

func (c *FollowCommand) Execute(args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	cfg := e.cfg.Follow
	if c.Hz > 0 {
		cfg.Interval = time.Second / time.Duration(c.Hz)
	}

	sensor, err := e.rig.Sensor(ctx)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	servo, err := e.rig.Servo(ctx)
	if err != nil {
		return fmt.Errorf("open servo: %w", err)
	}

	f, err := follow.New(cfg, sensor, servo, e.logger)
	if err != nil {
		return err
	}
	if !c.Quiet {
		f.OnReading = func(r follow.Reading) {
			fmt.Printf("\rpot %4d  angle %6.1f°", r.Raw, r.Angle)
		}
	}

	fmt.Println(dimStyle.Render("Turn the pot; Ctrl-C to stop."))
	err = f.Run(ctx)
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
