package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gwillem/potctl/pkg/stepper"
)

type StepperCommand struct {
	Style string  `long:"style" choice:"single" choice:"double" choice:"interleave" choice:"microstep" description:"Instead of the demonstration, turn in this style"`
	Revs  float64 `long:"revs" default:"1" description:"Revolutions to turn with --style; negative turns backward"`
	RPM   float64 `long:"rpm" default:"30" description:"Speed with --style"`
}

func (c *StepperCommand) Execute(args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	coils, err := e.rig.Coils(ctx)
	if err != nil {
		return fmt.Errorf("open stepper: %w", err)
	}
	m := stepper.NewMotor(coils)

	seqs := stepper.Demo()
	if c.Style != "" {
		seq, err := c.sequence()
		if err != nil {
			return err
		}
		seqs = []stepper.Sequence{seq}
	}

	err = m.Run(ctx, seqs, func(s stepper.Sequence) {
		fmt.Println(headerStyle.Render(s.Label))
		e.logger.Debug("sequence", "steps", s.Steps, "dir", s.Dir, "style", s.Style, "delay", s.Delay)
	})
	if errors.Is(err, context.Canceled) {
		fmt.Println(dimStyle.Render("Interrupted; coils released."))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Done."))
	return nil
}

func (c *StepperCommand) sequence() (stepper.Sequence, error) {
	style, err := stepper.ParseStyle(c.Style)
	if err != nil {
		return stepper.Sequence{}, err
	}
	if c.RPM <= 0 {
		return stepper.Sequence{}, fmt.Errorf("rpm must be positive, got %g", c.RPM)
	}

	dir := stepper.Forward
	if c.Revs < 0 {
		dir = stepper.Backward
	}
	perRev := style.StepsPerRev()
	steps := int(math.Round(math.Abs(c.Revs) * float64(perRev)))
	delay := time.Duration(float64(time.Minute) / (c.RPM * float64(perRev)))

	return stepper.Sequence{
		Label: fmt.Sprintf("%g revolutions %s, %s, %g rpm", math.Abs(c.Revs), dir, style, c.RPM),
		Steps: steps,
		Dir:   dir,
		Style: style,
		Delay: delay,
	}, nil
}
