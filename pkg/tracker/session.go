package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Console is the line-oriented user channel of an interactive session.
type Console interface {
	ReadLine() (string, error)
	WriteLine(text string)
}

// Session runs the prompt, clamp, move loop against a tracker.
type Session struct {
	tracker    *Tracker
	console    Console
	lastTarget float64
	hasTarget  bool

	// AfterMove, when set, is called after every completed move.
	AfterMove func(Result)
}

// NewSession creates a session on top of tracker and console.
func NewSession(tracker *Tracker, console Console) *Session {
	return &Session{
		tracker: tracker,
		console: console,
	}
}

// LastTarget returns the most recent accepted target. ok is false until a
// target has been accepted.
func (s *Session) LastTarget() (target float64, ok bool) {
	return s.lastTarget, s.hasTarget
}

// Run prompts for targets until the console reaches EOF or ctx ends. A
// driver fault stops the motor and is returned.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := s.Prompt(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Prompt runs one round of the session. done reports that the console has
// no more input. Cancelling ctx while waiting for input stops the motor and
// returns ctx.Err().
func (s *Session) Prompt(ctx context.Context) (done bool, err error) {
	pos, err := s.tracker.Position(ctx)
	if err != nil {
		s.console.WriteLine("Error. Stopping motors.")
		return false, errors.Join(err, s.stop(ctx))
	}
	s.console.WriteLine(fmt.Sprintf("Current Length:    %.2fin", pos))
	s.console.WriteLine("Enter the desired stroke-length in inches, then press return:")

	line, err := s.readLine(ctx)
	if ctx.Err() != nil {
		// interrupted at the prompt: make sure the motor is off
		return false, errors.Join(err, s.stop(ctx))
	}
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read input: %w", err)
	}

	_, err = s.Move(ctx, line)
	var verr *ValidationError
	if errors.As(err, &verr) {
		return false, nil
	}
	return false, err
}

// Move validates and clamps one line of input, then drives to it. A
// ValidationError is reported on the console and returned without any motion.
func (s *Session) Move(ctx context.Context, input string) (Result, error) {
	requested, err := ParseTarget(input)
	if err != nil {
		s.console.WriteLine("Please enter a valid number.")
		s.console.WriteLine("Remaining at current length.")
		return Result{}, err
	}

	target, clamp := s.tracker.ClampTarget(requested)
	switch clamp {
	case ClampMax:
		s.console.WriteLine("The actuator is not that long.")
		s.console.WriteLine(fmt.Sprintf("Moving to maximum length of %.2fin instead.", target))
	case ClampMin:
		s.console.WriteLine("The actuator cannot be that short.")
		s.console.WriteLine(fmt.Sprintf("Moving to minimum length of %.2fin instead.", target))
	}
	s.lastTarget, s.hasTarget = target, true

	res, err := s.tracker.RunToTarget(ctx, target)
	if err != nil {
		if IsDriverFault(err) {
			s.console.WriteLine("Error. Stopping motors.")
		}
		return res, err
	}

	s.console.WriteLine(fmt.Sprintf("\nStopped at %.4fin for a desired length of %.2fin.\n", res.Position, target))
	if s.AfterMove != nil {
		s.AfterMove(res)
	}
	return res, nil
}

type lineResult struct {
	line string
	err  error
}

// readLine waits for a line or for ctx to end. The console read cannot be
// interrupted, so on cancellation it is left to finish in the background.
func (s *Session) readLine(ctx context.Context) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := s.console.ReadLine()
		ch <- lineResult{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// stop is used when a fault happens outside RunToTarget, which stops on its own.
func (s *Session) stop(ctx context.Context) error {
	if err := s.tracker.actuator.SetSpeed(context.WithoutCancel(ctx), 0); err != nil {
		return &DriverFault{Op: "stop", Err: err}
	}
	return nil
}
