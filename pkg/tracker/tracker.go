// Package tracker drives a linear actuator to a requested length using a
// potentiometer for position feedback and a deadzone on/off control law.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

//go:generate mockgen -source=tracker.go -destination=mock_driver_test.go -package=tracker Sensor,Actuator

// Sensor reads the raw position sensor, in [0, Config.SensorLimit].
type Sensor interface {
	Read(ctx context.Context) (int, error)
}

// Actuator drives the actuator at a signed speed in percent. Zero stops it.
type Actuator interface {
	SetSpeed(ctx context.Context, speed int) error
}

// Sample is one poll of the control loop, reported to observers.
type Sample struct {
	Raw      int
	Position float64
	Target   float64
	Error    float64
	Command  int
	State    State
	At       time.Time
}

// Result summarises a completed move.
type Result struct {
	Target     float64
	Position   float64
	Iterations int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for move start/stop and driver faults.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithObserver registers a callback that receives every poll sample.
func WithObserver(fn func(Sample)) Option {
	return func(t *Tracker) {
		t.observe = fn
	}
}

// Tracker owns one sensor and one actuator. It is not safe for concurrent use.
type Tracker struct {
	cfg      Config
	cal      Calibration
	sensor   Sensor
	actuator Actuator
	logger   *slog.Logger
	observe  func(Sample)
	state    State
}

// New creates a tracker. The config is validated and copied.
func New(cfg Config, sensor Sensor, actuator Actuator, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cal, err := cfg.Calibration()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	t := &Tracker{
		cfg:      cfg,
		cal:      cal,
		sensor:   sensor,
		actuator: actuator,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    Stopped,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config returns the tracker's configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Calibration returns the fit derived from the configuration.
func (t *Tracker) Calibration() Calibration {
	return t.cal
}

// State returns the current control state.
func (t *Tracker) State() State {
	return t.state
}

// ToPhysical converts a raw sensor reading to physical units.
func (t *Tracker) ToPhysical(raw int) float64 {
	return t.cal.ToPhysical(raw)
}

// ClampTarget limits a requested target to the tracker's physical range.
func (t *Tracker) ClampTarget(requested float64) (float64, Clamp) {
	return ClampTarget(t.cfg, requested)
}

// Position reads the sensor once and returns the current physical position.
func (t *Tracker) Position(ctx context.Context) (float64, error) {
	pos, _, err := t.sample(ctx)
	return pos, err
}

// RunToTarget drives the actuator until the measured position is within
// tolerance of target, then stops it. The target is expected to be clamped
// already.
//
// Exactly one stop command is issued on every return path, including driver
// faults and context cancellation, before control returns to the caller.
func (t *Tracker) RunToTarget(ctx context.Context, target float64) (res Result, err error) {
	res.Target = target

	defer func() {
		t.state = Stopped
		// The stop must go out even when ctx is what ended the move.
		if stopErr := t.actuator.SetSpeed(context.WithoutCancel(ctx), 0); stopErr != nil {
			err = errors.Join(err, &DriverFault{Op: "stop", Err: stopErr})
		}
		if err != nil {
			t.logger.Error("move aborted", "target", target, "position", res.Position, "error", err)
			return
		}
		t.logger.Info("move complete", "target", target, "position", res.Position, "iterations", res.Iterations)
	}()

	// A dead context must not start the motor.
	if err := ctx.Err(); err != nil {
		return res, err
	}

	pos, raw, err := t.sample(ctx)
	if err != nil {
		return res, err
	}
	res.Position = pos

	d := Step(pos, target, t.cfg.Tolerance, t.cfg.FixedSpeed)
	t.report(raw, pos, target, d)
	if d.State == Stopped {
		return res, nil
	}

	t.logger.Info("move started", "target", target, "position", pos, "speed", d.Command)
	t.state = Tracking
	command := d.Command
	if err := t.setSpeed(ctx, command); err != nil {
		return res, err
	}

	var tick <-chan time.Time
	if t.cfg.PollInterval > 0 {
		ticker := time.NewTicker(t.cfg.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := wait(ctx, tick); err != nil {
			return res, err
		}

		pos, raw, err = t.sample(ctx)
		if err != nil {
			return res, err
		}
		res.Iterations++
		res.Position = pos

		d = Step(pos, target, t.cfg.Tolerance, t.cfg.FixedSpeed)
		t.report(raw, pos, target, d)
		if d.State == Stopped {
			return res, nil
		}

		// Overshoot reverses the direction; otherwise the command stands.
		if d.Command != command {
			t.logger.Debug("direction change", "position", pos, "speed", d.Command)
			if err := t.setSpeed(ctx, d.Command); err != nil {
				return res, err
			}
			command = d.Command
		}
	}
}

func (t *Tracker) sample(ctx context.Context) (float64, int, error) {
	raw, err := t.sensor.Read(ctx)
	if err != nil {
		return 0, 0, &DriverFault{Op: "read", Err: err}
	}
	return t.cal.ToPhysical(raw), raw, nil
}

func (t *Tracker) setSpeed(ctx context.Context, speed int) error {
	if err := t.actuator.SetSpeed(ctx, speed); err != nil {
		return &DriverFault{Op: "set speed", Err: err}
	}
	return nil
}

func (t *Tracker) report(raw int, pos, target float64, d Decision) {
	if t.observe == nil {
		return
	}
	t.observe(Sample{
		Raw:      raw,
		Position: pos,
		Target:   target,
		Error:    d.Error,
		Command:  d.Command,
		State:    d.State,
		At:       time.Now(),
	})
}

// wait blocks until the next tick. A nil tick channel only checks ctx.
func wait(ctx context.Context, tick <-chan time.Time) error {
	if tick == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tick:
		return nil
	}
}
