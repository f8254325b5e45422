// Package stepper drives a two-winding bipolar stepper motor through an
// H-bridge, one step at a time.
package stepper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// StepsPerRev is the full-step count of the kit motors.
	StepsPerRev = 200

	// Microsteps is the number of microsteps per full step.
	Microsteps = 16

	// one electrical cycle is four full steps
	cycle = 4 * Microsteps
)

// Direction of rotation.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Style selects how the windings are energised on each step.
type Style int

const (
	// Single energises one winding at a time.
	Single Style = iota
	// Double energises both windings for more torque.
	Double
	// Interleave alternates single and double, giving half steps.
	Interleave
	// Microstep drives sine/cosine currents in Microsteps increments.
	Microstep
)

var styleNames = map[Style]string{
	Single:     "single",
	Double:     "double",
	Interleave: "interleave",
	Microstep:  "microstep",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle parses a style name, case-insensitively.
func ParseStyle(name string) (Style, error) {
	for s, n := range styleNames {
		if strings.EqualFold(name, n) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown step style %q", name)
}

// StepsPerRev returns how many OneStep calls make one revolution.
func (s Style) StepsPerRev() int {
	switch s {
	case Interleave:
		return 2 * StepsPerRev
	case Microstep:
		return Microsteps * StepsPerRev
	default:
		return StepsPerRev
	}
}

// Coils sets the drive level of both windings, each in [-1, 1]. The sign
// selects current direction and 0 leaves the winding unpowered.
type Coils interface {
	SetCoils(ctx context.Context, a, b float64) error
}

// Motor tracks the electrical phase of a stepper.
type Motor struct {
	coils Coils
	phase int // in microsteps, [0, cycle)
}

// NewMotor creates a motor at phase zero.
func NewMotor(coils Coils) *Motor {
	return &Motor{coils: coils}
}

// Phase returns the electrical phase in microsteps.
func (m *Motor) Phase() int {
	return m.phase
}

// OneStep advances the motor by one step of the given style. It blocks only
// for the coil write; callers pace successive steps.
func (m *Motor) OneStep(ctx context.Context, dir Direction, style Style) error {
	half := Microsteps / 2
	if style != Microstep {
		// microstepping may have left the rotor between half steps
		m.phase = (m.phase + half/2) / half * half % cycle
	}

	var delta int
	switch style {
	case Single:
		// land on a one-winding phase (even multiple of a half step)
		delta = Microsteps
		if (m.phase/half)%2 == 1 {
			delta = half
		}
	case Double:
		// land on a two-winding phase (odd multiple of a half step)
		delta = Microsteps
		if (m.phase/half)%2 == 0 {
			delta = half
		}
	case Interleave:
		delta = half
	case Microstep:
		delta = 1
	default:
		return fmt.Errorf("unknown step style %d", style)
	}

	m.phase = ((m.phase+int(dir)*delta)%cycle + cycle) % cycle
	a, b := levels(m.phase, style == Microstep)
	return m.coils.SetCoils(ctx, a, b)
}

// levels returns the winding drive for a phase: cosine on winding A, sine
// on winding B. Outside microstepping the drive is full on or off.
func levels(phase int, micro bool) (float64, float64) {
	theta := float64(phase) * (math.Pi / 2) / Microsteps
	a, b := math.Cos(theta), math.Sin(theta)
	if micro {
		return a, b
	}
	return quantize(a), quantize(b)
}

func quantize(v float64) float64 {
	switch {
	case v > 1e-9:
		return 1
	case v < -1e-9:
		return -1
	default:
		return 0
	}
}

// Release de-energises both windings.
func (m *Motor) Release(ctx context.Context) error {
	return m.coils.SetCoils(context.WithoutCancel(ctx), 0, 0)
}

// Move takes steps steps, pausing delay between them, and releases the
// windings on every exit path.
func (m *Motor) Move(ctx context.Context, steps int, dir Direction, style Style, delay time.Duration) (err error) {
	defer func() {
		if relErr := m.Release(ctx); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release coils: %w", relErr))
		}
	}()

	for i := 0; i < steps; i++ {
		if err := m.OneStep(ctx, dir, style); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if delay <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}

// Sequence is one leg of a scripted demonstration.
type Sequence struct {
	Label string
	Steps int
	Dir   Direction
	Style Style
	Delay time.Duration
}

// Demo is the classroom demonstration: single steps in each of the basic
// styles, then one revolution single-stepped at 30rpm and one revolution
// microstepped.
func Demo() []Sequence {
	return []Sequence{
		{"one step forward, single", 1, Forward, Single, 0},
		{"one step backward, double", 1, Backward, Double, 0},
		{"one revolution forward, single", Single.StepsPerRev(), Forward, Single, 10 * time.Millisecond},
		{"one revolution backward, microstep", Microstep.StepsPerRev(), Backward, Microstep, time.Millisecond},
	}
}

// Run plays sequences in order. onStart, when set, is called before each.
func (m *Motor) Run(ctx context.Context, seqs []Sequence, onStart func(Sequence)) error {
	for _, s := range seqs {
		if onStart != nil {
			onStart(s)
		}
		if err := m.Move(ctx, s.Steps, s.Dir, s.Style, s.Delay); err != nil {
			return fmt.Errorf("%s: %w", s.Label, err)
		}
	}
	return nil
}
