package rig

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/potctl/pkg/follow"
	"github.com/gwillem/potctl/pkg/tracker"
)

const (
	feetechBaud = 1_000_000

	// STS3215 resolution and centre
	feetechStepsPerRev = 4096
	feetechCenter      = 2048

	defaultMaxVelocity = 2400
)

// bus opens the serial bus on port once and shares it between roles.
func (r *Rig) bus(port string) (*feetech.Bus, error) {
	if port == "" {
		return nil, fmt.Errorf("feetech: no serial port configured")
	}
	if b, ok := r.buses[port]; ok {
		return b, nil
	}

	b, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: feetechBaud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	r.buses[port] = b
	r.onClose(b.Close)
	r.logger.Info("feetech bus opened", "port", port)
	return b, nil
}

func (r *Rig) feetechServoOn(dc DriverConfig) (*feetech.Servo, error) {
	b, err := r.bus(dc.Port)
	if err != nil {
		return nil, err
	}
	id := dc.ID
	if id == 0 {
		id = 1
	}
	return feetech.NewServo(b, id, nil), nil
}

// FeetechPot reads a bus servo with torque disabled, turning its horn into
// a 12-bit potentiometer.
type FeetechPot struct {
	servo *feetech.Servo
}

func (r *Rig) feetechPot(ctx context.Context, dc DriverConfig) (tracker.Sensor, error) {
	s, err := r.feetechServoOn(dc)
	if err != nil {
		return nil, err
	}
	if err := s.Disable(ctx); err != nil {
		return nil, fmt.Errorf("disable torque on servo %d: %w", dc.ID, err)
	}
	return &FeetechPot{servo: s}, nil
}

// Read implements tracker.Sensor.
func (p *FeetechPot) Read(ctx context.Context) (int, error) {
	pos, err := p.servo.Position(ctx)
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	return pos, nil
}

// FeetechWheel runs a bus servo in velocity mode as a DC motor.
type FeetechWheel struct {
	servo       *feetech.Servo
	maxVelocity int
}

func (r *Rig) feetechWheel(ctx context.Context, dc DriverConfig) (tracker.Actuator, error) {
	s, err := r.feetechServoOn(dc)
	if err != nil {
		return nil, err
	}

	// Operating mode can only change with torque off.
	if err := s.Disable(ctx); err != nil {
		return nil, fmt.Errorf("disable torque: %w", err)
	}
	if err := s.SetOperatingMode(ctx, feetech.ModeVelocity); err != nil {
		return nil, fmt.Errorf("set velocity mode: %w", err)
	}
	if err := s.Enable(ctx); err != nil {
		return nil, fmt.Errorf("enable torque: %w", err)
	}

	w := &FeetechWheel{servo: s, maxVelocity: dc.MaxVelocity}
	if w.maxVelocity <= 0 {
		w.maxVelocity = defaultMaxVelocity
	}
	r.onClose(func() error {
		ctx := context.Background()
		if err := s.SetVelocity(ctx, 0); err != nil {
			return err
		}
		return s.Disable(ctx)
	})
	return w, nil
}

// SetSpeed implements tracker.Actuator. speed is a percentage of
// maxVelocity.
func (w *FeetechWheel) SetSpeed(ctx context.Context, speed int) error {
	speed = min(max(speed, -100), 100)
	if err := w.servo.SetVelocity(ctx, speed*w.maxVelocity/100); err != nil {
		return fmt.Errorf("set velocity: %w", err)
	}
	return nil
}

// FeetechServo moves a bus servo in position mode to an angle.
type FeetechServo struct {
	servo *feetech.Servo
}

func (r *Rig) feetechServo(ctx context.Context, dc DriverConfig) (follow.Servo, error) {
	s, err := r.feetechServoOn(dc)
	if err != nil {
		return nil, err
	}
	if err := s.Enable(ctx); err != nil {
		return nil, fmt.Errorf("enable torque: %w", err)
	}
	r.onClose(func() error {
		return s.Disable(context.Background())
	})
	return &FeetechServo{servo: s}, nil
}

// SetAngle implements follow.Servo.
func (f *FeetechServo) SetAngle(ctx context.Context, degrees float64) error {
	return f.servo.SetPositionWithTime(ctx, angleToSteps(degrees), 0)
}

// angleToSteps converts degrees from centre to a raw servo position.
func angleToSteps(degrees float64) int {
	steps := feetechCenter + int(math.Round(degrees*feetechStepsPerRev/360))
	return min(max(steps, 0), feetechStepsPerRev-1)
}

// FoundServo is a servo answering on a bus, with its present position.
type FoundServo struct {
	ID       int
	Position int
}

// Scan lists the servos with IDs in [first, last] on port.
func (r *Rig) Scan(ctx context.Context, port string, first, last int) ([]FoundServo, error) {
	b, err := r.bus(port)
	if err != nil {
		return nil, err
	}
	found, err := b.Scan(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", port, err)
	}

	out := make([]FoundServo, 0, len(found))
	for _, f := range found {
		pos, err := feetech.NewServo(b, f.ID, f.Model).Position(ctx)
		if err != nil {
			return nil, fmt.Errorf("read servo %d: %w", f.ID, err)
		}
		out = append(out, FoundServo{ID: f.ID, Position: pos})
	}
	return out, nil
}
