// Package follow makes a servo track the angle of a potentiometer.
package follow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Sensor reads the potentiometer.
type Sensor interface {
	Read(ctx context.Context) (int, error)
}

// Servo moves to an angle in degrees, 0 being centred.
type Servo interface {
	SetAngle(ctx context.Context, degrees float64) error
}

// Config describes the pot range and the allowed servo travel.
type Config struct {
	SensorMax int           `json:"sensor_max" yaml:"sensor_max"`
	Center    int           `json:"center" yaml:"center"`
	AngleMin  float64       `json:"angle_min" yaml:"angle_min"`
	AngleMax  float64       `json:"angle_max" yaml:"angle_max"`
	Interval  time.Duration `json:"interval" yaml:"interval"`
}

// DefaultConfig maps the 12-bit ADC onto +/-75 degrees, refreshed every 10ms.
func DefaultConfig() Config {
	return Config{
		SensorMax: 4095,
		Center:    2048,
		AngleMin:  -75,
		AngleMax:  75,
		Interval:  10 * time.Millisecond,
	}
}

// Mapping is the linear pot-to-angle transfer function.
type Mapping struct {
	Slope     float64
	Intercept float64
	Min, Max  float64
}

// NewMapping builds the mapping for cfg. The pot centre maps to 0 degrees.
func NewMapping(cfg Config) (Mapping, error) {
	if cfg.SensorMax <= 0 {
		return Mapping{}, fmt.Errorf("sensor_max must be positive, got %d", cfg.SensorMax)
	}
	if cfg.AngleMax <= cfg.AngleMin {
		return Mapping{}, fmt.Errorf("angle_max %.1f must exceed angle_min %.1f", cfg.AngleMax, cfg.AngleMin)
	}
	slope := (cfg.AngleMax - cfg.AngleMin) / float64(cfg.SensorMax)
	return Mapping{
		Slope:     slope,
		Intercept: -slope * float64(cfg.Center),
		Min:       cfg.AngleMin,
		Max:       cfg.AngleMax,
	}, nil
}

// Angle converts a pot reading to a servo angle within [Min, Max].
func (m Mapping) Angle(raw int) float64 {
	angle := m.Slope*float64(raw) + m.Intercept
	return min(max(angle, m.Min), m.Max)
}

// Reading is one pot sample and the angle sent for it.
type Reading struct {
	Raw   int
	Angle float64
}

// Follower copies the pot position onto the servo.
type Follower struct {
	cfg     Config
	mapping Mapping
	sensor  Sensor
	servo   Servo
	logger  *slog.Logger

	// OnReading, when set, receives every reading.
	OnReading func(Reading)
}

// New creates a follower.
func New(cfg Config, sensor Sensor, servo Servo, logger *slog.Logger) (*Follower, error) {
	m, err := NewMapping(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Follower{
		cfg:     cfg,
		mapping: m,
		sensor:  sensor,
		servo:   servo,
		logger:  logger,
	}, nil
}

// Step reads the pot once and moves the servo to match.
func (f *Follower) Step(ctx context.Context) (Reading, error) {
	raw, err := f.sensor.Read(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("read pot: %w", err)
	}
	r := Reading{Raw: raw, Angle: f.mapping.Angle(raw)}
	if err := f.servo.SetAngle(ctx, r.Angle); err != nil {
		return r, fmt.Errorf("set servo angle: %w", err)
	}
	if f.OnReading != nil {
		f.OnReading(r)
	}
	return r, nil
}

// Run steps every Interval until ctx ends or a driver fails.
func (f *Follower) Run(ctx context.Context) error {
	ticker := time.NewTicker(max(f.cfg.Interval, time.Millisecond))
	defer ticker.Stop()

	f.logger.Info("following pot", "interval", f.cfg.Interval, "min", f.mapping.Min, "max", f.mapping.Max)
	for {
		if _, err := f.Step(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			f.logger.Info("follow stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
