package rig

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gwillem/potctl/pkg/tracker"
)

// ErrSimFault is returned by the simulator once its fault budget is spent.
var ErrSimFault = errors.New("simulated driver fault")

// SimConfig describes the simulated linear actuator.
type SimConfig struct {
	// Start is the initial length.
	Start float64 `json:"start" yaml:"start"`

	// Rate is the travel per second at 100% speed. The HDA4-2 moves about
	// 0.5in/s at full speed.
	Rate float64 `json:"rate" yaml:"rate"`

	// Tick, when set, advances simulated time by a fixed step on every read
	// instead of following the wall clock.
	Tick time.Duration `json:"tick,omitempty" yaml:"tick,omitempty"`

	// Noise is the peak amplitude, in raw counts, of a deterministic
	// jitter added to each reading.
	Noise int `json:"noise,omitempty" yaml:"noise,omitempty"`

	// FailAfter makes the read after this many successful reads fail.
	FailAfter int `json:"fail_after,omitempty" yaml:"fail_after,omitempty"`
}

// DefaultSimConfig starts the simulated actuator half extended.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Start: 2.0,
		Rate:  0.5,
	}
}

// Plant is a simulated lead-screw actuator with a potentiometer on its
// stroke. It implements both tracker.Sensor and tracker.Actuator.
type Plant struct {
	mu sync.Mutex

	cfg      SimConfig
	cal      tracker.Calibration
	min, max float64
	limit    int

	position float64
	speed    int
	last     time.Time
	now      func() time.Time
	reads    int
	commands []int
}

// NewPlant creates a plant whose pot follows trk's calibration.
func NewPlant(cfg SimConfig, trk tracker.Config) (*Plant, error) {
	cal, err := trk.Calibration()
	if err != nil {
		return nil, fmt.Errorf("sim calibration: %w", err)
	}
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("sim rate must be positive, got %f", cfg.Rate)
	}
	p := &Plant{
		cfg:   cfg,
		cal:   cal,
		min:   trk.PhysicalMin,
		max:   trk.PhysicalMax,
		limit: trk.SensorLimit,
		now:   time.Now,
	}
	p.position = p.clamp(cfg.Start)
	p.last = p.now()
	return p, nil
}

// Read implements tracker.Sensor.
func (p *Plant) Read(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.FailAfter > 0 && p.reads >= p.cfg.FailAfter {
		return 0, ErrSimFault
	}
	p.reads++
	p.advance()

	raw := p.cal.ToRaw(p.position)
	if p.cfg.Noise > 0 {
		raw += int(math.Round(float64(p.cfg.Noise) * math.Sin(float64(p.reads)*1.7)))
	}
	return min(max(raw, 0), p.limit), nil
}

// SetSpeed implements tracker.Actuator.
func (p *Plant) SetSpeed(ctx context.Context, speed int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.Tick == 0 {
		p.advance()
	}
	p.speed = min(max(speed, -100), 100)
	p.commands = append(p.commands, speed)
	return nil
}

// Position returns the true simulated length.
func (p *Plant) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Speed returns the last commanded speed.
func (p *Plant) Speed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// Commands returns every speed command received, in order.
func (p *Plant) Commands() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.commands...)
}

func (p *Plant) advance() {
	var dt time.Duration
	if p.cfg.Tick > 0 {
		dt = p.cfg.Tick
	} else {
		now := p.now()
		dt = now.Sub(p.last)
		p.last = now
	}
	p.position = p.clamp(p.position + p.cfg.Rate*float64(p.speed)/100*dt.Seconds())
}

// clamp holds the plant against its end stops.
func (p *Plant) clamp(v float64) float64 {
	return min(max(v, p.min), p.max)
}

// SimServo records the last angle it was sent.
type SimServo struct {
	mu    sync.Mutex
	angle float64
	moves int
}

// SetAngle implements follow.Servo.
func (s *SimServo) SetAngle(ctx context.Context, degrees float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angle = degrees
	s.moves++
	return nil
}

// Angle returns the last commanded angle and how many commands were sent.
func (s *SimServo) Angle() (float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle, s.moves
}

// SimCoils records winding levels.
type SimCoils struct {
	mu     sync.Mutex
	a, b   float64
	writes int
}

// SetCoils implements stepper.Coils.
func (c *SimCoils) SetCoils(ctx context.Context, a, b float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.a, c.b = a, b
	c.writes++
	return nil
}

// Levels returns the current winding levels and the write count.
func (c *SimCoils) Levels() (a, b float64, writes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.a, c.b, c.writes
}
