// Package rig binds the sensor and actuator interfaces to real drivers: bus
// servos, a PCA9685 motor shield, an ADS1115 ADC, or a simulated actuator.
package rig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"

	"github.com/gwillem/potctl/pkg/follow"
	"github.com/gwillem/potctl/pkg/stepper"
	"github.com/gwillem/potctl/pkg/tracker"
)

// Driver names accepted in DriverConfig.Driver.
const (
	DriverSim     = "sim"
	DriverFeetech = "feetech"
	DriverShield  = "shield"
	DriverADS1115 = "ads1115"
)

// Config selects a driver per role.
type Config struct {
	Sensor   DriverConfig `json:"sensor" yaml:"sensor"`
	Actuator DriverConfig `json:"actuator" yaml:"actuator"`
	Servo    DriverConfig `json:"servo" yaml:"servo"`
	Stepper  DriverConfig `json:"stepper" yaml:"stepper"`
	Sim      SimConfig    `json:"sim" yaml:"sim"`
}

// DriverConfig holds the wiring of one role. Fields not used by the chosen
// driver are ignored.
type DriverConfig struct {
	Driver string `json:"driver" yaml:"driver"`

	// feetech
	Port        string `json:"port,omitempty" yaml:"port,omitempty"`
	ID          int    `json:"id,omitempty" yaml:"id,omitempty"`
	MaxVelocity int    `json:"max_velocity,omitempty" yaml:"max_velocity,omitempty"`

	// shield and ads1115
	Bus     string `json:"bus,omitempty" yaml:"bus,omitempty"`
	Address uint16 `json:"address,omitempty" yaml:"address,omitempty"`
	Channel int    `json:"channel,omitempty" yaml:"channel,omitempty"`

	// ads1115: pot supply voltage, read as full scale
	SupplyMilliVolts int `json:"supply_mv,omitempty" yaml:"supply_mv,omitempty"`
}

// DefaultConfig runs every role on the simulator.
func DefaultConfig() Config {
	return Config{
		Sensor:   DriverConfig{Driver: DriverSim},
		Actuator: DriverConfig{Driver: DriverSim},
		Servo:    DriverConfig{Driver: DriverSim},
		Stepper:  DriverConfig{Driver: DriverSim},
		Sim:      DefaultSimConfig(),
	}
}

// UseDriver switches every role the driver can serve, as the --driver flag
// does.
func (c *Config) UseDriver(driver string) {
	c.Sensor.Driver = driver
	c.Actuator.Driver = driver
	c.Servo.Driver = driver
	if driver != DriverFeetech {
		c.Stepper.Driver = driver
	}
	if driver == DriverShield {
		// the shield has no position input; pair it with the ADC
		c.Sensor.Driver = DriverADS1115
	}
}

// Rig opens drivers on demand and shares buses between roles.
type Rig struct {
	cfg     Config
	tracker tracker.Config
	logger  *slog.Logger

	plant   *Plant
	buses   map[string]*feetech.Bus
	i2c     map[string]i2c.BusCloser
	shields map[string]*pca9685.Dev
	// PWM frequency per shield; motors and servos cannot share one
	shieldFreq map[string]physic.Frequency
	closers    []func() error
}

// New creates a rig. Nothing is opened until a role is requested. trk
// provides the calibration the simulator reports readings with.
func New(cfg Config, trk tracker.Config, logger *slog.Logger) *Rig {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rig{
		cfg:     cfg,
		tracker: trk,
		logger:  logger,
		buses:   make(map[string]*feetech.Bus),
		i2c:     make(map[string]i2c.BusCloser),
		shields: make(map[string]*pca9685.Dev),

		shieldFreq: make(map[string]physic.Frequency),
	}
}

// Plant returns the simulated actuator, creating it on first use.
func (r *Rig) Plant() (*Plant, error) {
	if r.plant != nil {
		return r.plant, nil
	}
	p, err := NewPlant(r.cfg.Sim, r.tracker)
	if err != nil {
		return nil, err
	}
	r.plant = p
	return p, nil
}

// Sensor opens the position sensor.
func (r *Rig) Sensor(ctx context.Context) (tracker.Sensor, error) {
	dc := r.cfg.Sensor
	r.logger.Debug("opening sensor", "driver", dc.Driver)
	switch dc.Driver {
	case DriverSim, "":
		p, err := r.Plant()
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverFeetech:
		return r.feetechPot(ctx, dc)
	case DriverADS1115:
		return r.adcPot(dc, r.tracker.SensorLimit)
	default:
		return nil, fmt.Errorf("sensor: unsupported driver %q", dc.Driver)
	}
}

// Actuator opens the speed-controlled actuator.
func (r *Rig) Actuator(ctx context.Context) (tracker.Actuator, error) {
	dc := r.cfg.Actuator
	r.logger.Debug("opening actuator", "driver", dc.Driver)
	switch dc.Driver {
	case DriverSim, "":
		p, err := r.Plant()
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverFeetech:
		return r.feetechWheel(ctx, dc)
	case DriverShield:
		return r.shieldMotor(dc)
	default:
		return nil, fmt.Errorf("actuator: unsupported driver %q", dc.Driver)
	}
}

// Servo opens the positional servo used by follow.
func (r *Rig) Servo(ctx context.Context) (follow.Servo, error) {
	dc := r.cfg.Servo
	r.logger.Debug("opening servo", "driver", dc.Driver)
	switch dc.Driver {
	case DriverSim, "":
		return &SimServo{}, nil
	case DriverFeetech:
		return r.feetechServo(ctx, dc)
	case DriverShield:
		return r.shieldServo(dc)
	default:
		return nil, fmt.Errorf("servo: unsupported driver %q", dc.Driver)
	}
}

// Coils opens the stepper windings.
func (r *Rig) Coils(ctx context.Context) (stepper.Coils, error) {
	dc := r.cfg.Stepper
	r.logger.Debug("opening stepper", "driver", dc.Driver)
	switch dc.Driver {
	case DriverSim, "":
		return &SimCoils{}, nil
	case DriverShield:
		return r.shieldStepper(dc)
	default:
		return nil, fmt.Errorf("stepper: unsupported driver %q", dc.Driver)
	}
}

// Close releases every opened driver and bus, most recent first.
func (r *Rig) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close rig: %w", errors.Join(errs...))
	}
	return nil
}

func (r *Rig) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}
