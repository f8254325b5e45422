package tracker

import (
	"fmt"
	"time"
)

// Config holds the compiled-in constants of a linear actuator rig. It is
// copied into the tracker at construction and never mutated afterwards.
type Config struct {
	// SensorMin is the raw reading at PhysicalMin, SensorMax the raw reading
	// at PhysicalMax. The raw axis is inverted on the MCHE201 actuators.
	SensorMin   int     `json:"sensor_min" yaml:"sensor_min"`
	SensorMax   int     `json:"sensor_max" yaml:"sensor_max"`
	PhysicalMin float64 `json:"physical_min" yaml:"physical_min"`
	PhysicalMax float64 `json:"physical_max" yaml:"physical_max"`

	// Tolerance is the half-width of the deadzone around the target.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// FixedSpeed is the magnitude of every motion command, in percent.
	FixedSpeed int `json:"fixed_speed" yaml:"fixed_speed"`

	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// SensorLimit is the largest value the sensor driver can return.
	SensorLimit int `json:"sensor_limit" yaml:"sensor_limit"`
}

// DefaultConfig returns the constants of the MCHE201 kit linear actuator
// (HDA4-2, 4in stroke) read through the 12-bit pyboard ADC.
func DefaultConfig() Config {
	return Config{
		SensorMin:    4065,
		SensorMax:    185,
		PhysicalMin:  0.0,
		PhysicalMax:  3.93,
		Tolerance:    0.0625,
		FixedSpeed:   50,
		PollInterval: time.Millisecond,
		SensorLimit:  4095,
	}
}

// Validate checks that the configuration describes a usable rig.
func (c Config) Validate() error {
	if c.SensorMin == c.SensorMax {
		return fmt.Errorf("%w: sensor_min and sensor_max are both %d", ErrConfig, c.SensorMin)
	}
	if c.PhysicalMax <= c.PhysicalMin {
		return fmt.Errorf("%w: physical_max %.4f must exceed physical_min %.4f", ErrConfig, c.PhysicalMax, c.PhysicalMin)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive", ErrConfig)
	}
	if 2*c.Tolerance > c.PhysicalMax-c.PhysicalMin {
		return fmt.Errorf("%w: tolerance band %.4f does not fit the physical range", ErrConfig, c.Tolerance)
	}
	if c.FixedSpeed <= 0 || c.FixedSpeed > 100 {
		return fmt.Errorf("%w: fixed_speed %d outside (0, 100]", ErrConfig, c.FixedSpeed)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("%w: negative poll_interval", ErrConfig)
	}
	return nil
}

// Calibration derives the linear fit described by the config.
func (c Config) Calibration() (Calibration, error) {
	return NewCalibration(c.SensorMin, c.PhysicalMin, c.SensorMax, c.PhysicalMax)
}
