package tracker

import (
	"fmt"
	"math"
)

// Calibration is a linear fit from raw sensor readings to physical units,
// physical = Slope*raw + Intercept.
type Calibration struct {
	Slope     float64 `json:"slope" yaml:"slope"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
}

// NewCalibration derives the fit from two (raw, physical) calibration pairs.
// The raw axis may run in either direction.
func NewCalibration(rawA int, physA float64, rawB int, physB float64) (Calibration, error) {
	if rawA == rawB {
		return Calibration{}, fmt.Errorf("calibration points share raw value %d", rawA)
	}
	slope := (physB - physA) / float64(rawB-rawA)
	return Calibration{
		Slope:     slope,
		Intercept: physA - slope*float64(rawA),
	}, nil
}

// ToPhysical converts a raw sensor reading to physical units. The raw value is
// not bounds checked; the sensor range is bounded by construction.
func (c Calibration) ToPhysical(raw int) float64 {
	return c.Slope*float64(raw) + c.Intercept
}

// ToRaw is the rounded inverse of ToPhysical.
func (c Calibration) ToRaw(physical float64) int {
	if c.Slope == 0 {
		return 0
	}
	return int(math.Round((physical - c.Intercept) / c.Slope))
}
