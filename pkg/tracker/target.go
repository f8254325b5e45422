package tracker

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Clamp reports which bound, if any, adjusted a requested target.
type Clamp int

const (
	ClampNone Clamp = iota
	ClampMax
	ClampMin
)

func (c Clamp) String() string {
	switch c {
	case ClampMax:
		return "max"
	case ClampMin:
		return "min"
	default:
		return "none"
	}
}

// ParseTarget turns user input into a target length. Anything that is not a
// finite number yields a *ValidationError.
func ParseTarget(input string) (float64, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return 0, &ValidationError{Input: input, Err: errors.New("empty input")}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ValidationError{Input: input, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Input: input, Err: errors.New("not a finite number")}
	}
	return v, nil
}

// ClampTarget limits a requested target to the physical range. Targets past
// either end are pulled one tolerance inside that end so the deadzone stays
// reachable.
func ClampTarget(cfg Config, requested float64) (float64, Clamp) {
	switch {
	case requested > cfg.PhysicalMax:
		return cfg.PhysicalMax - cfg.Tolerance, ClampMax
	case requested < cfg.PhysicalMin:
		return cfg.PhysicalMin + cfg.Tolerance, ClampMin
	default:
		return requested, ClampNone
	}
}
