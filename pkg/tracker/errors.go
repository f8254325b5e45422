package tracker

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget is wrapped by every ValidationError.
var ErrInvalidTarget = errors.New("invalid target")

// ErrConfig is wrapped by configuration validation failures.
var ErrConfig = errors.New("invalid tracker config")

// ValidationError reports user input that could not be turned into a target.
// No motion is commanded when it is returned.
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid target %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid target %q", e.Input)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidTarget}
	}
	return []error{ErrInvalidTarget, e.Err}
}

// DriverFault wraps a failure reported by the sensor or actuator driver.
// It is not recoverable by the tracker; the actuator has already been
// stopped when a DriverFault reaches the caller.
type DriverFault struct {
	Op  string // "read" or "set speed"
	Err error
}

func (e *DriverFault) Error() string {
	return fmt.Sprintf("driver fault: %s: %v", e.Op, e.Err)
}

func (e *DriverFault) Unwrap() error {
	return e.Err
}

// IsDriverFault reports whether err carries a DriverFault.
func IsDriverFault(err error) bool {
	var fault *DriverFault
	return errors.As(err, &fault)
}
