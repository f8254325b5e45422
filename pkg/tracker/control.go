package tracker

// State is the tracker's control state.
type State int

const (
	Stopped State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "stopped"
}

// Decision is the outcome of one poll of the control loop.
type Decision struct {
	Command int
	State   State
	Error   float64
}

// Direction returns the sign of a position error. Zero resolves to +1 so the
// result never depends on how a platform signs zero.
func Direction(err float64) int {
	if err >= 0 {
		return 1
	}
	return -1
}

// InBand reports whether current lies within tolerance of target, bounds
// included.
func InBand(current, target, tolerance float64) bool {
	return current <= target+tolerance && current >= target-tolerance
}

// Step is the loop body: a fixed-speed bang-bang law with a symmetric
// deadzone. The command magnitude never depends on the size of the error.
func Step(current, target, tolerance float64, speed int) Decision {
	err := target - current
	if InBand(current, target, tolerance) {
		return Decision{Command: 0, State: Stopped, Error: err}
	}
	return Decision{
		Command: Direction(err) * speed,
		State:   Tracking,
		Error:   err,
	}
}
