package tracker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirection(t *testing.T) {
	assert.Equal(t, 1, Direction(0.5))
	assert.Equal(t, -1, Direction(-0.5))

	// Zero error resolves to +1, including negative zero.
	assert.Equal(t, 1, Direction(0))
	assert.Equal(t, 1, Direction(math.Copysign(0, -1)))
}

func TestStep(t *testing.T) {
	const tol = 0.0625

	tests := []struct {
		name    string
		current float64
		target  float64
		command int
		state   State
	}{
		{"below target", 1.0, 2.0, 50, Tracking},
		{"above target", 3.0, 2.0, -50, Tracking},
		{"on target", 2.0, 2.0, 0, Stopped},
		{"inside band high", 2.05, 2.0, 0, Stopped},
		{"inside band low", 1.95, 2.0, 0, Stopped},
		{"band upper edge", 2.0625, 2.0, 0, Stopped},
		{"band lower edge", 1.9375, 2.0, 0, Stopped},
		{"just outside low", 1.9, 2.0, 50, Tracking},
		{"just outside high", 2.1, 2.0, -50, Tracking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Step(tt.current, tt.target, tol, 50)
			assert.Equal(t, tt.command, d.Command)
			assert.Equal(t, tt.state, d.State)
			assert.InDelta(t, tt.target-tt.current, d.Error, 1e-12)
		})
	}
}

func TestStep_FixedMagnitude(t *testing.T) {
	// Bang-bang: the command does not scale with the error.
	near := Step(1.8, 2.0, 0.0625, 50)
	far := Step(0.0, 3.5, 0.0625, 50)
	assert.Equal(t, near.Command, far.Command)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "tracking", Tracking.String())
}
