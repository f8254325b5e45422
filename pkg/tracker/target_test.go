package tracker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"2", 2},
		{"1.5", 1.5},
		{"  3.25\n", 3.25},
		{"-1", -1},
		{"1e0", 1},
	}

	for _, tt := range tests {
		got, err := ParseTarget(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, got, "input %q", tt.input)
	}
}

func TestParseTarget_Invalid(t *testing.T) {
	for _, input := range []string{"abc", "", "   ", "1.2.3", "NaN", "inf", "-Inf", "2in"} {
		_, err := ParseTarget(input)
		require.Error(t, err, "input %q", input)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "input %q", input)
		assert.Equal(t, input, verr.Input)
		assert.ErrorIs(t, err, ErrInvalidTarget)
	}
}

func TestClampTarget(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		requested float64
		expected  float64
		clamp     Clamp
	}{
		{"above max", 5.0, 3.8675, ClampMax},
		{"just above max", 3.9301, 3.8675, ClampMax},
		{"below min", -1.0, 0.0625, ClampMin},
		{"at max", 3.93, 3.93, ClampNone},
		{"at min", 0.0, 0.0, ClampNone},
		{"inside", 2.0, 2.0, ClampNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamp := ClampTarget(cfg, tt.requested)
			assert.Equal(t, tt.clamp, clamp)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("ClampTarget(%f) = %f, want %f", tt.requested, got, tt.expected)
			}
		})
	}
}

func TestClampTarget_InsideIsExact(t *testing.T) {
	cfg := DefaultConfig()
	for v := cfg.PhysicalMin; v <= cfg.PhysicalMax; v += 0.01 {
		got, clamp := ClampTarget(cfg, v)
		if got != v || clamp != ClampNone {
			t.Fatalf("ClampTarget(%v) = %v, %v", v, got, clamp)
		}
	}
}

func TestClamp_String(t *testing.T) {
	assert.Equal(t, "none", ClampNone.String())
	assert.Equal(t, "max", ClampMax.String())
	assert.Equal(t, "min", ClampMin.String())
}
