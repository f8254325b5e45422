package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

func TestAngleToSteps(t *testing.T) {
	tests := []struct {
		degrees float64
		want    int
	}{
		{0, 2048},
		{90, 3072},
		{-90, 1024},
		{-180, 0},
		{180, 4095},
		{400, 4095},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, angleToSteps(tt.degrees), "angle %v", tt.degrees)
	}
}

func TestServoDuty(t *testing.T) {
	tests := []struct {
		degrees float64
		want    gpio.Duty
	}{
		{0, 307},
		{90, 410},
		{-90, 205},
		{135, 410},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, servoDuty(tt.degrees), "angle %v", tt.degrees)
	}
}

func TestScaleVoltage(t *testing.T) {
	supply := 3300 * physic.MilliVolt
	tests := []struct {
		v    physic.ElectricPotential
		want int
	}{
		{0, 0},
		{-10 * physic.MilliVolt, 0},
		{1650 * physic.MilliVolt, 2047},
		{supply, 4095},
		{4 * physic.Volt, 4095},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scaleVoltage(tt.v, supply, 4095), "%s", tt.v)
	}
}

func TestShieldPort(t *testing.T) {
	h, err := port(1)
	assert.NoError(t, err)
	assert.Equal(t, shieldPorts[0], h)

	_, err = port(5)
	assert.Error(t, err)
}
