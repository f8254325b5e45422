package rig

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseDriver(t *testing.T) {
	tests := []struct {
		driver                         string
		sensor, actuator, servo, coils string
	}{
		{DriverSim, DriverSim, DriverSim, DriverSim, DriverSim},
		{DriverFeetech, DriverFeetech, DriverFeetech, DriverFeetech, DriverSim},
		{DriverShield, DriverADS1115, DriverShield, DriverShield, DriverShield},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.UseDriver(tt.driver)
			assert.Equal(t, tt.sensor, cfg.Sensor.Driver)
			assert.Equal(t, tt.actuator, cfg.Actuator.Driver)
			assert.Equal(t, tt.servo, cfg.Servo.Driver)
			assert.Equal(t, tt.coils, cfg.Stepper.Driver)
		})
	}
}

func TestRig_SimSharesPlant(t *testing.T) {
	r := New(DefaultConfig(), testTracker(), nil)
	defer r.Close()

	ctx := context.Background()
	sensor, err := r.Sensor(ctx)
	require.NoError(t, err)
	act, err := r.Actuator(ctx)
	require.NoError(t, err)

	p, err := r.Plant()
	require.NoError(t, err)
	assert.Same(t, p, sensor)
	assert.Same(t, p, act)

	_, err = r.Servo(ctx)
	require.NoError(t, err)
	_, err = r.Coils(ctx)
	require.NoError(t, err)
}

func TestRig_Unsupported(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Sensor.Driver = "bogus"
	cfg.Actuator.Driver = DriverADS1115
	cfg.Servo.Driver = DriverADS1115
	cfg.Stepper.Driver = DriverFeetech
	r := New(cfg, testTracker(), nil)

	_, err := r.Sensor(ctx)
	assert.ErrorContains(t, err, `unsupported driver "bogus"`)
	_, err = r.Actuator(ctx)
	assert.Error(t, err)
	_, err = r.Servo(ctx)
	assert.Error(t, err)
	_, err = r.Coils(ctx)
	assert.Error(t, err)
}

// Wiring errors are caught before any bus is opened.
func TestRig_BadWiring(t *testing.T) {
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Sensor = DriverConfig{Driver: DriverFeetech}
	cfg.Actuator = DriverConfig{Driver: DriverShield, Channel: 0}
	cfg.Servo = DriverConfig{Driver: DriverShield, Channel: 16}
	cfg.Stepper = DriverConfig{Driver: DriverShield, Channel: 3}
	r := New(cfg, testTracker(), nil)

	_, err := r.Sensor(ctx)
	assert.ErrorContains(t, err, "no serial port")
	_, err = r.Actuator(ctx)
	assert.ErrorContains(t, err, "motor port 0")
	_, err = r.Servo(ctx)
	assert.ErrorContains(t, err, "pwm channel 16")
	_, err = r.Coils(ctx)
	assert.ErrorContains(t, err, "stepper port 3")

	cfg.Sensor = DriverConfig{Driver: DriverADS1115, Channel: 4}
	_, err = New(cfg, testTracker(), nil).Sensor(ctx)
	assert.ErrorContains(t, err, "adc channel 4")
}

func TestRig_CloseOrder(t *testing.T) {
	r := New(DefaultConfig(), testTracker(), nil)

	var order []int
	first := errors.New("first")
	r.onClose(func() error { order = append(order, 1); return first })
	r.onClose(func() error { order = append(order, 2); return nil })

	err := r.Close()
	assert.ErrorIs(t, err, first)
	assert.Equal(t, []int{2, 1}, order)

	require.NoError(t, r.Close(), "closers run once")
}
