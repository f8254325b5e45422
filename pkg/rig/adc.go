package rig

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/gwillem/potctl/pkg/tracker"
)

const defaultSupplyMilliVolts = 3300

var adcChannels = [4]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADCPot is a potentiometer wiper on a single-ended ADS1115 input. Readings
// are rescaled so the pot supply voltage reads as limit, matching the
// pyboard's 12-bit ADC.
type ADCPot struct {
	pin    ads1x15.PinADC
	supply physic.ElectricPotential
	limit  int
}

func (r *Rig) adcPot(dc DriverConfig, limit int) (tracker.Sensor, error) {
	if dc.Channel < 0 || dc.Channel >= len(adcChannels) {
		return nil, fmt.Errorf("adc channel %d outside 0-3", dc.Channel)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("adc: sensor limit must be positive")
	}
	b, err := r.i2cBus(dc.Bus)
	if err != nil {
		return nil, err
	}

	opts := ads1x15.DefaultOpts
	if dc.Address != 0 {
		opts.I2cAddress = dc.Address
	}
	dev, err := ads1x15.NewADS1115(b, &opts)
	if err != nil {
		return nil, fmt.Errorf("open ads1115: %w", err)
	}

	mv := dc.SupplyMilliVolts
	if mv <= 0 {
		mv = defaultSupplyMilliVolts
	}
	supply := physic.ElectricPotential(mv) * physic.MilliVolt

	pin, err := dev.PinForChannel(adcChannels[dc.Channel], supply, 860*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		return nil, fmt.Errorf("configure adc channel %d: %w", dc.Channel, err)
	}
	r.onClose(pin.Halt)

	return &ADCPot{pin: pin, supply: supply, limit: limit}, nil
}

// Read implements tracker.Sensor.
func (a *ADCPot) Read(ctx context.Context) (int, error) {
	s, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	return scaleVoltage(s.V, a.supply, a.limit), nil
}

// scaleVoltage maps [0, supply] onto [0, limit], clamping out-of-range
// readings.
func scaleVoltage(v, supply physic.ElectricPotential, limit int) int {
	if v <= 0 || supply <= 0 {
		return 0
	}
	if v >= supply {
		return limit
	}
	return int(int64(v) * int64(limit) / int64(supply))
}
