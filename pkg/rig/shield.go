package rig

import (
	"context"
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"

	"github.com/gwillem/potctl/pkg/follow"
	"github.com/gwillem/potctl/pkg/stepper"
	"github.com/gwillem/potctl/pkg/tracker"
)

const (
	shieldMotorFreq = 1600 * physic.Hertz
	servoFreq       = 50 * physic.Hertz

	// 12-bit counter; bit 12 in the on or off register forces the output
	pwmMax  = 4095
	pwmFull = 4096
)

// hbridge is one motor port of the shield: a PWM channel for speed and two
// direction inputs.
type hbridge struct {
	pwm, in1, in2 int
}

// Motor ports M1-M4 in Adafruit motor shield v2 order.
var shieldPorts = [4]hbridge{
	{pwm: 8, in1: 10, in2: 9},
	{pwm: 13, in1: 11, in2: 12},
	{pwm: 2, in1: 4, in2: 3},
	{pwm: 7, in1: 5, in2: 6},
}

func (r *Rig) shield(dc DriverConfig, freq physic.Frequency) (*pca9685.Dev, error) {
	addr := dc.Address
	if addr == 0 {
		addr = pca9685.I2CAddr
	}
	key := fmt.Sprintf("%s@%#x", dc.Bus, addr)
	if d, ok := r.shields[key]; ok {
		if r.shieldFreq[key] != freq {
			return nil, fmt.Errorf("pca9685 %s already running at %s", key, r.shieldFreq[key])
		}
		return d, nil
	}

	b, err := r.i2cBus(dc.Bus)
	if err != nil {
		return nil, err
	}
	d, err := pca9685.NewI2C(b, addr)
	if err != nil {
		return nil, fmt.Errorf("open pca9685 at %#x: %w", addr, err)
	}
	if err := d.SetPwmFreq(freq); err != nil {
		return nil, fmt.Errorf("set pwm frequency: %w", err)
	}
	r.shields[key] = d
	r.shieldFreq[key] = freq
	r.onClose(func() error {
		// all outputs off: motors coast, coils de-energise
		return d.SetAllPwm(0, pwmFull)
	})
	return d, nil
}

func port(channel int) (hbridge, error) {
	// channel is the 1-based motor port printed on the board
	if channel < 1 || channel > len(shieldPorts) {
		return hbridge{}, fmt.Errorf("motor port %d outside 1-%d", channel, len(shieldPorts))
	}
	return shieldPorts[channel-1], nil
}

// drive sets the bridge to a signed level in [-1, 1].
func (h hbridge) drive(d *pca9685.Dev, level float64) error {
	level = min(max(level, -1), 1)
	switch {
	case level > 0:
		if err := setPin(d, h.in2, false); err != nil {
			return err
		}
		if err := setPin(d, h.in1, true); err != nil {
			return err
		}
	case level < 0:
		if err := setPin(d, h.in1, false); err != nil {
			return err
		}
		if err := setPin(d, h.in2, true); err != nil {
			return err
		}
	default:
		if err := setPin(d, h.in1, false); err != nil {
			return err
		}
		if err := setPin(d, h.in2, false); err != nil {
			return err
		}
	}
	duty := gpio.Duty(math.Round(math.Abs(level) * pwmMax))
	return d.SetPwm(h.pwm, 0, duty)
}

func setPin(d *pca9685.Dev, channel int, high bool) error {
	if high {
		return d.SetPwm(channel, pwmFull, 0)
	}
	return d.SetPwm(channel, 0, pwmFull)
}

// ShieldMotor is a DC motor (or linear actuator) on one shield port.
type ShieldMotor struct {
	dev    *pca9685.Dev
	bridge hbridge
}

func (r *Rig) shieldMotor(dc DriverConfig) (tracker.Actuator, error) {
	h, err := port(dc.Channel)
	if err != nil {
		return nil, err
	}
	d, err := r.shield(dc, shieldMotorFreq)
	if err != nil {
		return nil, err
	}
	return &ShieldMotor{dev: d, bridge: h}, nil
}

// SetSpeed implements tracker.Actuator. speed is in percent, sign selects
// direction.
func (m *ShieldMotor) SetSpeed(ctx context.Context, speed int) error {
	if err := m.bridge.drive(m.dev, float64(speed)/100); err != nil {
		return fmt.Errorf("drive motor: %w", err)
	}
	return nil
}

// ShieldStepper drives a stepper on two adjacent ports (M1+M2 or M3+M4).
type ShieldStepper struct {
	dev  *pca9685.Dev
	a, b hbridge
}

func (r *Rig) shieldStepper(dc DriverConfig) (stepper.Coils, error) {
	var a, b hbridge
	switch dc.Channel {
	case 0, 1:
		a, b = shieldPorts[0], shieldPorts[1]
	case 2:
		a, b = shieldPorts[2], shieldPorts[3]
	default:
		return nil, fmt.Errorf("stepper port %d outside 1-2", dc.Channel)
	}
	d, err := r.shield(dc, shieldMotorFreq)
	if err != nil {
		return nil, err
	}
	return &ShieldStepper{dev: d, a: a, b: b}, nil
}

// SetCoils implements stepper.Coils.
func (s *ShieldStepper) SetCoils(ctx context.Context, a, b float64) error {
	if err := s.a.drive(s.dev, a); err != nil {
		return fmt.Errorf("coil a: %w", err)
	}
	if err := s.b.drive(s.dev, b); err != nil {
		return fmt.Errorf("coil b: %w", err)
	}
	return nil
}

// ShieldServo is a hobby servo on a raw PWM channel of the shield.
type ShieldServo struct {
	dev     *pca9685.Dev
	channel int
}

func (r *Rig) shieldServo(dc DriverConfig) (follow.Servo, error) {
	if dc.Channel < 0 || dc.Channel > 15 {
		return nil, fmt.Errorf("pwm channel %d outside 0-15", dc.Channel)
	}
	d, err := r.shield(dc, servoFreq)
	if err != nil {
		return nil, err
	}
	return &ShieldServo{dev: d, channel: dc.Channel}, nil
}

// SetAngle implements follow.Servo.
func (s *ShieldServo) SetAngle(ctx context.Context, degrees float64) error {
	return s.dev.SetPwm(s.channel, 0, servoDuty(degrees))
}

// servoDuty maps -90..90 degrees onto a 1.0-2.0ms pulse in a 20ms frame.
func servoDuty(degrees float64) gpio.Duty {
	degrees = min(max(degrees, -90), 90)
	pulse := 1.5 + degrees/180 // ms
	return gpio.Duty(math.Round(pulse / 20 * (pwmMax + 1)))
}
