// Package potctl drives a potentiometer-feedback linear actuator to
// requested stroke lengths, with a servo that follows a pot and a stepper
// demonstration on the same hardware.
//
// # Installation
//
//	go install github.com/gwillem/potctl/cmd/potctl@latest
//
// # Usage
//
// Every command runs on the simulator unless a driver is chosen:
//
//	potctl track
//	potctl --driver feetech --config rig.yaml goto 2.5
//	potctl --driver shield follow
//	potctl stepper --style microstep --revs 2
//	potctl monitor
//	potctl ports --scan --save
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/potctl: CLI
//   - pkg/tracker: calibration, deadzone control loop and the interactive session
//   - pkg/follow: servo follows potentiometer
//   - pkg/stepper: stepper winding sequences
//   - pkg/rig: feetech bus servos, PCA9685 motor shield, ADS1115 and simulator
//   - pkg/console: line-oriented user channel over a terminal or serial port
//   - pkg/config: YAML/JSON configuration file
package potctl
