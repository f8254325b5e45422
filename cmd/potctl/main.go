package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"

	"github.com/gwillem/potctl/pkg/config"
	"github.com/gwillem/potctl/pkg/rig"
)

type Options struct {
	Config  string `short:"c" long:"config" description:"YAML or JSON config file (default: potctl.yaml if present)"`
	Driver  string `short:"d" long:"driver" choice:"sim" choice:"feetech" choice:"shield" description:"Use this driver for every role"`
	Verbose bool   `short:"v" long:"verbose" description:"Debug logging"`

	Track   TrackCommand   `command:"track" description:"Prompt for stroke lengths and drive the actuator to them"`
	Goto    GotoCommand    `command:"goto" description:"Drive the actuator to one length and exit"`
	Follow  FollowCommand  `command:"follow" description:"Make the servo follow the potentiometer"`
	Stepper StepperCommand `command:"stepper" description:"Run the stepper motor demonstration"`
	Monitor MonitorCommand `command:"monitor" description:"Chart the actuator position live"`
	Ports   PortsCommand   `command:"ports" description:"Pick a serial port, optionally scanning it for bus servos"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func main() {
	parser.LongDescription = "potctl - position control for a pot-feedback linear actuator, a follower servo and a stepper"

	_, err := parser.Parse()
	if err != nil {
		// go-flags has already printed the error
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	if opts.Verbose {
		handler.SetLevel(log.DebugLevel)
	}
	return slog.New(handler)
}

func loadConfig() (*config.Config, error) {
	path := opts.Config
	if path == "" && config.Exists(config.DefaultConfigFile) {
		path = config.DefaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Driver != "" {
		cfg.Rig.UseDriver(opts.Driver)
	}
	return cfg, nil
}

// env is what every command needs: config, logger and the rig.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	rig    *rig.Rig
}

func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	return &env{
		cfg:    cfg,
		logger: logger,
		rig:    rig.New(cfg.Rig, cfg.Tracker, logger),
	}, nil
}

func (e *env) Close() {
	if err := e.rig.Close(); err != nil {
		e.logger.Error("closing rig", "error", err)
	}
}

// signalContext ends on Ctrl-C so the deferred stops still run.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
