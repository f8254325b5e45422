package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/potctl/pkg/tracker"
)

type MonitorCommand struct {
	Hz int `long:"hz" default:"20" description:"Sample rate"`
}

const (
	headerHeight = 2 // title + blank line
	footerHeight = 3 // status line + help
	borderSize   = 2 // chart border
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	positionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

type sampleMsg struct {
	raw      int
	position float64
	err      error
}

type monitorModel struct {
	ctx      context.Context
	sensor   tracker.Sensor
	cal      tracker.Calibration
	interval time.Duration

	chart  *streamlinechart.Model
	width  int
	height int

	last     sampleMsg
	min, max float64
	samples  int
	quitting bool
}

func newMonitorModel(ctx context.Context, sensor tracker.Sensor, cfg tracker.Config, interval time.Duration) (monitorModel, error) {
	cal, err := cfg.Calibration()
	if err != nil {
		return monitorModel{}, err
	}
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(cfg.PhysicalMin, cfg.PhysicalMax),
	)
	chart.SetStyles(runes.ThinLineStyle, positionStyle)

	return monitorModel{
		ctx:      ctx,
		sensor:   sensor,
		cal:      cal,
		interval: interval,
		chart:    &chart,
	}, nil
}

func (m monitorModel) sample() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		raw, err := m.sensor.Read(m.ctx)
		return sampleMsg{raw: raw, position: m.cal.ToPhysical(raw), err: err}
	})
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m monitorModel) Init() tea.Cmd {
	return m.sample()
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case sampleMsg:
		m.last = msg
		if msg.err != nil {
			return m, m.sample()
		}
		if m.samples == 0 || msg.position < m.min {
			m.min = msg.position
		}
		if m.samples == 0 || msg.position > m.max {
			m.max = msg.position
		}
		m.samples++
		m.chart.Push(msg.position)
		m.chart.Draw()
		return m, m.sample()
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("potctl monitor"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf(" - %s per sample", m.interval)))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	if m.last.err != nil {
		sb.WriteString(errorStyle.Render("read failed: " + m.last.err.Error()))
	} else if m.samples > 0 {
		sb.WriteString(positionStyle.Render(fmt.Sprintf("Current Length: %.2fin", m.last.position)))
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  raw %4d  min %.2fin  max %.2fin", m.last.raw, m.min, m.max)))
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("Press 'q' to quit"))
	sb.WriteString("\n")
	return sb.String()
}

func (c *MonitorCommand) Execute(args []string) error {
	if c.Hz <= 0 {
		return fmt.Errorf("hz must be positive, got %d", c.Hz)
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sensor, err := e.rig.Sensor(ctx)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	model, err := newMonitorModel(ctx, sensor, e.cfg.Tracker, time.Second/time.Duration(c.Hz))
	if err != nil {
		return err
	}

	// keep log lines from tearing the alt screen
	e.logger.Debug("starting monitor", "hz", c.Hz)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}
