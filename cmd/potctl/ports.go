package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/potctl/pkg/config"
	"github.com/gwillem/potctl/pkg/rig"
)

type PortsCommand struct {
	Scan bool `long:"scan" description:"Scan the chosen port for bus servos (IDs 1-253)"`
	Save bool `long:"save" description:"Wire the chosen port into the config file as the feetech port"`
}

func (c *PortsCommand) Execute(args []string) error {
	ports, err := rig.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		return fmt.Errorf("no serial ports found; is the board plugged in?")
	}

	port := ports[0]
	if len(ports) > 1 {
		var options []huh.Option[string]
		for _, p := range ports {
			options = append(options, huh.NewOption(p, p))
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which port?").
					Options(options...).
					Value(&port),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}
	}
	fmt.Println(port)

	if c.Scan {
		if err := scanPort(port); err != nil {
			return err
		}
	}
	if c.Save {
		return savePort(port)
	}
	return nil
}

func scanPort(port string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	found, err := e.rig.Scan(ctx, port, 1, 253)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println(dimStyle.Render("No servos answered."))
		return nil
	}

	rows := make([][]string, 0, len(found))
	for _, s := range found {
		rows = append(rows, []string{strconv.Itoa(s.ID), strconv.Itoa(s.Position)})
	}
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
	fmt.Println(t.Render())
	return nil
}

func savePort(port string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, dc := range []*rig.DriverConfig{&cfg.Rig.Sensor, &cfg.Rig.Actuator, &cfg.Rig.Servo} {
		dc.Port = port
	}

	path := opts.Config
	if path == "" {
		path = config.DefaultConfigFile
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Saved to " + path))
	return nil
}
