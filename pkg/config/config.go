// Package config loads and saves the potctl configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gwillem/potctl/pkg/follow"
	"github.com/gwillem/potctl/pkg/rig"
	"github.com/gwillem/potctl/pkg/tracker"
)

const DefaultConfigFile = "potctl.yaml"

// Config holds the full rig configuration
type Config struct {
	Tracker tracker.Config `json:"tracker" yaml:"tracker"`
	Follow  follow.Config  `json:"follow" yaml:"follow"`
	Rig     rig.Config     `json:"rig" yaml:"rig"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Tracker: tracker.DefaultConfig(),
		Follow:  follow.DefaultConfig(),
		Rig:     rig.DefaultConfig(),
	}
}

// Load reads a YAML file, or JSON when path ends in .json, on top of the
// defaults, so a file only needs the keys it changes. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	// yaml.v3 refuses integer durations, which is how JSON stores them.
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Tracker.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as JSON when path ends in .json, YAML
// otherwise.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Exists returns true if a config file exists at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
