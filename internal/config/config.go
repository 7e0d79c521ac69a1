// Package config loads the application configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/orkesta/orkesta/internal/runner"
)

// DefaultScriptsDir is where packaged helper scripts are installed.
const DefaultScriptsDir = "/usr/share/orkesta/scripts"

// Config holds user-tunable settings. A missing config file is not an
// error; every field has a usable default.
type Config struct {
	// ScriptsDir is the directory containing helper scripts and their
	// optional metadata sidecars.
	ScriptsDir string `yaml:"scripts_dir"`

	// Elevation selects the privilege-elevation wrapper:
	// auto, gui, terminal or none.
	Elevation runner.Elevation `yaml:"elevation"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MaxOutputBytes caps captured output per command invocation.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// DefaultPath returns the per-user config file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "orkesta", "config.yaml"), nil
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ScriptsDir == "" {
		c.ScriptsDir = DefaultScriptsDir
	}
	if c.Elevation == "" {
		c.Elevation = runner.ElevationAuto
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxOutputBytes == 0 {
		c.MaxOutputBytes = runner.DefaultMaxOutputBytes
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	switch c.Elevation {
	case runner.ElevationAuto, runner.ElevationGUI, runner.ElevationTerminal, runner.ElevationNone:
	default:
		return fmt.Errorf("config: unknown elevation mode %q", c.Elevation)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.MaxOutputBytes < 1024 {
		return errors.New("config: max_output_bytes must be at least 1024")
	}
	return nil
}

// Load reads path, fills defaults, and validates. A missing file yields the
// defaults; a malformed or invalid file is an error.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
