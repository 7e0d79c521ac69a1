// Package runner executes external commands and helper scripts with a
// bounded timeout, optionally under privilege elevation, and reduces every
// outcome to a uniform Result.
package runner

import (
	"errors"
	"fmt"
	"os"
)

// Elevation selects the privilege-elevation wrapper prefixed to commands
// that are not on the read-only allowlist.
type Elevation string

const (
	// ElevationAuto picks pkexec when a graphical session is detected
	// (DISPLAY or WAYLAND_DISPLAY set) and sudo otherwise.
	ElevationAuto Elevation = "auto"
	// ElevationGUI always uses the polkit agent so a password dialog can
	// be shown.
	ElevationGUI Elevation = "gui"
	// ElevationTerminal always uses sudo.
	ElevationTerminal Elevation = "terminal"
	// ElevationNone runs commands as the current user. Intended for tests
	// and for sessions already running as root.
	ElevationNone Elevation = "none"
)

// DefaultMaxOutputBytes caps captured output per invocation (1 MiB).
const DefaultMaxOutputBytes = 1 << 20

// Config holds runner settings.
type Config struct {
	// ScriptsDir is the directory relative script names resolve against.
	ScriptsDir string

	// Elevation is the wrapper policy. Default: auto.
	Elevation Elevation

	// MaxOutputBytes caps captured stdout and stderr, each.
	// Must be at least 1024. Default: 1 MiB.
	MaxOutputBytes int64
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Elevation == "" {
		c.Elevation = ElevationAuto
	}
	if c.MaxOutputBytes == 0 {
		c.MaxOutputBytes = DefaultMaxOutputBytes
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	switch c.Elevation {
	case ElevationAuto, ElevationGUI, ElevationTerminal, ElevationNone:
	default:
		return fmt.Errorf("runner: config: unknown elevation mode %q", c.Elevation)
	}
	if c.MaxOutputBytes < 1024 {
		return errors.New("runner: config: MaxOutputBytes must be at least 1024")
	}
	return nil
}

// prefix returns the argv elevation prefix for the configured mode.
func (c *Config) prefix() []string {
	switch c.Elevation {
	case ElevationGUI:
		return []string{"pkexec"}
	case ElevationTerminal:
		return []string{"sudo"}
	case ElevationNone:
		return nil
	default:
		if os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != "" {
			return []string{"pkexec"}
		}
		return []string{"sudo"}
	}
}
