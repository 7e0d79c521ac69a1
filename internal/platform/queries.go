package platform

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const (
	packageQueryTimeout = 10 * time.Second
	unitQueryTimeout    = 5 * time.Second
)

// systemdQuerier is the optional fast path for unit-state queries. The D-Bus
// implementation lives behind a linux build tag; any error falls back to
// shelling out to systemctl.
type systemdQuerier interface {
	activeState(ctx context.Context, unit string) (string, error)
	unitFileState(ctx context.Context, unit string) (string, error)
}

// runQuery executes a read-only probe and returns trimmed stdout. Unlike the
// lifecycle paths this deliberately tolerates non-zero exits: systemctl
// is-active exits 3 for inactive units while still printing the state.
func (p *Platform) runQuery(ctx context.Context, timeout time.Duration, argv ...string) (string, error) {
	if p.runCommand != nil {
		return p.runCommand(ctx, argv...)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	err := cmd.Run()
	return strings.TrimSpace(stdout.String()), err
}

// IsPackageInstalled reports whether name is installed according to the
// detected package manager. This is a heuristic read, not a transactional
// check; any probe failure reports false.
func (p *Platform) IsPackageInstalled(ctx context.Context, name string) bool {
	switch p.PackageManager {
	case PMDnf, PMYum:
		_, err := p.runQuery(ctx, packageQueryTimeout, "rpm", "-q", name)
		return err == nil
	case PMApt:
		out, err := p.runQuery(ctx, packageQueryTimeout, "dpkg", "-l", name)
		return err == nil && strings.Contains(out, "ii")
	case PMPacman:
		_, err := p.runQuery(ctx, packageQueryTimeout, "pacman", "-Q", name)
		return err == nil
	default:
		return false
	}
}

// IsServiceActive reports whether the systemd unit is active. Never errors;
// unreachable systemd reports false.
func (p *Platform) IsServiceActive(ctx context.Context, unit string) bool {
	unit = normalizeUnit(unit)
	if q := p.systemd; q != nil {
		if state, err := q.activeState(ctx, unit); err == nil {
			return state == "active"
		}
	}
	out, _ := p.runQuery(ctx, unitQueryTimeout, "systemctl", "is-active", unit)
	return out == "active"
}

// IsServiceEnabled reports whether the systemd unit starts on boot.
func (p *Platform) IsServiceEnabled(ctx context.Context, unit string) bool {
	unit = normalizeUnit(unit)
	if q := p.systemd; q != nil {
		if state, err := q.unitFileState(ctx, unit); err == nil {
			return state == "enabled"
		}
	}
	out, _ := p.runQuery(ctx, unitQueryTimeout, "systemctl", "is-enabled", unit)
	return out == "enabled"
}

func normalizeUnit(unit string) string {
	if !strings.Contains(unit, ".") {
		return unit + ".service"
	}
	return unit
}
