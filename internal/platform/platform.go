// Package platform detects the host operating system family and package
// manager once at startup and answers read-only questions about installed
// packages and systemd units. A Platform value is immutable after Detect
// returns and is shared by reference into every service.
package platform

import (
	"context"
	"log/slog"
	"os/exec"
)

// OSType identifies the detected operating system family.
type OSType string

const (
	OSFedora  OSType = "fedora"
	OSDebian  OSType = "debian"
	OSUbuntu  OSType = "ubuntu"
	OSArch    OSType = "arch"
	OSUnknown OSType = "unknown"
)

// PackageManager identifies the package manager backend in use.
type PackageManager string

const (
	PMDnf     PackageManager = "dnf"
	PMYum     PackageManager = "yum"
	PMApt     PackageManager = "apt"
	PMPacman  PackageManager = "pacman"
	PMUnknown PackageManager = "unknown"
)

// Platform is the immutable snapshot of host identity produced by Detect.
type Platform struct {
	OSType         OSType
	PackageManager PackageManager
	OSName         string
	OSVersion      string
	KernelVersion  string
	Architecture   string

	logger *slog.Logger

	// Probe seams, overridable in tests. Nil means the real implementation.
	lookPath   func(string) (string, error)
	runCommand func(ctx context.Context, argv ...string) (string, error)
	systemd    systemdQuerier
}

func (p *Platform) look(name string) (string, error) {
	if p.lookPath != nil {
		return p.lookPath(name)
	}
	return exec.LookPath(name)
}

func (p *Platform) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// Info returns the snapshot as a flat map for display surfaces.
func (p *Platform) Info() map[string]string {
	return map[string]string{
		"os_type":         string(p.OSType),
		"os_name":         p.OSName,
		"os_version":      p.OSVersion,
		"kernel_version":  p.KernelVersion,
		"package_manager": string(p.PackageManager),
		"architecture":    p.Architecture,
	}
}
