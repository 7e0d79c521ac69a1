// Package service defines the contract every manageable service implements,
// the registry that holds live service instances, and the discovery that
// populates it from compiled-in factories and helper scripts.
package service

import (
	"context"
	"strings"

	"github.com/orkesta/orkesta/internal/runner"
)

// Status is the derived state of a service.
type Status string

const (
	StatusNotInstalled Status = "not_installed"
	StatusStopped      Status = "stopped"
	StatusRunning      Status = "running"
	StatusUnknown      Status = "unknown"
)

// Type classifies a service for grouping in display surfaces.
type Type string

const (
	TypeWebServer Type = "web_server"
	TypeDatabase  Type = "database"
	TypeCache     Type = "cache"
	TypeOther     Type = "other"
)

// Metadata is the presentation identity of a service. It is fixed at
// construction; only the required Name has no default.
type Metadata struct {
	// Name is the unique lowercase key, stable across restarts.
	Name string

	DisplayName string
	Description string
	Icon        string
	Type        Type

	// Port is the informational default port; zero means none.
	Port int
}

// Normalize lowercases the name and fills unset optional fields.
func (m *Metadata) Normalize() {
	m.Name = strings.ToLower(m.Name)
	if m.DisplayName == "" {
		m.DisplayName = strings.ToUpper(m.Name)
	}
	if m.Description == "" {
		m.Description = m.DisplayName + " service"
	}
	if m.Icon == "" {
		m.Icon = "application-x-executable"
	}
	if m.Type == "" {
		m.Type = TypeOther
	}
}

// Service is the uniform capability set the registry manages. Lifecycle
// verbs report expected failures through the Result, never through panics
// or errors; Kind classifies the failure for programmatic callers.
type Service interface {
	Meta() Metadata

	IsInstalled(ctx context.Context) bool
	IsRunning(ctx context.Context) bool

	Install(ctx context.Context) runner.Result
	Uninstall(ctx context.Context) runner.Result
	Start(ctx context.Context) runner.Result
	Stop(ctx context.Context) runner.Result
	Restart(ctx context.Context) runner.Result
	Enable(ctx context.Context) runner.Result
	Disable(ctx context.Context) runner.Result
}

// StatusOf derives the service status from its two predicates. This free
// function is the single source of truth for status; concrete services
// cannot override it. A panicking probe classifies as unknown.
func StatusOf(ctx context.Context, s Service) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			status = StatusUnknown
		}
	}()

	if !s.IsInstalled(ctx) {
		return StatusNotInstalled
	}
	if s.IsRunning(ctx) {
		return StatusRunning
	}
	return StatusStopped
}
