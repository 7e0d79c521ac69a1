package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/goleak"

	"github.com/orkesta/orkesta/internal/runner"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeService is a controllable Service for registry and status tests.
type fakeService struct {
	Base

	meta       Metadata
	installed  bool
	running    bool
	probePanic bool
}

func newFakeService(name string) *fakeService {
	meta := Metadata{Name: name}
	meta.Normalize()
	return &fakeService{meta: meta}
}

func (f *fakeService) Meta() Metadata { return f.meta }

func (f *fakeService) IsInstalled(context.Context) bool {
	if f.probePanic {
		panic("probe exploded")
	}
	return f.installed
}

func (f *fakeService) IsRunning(context.Context) bool {
	if f.probePanic {
		panic("probe exploded")
	}
	return f.running
}

func (f *fakeService) Install(context.Context) runner.Result   { return runner.Success("") }
func (f *fakeService) Uninstall(context.Context) runner.Result { return runner.Success("") }
func (f *fakeService) Start(context.Context) runner.Result     { return runner.Success("") }
func (f *fakeService) Stop(context.Context) runner.Result      { return runner.Success("") }
func (f *fakeService) Restart(context.Context) runner.Result   { return runner.Success("") }
func (f *fakeService) Enable(context.Context) runner.Result    { return runner.Success("") }
func (f *fakeService) Disable(context.Context) runner.Result   { return runner.Success("") }

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name      string
		installed bool
		running   bool
		panics    bool
		want      Status
	}{
		{"not installed", false, false, false, StatusNotInstalled},
		{"not installed but probe says running", false, true, false, StatusNotInstalled},
		{"installed and running", true, true, false, StatusRunning},
		{"installed and stopped", true, false, false, StatusStopped},
		{"probe panic", true, true, true, StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService("fake")
			svc.installed = tt.installed
			svc.running = tt.running
			svc.probePanic = tt.panics

			if got := StatusOf(context.Background(), svc); got != tt.want {
				t.Errorf("StatusOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadataNormalize(t *testing.T) {
	m := Metadata{Name: "Redis"}
	m.Normalize()

	if m.Name != "redis" {
		t.Errorf("Name = %q, want lowercased", m.Name)
	}
	if m.DisplayName != "REDIS" {
		t.Errorf("DisplayName = %q, want uppercased default", m.DisplayName)
	}
	if m.Description != "REDIS service" {
		t.Errorf("Description = %q", m.Description)
	}
	if m.Icon != "application-x-executable" {
		t.Errorf("Icon = %q", m.Icon)
	}
	if m.Type != TypeOther {
		t.Errorf("Type = %v, want TypeOther", m.Type)
	}
	if m.Port != 0 {
		t.Errorf("Port = %d, want 0 (none)", m.Port)
	}

	full := Metadata{Name: "Apache", DisplayName: "Apache", Type: TypeWebServer, Port: 80}
	full.Normalize()
	if full.DisplayName != "Apache" || full.Type != TypeWebServer || full.Port != 80 {
		t.Errorf("explicit fields were overwritten: %+v", full)
	}
}

func TestBaseSerialize_RecoversPanic(t *testing.T) {
	var b Base
	res := b.Serialize(func() runner.Result {
		panic("verb exploded")
	})
	if res.OK {
		t.Fatal("result OK, want failure")
	}
	if res.Message != "verb exploded" {
		t.Errorf("Message = %q, want panic text", res.Message)
	}
}
