package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/orkesta/orkesta/internal/runner"
)

// Timeout ladder for script verbs: probes answer fast, lifecycle actions get
// half a minute, installs may pull packages for minutes.
const (
	ProbeTimeout   = 10 * time.Second
	ControlTimeout = 30 * time.Second
	InstallTimeout = 600 * time.Second
)

// ScriptService delegates every verb to a helper script, passing the verb as
// the first positional argument. All knowledge about how to install or drive
// the service lives in the script; this type only owns identity, timeouts
// and precondition checks.
type ScriptService struct {
	Base

	meta   Metadata
	script string
	run    *runner.Runner
	logger *slog.Logger
}

// NewScriptService builds a service around a helper script ("apache.sh").
func NewScriptService(meta Metadata, script string, run *runner.Runner, logger *slog.Logger) *ScriptService {
	meta.Normalize()
	return &ScriptService{
		meta:   meta,
		script: script,
		run:    run,
		logger: logger.With("component", "service", "service", meta.Name),
	}
}

func (s *ScriptService) Meta() Metadata { return s.meta }

// Verb invokes the script with an arbitrary sub-verb. Exposed so concrete
// wrappers (vhost management, version switching) can reach verbs beyond the
// base contract without re-implementing script plumbing.
func (s *ScriptService) Verb(ctx context.Context, timeout time.Duration, args ...string) runner.Result {
	return s.run.RunScript(ctx, s.script, args, timeout)
}

// VerbJSON invokes a read verb with --json appended and decodes stdout into
// out. Failures and malformed documents are returned as errors: JSON verbs
// feed data paths, not user-facing messages.
func (s *ScriptService) VerbJSON(ctx context.Context, timeout time.Duration, out any, args ...string) error {
	res := s.run.RunScript(ctx, s.script, append(args, "--json"), timeout)
	if !res.OK {
		return fmt.Errorf("service %s: %s: %s", s.meta.Name, args[0], res.Message)
	}
	if err := json.Unmarshal([]byte(res.Message), out); err != nil {
		return fmt.Errorf("service %s: %s: parse output: %w", s.meta.Name, args[0], err)
	}
	return nil
}

// boolProbe interprets a probe verb whose stdout is "true" or "false".
func (s *ScriptService) boolProbe(ctx context.Context, verb string) bool {
	res := s.run.RunScript(ctx, s.script, []string{verb}, ProbeTimeout)
	return res.OK && strings.EqualFold(strings.TrimSpace(res.Message), "true")
}

func (s *ScriptService) IsInstalled(ctx context.Context) bool {
	return s.boolProbe(ctx, "is-installed")
}

func (s *ScriptService) IsRunning(ctx context.Context) bool {
	return s.boolProbe(ctx, "is-running")
}

func (s *ScriptService) Install(ctx context.Context) runner.Result {
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, InstallTimeout, "install")
	})
}

func (s *ScriptService) Uninstall(ctx context.Context) runner.Result {
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, InstallTimeout, "uninstall")
	})
}

// control runs a lifecycle verb that requires the service to be installed.
// The precondition is checked before any elevation prompt can appear.
func (s *ScriptService) control(ctx context.Context, verb string) runner.Result {
	return s.Serialize(func() runner.Result {
		if !s.IsInstalled(ctx) {
			return runner.Precondition(fmt.Sprintf("%s is not installed", s.meta.DisplayName))
		}
		return s.Verb(ctx, ControlTimeout, verb)
	})
}

func (s *ScriptService) Start(ctx context.Context) runner.Result {
	return s.control(ctx, "start")
}

func (s *ScriptService) Stop(ctx context.Context) runner.Result {
	return s.control(ctx, "stop")
}

func (s *ScriptService) Restart(ctx context.Context) runner.Result {
	return s.control(ctx, "restart")
}

func (s *ScriptService) Enable(ctx context.Context) runner.Result {
	return s.control(ctx, "enable")
}

func (s *ScriptService) Disable(ctx context.Context) runner.Result {
	return s.control(ctx, "disable")
}
