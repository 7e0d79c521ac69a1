package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// waitDelayAfterKill is the grace period for a process to exit after context
// cancellation before it is forcibly killed.
const waitDelayAfterKill = 500 * time.Millisecond

// maxUserMessageLen caps failure text echoed back through user-facing strings.
const maxUserMessageLen = 200

// readOnlyVerbs are script sub-verbs that only read state and therefore run
// without elevation, avoiding a pointless password prompt.
var readOnlyVerbs = map[string]struct{}{
	"is-installed":      {},
	"is-running":        {},
	"status-info":       {},
	"get-version":       {},
	"config-get":        {},
	"log-tail":          {},
	"log-view":          {},
	"ssl-is-enabled":    {},
	"php-list-versions": {},
}

// readOnlySuffixes extend the allowlist to whole verb classes.
var readOnlySuffixes = []string{
	"-list",
	"-get-active",
	"-list-installed",
	"-list-available",
	"-details",
	"-is-enabled",
}

// IsReadOnlyVerb reports whether a script sub-verb may run unprivileged.
func IsReadOnlyVerb(verb string) bool {
	if _, ok := readOnlyVerbs[verb]; ok {
		return true
	}
	for _, suffix := range readOnlySuffixes {
		if strings.HasSuffix(verb, suffix) {
			return true
		}
	}
	return false
}

// Runner executes helper scripts and system commands. It performs zero
// validation of argument content; injection safety sits with callers, which
// must pass validated values and never shell strings.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Runner with defaults applied.
func New(cfg Config, logger *slog.Logger) *Runner {
	cfg.ApplyDefaults()
	return &Runner{
		cfg:    cfg,
		logger: logger.With("component", "runner"),
	}
}

// RunScript invokes a helper script with a sub-verb as its first argument.
// Relative script names resolve against the configured scripts directory.
// The read-only allowlist decides elevation; everything else runs wrapped.
func (r *Runner) RunScript(ctx context.Context, script string, args []string, timeout time.Duration) Result {
	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.cfg.ScriptsDir, script)
	}

	info, err := os.Stat(path)
	if err != nil {
		r.logger.Error("script not found", "path", path)
		return Failure(KindNotFound, fmt.Sprintf("Script file not found: %s", path))
	}
	if info.Mode().Perm()&0o111 == 0 {
		r.logger.Error("script not executable", "path", path)
		return Precondition(fmt.Sprintf("Script file not executable: %s", path))
	}

	elevate := true
	if len(args) > 0 && IsReadOnlyVerb(args[0]) {
		elevate = false
	}

	argv := make([]string, 0, len(args)+2)
	if elevate {
		argv = append(argv, r.cfg.prefix()...)
	}
	argv = append(argv, path)
	argv = append(argv, args...)

	return r.execute(ctx, argv, timeout, nil)
}

// Run invokes a system command (package manager, systemctl) under elevation.
func (r *Runner) Run(ctx context.Context, argv []string, timeout time.Duration) Result {
	return r.runCommand(ctx, argv, timeout, true, nil)
}

// RunRedacted is Run for invocations whose argv carries secret values (a
// generated password in a SQL statement). Each secret is masked wherever it
// appears in log output and in the returned message, so credentials never
// reach the log stream or a user-facing error.
func (r *Runner) RunRedacted(ctx context.Context, argv []string, secrets []string, timeout time.Duration) Result {
	return r.runCommand(ctx, argv, timeout, true, secrets)
}

// RunUnprivileged invokes a system command as the current user.
func (r *Runner) RunUnprivileged(ctx context.Context, argv []string, timeout time.Duration) Result {
	return r.runCommand(ctx, argv, timeout, false, nil)
}

func (r *Runner) runCommand(ctx context.Context, argv []string, timeout time.Duration, elevate bool, secrets []string) Result {
	if len(argv) == 0 {
		return Precondition("No command given")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		r.logger.Error("command not found", "command", argv[0])
		return Failure(KindNotFound, fmt.Sprintf("Command not found: %s", argv[0]))
	}

	full := argv
	if elevate {
		if prefix := r.cfg.prefix(); len(prefix) > 0 {
			full = append(append([]string{}, prefix...), argv...)
		}
	}
	return r.execute(ctx, full, timeout, secrets)
}

// execute spawns argv, captures capped stdout and stderr separately, enforces
// the timeout, and maps the outcome to a Result. Nothing is retried. Every
// secret is masked in log output and in the captured streams before anything
// else sees them.
func (r *Runner) execute(parent context.Context, argv []string, timeout time.Duration, secrets []string) Result {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	r.logger.Info("executing", "argv", redact(strings.Join(argv, " "), secrets), "timeout", timeout)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = waitDelayAfterKill

	stdoutW := newLimitedWriter(r.cfg.MaxOutputBytes)
	stderrW := newLimitedWriter(r.cfg.MaxOutputBytes)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	runErr := cmd.Run()

	stdout := redact(strings.TrimSpace(collectOutput(stdoutW)), secrets)
	stderr := redact(strings.TrimSpace(collectOutput(stderrW)), secrets)

	if runErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.logger.Error("command timed out", "command", argv[0], "timeout", timeout)
		return Failure(KindTimeout, MsgTimeout)
	}

	if runErr == nil {
		return Success(stdout)
	}

	message := stderr
	if message == "" {
		message = stdout
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) && message == "" {
		// Spawn failure rather than a non-zero exit.
		message = runErr.Error()
	}
	if message == "" {
		message = MsgUnknownError
	}

	if containsAuthFailure(message) {
		r.logger.Warn("authentication cancelled or failed", "command", argv[0])
		return Failure(KindAuthCancelled, MsgAuthCancelled)
	}

	r.logger.Error("command failed", "command", argv[0], "error", truncate(message, maxUserMessageLen))
	return Failure(KindCommandFailed, truncate(message, maxUserMessageLen))
}

// containsAuthFailure sniffs output for the polkit/sudo cancellation markers.
func containsAuthFailure(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "cancelled") || strings.Contains(lower, "authentication failed")
}

const redactedPlaceholder = "[redacted]"

// redact masks each secret wherever it appears in s.
func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, redactedPlaceholder)
		}
	}
	return s
}

// truncate cuts s at max bytes, backing off to a rune boundary so user-facing
// text is never left with a split multi-byte character.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
