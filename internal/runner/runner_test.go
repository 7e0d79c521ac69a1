package runner

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T, dir string) *Runner {
	t.Helper()
	return New(Config{ScriptsDir: dir, Elevation: ElevationNone}, testLogger())
}

func TestRunScript_NotFound(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(t, dir)

	res := r.RunScript(context.Background(), "missing.sh", []string{"install"}, time.Second)
	if res.OK {
		t.Fatal("result OK, want failure")
	}
	if res.Kind != KindNotFound {
		t.Errorf("Kind = %v, want KindNotFound", res.Kind)
	}
	wantPath := filepath.Join(dir, "missing.sh")
	if !strings.Contains(res.Message, wantPath) {
		t.Errorf("Message = %q, want it to contain %q", res.Message, wantPath)
	}
}

func TestRunScript_SuccessWithOutput(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "apache.sh", "#!/bin/sh\necho '  true  '\n")
	r := newTestRunner(t, dir)

	res := r.RunScript(context.Background(), "apache.sh", []string{"is-installed"}, time.Second)
	if !res.OK {
		t.Fatalf("result = %+v, want OK", res)
	}
	if res.Message != "true" {
		t.Errorf("Message = %q, want trimmed %q", res.Message, "true")
	}
}

func TestRunScript_SuccessEmptyOutputUsesDefaultMessage(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "quiet.sh", "#!/bin/sh\nexit 0\n")
	r := newTestRunner(t, dir)

	res := r.RunScript(context.Background(), "quiet.sh", []string{"start"}, time.Second)
	if !res.OK {
		t.Fatalf("result = %+v, want OK", res)
	}
	if res.Message != MsgSuccess {
		t.Errorf("Message = %q, want %q", res.Message, MsgSuccess)
	}
}

func TestRunScript_AuthCancelled(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"lowercase cancelled", "#!/bin/sh\necho 'request cancelled by user' >&2\nexit 126\n"},
		{"uppercase cancelled", "#!/bin/sh\necho 'Request CANCELLED' >&2\nexit 1\n"},
		{"authentication failed", "#!/bin/sh\necho 'polkit: Authentication Failed' >&2\nexit 127\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScript(t, dir, "svc.sh", tt.script)
			r := newTestRunner(t, dir)

			res := r.RunScript(context.Background(), "svc.sh", []string{"install"}, time.Second)
			if res.OK {
				t.Fatal("result OK, want failure")
			}
			if res.Kind != KindAuthCancelled {
				t.Errorf("Kind = %v, want KindAuthCancelled", res.Kind)
			}
			if res.Message != MsgAuthCancelled {
				t.Errorf("Message = %q, want %q", res.Message, MsgAuthCancelled)
			}
		})
	}
}

func TestRunScript_FailureMessages(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"stderr preferred", "#!/bin/sh\necho out\necho 'boom' >&2\nexit 1\n", "boom"},
		{"stdout fallback", "#!/bin/sh\necho 'only stdout'\nexit 1\n", "only stdout"},
		{"no output", "#!/bin/sh\nexit 1\n", MsgUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScript(t, dir, "svc.sh", tt.script)
			r := newTestRunner(t, dir)

			res := r.RunScript(context.Background(), "svc.sh", []string{"install"}, time.Second)
			if res.OK {
				t.Fatal("result OK, want failure")
			}
			if res.Kind != KindCommandFailed {
				t.Errorf("Kind = %v, want KindCommandFailed", res.Kind)
			}
			if res.Message != tt.want {
				t.Errorf("Message = %q, want %q", res.Message, tt.want)
			}
		})
	}
}

func TestRunScript_Timeout(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "slow.sh", "#!/bin/sh\nsleep 5\n")
	r := newTestRunner(t, dir)

	start := time.Now()
	res := r.RunScript(context.Background(), "slow.sh", []string{"install"}, 100*time.Millisecond)
	if res.OK {
		t.Fatal("result OK, want timeout failure")
	}
	if res.Kind != KindTimeout {
		t.Errorf("Kind = %v, want KindTimeout", res.Kind)
	}
	if res.Message != MsgTimeout {
		t.Errorf("Message = %q, want exact sentinel %q", res.Message, MsgTimeout)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout enforcement took %v", elapsed)
	}
}

func TestRunScript_TruncatesOversizedOutput(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "loud.sh", "#!/bin/sh\ni=0\nwhile [ $i -lt 200 ]; do echo 'aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa'; i=$((i+1)); done\n")
	r := New(Config{ScriptsDir: dir, Elevation: ElevationNone, MaxOutputBytes: 1024}, testLogger())

	res := r.RunScript(context.Background(), "loud.sh", []string{"log-view"}, 5*time.Second)
	if !res.OK {
		t.Fatalf("result = %+v, want OK", res)
	}
	if !strings.Contains(res.Message, "[truncated]") {
		t.Error("oversized output missing truncation marker")
	}
	if len(res.Message) > 1024+len(truncationSuffix) {
		t.Errorf("message length = %d, want capped near 1024", len(res.Message))
	}
}

func TestRunScript_FailureMessageTruncatedForUsers(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("e", 500)
	writeScript(t, dir, "svc.sh", "#!/bin/sh\necho '"+long+"' >&2\nexit 1\n")
	r := newTestRunner(t, dir)

	res := r.RunScript(context.Background(), "svc.sh", []string{"install"}, time.Second)
	if len(res.Message) > maxUserMessageLen {
		t.Errorf("failure message length = %d, want <= %d", len(res.Message), maxUserMessageLen)
	}
}

func TestRunScript_ReadOnlyVerbBypassesElevation(t *testing.T) {
	// With gui elevation a non-allowlisted verb would be wrapped in pkexec,
	// which either does not exist here or cannot prompt; the read-only verb
	// must run the script directly and succeed.
	dir := t.TempDir()
	writeScript(t, dir, "apache.sh", "#!/bin/sh\necho true\n")
	r := New(Config{ScriptsDir: dir, Elevation: ElevationGUI}, testLogger())

	res := r.RunScript(context.Background(), "apache.sh", []string{"is-installed"}, time.Second)
	if !res.OK {
		t.Fatalf("read-only verb under gui elevation failed: %+v", res)
	}
	if res.Message != "true" {
		t.Errorf("Message = %q, want %q", res.Message, "true")
	}
}

func TestRunScript_NotExecutable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, dir)

	res := r.RunScript(context.Background(), "plain.sh", []string{"install"}, time.Second)
	if res.OK {
		t.Fatal("result OK, want failure")
	}
	if res.Kind != KindPrecondition {
		t.Errorf("Kind = %v, want KindPrecondition", res.Kind)
	}
	if !strings.Contains(res.Message, path) {
		t.Errorf("Message = %q, want it to contain %q", res.Message, path)
	}
}

func TestRunRedacted_KeepsSecretOutOfLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := New(Config{ScriptsDir: t.TempDir(), Elevation: ElevationNone}, logger)

	const password = "S3cretHunter2xyz"
	stmt := "ALTER USER 'root'@'localhost' IDENTIFIED BY '" + password + "'"
	res := r.RunRedacted(context.Background(), []string{"true", "-e", stmt}, []string{password}, time.Second)
	if !res.OK {
		t.Fatalf("result = %+v, want OK", res)
	}
	if strings.Contains(buf.String(), password) {
		t.Error("secret appeared in log output")
	}
	if !strings.Contains(buf.String(), redactedPlaceholder) {
		t.Error("log output missing redaction placeholder")
	}
}

func TestRunRedacted_MasksSecretInFailureMessage(t *testing.T) {
	r := newTestRunner(t, t.TempDir())

	const password = "S3cretHunter2xyz"
	argv := []string{"sh", "-c", "echo \"access denied for " + password + "\" >&2; exit 1"}
	res := r.RunRedacted(context.Background(), argv, []string{password}, time.Second)
	if res.OK {
		t.Fatal("result OK, want failure")
	}
	if strings.Contains(res.Message, password) {
		t.Errorf("secret appeared in failure message: %q", res.Message)
	}
	if !strings.Contains(res.Message, redactedPlaceholder) {
		t.Errorf("Message = %q, want redaction placeholder", res.Message)
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	if got := truncate("short", maxUserMessageLen); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}

	// 3-byte runes: the 200-byte cut lands mid-rune and must back off.
	s := strings.Repeat("€", 100)
	got := truncate(s, maxUserMessageLen)
	if len(got) > maxUserMessageLen {
		t.Errorf("len = %d, want <= %d", len(got), maxUserMessageLen)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got)
	}
}

func TestRun_CommandNotFound(t *testing.T) {
	r := newTestRunner(t, t.TempDir())
	res := r.Run(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, time.Second)
	if res.OK || res.Kind != KindNotFound {
		t.Errorf("result = %+v, want KindNotFound failure", res)
	}
	if !strings.Contains(res.Message, "definitely-not-a-real-binary-xyz") {
		t.Errorf("Message = %q, want it to name the binary", res.Message)
	}
}

func TestRunUnprivileged(t *testing.T) {
	r := newTestRunner(t, t.TempDir())
	res := r.RunUnprivileged(context.Background(), []string{"true"}, time.Second)
	if !res.OK {
		t.Fatalf("result = %+v, want OK", res)
	}
	if res.Message != MsgSuccess {
		t.Errorf("Message = %q, want %q", res.Message, MsgSuccess)
	}
}

func TestIsReadOnlyVerb(t *testing.T) {
	readOnly := []string{
		"is-installed", "is-running", "vhost-list", "database-list",
		"user-list", "extension-list", "version-get-active", "php-get-active",
		"version-list-installed", "version-list-available", "vhost-details",
		"ssl-is-enabled", "php-list-versions", "status-info", "get-version",
		"config-get", "log-tail", "log-view",
	}
	for _, verb := range readOnly {
		if !IsReadOnlyVerb(verb) {
			t.Errorf("IsReadOnlyVerb(%q) = false, want true", verb)
		}
	}
	privileged := []string{
		"install", "uninstall", "start", "stop", "restart", "enable",
		"disable", "vhost-create", "vhost-delete", "version-switch",
		"ssl-enable", "php-switch", "",
	}
	for _, verb := range privileged {
		if IsReadOnlyVerb(verb) {
			t.Errorf("IsReadOnlyVerb(%q) = true, want false", verb)
		}
	}
}

func TestElevationPrefix(t *testing.T) {
	if got := (&Config{Elevation: ElevationGUI}).prefix(); len(got) != 1 || got[0] != "pkexec" {
		t.Errorf("gui prefix = %v, want [pkexec]", got)
	}
	if got := (&Config{Elevation: ElevationTerminal}).prefix(); len(got) != 1 || got[0] != "sudo" {
		t.Errorf("terminal prefix = %v, want [sudo]", got)
	}
	if got := (&Config{Elevation: ElevationNone}).prefix(); got != nil {
		t.Errorf("none prefix = %v, want nil", got)
	}

	t.Setenv("DISPLAY", ":0")
	t.Setenv("WAYLAND_DISPLAY", "")
	if got := (&Config{Elevation: ElevationAuto}).prefix(); len(got) != 1 || got[0] != "pkexec" {
		t.Errorf("auto prefix with DISPLAY = %v, want [pkexec]", got)
	}
	t.Setenv("DISPLAY", "")
	if got := (&Config{Elevation: ElevationAuto}).prefix(); len(got) != 1 || got[0] != "sudo" {
		t.Errorf("auto prefix without display = %v, want [sudo]", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := Config{Elevation: "dialog", MaxOutputBytes: DefaultMaxOutputBytes}
	if err := bad.Validate(); err == nil {
		t.Error("unknown elevation mode should fail validation")
	}
	small := Config{Elevation: ElevationNone, MaxOutputBytes: 100}
	if err := small.Validate(); err == nil {
		t.Error("tiny output cap should fail validation")
	}
}
