package apache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/service"
)

func newFixture(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()

	script := `#!/bin/sh
case "$1" in
vhost-list) echo '[{"hostname":"dev.local","document_root":"/srv/dev","php_version":"8.2","ssl":true,"enabled":true}]' ;;
vhost-details) echo '{"hostname":"dev.local","document_root":"/srv/dev","enabled":true}' ;;
vhost-create) printf '%s' "$*" > "$(dirname "$0")/create.args" ;;
vhost-enable) printf '%s' "$*" > "$(dirname "$0")/enable.args" ;;
ssl-is-enabled) echo true ;;
php-list-versions) echo '["8.1","8.2"]' ;;
*) echo "unknown verb $1" >&2; exit 1 ;;
esac
`
	if err := os.WriteFile(filepath.Join(dir, "apache.sh"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := service.Deps{
		Runner: runner.New(runner.Config{ScriptsDir: dir, Elevation: runner.ElevationNone}, logger),
		Logger: logger,
	}
	return New(deps), dir
}

func TestVHosts(t *testing.T) {
	svc, _ := newFixture(t)

	hosts, err := svc.VHosts(context.Background())
	if err != nil {
		t.Fatalf("VHosts: %v", err)
	}
	if len(hosts) != 1 {
		t.Fatalf("got %d hosts, want 1", len(hosts))
	}
	want := VHost{Hostname: "dev.local", DocumentRoot: "/srv/dev", PHPVersion: "8.2", SSL: true, Enabled: true}
	if hosts[0] != want {
		t.Errorf("host = %+v, want %+v", hosts[0], want)
	}
}

func TestCreateVHost(t *testing.T) {
	svc, dir := newFixture(t)

	res := svc.CreateVHost(context.Background(), "dev.local", "/srv/dev", "8.2")
	if !res.OK {
		t.Fatalf("CreateVHost failed: %s", res.Message)
	}
	args, err := os.ReadFile(filepath.Join(dir, "create.args"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(args); got != "vhost-create dev.local /srv/dev 8.2" {
		t.Errorf("script args = %q", got)
	}
}

func TestCreateVHost_RejectsBadInput(t *testing.T) {
	svc, dir := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		hostname string
		docRoot  string
	}{
		{"bad hostname", "-leading.dash", "/srv/dev"},
		{"empty hostname", "", "/srv/dev"},
		{"relative docroot", "dev.local", "srv/dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.CreateVHost(ctx, tt.hostname, tt.docRoot, "")
			if res.OK {
				t.Fatal("invalid input accepted")
			}
			if res.Kind != runner.KindPrecondition {
				t.Errorf("Kind = %v, want KindPrecondition", res.Kind)
			}
		})
	}

	// Validation failures must never reach the script.
	if _, err := os.Stat(filepath.Join(dir, "create.args")); err == nil {
		t.Error("script was invoked for invalid input")
	}
}

func TestEnableVHost(t *testing.T) {
	svc, dir := newFixture(t)

	res := svc.EnableVHost(context.Background(), "dev.local")
	if !res.OK {
		t.Fatalf("EnableVHost failed: %s", res.Message)
	}
	args, err := os.ReadFile(filepath.Join(dir, "enable.args"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(args), "vhost-enable dev.local") {
		t.Errorf("script args = %q", string(args))
	}
}

func TestSSLEnabled(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	if !svc.SSLEnabled(ctx, "dev.local") {
		t.Error("SSLEnabled = false, want true")
	}
	if svc.SSLEnabled(ctx, "-bad-") {
		t.Error("SSLEnabled accepted an invalid hostname")
	}
}

func TestPHPVersions(t *testing.T) {
	svc, _ := newFixture(t)

	versions, err := svc.PHPVersions(context.Background())
	if err != nil {
		t.Fatalf("PHPVersions: %v", err)
	}
	if len(versions) != 2 || versions[0] != "8.1" {
		t.Errorf("versions = %v", versions)
	}
}

func TestMeta(t *testing.T) {
	svc, _ := newFixture(t)
	meta := svc.Meta()
	if meta.Name != "apache" || meta.Type != service.TypeWebServer || meta.Port != 80 {
		t.Errorf("meta = %+v", meta)
	}
}
