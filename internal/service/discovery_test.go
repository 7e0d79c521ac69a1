package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverScripts(t *testing.T) {
	dir := t.TempDir()

	writeScript(t, dir, "apache.sh", "exit 0")
	writeScript(t, dir, "redis.sh", "exit 0")
	writeScript(t, dir, "_common.sh", "exit 0")
	if err := os.WriteFile(filepath.Join(dir, "mysql.sh"), []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "backup.sh"), 0o755); err != nil {
		t.Fatal(err)
	}

	sidecar := `
display_name: Apache HTTP Server
description: Web server
type: web_server
port: 80
`
	if err := os.WriteFile(filepath.Join(dir, "apache.sh.yaml"), []byte(sidecar), 0o644); err != nil {
		t.Fatal(err)
	}

	scripts, err := DiscoverScripts(dir, testLogger())
	if err != nil {
		t.Fatalf("DiscoverScripts: %v", err)
	}

	// Underscore-prefixed helpers, non-executable files, non-.sh files and
	// directories are all skipped.
	if len(scripts) != 2 {
		t.Fatalf("got %d scripts, want 2: %+v", len(scripts), scripts)
	}
	if scripts[0].Name != "apache" || scripts[1].Name != "redis" {
		t.Errorf("names = %q, %q; want apache, redis", scripts[0].Name, scripts[1].Name)
	}

	apache := scripts[0].Meta
	if apache.DisplayName != "Apache HTTP Server" {
		t.Errorf("DisplayName = %q, sidecar not applied", apache.DisplayName)
	}
	if apache.Type != TypeWebServer || apache.Port != 80 {
		t.Errorf("Type/Port = %v/%d, sidecar not applied", apache.Type, apache.Port)
	}

	// No sidecar: normalized defaults.
	redis := scripts[1].Meta
	if redis.DisplayName != "REDIS" || redis.Type != TypeOther {
		t.Errorf("defaults not applied: %+v", redis)
	}
}

func TestDiscoverScripts_MissingDir(t *testing.T) {
	scripts, err := DiscoverScripts(filepath.Join(t.TempDir(), "nope"), testLogger())
	if err != nil {
		t.Fatalf("missing dir should not error, got %v", err)
	}
	if len(scripts) != 0 {
		t.Errorf("got %d scripts from a missing dir", len(scripts))
	}
}

func TestDiscoverScripts_BadSidecar(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "apache.sh", "exit 0")
	if err := os.WriteFile(filepath.Join(dir, "apache.sh.yaml"), []byte(":\tnot yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}

	scripts, err := DiscoverScripts(dir, testLogger())
	if err != nil {
		t.Fatalf("DiscoverScripts: %v", err)
	}
	if len(scripts) != 1 {
		t.Fatalf("got %d scripts, want 1", len(scripts))
	}
	// Broken sidecar falls back to defaults rather than dropping the script.
	if scripts[0].Meta.DisplayName != "APACHE" {
		t.Errorf("DisplayName = %q, want default", scripts[0].Meta.DisplayName)
	}
}
