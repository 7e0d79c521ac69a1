package validate

import (
	"strings"
	"testing"
)

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"db_1", false},
		{"wordpress", false},
		{"_staging", false},
		{"A", false},
		{"", true},
		{"1db", true},
		{"db-1", true},
		{"db;drop table x", true},
		{"db name", true},
		{"db`", true},
		{strings.Repeat("a", 64), false},
		{strings.Repeat("a", 65), true},
	}
	for _, tt := range tests {
		err := DatabaseName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("DatabaseName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestUsername(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"webadmin", false},
		{"app_user1", false},
		{"ab", true},
		{"1user", true},
		{"user-name", true},
		{strings.Repeat("u", 32), false},
		{strings.Repeat("u", 33), true},
	}
	for _, tt := range tests {
		err := Username(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Username(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Abcdef12", false},
		{"short1A", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoDigitsHere", true},
	}
	for _, tt := range tests {
		err := Password(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("Password(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestPort(t *testing.T) {
	for _, port := range []int{1, 80, 3306, 65535} {
		if err := Port(port); err != nil {
			t.Errorf("Port(%d) error = %v, want nil", port, err)
		}
	}
	for _, port := range []int{0, -1, 65536} {
		if err := Port(port); err == nil {
			t.Errorf("Port(%d) error = nil, want error", port)
		}
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"example.com", false},
		{"dev.local", false},
		{"my-site.example.org", false},
		{"localhost", false},
		{"", true},
		{"-leading.example.com", true},
		{"trailing-.example.com", true},
		{"bad_host.example.com", true},
		{strings.Repeat("a", 254), true},
	}
	for _, tt := range tests {
		err := Hostname(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Hostname(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestAbsolutePath(t *testing.T) {
	if err := AbsolutePath("/var/www/html"); err != nil {
		t.Errorf("AbsolutePath(/var/www/html) error = %v, want nil", err)
	}
	for _, path := range []string{"", "www/html", "./relative"} {
		if err := AbsolutePath(path); err == nil {
			t.Errorf("AbsolutePath(%q) error = nil, want error", path)
		}
	}
}
