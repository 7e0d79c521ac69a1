// Package php manages PHP through its helper script. PHP is versioned
// software rather than a daemon: several versions can be installed side by
// side with one active on the CLI, and extensions are managed per version.
package php

import (
	"context"
	"regexp"
	"time"

	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/service"
)

const scriptName = "php.sh"

// versionInstallTimeout exceeds the regular install timeout because a PHP
// version pulls in a third-party repository and dozens of packages.
const versionInstallTimeout = 900 * time.Second

// fallbackVersions is offered when the script cannot enumerate the
// repository, so the UI always has something to show.
var fallbackVersions = []string{"7.4", "8.0", "8.1", "8.2", "8.3"}

var (
	versionPattern   = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
	extensionPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

type Service struct {
	*service.ScriptService
}

func New(deps service.Deps) *Service {
	meta := service.Metadata{
		Name:        "php",
		DisplayName: "PHP",
		Description: "PHP scripting language runtime",
		Icon:        "application-x-php",
		Type:        service.TypeOther,
	}
	return &Service{
		ScriptService: service.NewScriptService(meta, scriptName, deps.Runner, deps.Logger),
	}
}

func init() {
	service.RegisterFactory("php", func(deps service.Deps) (service.Service, error) {
		return New(deps), nil
	})
}

// InstalledVersions lists the PHP versions present on this machine.
func (s *Service) InstalledVersions(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.VerbJSON(ctx, service.ProbeTimeout, &out, "version-list-installed"); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableVersions lists the versions installable from the configured
// repositories, falling back to a static list when enumeration fails.
func (s *Service) AvailableVersions(ctx context.Context) []string {
	var out []string
	if err := s.VerbJSON(ctx, service.ProbeTimeout, &out, "version-list-available"); err != nil || len(out) == 0 {
		return append([]string(nil), fallbackVersions...)
	}
	return out
}

// ActiveVersion returns the version the php binary currently resolves to.
func (s *Service) ActiveVersion(ctx context.Context) (string, error) {
	var out string
	if err := s.VerbJSON(ctx, service.ProbeTimeout, &out, "version-get-active"); err != nil {
		return "", err
	}
	return out, nil
}

// InstallVersion installs one PHP version alongside any already present.
func (s *Service) InstallVersion(ctx context.Context, version string) runner.Result {
	if !versionPattern.MatchString(version) {
		return runner.Precondition("Invalid PHP version: " + version)
	}
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, versionInstallTimeout, "version-install", version)
	})
}

// UninstallVersion removes one PHP version. The script refuses to remove the
// active version.
func (s *Service) UninstallVersion(ctx context.Context, version string) runner.Result {
	if !versionPattern.MatchString(version) {
		return runner.Precondition("Invalid PHP version: " + version)
	}
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, service.InstallTimeout, "version-uninstall", version)
	})
}

// SwitchVersion makes the given installed version the CLI default.
func (s *Service) SwitchVersion(ctx context.Context, version string) runner.Result {
	if !versionPattern.MatchString(version) {
		return runner.Precondition("Invalid PHP version: " + version)
	}
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, service.ControlTimeout, "version-switch", version)
	})
}

// Extensions lists the extensions of one version, or of the active version
// when version is empty.
func (s *Service) Extensions(ctx context.Context, version string) ([]string, error) {
	args := []string{"extension-list"}
	if version != "" {
		args = append(args, "--version", version)
	}
	var out []string
	if err := s.VerbJSON(ctx, service.ProbeTimeout, &out, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// InstallExtension installs an extension for one version, or for the active
// version when version is empty.
func (s *Service) InstallExtension(ctx context.Context, name, version string) runner.Result {
	if !extensionPattern.MatchString(name) {
		return runner.Precondition("Invalid extension name: " + name)
	}
	if version != "" && !versionPattern.MatchString(version) {
		return runner.Precondition("Invalid PHP version: " + version)
	}
	return s.Serialize(func() runner.Result {
		args := []string{"extension-install", name}
		if version != "" {
			args = append(args, "--version", version)
		}
		return s.Verb(ctx, service.InstallTimeout, args...)
	})
}

// UninstallExtension removes an extension for one version, or for the active
// version when version is empty.
func (s *Service) UninstallExtension(ctx context.Context, name, version string) runner.Result {
	if !extensionPattern.MatchString(name) {
		return runner.Precondition("Invalid extension name: " + name)
	}
	if version != "" && !versionPattern.MatchString(version) {
		return runner.Precondition("Invalid PHP version: " + version)
	}
	return s.Serialize(func() runner.Result {
		args := []string{"extension-uninstall", name}
		if version != "" {
			args = append(args, "--version", version)
		}
		return s.Verb(ctx, service.InstallTimeout, args...)
	})
}
