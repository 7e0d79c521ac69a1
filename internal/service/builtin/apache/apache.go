// Package apache manages the Apache HTTP server through its helper script,
// adding virtual host, PHP handler and SSL operations on top of the base
// lifecycle contract.
package apache

import (
	"context"
	"strings"

	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/service"
	"github.com/orkesta/orkesta/internal/validate"
)

const scriptName = "apache.sh"

// VHost is one virtual host as reported by the helper script.
type VHost struct {
	Hostname     string `json:"hostname"`
	DocumentRoot string `json:"document_root"`
	PHPVersion   string `json:"php_version,omitempty"`
	SSL          bool   `json:"ssl"`
	Enabled      bool   `json:"enabled"`
}

// Service drives Apache. The lifecycle contract is inherited from the script
// service; the extra verbs below cover vhost and SSL management.
type Service struct {
	*service.ScriptService
}

func New(deps service.Deps) *Service {
	meta := service.Metadata{
		Name:        "apache",
		DisplayName: "Apache",
		Description: "Apache HTTP web server",
		Icon:        "network-server",
		Type:        service.TypeWebServer,
		Port:        80,
	}
	return &Service{
		ScriptService: service.NewScriptService(meta, scriptName, deps.Runner, deps.Logger),
	}
}

func init() {
	service.RegisterFactory("apache", func(deps service.Deps) (service.Service, error) {
		return New(deps), nil
	})
}

// VHosts lists every configured virtual host.
func (s *Service) VHosts(ctx context.Context) ([]VHost, error) {
	var out []VHost
	if err := s.VerbJSON(ctx, service.ProbeTimeout, &out, "vhost-list"); err != nil {
		return nil, err
	}
	return out, nil
}

// VHostDetails returns the full record for one virtual host.
func (s *Service) VHostDetails(ctx context.Context, hostname string) (VHost, error) {
	var out VHost
	if err := validate.Hostname(hostname); err != nil {
		return out, err
	}
	if err := s.VerbJSON(ctx, service.ProbeTimeout, &out, "vhost-details", hostname); err != nil {
		return out, err
	}
	return out, nil
}

// CreateVHost adds a virtual host. phpVersion may be empty, in which case the
// host uses the system default handler.
func (s *Service) CreateVHost(ctx context.Context, hostname, documentRoot, phpVersion string) runner.Result {
	if err := validate.Hostname(hostname); err != nil {
		return runner.Precondition(err.Error())
	}
	if err := validate.AbsolutePath(documentRoot); err != nil {
		return runner.Precondition(err.Error())
	}
	return s.Serialize(func() runner.Result {
		args := []string{"vhost-create", hostname, documentRoot}
		if phpVersion != "" {
			args = append(args, phpVersion)
		}
		return s.Verb(ctx, service.ControlTimeout, args...)
	})
}

func (s *Service) EnableVHost(ctx context.Context, hostname string) runner.Result {
	return s.vhostVerb(ctx, "vhost-enable", hostname)
}

func (s *Service) DisableVHost(ctx context.Context, hostname string) runner.Result {
	return s.vhostVerb(ctx, "vhost-disable", hostname)
}

func (s *Service) DeleteVHost(ctx context.Context, hostname string) runner.Result {
	return s.vhostVerb(ctx, "vhost-delete", hostname)
}

// SetVHostPHP points one virtual host at a different PHP version.
func (s *Service) SetVHostPHP(ctx context.Context, hostname, version string) runner.Result {
	if err := validate.Hostname(hostname); err != nil {
		return runner.Precondition(err.Error())
	}
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, service.ControlTimeout, "vhost-update-php", hostname, version)
	})
}

func (s *Service) vhostVerb(ctx context.Context, verb, hostname string) runner.Result {
	if err := validate.Hostname(hostname); err != nil {
		return runner.Precondition(err.Error())
	}
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, service.ControlTimeout, verb, hostname)
	})
}

// ReloadConfig asks Apache to re-read its configuration without dropping
// connections.
func (s *Service) ReloadConfig(ctx context.Context) runner.Result {
	return s.Serialize(func() runner.Result {
		return s.Verb(ctx, service.ControlTimeout, "reload-config")
	})
}

// PHPVersions lists the PHP versions Apache can dispatch to.
func (s *Service) PHPVersions(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.VerbJSON(ctx, service.ProbeTimeout, &out, "php-list-versions"); err != nil {
		return nil, err
	}
	return out, nil
}

// SSLEnabled reports whether the given host serves HTTPS.
func (s *Service) SSLEnabled(ctx context.Context, hostname string) bool {
	if validate.Hostname(hostname) != nil {
		return false
	}
	res := s.Verb(ctx, service.ProbeTimeout, "ssl-is-enabled", hostname)
	return res.OK && strings.EqualFold(strings.TrimSpace(res.Message), "true")
}

// EnableSSL turns on the HTTPS vhost for hostname. The certificate must
// already exist; see CreateSSLCert.
func (s *Service) EnableSSL(ctx context.Context, hostname string) runner.Result {
	return s.vhostVerb(ctx, "ssl-enable", hostname)
}

// CreateSSLCert generates a self-signed certificate for hostname.
func (s *Service) CreateSSLCert(ctx context.Context, hostname string) runner.Result {
	return s.vhostVerb(ctx, "ssl-create-cert", hostname)
}
