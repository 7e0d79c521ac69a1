// Package mysql manages the MySQL server declaratively: packages, the
// systemd unit and database operations are driven through the platform layer
// instead of a helper script, so the same code serves every supported
// distribution.
package mysql

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"

	"github.com/orkesta/orkesta/internal/platform"
	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/secrets"
	"github.com/orkesta/orkesta/internal/service"
	"github.com/orkesta/orkesta/internal/validate"
)

// rootPasswordSecret names the entry in the secret store holding the
// generated root password.
const rootPasswordSecret = "mysql_root_password"

const passwordLength = 16

// systemDatabases must never be dropped; losing them bricks the server.
var systemDatabases = map[string]bool{
	"information_schema": true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// packagesFor returns the distribution packages providing server and client.
// The server package comes first; installation probes check it.
func packagesFor(os platform.OSType) []string {
	switch os {
	case platform.OSFedora:
		return []string{"mysql-server", "mysql"}
	case platform.OSDebian, platform.OSUbuntu:
		return []string{"mysql-server", "mysql-client"}
	case platform.OSArch:
		return []string{"mysql"}
	default:
		return nil
	}
}

// unitFor returns the systemd unit name, which differs between RPM and DEB
// packaging.
func unitFor(os platform.OSType) string {
	switch os {
	case platform.OSDebian, platform.OSUbuntu:
		return "mysql.service"
	default:
		return "mysqld.service"
	}
}

// configPathFor returns the main server configuration file.
func configPathFor(os platform.OSType) string {
	switch os {
	case platform.OSDebian, platform.OSUbuntu:
		return "/etc/mysql/mysql.conf.d/mysqld.cnf"
	default:
		return "/etc/my.cnf"
	}
}

// IsSystemDatabase reports whether name is one of the schemas the server
// itself depends on.
func IsSystemDatabase(name string) bool {
	return systemDatabases[strings.ToLower(name)]
}

type Service struct {
	service.Base

	meta    service.Metadata
	plat    *platform.Platform
	run     *runner.Runner
	secrets *secrets.Store
	logger  *slog.Logger
}

func New(deps service.Deps) (*Service, error) {
	if deps.Platform == nil {
		return nil, fmt.Errorf("mysql: no platform")
	}
	meta := service.Metadata{
		Name:        "mysql",
		DisplayName: "MySQL",
		Description: "MySQL database server",
		Icon:        "network-server-database",
		Type:        service.TypeDatabase,
		Port:        3306,
	}
	return &Service{
		meta:    meta,
		plat:    deps.Platform,
		run:     deps.Runner,
		secrets: deps.Secrets,
		logger:  deps.Logger.With("component", "service", "service", "mysql"),
	}, nil
}

func init() {
	service.RegisterFactory("mysql", func(deps service.Deps) (service.Service, error) {
		return New(deps)
	})
}

func (m *Service) Meta() service.Metadata { return m.meta }

func (m *Service) unit() string { return unitFor(m.plat.OSType) }

// ConfigPath returns the server configuration file for this distribution.
func (m *Service) ConfigPath() string { return configPathFor(m.plat.OSType) }

func (m *Service) IsInstalled(ctx context.Context) bool {
	pkgs := packagesFor(m.plat.OSType)
	if len(pkgs) == 0 {
		return false
	}
	return m.plat.IsPackageInstalled(ctx, pkgs[0])
}

func (m *Service) IsRunning(ctx context.Context) bool {
	return m.plat.IsServiceActive(ctx, m.unit())
}

// Install installs the server and client packages, enables and starts the
// unit, then provisions a random root password into the secret store. A
// password provisioning failure is logged but does not fail the install; the
// server is usable over the local socket either way.
func (m *Service) Install(ctx context.Context) runner.Result {
	return m.Serialize(func() runner.Result {
		pkgs := packagesFor(m.plat.OSType)
		argv := m.plat.InstallCommand(pkgs...)
		if argv == nil {
			return runner.Precondition("No supported package manager found")
		}
		if res := m.run.Run(ctx, argv, service.InstallTimeout); !res.OK {
			return res
		}
		if res := m.run.Run(ctx, m.plat.ServiceCommand("enable", m.unit()), service.ControlTimeout); !res.OK {
			return res
		}
		if res := m.run.Run(ctx, m.plat.ServiceCommand("start", m.unit()), service.ControlTimeout); !res.OK {
			return res
		}
		if err := m.provisionRootPassword(ctx); err != nil {
			m.logger.Warn("root password provisioning failed", "error", err)
		}
		return runner.Success("")
	})
}

// Uninstall stops the unit best-effort, removes the packages and forgets the
// stored root password.
func (m *Service) Uninstall(ctx context.Context) runner.Result {
	return m.Serialize(func() runner.Result {
		if res := m.run.Run(ctx, m.plat.ServiceCommand("stop", m.unit()), service.ControlTimeout); !res.OK {
			m.logger.Warn("stop before uninstall failed", "message", res.Message)
		}
		argv := m.plat.RemoveCommand(packagesFor(m.plat.OSType)...)
		if argv == nil {
			return runner.Precondition("No supported package manager found")
		}
		res := m.run.Run(ctx, argv, service.InstallTimeout)
		if res.OK && m.secrets != nil {
			if err := m.secrets.Delete(rootPasswordSecret); err != nil {
				m.logger.Warn("deleting stored root password failed", "error", err)
			}
		}
		return res
	})
}

// control runs a systemctl lifecycle action, refusing when the server is not
// installed so no elevation prompt appears for a no-op.
func (m *Service) control(ctx context.Context, action string) runner.Result {
	return m.Serialize(func() runner.Result {
		if !m.IsInstalled(ctx) {
			return runner.Precondition(fmt.Sprintf("%s is not installed", m.meta.DisplayName))
		}
		return m.run.Run(ctx, m.plat.ServiceCommand(action, m.unit()), service.ControlTimeout)
	})
}

func (m *Service) Start(ctx context.Context) runner.Result   { return m.control(ctx, "start") }
func (m *Service) Stop(ctx context.Context) runner.Result    { return m.control(ctx, "stop") }
func (m *Service) Restart(ctx context.Context) runner.Result { return m.control(ctx, "restart") }
func (m *Service) Enable(ctx context.Context) runner.Result  { return m.control(ctx, "enable") }
func (m *Service) Disable(ctx context.Context) runner.Result { return m.control(ctx, "disable") }

// RootPassword returns the stored root password, if one was provisioned.
func (m *Service) RootPassword() (string, bool, error) {
	if m.secrets == nil {
		return "", false, nil
	}
	return m.secrets.Get(rootPasswordSecret)
}

// provisionRootPassword generates a password, sets it on the server over the
// local socket and stores it. An existing stored password is left alone so
// reinstalling never silently rotates credentials.
func (m *Service) provisionRootPassword(ctx context.Context) error {
	if m.secrets == nil {
		return nil
	}
	if _, ok, err := m.secrets.Get(rootPasswordSecret); err != nil {
		return err
	} else if ok {
		return nil
	}

	password, err := generatePassword()
	if err != nil {
		return err
	}
	// The statement carries the password; RunRedacted keeps it out of the
	// log stream and out of any surfaced error text.
	sql := fmt.Sprintf("ALTER USER 'root'@'localhost' IDENTIFIED BY '%s'", password)
	if res := m.run.RunRedacted(ctx, []string{"mysql", "-u", "root", "-e", sql}, []string{password}, service.ControlTimeout); !res.OK {
		return fmt.Errorf("mysql: set root password: %s", res.Message)
	}
	return m.secrets.Set(rootPasswordSecret, password)
}

// mysqlArgv builds a batch-mode client invocation for one statement.
func mysqlArgv(sql string) []string {
	return []string{"mysql", "-u", "root", "-N", "-B", "-e", sql}
}

// Databases lists user and system databases on the running server.
func (m *Service) Databases(ctx context.Context) ([]string, error) {
	res := m.run.Run(ctx, mysqlArgv("SHOW DATABASES"), service.ControlTimeout)
	if !res.OK {
		return nil, fmt.Errorf("mysql: list databases: %s", res.Message)
	}
	var names []string
	for _, line := range strings.Split(res.Message, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// CreateDatabase creates a database. The name is validated before it is
// interpolated into the statement; the identifier character set makes the
// quoted form injection-safe.
func (m *Service) CreateDatabase(ctx context.Context, name string) runner.Result {
	if err := validate.DatabaseName(name); err != nil {
		return runner.Precondition(err.Error())
	}
	return m.Serialize(func() runner.Result {
		sql := fmt.Sprintf("CREATE DATABASE `%s`", name)
		return m.run.Run(ctx, mysqlArgv(sql), service.ControlTimeout)
	})
}

// DropDatabase drops a database, refusing the schemas the server depends on.
func (m *Service) DropDatabase(ctx context.Context, name string) runner.Result {
	if err := validate.DatabaseName(name); err != nil {
		return runner.Precondition(err.Error())
	}
	if IsSystemDatabase(name) {
		return runner.Precondition(fmt.Sprintf("Refusing to drop system database: %s", name))
	}
	return m.Serialize(func() runner.Result {
		sql := fmt.Sprintf("DROP DATABASE `%s`", name)
		return m.run.Run(ctx, mysqlArgv(sql), service.ControlTimeout)
	})
}

// passwordAlphabet keeps every character class validate.Password requires and
// stays shell-safe.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePassword() (string, error) {
	// Rejection-sample until the result satisfies the password policy. With
	// a 62-character alphabet and 16 positions, a handful of tries suffices.
	for attempt := 0; attempt < 100; attempt++ {
		buf := make([]byte, passwordLength)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("mysql: generate password: %w", err)
		}
		for i, b := range buf {
			buf[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
		}
		candidate := string(buf)
		if validate.Password(candidate) == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("mysql: generate password: alphabet cannot satisfy policy")
}
