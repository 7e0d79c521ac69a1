// Package cmd implements the orkesta CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/orkesta/orkesta/internal/config"
	"github.com/orkesta/orkesta/internal/platform"
	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/secrets"
	"github.com/orkesta/orkesta/internal/service"

	// Compiled-in services register themselves from init().
	_ "github.com/orkesta/orkesta/internal/service/builtin/apache"
	_ "github.com/orkesta/orkesta/internal/service/builtin/mysql"
	_ "github.com/orkesta/orkesta/internal/service/builtin/php"
)

var (
	cfgFile    string
	logLevel   string
	elevation  string
	scriptsDir string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("orkesta version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "orkesta",
	Short: "orkesta manages local web development services",
	Long: "orkesta manages the services of a local web development stack:\n" +
		"Apache, MySQL, PHP and any helper script dropped into the scripts\n" +
		"directory. It detects the host distribution, elevates privileges per\n" +
		"operation, and keeps generated credentials in an encrypted store.",
	// No Run function. Prints help by default.
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.config/orkesta/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&elevation, "elevation", "", "elevation mode: auto, gui, terminal, none (overrides config)")
	rootCmd.PersistentFlags().StringVar(&scriptsDir, "scripts-dir", "", "helper scripts directory (overrides config)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("orkesta version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles the wired-up application for one command invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	platform *platform.Platform
	secrets  *secrets.Store
	registry *service.Registry
}

// newApp loads configuration, applies flag overrides and constructs the
// platform, runner, secret store and registry in dependency order.
func newApp() (*app, error) {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if elevation != "" {
		cfg.Elevation = runner.Elevation(elevation)
	}
	if scriptsDir != "" {
		cfg.ScriptsDir = scriptsDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.LogLevel)

	secretsDir, err := secrets.DefaultDir()
	if err != nil {
		return nil, err
	}

	plat := platform.Detect(logger)
	run := runner.New(runner.Config{
		ScriptsDir:     cfg.ScriptsDir,
		Elevation:      cfg.Elevation,
		MaxOutputBytes: cfg.MaxOutputBytes,
	}, logger)
	store := secrets.New(secretsDir, logger)

	registry := service.NewRegistry(service.Deps{
		Platform: plat,
		Runner:   run,
		Secrets:  store,
		Logger:   logger,
	}, cfg.ScriptsDir)
	registry.Load()

	return &app{
		cfg:      cfg,
		logger:   logger,
		platform: plat,
		secrets:  store,
		registry: registry,
	}, nil
}

// service looks up one service by name, with a listing of valid names in the
// error when the lookup misses.
func (a *app) service(name string) (service.Service, error) {
	svc, ok := a.registry.Get(name)
	if !ok {
		names := make([]string, 0, len(a.registry.All()))
		for _, s := range a.registry.All() {
			names = append(names, s.Meta().Name)
		}
		return nil, fmt.Errorf("unknown service %q (known: %v)", name, names)
	}
	return svc, nil
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
