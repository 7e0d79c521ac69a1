package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/service/builtin/php"
)

var phpExtVersion string

var phpCmd = &cobra.Command{
	Use:   "php",
	Short: "Manage PHP versions and extensions",
}

var phpVersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List installed and available PHP versions",
	RunE:  runPHPVersions,
}

var phpSwitchCmd = &cobra.Command{
	Use:   "switch <version>",
	Short: "Make a PHP version the CLI default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPHPAction(cmd, "switch", func(s *php.Service) runner.Result {
			return s.SwitchVersion(cmd.Context(), args[0])
		})
	},
}

var phpInstallCmd = &cobra.Command{
	Use:   "install-version <version>",
	Short: "Install a PHP version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPHPAction(cmd, "install-version", func(s *php.Service) runner.Result {
			return s.InstallVersion(cmd.Context(), args[0])
		})
	},
}

var phpUninstallCmd = &cobra.Command{
	Use:   "uninstall-version <version>",
	Short: "Remove a PHP version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPHPAction(cmd, "uninstall-version", func(s *php.Service) runner.Result {
			return s.UninstallVersion(cmd.Context(), args[0])
		})
	},
}

var phpExtCmd = &cobra.Command{
	Use:   "ext",
	Short: "Manage PHP extensions",
}

var phpExtListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extensions",
	RunE:  runPHPExtList,
}

var phpExtInstallCmd = &cobra.Command{
	Use:   "install <name>",
	Short: "Install an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPHPAction(cmd, "ext install", func(s *php.Service) runner.Result {
			return s.InstallExtension(cmd.Context(), args[0], phpExtVersion)
		})
	},
}

var phpExtUninstallCmd = &cobra.Command{
	Use:   "uninstall <name>",
	Short: "Remove an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPHPAction(cmd, "ext uninstall", func(s *php.Service) runner.Result {
			return s.UninstallExtension(cmd.Context(), args[0], phpExtVersion)
		})
	},
}

func init() {
	phpExtCmd.PersistentFlags().StringVar(&phpExtVersion, "version", "", "PHP version (default: active version)")
	phpExtCmd.AddCommand(phpExtListCmd, phpExtInstallCmd, phpExtUninstallCmd)
	phpCmd.AddCommand(phpVersionsCmd, phpSwitchCmd, phpInstallCmd, phpUninstallCmd, phpExtCmd)
	rootCmd.AddCommand(phpCmd)
}

func phpService(a *app) (*php.Service, error) {
	svc, err := a.service("php")
	if err != nil {
		return nil, err
	}
	s, ok := svc.(*php.Service)
	if !ok {
		return nil, fmt.Errorf("service php does not support version operations")
	}
	return s, nil
}

func runPHPVersions(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta php versions: %w", err)
	}
	s, err := phpService(a)
	if err != nil {
		return fmt.Errorf("orkesta php versions: %w", err)
	}
	ctx := cmd.Context()

	installed, err := s.InstalledVersions(ctx)
	if err != nil {
		return fmt.Errorf("orkesta php versions: %w", err)
	}
	active, err := s.ActiveVersion(ctx)
	if err != nil {
		a.logger.Warn("active version probe failed", "error", err)
	}

	w := cmd.OutOrStdout()
	for _, v := range installed {
		marker := ""
		if v == active {
			marker = " (active)"
		}
		fmt.Fprintf(w, "%s%s\n", v, marker)
	}
	fmt.Fprintf(w, "available: %s\n", strings.Join(s.AvailableVersions(ctx), ", "))
	return nil
}

func runPHPExtList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta php ext list: %w", err)
	}
	s, err := phpService(a)
	if err != nil {
		return fmt.Errorf("orkesta php ext list: %w", err)
	}

	exts, err := s.Extensions(cmd.Context(), phpExtVersion)
	if err != nil {
		return fmt.Errorf("orkesta php ext list: %w", err)
	}
	for _, e := range exts {
		fmt.Fprintln(cmd.OutOrStdout(), e)
	}
	return nil
}

func runPHPAction(cmd *cobra.Command, verb string, fn func(*php.Service) runner.Result) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta php %s: %w", verb, err)
	}
	s, err := phpService(a)
	if err != nil {
		return fmt.Errorf("orkesta php %s: %w", verb, err)
	}

	res := fn(s)
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	if !res.OK {
		return errors.New(res.Kind.String())
	}
	return nil
}
