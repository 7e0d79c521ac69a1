package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/service/builtin/apache"
)

var vhostPHPVersion string

var vhostCmd = &cobra.Command{
	Use:   "vhost",
	Short: "Manage Apache virtual hosts",
}

var vhostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List virtual hosts",
	RunE:  runVHostList,
}

var vhostCreateCmd = &cobra.Command{
	Use:   "create <hostname> <document-root>",
	Short: "Create a virtual host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVHostAction(cmd, "create", func(s *apache.Service) runner.Result {
			return s.CreateVHost(cmd.Context(), args[0], args[1], vhostPHPVersion)
		})
	},
}

var vhostEnableCmd = &cobra.Command{
	Use:   "enable <hostname>",
	Short: "Enable a virtual host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVHostAction(cmd, "enable", func(s *apache.Service) runner.Result {
			return s.EnableVHost(cmd.Context(), args[0])
		})
	},
}

var vhostDisableCmd = &cobra.Command{
	Use:   "disable <hostname>",
	Short: "Disable a virtual host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVHostAction(cmd, "disable", func(s *apache.Service) runner.Result {
			return s.DisableVHost(cmd.Context(), args[0])
		})
	},
}

var vhostDeleteCmd = &cobra.Command{
	Use:   "delete <hostname>",
	Short: "Delete a virtual host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVHostAction(cmd, "delete", func(s *apache.Service) runner.Result {
			return s.DeleteVHost(cmd.Context(), args[0])
		})
	},
}

var vhostSetPHPCmd = &cobra.Command{
	Use:   "set-php <hostname> <version>",
	Short: "Point a virtual host at a PHP version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVHostAction(cmd, "set-php", func(s *apache.Service) runner.Result {
			return s.SetVHostPHP(cmd.Context(), args[0], args[1])
		})
	},
}

var vhostSSLCmd = &cobra.Command{
	Use:   "ssl <hostname>",
	Short: "Create a self-signed certificate and enable HTTPS",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVHostAction(cmd, "ssl", func(s *apache.Service) runner.Result {
			if res := s.CreateSSLCert(cmd.Context(), args[0]); !res.OK {
				return res
			}
			return s.EnableSSL(cmd.Context(), args[0])
		})
	},
}

func init() {
	vhostCreateCmd.Flags().StringVar(&vhostPHPVersion, "php", "", "PHP version for the new host")
	vhostCmd.AddCommand(vhostListCmd, vhostCreateCmd, vhostEnableCmd,
		vhostDisableCmd, vhostDeleteCmd, vhostSetPHPCmd, vhostSSLCmd)
	rootCmd.AddCommand(vhostCmd)
}

// apacheService resolves the registered Apache service with its vhost
// operations, which sit outside the generic contract.
func apacheService(a *app) (*apache.Service, error) {
	svc, err := a.service("apache")
	if err != nil {
		return nil, err
	}
	s, ok := svc.(*apache.Service)
	if !ok {
		return nil, fmt.Errorf("service apache does not support virtual host operations")
	}
	return s, nil
}

func runVHostList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta vhost list: %w", err)
	}
	s, err := apacheService(a)
	if err != nil {
		return fmt.Errorf("orkesta vhost list: %w", err)
	}

	hosts, err := s.VHosts(cmd.Context())
	if err != nil {
		return fmt.Errorf("orkesta vhost list: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOSTNAME\tDOCUMENT ROOT\tPHP\tSSL\tENABLED")
	for _, h := range hosts {
		php := h.PHPVersion
		if php == "" {
			php = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\n", h.Hostname, h.DocumentRoot, php, h.SSL, h.Enabled)
	}
	return tw.Flush()
}

func runVHostAction(cmd *cobra.Command, verb string, fn func(*apache.Service) runner.Result) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta vhost %s: %w", verb, err)
	}
	s, err := apacheService(a)
	if err != nil {
		return fmt.Errorf("orkesta vhost %s: %w", verb, err)
	}

	res := fn(s)
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	if !res.OK {
		return errors.New(res.Kind.String())
	}
	return nil
}
