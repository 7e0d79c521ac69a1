package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/orkesta/orkesta/internal/service"
)

var statusCmd = &cobra.Command{
	Use:   "status [service]",
	Short: "Show service status",
	Long:  "Probe every known service (or a single one) and display its state.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta status: %w", err)
	}
	ctx := context.Background()

	if len(args) == 1 {
		svc, err := a.service(args[0])
		if err != nil {
			return fmt.Errorf("orkesta status: %w", err)
		}
		meta := svc.Meta()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Name:        %s\n", meta.Name)
		fmt.Fprintf(w, "Display:     %s\n", meta.DisplayName)
		fmt.Fprintf(w, "Description: %s\n", meta.Description)
		fmt.Fprintf(w, "Type:        %s\n", meta.Type)
		if meta.Port != 0 {
			fmt.Fprintf(w, "Port:        %d\n", meta.Port)
		}
		fmt.Fprintf(w, "Status:      %s\n", service.StatusOf(ctx, svc))
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tPORT\tSTATUS")
	for _, svc := range a.registry.All() {
		meta := svc.Meta()
		port := "-"
		if meta.Port != 0 {
			port = fmt.Sprintf("%d", meta.Port)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", meta.Name, meta.Type, port, service.StatusOf(ctx, svc))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := a.registry.CountServices(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d services, %d installed, %d running\n",
		counts.Total, counts.Installed, counts.Running)
	return nil
}
