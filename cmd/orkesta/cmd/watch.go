package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orkesta/orkesta/internal/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the scripts directory and reload on changes",
	Long: "Keep running, rescanning the scripts directory whenever a helper\n" +
		"script is added, changed or removed. Useful while developing scripts.",
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta watch: %w", err)
	}

	out := cmd.OutOrStdout()
	w, err := service.NewWatcher(a.registry, a.cfg.ScriptsDir, a.logger, func() {
		fmt.Fprintf(out, "reloaded: %d services\n", len(a.registry.All()))
	})
	if err != nil {
		return fmt.Errorf("orkesta watch: %w", err)
	}
	defer w.Close()

	fmt.Fprintf(out, "watching %s (%d services), Ctrl-C to stop\n",
		a.cfg.ScriptsDir, len(a.registry.All()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	<-ctx.Done()
	return nil
}
