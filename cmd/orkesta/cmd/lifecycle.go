package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/service"
)

// lifecycleVerbs maps each verb command onto the service contract.
var lifecycleVerbs = []struct {
	use   string
	short string
	run   func(context.Context, service.Service) runner.Result
}{
	{"install", "Install a service", func(ctx context.Context, s service.Service) runner.Result { return s.Install(ctx) }},
	{"uninstall", "Uninstall a service", func(ctx context.Context, s service.Service) runner.Result { return s.Uninstall(ctx) }},
	{"start", "Start a service", func(ctx context.Context, s service.Service) runner.Result { return s.Start(ctx) }},
	{"stop", "Stop a service", func(ctx context.Context, s service.Service) runner.Result { return s.Stop(ctx) }},
	{"restart", "Restart a service", func(ctx context.Context, s service.Service) runner.Result { return s.Restart(ctx) }},
	{"enable", "Enable a service at boot", func(ctx context.Context, s service.Service) runner.Result { return s.Enable(ctx) }},
	{"disable", "Disable a service at boot", func(ctx context.Context, s service.Service) runner.Result { return s.Disable(ctx) }},
}

func init() {
	for _, verb := range lifecycleVerbs {
		rootCmd.AddCommand(&cobra.Command{
			Use:   verb.use + " <service>",
			Short: verb.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLifecycle(cmd, verb.use, args[0], verb.run)
			},
		})
	}
}

func runLifecycle(cmd *cobra.Command, verb, name string, fn func(context.Context, service.Service) runner.Result) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta %s: %w", verb, err)
	}
	svc, err := a.service(name)
	if err != nil {
		return fmt.Errorf("orkesta %s: %w", verb, err)
	}

	// Ctrl-C cancels the context; the runner kills the subprocess.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	res := fn(ctx, svc)
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	if !res.OK {
		return errors.New(res.Kind.String())
	}
	return nil
}
