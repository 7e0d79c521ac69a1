package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orkesta/orkesta/internal/service/builtin/mysql"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage MySQL databases",
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List databases",
	RunE:  runDBList,
}

var dbCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBCreate,
}

var dbDropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Drop a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBDrop,
}

func init() {
	dbCmd.AddCommand(dbListCmd, dbCreateCmd, dbDropCmd)
	rootCmd.AddCommand(dbCmd)
}

// mysqlService resolves the registered MySQL service with its database
// operations, which sit outside the generic contract.
func mysqlService(a *app) (*mysql.Service, error) {
	svc, err := a.service("mysql")
	if err != nil {
		return nil, err
	}
	m, ok := svc.(*mysql.Service)
	if !ok {
		return nil, fmt.Errorf("service mysql does not support database operations")
	}
	return m, nil
}

func dbContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

func runDBList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta db list: %w", err)
	}
	m, err := mysqlService(a)
	if err != nil {
		return fmt.Errorf("orkesta db list: %w", err)
	}

	ctx, stop := dbContext()
	defer stop()

	names, err := m.Databases(ctx)
	if err != nil {
		return fmt.Errorf("orkesta db list: %w", err)
	}
	for _, name := range names {
		marker := ""
		if mysql.IsSystemDatabase(name) {
			marker = " (system)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", name, marker)
	}
	return nil
}

func runDBCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta db create: %w", err)
	}
	m, err := mysqlService(a)
	if err != nil {
		return fmt.Errorf("orkesta db create: %w", err)
	}

	ctx, stop := dbContext()
	defer stop()

	res := m.CreateDatabase(ctx, args[0])
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	if !res.OK {
		return errors.New(res.Kind.String())
	}
	return nil
}

func runDBDrop(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta db drop: %w", err)
	}
	m, err := mysqlService(a)
	if err != nil {
		return fmt.Errorf("orkesta db drop: %w", err)
	}

	ctx, stop := dbContext()
	defer stop()

	res := m.DropDatabase(ctx, args[0])
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	if !res.OK {
		return errors.New(res.Kind.String())
	}
	return nil
}
