package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/infrastructure/config"
	"github.com/ersonp/kin-core/internal/infrastructure/relationaldb/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize kin in the current directory",
		Long: `Creates .kin/config.yaml with default settings and an empty database.

Examples:
  kin init`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	handler := handlers.NewInitHandler(openSQLite)
	result, err := handler.Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized kin in %s\n", cwd)
	fmt.Fprintf(out, "  config:   %s\n", result.ConfigPath)
	fmt.Fprintf(out, "  database: %s\n", result.DatabasePath)
	return nil
}

func openSQLite(cfg config.SQLiteConfig) (ports.Store, error) {
	return sqlite.NewRepository(cfg)
}
