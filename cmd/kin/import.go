package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import families, members and relationships from JSON, YAML or CSV",
		Long: `Imports a family fixture. Families and members are created as needed and
every relationship passes the same validation as 'kin relate'.
Relationships that already exist are skipped; invalid rows are reported.

Examples:
  kin import families.yaml
  kin import tree.csv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, yaml, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	return withDeps(func(d *Deps) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Importing %s...\n", filePath)

		result, err := d.ImportHandler.Handle(commandContext(cmd), filePath, handlers.ImportOptions{
			Format:       flags.format,
			DryRun:       flags.dryRun,
			ActingUserID: globalUser,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		printImportResult(out, result, flags.dryRun)
		return nil
	})
}
