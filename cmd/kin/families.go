package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

func newFamiliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "families",
		Short: "Manage families",
		Long:  "Families group members. Relationships may only connect members of the same family.",
	}

	cmd.AddCommand(newFamiliesAddCmd(), newFamiliesListCmd())

	return cmd
}

func newFamiliesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a family",
		Long: `Creates a new family. Family names are unique, ignoring case.

Examples:
  kin families add Lovelace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMemberHandler(func(handler *handlers.MemberHandler) error {
				family, err := handler.HandleAddFamily(commandContext(cmd), args[0])
				if err != nil {
					return fmt.Errorf("creating family: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created family %q (id: %d)\n", family.Name, family.ID)
				return nil
			})
		},
	}
}

func newFamiliesListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validFormats[format] {
				return fmt.Errorf("invalid format: %s (valid: text, json)", format)
			}
			return withMemberHandler(func(handler *handlers.MemberHandler) error {
				families, err := handler.HandleListFamilies(commandContext(cmd))
				if err != nil {
					return err
				}
				if format == "json" {
					return printJSON(cmd.OutOrStdout(), families)
				}
				printFamilies(cmd.OutOrStdout(), families)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}
