package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

type relationsFlags struct {
	kind   string
	format string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations [member]",
		Short: "List relationships",
		Long: `Lists stored relationships: all of them, those of the family given by
--family, or those touching one member. With a member, --kind filters by the
role the other member plays for it.

Examples:
  kin relations
  kin -F Lovelace relations
  kin -F Lovelace relations Ada --kind child
  kin relations 3 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.kind, "kind", "", "Filter by relationship kind")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Output format: text, json")

	return cmd
}

func runRelations(cmd *cobra.Command, args []string, flags relationsFlags) error {
	if !validFormats[flags.format] {
		return fmt.Errorf("invalid format: %s (valid: text, json)", flags.format)
	}

	opts := handlers.ListOptions{Family: globalFamily, Kind: flags.kind}
	if len(args) == 1 {
		opts.Member = args[0]
	}

	return withRelationshipHandler(func(handler *handlers.RelationshipHandler) error {
		result, err := handler.HandleList(commandContext(cmd), opts)
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}

		if flags.format == "json" {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printRelations(cmd.OutOrStdout(), result)
		return nil
	})
}

func newTreeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tree <member>",
		Short: "Show a member's relatives grouped by relationship kind",
		Long: `Shows everyone connected to a member, grouped by the role they play for
that member. A relationship stored with its reciprocal appears once.

Examples:
  kin tree 2
  kin -F Lovelace tree Ada --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormats[format] {
				return fmt.Errorf("invalid format: %s (valid: text, json)", format)
			}
			return withRelationshipHandler(func(handler *handlers.RelationshipHandler) error {
				tree, err := handler.HandleTree(commandContext(cmd), globalFamily, args[0])
				if err != nil {
					return fmt.Errorf("building tree: %w", err)
				}
				if format == "json" {
					return printJSON(cmd.OutOrStdout(), tree)
				}
				printTree(cmd.OutOrStdout(), tree)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <member> <member>",
		Short: "Check whether two members are related",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRelationshipHandler(func(handler *handlers.RelationshipHandler) error {
				exists, err := handler.HandleExists(commandContext(cmd), globalFamily, args[0], args[1])
				if err != nil {
					return err
				}
				if exists {
					fmt.Fprintf(cmd.OutOrStdout(), "%s and %s are related\n", args[0], args[1])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s and %s are not related\n", args[0], args[1])
				}
				return nil
			})
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List relationship kinds and their reciprocals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printKinds(cmd.OutOrStdout(), handlers.ListKinds())
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <relationship-id>",
		Short: "Show the audit trail of a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRelationshipHandler(func(handler *handlers.RelationshipHandler) error {
				entries, err := handler.HandleHistory(commandContext(cmd), args[0])
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), args[0], entries)
				return nil
			})
		},
	}
}
