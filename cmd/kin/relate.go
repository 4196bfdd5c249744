package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

func newRelateCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "relate <primary> <kind> <related>",
		Short: "Record that <related> is <primary>'s <kind>",
		Long: `Creates a relationship between two members of the same family.
Members are IDs, or names when --family is given.
Asymmetric kinds (parent/child, uncle/nephew, ...) also store the reciprocal edge.

Run 'kin kinds' for the list of relationship kinds.

Examples:
  kin relate 1 parent 2
  kin -F Lovelace relate Ada parent "Annabella" --notes "mother"
  kin -F Lovelace relate Ada spouse William`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelate(cmd, args, notes)
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes (max 500 characters)")

	cmd.AddCommand(newRelateUpdateCmd(), newRelateDeleteCmd())

	return cmd
}

func runRelate(cmd *cobra.Command, args []string, notes string) error {
	return withRelationshipHandler(func(handler *handlers.RelationshipHandler) error {
		result, err := handler.HandleCreate(commandContext(cmd), handlers.CreateInput{
			Family:  globalFamily,
			Primary: args[0],
			Kind:    args[1],
			Related: args[2],
			Notes:   notes,
		})
		if err != nil {
			return fmt.Errorf("creating relationship: %w", err)
		}

		printWriteResult(cmd.OutOrStdout(), "Created", result)
		return nil
	})
}

func newRelateUpdateCmd() *cobra.Command {
	var (
		kind  string
		notes string
	)

	cmd := &cobra.Command{
		Use:   "update <relationship-id>",
		Short: "Change the kind or notes of a relationship",
		Long: `Updates a relationship. Changing the kind also replaces the reciprocal edge.

Examples:
  kin relate update 0b1c... --kind step-parent
  kin relate update 0b1c... --notes "adoptive mother"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := handlers.UpdateInput{Kind: kind}
			if cmd.Flags().Changed("notes") {
				in.Notes = &notes
			}
			if in.Kind == "" && in.Notes == nil {
				return errors.New("nothing to update (use --kind or --notes)")
			}

			return withRelationshipHandler(func(handler *handlers.RelationshipHandler) error {
				result, err := handler.HandleUpdate(commandContext(cmd), args[0], in)
				if err != nil {
					return fmt.Errorf("updating relationship: %w", err)
				}
				printWriteResult(cmd.OutOrStdout(), "Updated", result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "New relationship kind")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes (empty string clears them)")

	return cmd
}

func newRelateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <relationship-id>",
		Short: "Delete a relationship",
		Long:  "Deletes a relationship by its ID, together with its reciprocal edge.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelateDelete,
	}
}

func runRelateDelete(cmd *cobra.Command, args []string) error {
	relID := args[0]

	return withRelationshipHandler(func(handler *handlers.RelationshipHandler) error {
		deleted, err := handler.HandleDelete(commandContext(cmd), relID)
		if err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}

		if !deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "No relationship with ID %s\n", relID)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted relationship: %s\n", relID)
		return nil
	})
}
