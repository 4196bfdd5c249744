package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

var errFamilyRequired = errors.New("family is required (use --family flag)")

func newMembersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage family members",
	}

	cmd.AddCommand(newMembersAddCmd(), newMembersListCmd(), newMembersSearchCmd())

	return cmd
}

func newMembersAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a member to a family",
		Long: `Adds a member to the family given by --family.

Examples:
  kin -F Lovelace members add "Ada"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if globalFamily == "" {
				return errFamilyRequired
			}
			return withMemberHandler(func(handler *handlers.MemberHandler) error {
				member, err := handler.HandleAddMember(commandContext(cmd), globalFamily, args[0])
				if err != nil {
					return fmt.Errorf("adding member: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added member %q (id: %d)\n", member.Name, member.ID)
				return nil
			})
		},
	}
}

func newMembersListCmd() *cobra.Command {
	var (
		limit  int
		offset int
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the members of a family",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if globalFamily == "" {
				return errFamilyRequired
			}
			if !validFormats[format] {
				return fmt.Errorf("invalid format: %s (valid: text, json)", format)
			}
			return withMemberHandler(func(handler *handlers.MemberHandler) error {
				result, err := handler.HandleList(commandContext(cmd), globalFamily, limit, offset)
				if err != nil {
					return err
				}
				if format == "json" {
					return printJSON(cmd.OutOrStdout(), result)
				}
				printMembers(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultListLimit, "Maximum members to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Members to skip")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func newMembersSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the members of a family by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if globalFamily == "" {
				return errFamilyRequired
			}
			return withMemberHandler(func(handler *handlers.MemberHandler) error {
				members, err := handler.HandleSearch(commandContext(cmd), globalFamily, args[0], limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(members) == 0 {
					fmt.Fprintf(out, "No members matching %q\n", args[0])
					return nil
				}
				for _, m := range members {
					fmt.Fprintf(out, "%6d  %s\n", m.ID, m.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultSearchLimit, "Maximum members to show")

	return cmd
}
