// Package main provides the entry point for the kin CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/domain/services"
)

var (
	version      = "0.1.0-dev"
	globalFamily string
	globalUser   string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kin",
		Short:         "A family relationship graph with reciprocal edges and per-member trees",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalFamily, "family", "F", "", "Family (ID or name) used to resolve member names")
	rootCmd.PersistentFlags().StringVarP(&globalUser, "user", "u", "", "Acting user ID recorded on writes")

	rootCmd.AddCommand(
		newInitCmd(),
		newFamiliesCmd(),
		newMembersCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newTreeCmd(),
		newExistsCmd(),
		newKindsCmd(),
		newHistoryCmd(),
		newImportCmd(),
		newServeCmd(),
	)

	return rootCmd
}

// commandContext returns the command context carrying the acting user.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if globalUser != "" {
		ctx = services.WithActingUser(ctx, globalUser)
	}
	return ctx
}
