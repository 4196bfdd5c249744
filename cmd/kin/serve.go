package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the relationship API over HTTP",
		Long: `Starts the HTTP API. Writes honour the X-User-ID header as the acting user.
Stops gracefully on SIGINT or SIGTERM.

Examples:
  kin serve
  kin serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withInternalDeps(func(d *internalDeps) error {
				cfg := d.Config
				if addr != "" {
					cfg.Server.Addr = addr
				}

				if !d.Logger.Enabled(cmd.Context(), slog.LevelDebug) {
					gin.SetMode(gin.ReleaseMode)
				}

				deps := httpapi.Deps{
					Relationships: d.RelationshipHandler,
					Members:       d.MemberHandler,
					Import:        d.ImportHandler,
					Store:         d.repo,
					Logger:        d.Logger,
				}
				if cfg.Metrics.Enabled {
					deps.Metrics = d.metrics
					deps.MetricsPath = cfg.Metrics.Path
				}

				server := httpapi.NewServer(cfg.Server, httpapi.NewRouter(deps), d.Logger)
				return server.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}
