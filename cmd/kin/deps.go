package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/services"
	"github.com/ersonp/kin-core/internal/infrastructure/config"
	"github.com/ersonp/kin-core/internal/infrastructure/logging"
	"github.com/ersonp/kin-core/internal/infrastructure/metrics"
	"github.com/ersonp/kin-core/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config              *config.Config
	Logger              *slog.Logger
	RelationshipHandler *handlers.RelationshipHandler
	MemberHandler       *handlers.MemberHandler
	ImportHandler       *handlers.ImportHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	repo    *sqlite.Repository
	metrics *metrics.Collector
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
// Used by serve, which needs the repository and metrics collector.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	repo, err := sqlite.NewRepository(cfg.SQLiteFor(cwd))
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	// Ensure schema exists
	if err := repo.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	collector := metrics.NewCollector()

	memberService := services.NewMemberService(repo, repo)
	relationshipService := services.NewRelationshipService(repo,
		services.WithLogger(logger),
		services.WithMetrics(collector),
		services.WithContentionRetries(cfg.Relationships.ContentionRetries),
	)
	importService := services.NewImportService(memberService, relationshipService)

	deps := &internalDeps{
		Deps: Deps{
			Config:              cfg,
			Logger:              logger,
			RelationshipHandler: handlers.NewRelationshipHandler(relationshipService, memberService),
			MemberHandler:       handlers.NewMemberHandler(memberService),
			ImportHandler:       handlers.NewImportHandler(importService),
		},
		repo:    repo,
		metrics: collector,
	}

	return fn(deps)
}

// withRelationshipHandler provides access to the RelationshipHandler for relationship commands.
func withRelationshipHandler(fn func(*handlers.RelationshipHandler) error) error {
	return withDeps(func(d *Deps) error {
		return fn(d.RelationshipHandler)
	})
}

// withMemberHandler provides access to the MemberHandler for family and member commands.
func withMemberHandler(fn func(*handlers.MemberHandler) error) error {
	return withDeps(func(d *Deps) error {
		return fn(d.MemberHandler)
	})
}
