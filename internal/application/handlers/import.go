package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing family fixtures from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format       string // "json", "yaml", "csv", or "auto"
	DryRun       bool   // Validate without saving
	ActingUserID string
}

// Handle imports a fixture file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	// Get parser
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return h.importFrom(ctx, parser, file, opts)
}

// HandleReader imports a fixture read from r in the given format.
func (h *ImportHandler) HandleReader(ctx context.Context, r io.Reader, opts ImportOptions) (*services.ImportResult, error) {
	parser := parsers.ForFormat(opts.Format)
	if parser == nil {
		return nil, fmt.Errorf("%w: unsupported format: %q", entities.ErrInvalidInput, opts.Format)
	}
	return h.importFrom(ctx, parser, r, opts)
}

func (h *ImportHandler) importFrom(ctx context.Context, parser parsers.Parser, r io.Reader, opts ImportOptions) (*services.ImportResult, error) {
	fixture, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w: %w", entities.ErrInvalidInput, err)
	}

	return h.service.Import(ctx, fixture, services.ImportOptions{
		DryRun:       opts.DryRun,
		ActingUserID: opts.ActingUserID,
	})
}
