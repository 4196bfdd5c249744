package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun       bool   // Validate without saving
	ActingUserID string // Recorded as the creator of imported relationships
}

// ImportError represents an error for a specific relationship during import.
type ImportError struct {
	Line    int    `json:"line,omitempty"`  // Line number (1-indexed, 0 if unknown)
	Family  string `json:"family"`          // Family the row belongs to
	Field   string `json:"field,omitempty"` // Which field has the error
	Value   string `json:"value,omitempty"` // The invalid value
	Message string `json:"message"`         // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Families int           `json:"families"` // Families created
	Members  int           `json:"members"`  // Members created
	Imported int           `json:"imported"` // Relationships created
	Skipped  int           `json:"skipped"`  // Relationships that already existed
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportService loads family fixtures through the member and relationship
// services, so imported edges pass the same validation as API writes.
type ImportService struct {
	members       *MemberService
	relationships *RelationshipService
}

// NewImportService creates a new import service.
func NewImportService(members *MemberService, relationships *RelationshipService) *ImportService {
	return &ImportService{
		members:       members,
		relationships: relationships,
	}
}

// Import validates and imports a fixture. Row-level problems are collected in
// the result; the returned error is reserved for failures that stop the import.
func (s *ImportService) Import(ctx context.Context, fixture *parsers.Fixture, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	for _, fam := range fixture.Families {
		if err := s.importFamily(ctx, fam, opts, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *ImportService) importFamily(ctx context.Context, fam parsers.RawFamily, opts ImportOptions, result *ImportResult) error {
	valid := s.validateRelationships(fam, result)

	if opts.DryRun {
		result.Imported += len(valid)
		return nil
	}

	family, created, err := s.members.FindOrCreateFamily(ctx, fam.Name)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidInput) {
			result.Errors = append(result.Errors, ImportError{
				Family: fam.Name, Field: "family", Value: fam.Name, Message: err.Error(),
			})
			return nil
		}
		return fmt.Errorf("importing family %q: %w", fam.Name, err)
	}
	if created {
		result.Families++
	}

	memberIDs := make(map[string]int64)
	resolve := func(name string) (int64, error) {
		key := entities.NormalizeName(name)
		if id, ok := memberIDs[key]; ok {
			return id, nil
		}
		member, added, err := s.members.FindOrAddMember(ctx, family.ID, name)
		if err != nil {
			return 0, err
		}
		if added {
			result.Members++
		}
		memberIDs[key] = member.ID
		return member.ID, nil
	}

	for _, name := range fam.Members {
		if _, err := resolve(name); err != nil {
			if !errors.Is(err, entities.ErrInvalidInput) {
				return fmt.Errorf("importing member %q: %w", name, err)
			}
			result.Errors = append(result.Errors, ImportError{
				Family: fam.Name, Field: "member", Value: name, Message: err.Error(),
			})
		}
	}

	for _, row := range valid {
		if err := s.importRelationship(ctx, fam.Name, row, resolve, opts, result); err != nil {
			return err
		}
	}
	return nil
}

// validRow is a relationship row whose kind has been parsed.
type validRow struct {
	raw  parsers.RawRelationship
	kind entities.Kind
}

// validateRelationships checks rows without touching the store.
func (s *ImportService) validateRelationships(fam parsers.RawFamily, result *ImportResult) []validRow {
	var valid []validRow
	for _, raw := range fam.Relationships {
		if ie := validateRawRelationship(fam.Name, raw); ie != nil {
			result.Errors = append(result.Errors, *ie)
			continue
		}
		kind, err := entities.ParseKind(raw.Kind)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{
				Line: raw.LineNum, Family: fam.Name, Field: "kind", Value: raw.Kind, Message: err.Error(),
			})
			continue
		}
		valid = append(valid, validRow{raw: raw, kind: kind})
	}
	return valid
}

func validateRawRelationship(family string, raw parsers.RawRelationship) *ImportError {
	newErr := func(field, value, msg string) *ImportError {
		return &ImportError{Line: raw.LineNum, Family: family, Field: field, Value: value, Message: msg}
	}

	if strings.TrimSpace(raw.Primary) == "" {
		return newErr("primary", raw.Primary, "primary member is required")
	}
	if strings.TrimSpace(raw.Related) == "" {
		return newErr("related", raw.Related, "related member is required")
	}
	if strings.TrimSpace(raw.Kind) == "" {
		return newErr("kind", raw.Kind, "kind is required")
	}
	if entities.NormalizeName(raw.Primary) == entities.NormalizeName(raw.Related) {
		return newErr("related", raw.Related, entities.ErrSelfLoop.Error())
	}
	if err := entities.ValidateNotes(raw.Notes); err != nil {
		return newErr("notes", "", err.Error())
	}
	return nil
}

func (s *ImportService) importRelationship(
	ctx context.Context,
	family string,
	row validRow,
	resolve func(string) (int64, error),
	opts ImportOptions,
	result *ImportResult,
) error {
	rowErr := func(field, value string, err error) {
		result.Errors = append(result.Errors, ImportError{
			Line: row.raw.LineNum, Family: family, Field: field, Value: value, Message: err.Error(),
		})
	}

	primaryID, err := resolve(row.raw.Primary)
	if err != nil {
		if !errors.Is(err, entities.ErrInvalidInput) {
			return fmt.Errorf("line %d: %w", row.raw.LineNum, err)
		}
		rowErr("primary", row.raw.Primary, err)
		return nil
	}
	relatedID, err := resolve(row.raw.Related)
	if err != nil {
		if !errors.Is(err, entities.ErrInvalidInput) {
			return fmt.Errorf("line %d: %w", row.raw.LineNum, err)
		}
		rowErr("related", row.raw.Related, err)
		return nil
	}

	_, err = s.relationships.Create(ctx, CreateRequest{
		PrimaryID:    primaryID,
		RelatedID:    relatedID,
		Kind:         row.kind,
		Notes:        row.raw.Notes,
		ActingUserID: opts.ActingUserID,
	})
	switch {
	case err == nil:
		result.Imported++
	case errors.Is(err, entities.ErrDuplicateEdge):
		result.Skipped++
	case entities.ErrorCode(err) != entities.CodeInternal:
		rowErr("kind", row.raw.Kind, err)
	default:
		return fmt.Errorf("line %d: %w", row.raw.LineNum, err)
	}
	return nil
}
