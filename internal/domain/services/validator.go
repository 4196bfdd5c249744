package services

import (
	"context"
	"fmt"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// EdgeValidator decides whether a candidate edge may be stored next to the
// edges that already connect its endpoints.
type EdgeValidator struct{}

// NewEdgeValidator creates a new EdgeValidator.
func NewEdgeValidator() *EdgeValidator {
	return &EdgeValidator{}
}

// Validate checks the candidate against existing, the edges already stored for the pair
// (minus any edge being replaced). Checks run in order: input, self loop, duplicate,
// conflicting kind, then family membership through the reader.
func (v *EdgeValidator) Validate(
	ctx context.Context,
	reader ports.GraphReader,
	candidate *entities.Relationship,
	existing []entities.Relationship,
) error {
	if !candidate.Kind.Valid() {
		return fmt.Errorf("%w: unknown relationship kind %d", entities.ErrInvalidInput, int(candidate.Kind))
	}
	if err := entities.ValidateNotes(candidate.Notes); err != nil {
		return err
	}

	if candidate.PrimaryID == candidate.RelatedID {
		return fmt.Errorf("%w: member %d", entities.ErrSelfLoop, candidate.PrimaryID)
	}

	// Compare facts from the candidate primary's point of view so that a stored
	// mirror row or a reversed self-symmetric row is recognized as the same fact.
	for i := range existing {
		e := &existing[i]
		if !e.Connects(candidate.PrimaryID, candidate.RelatedID) {
			continue
		}
		if e.PerspectiveKind(candidate.PrimaryID) == candidate.Kind {
			return fmt.Errorf("%w: %d is already %s of %d (relationship %s)",
				entities.ErrDuplicateEdge, candidate.RelatedID, candidate.Kind, candidate.PrimaryID, e.ID)
		}
	}
	for i := range existing {
		e := &existing[i]
		if !e.Connects(candidate.PrimaryID, candidate.RelatedID) {
			continue
		}
		return fmt.Errorf("%w: %d is already %s of %d (relationship %s)",
			entities.ErrConflictingKind, candidate.RelatedID, e.PerspectiveKind(candidate.PrimaryID), candidate.PrimaryID, e.ID)
	}

	return v.checkFamilies(ctx, reader, candidate)
}

// checkFamilies resolves both endpoints and rejects edges that cross families.
func (v *EdgeValidator) checkFamilies(ctx context.Context, reader ports.GraphReader, candidate *entities.Relationship) error {
	primary, err := resolveMember(ctx, reader, candidate.PrimaryID)
	if err != nil {
		return err
	}
	related, err := resolveMember(ctx, reader, candidate.RelatedID)
	if err != nil {
		return err
	}
	if primary.FamilyID != related.FamilyID {
		return fmt.Errorf("%w: member %d is in family %d, member %d is in family %d",
			entities.ErrCrossFamilyReference, primary.ID, primary.FamilyID, related.ID, related.FamilyID)
	}
	return nil
}

// resolveMember loads a member and maps a missing one to ErrNotFound.
func resolveMember(ctx context.Context, reader ports.GraphReader, id int64) (*entities.Member, error) {
	member, err := reader.ResolveMember(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving member %d: %w", id, err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %d: %w", id, entities.ErrNotFound)
	}
	return member, nil
}
