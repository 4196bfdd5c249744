package services

import (
	"github.com/google/uuid"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// newID returns a new relationship ID (can be replaced in tests).
var newID = func() string {
	return uuid.New().String()
}

// Mirror returns the reciprocal row implied by rel. Asymmetric kinds produce an edge
// with swapped endpoints, the reciprocal kind and a fresh ID, linked back to rel.
// Self-symmetric kinds are stored once, so the second result is false.
func Mirror(rel *entities.Relationship) (*entities.Relationship, bool) {
	if entities.IsSelfSymmetric(rel.Kind) {
		return nil, false
	}
	return &entities.Relationship{
		ID:              newID(),
		PrimaryID:       rel.RelatedID,
		RelatedID:       rel.PrimaryID,
		Kind:            entities.ReciprocalKind(rel.Kind),
		Notes:           rel.Notes,
		ReciprocalID:    rel.ID,
		CreatedByUserID: rel.CreatedByUserID,
		CreatedAt:       rel.CreatedAt,
		UpdatedAt:       rel.UpdatedAt,
	}, true
}

// Canonicalize puts a self-symmetric edge in canonical order: the lower member ID
// is the primary endpoint. Asymmetric edges keep their direction.
func Canonicalize(rel *entities.Relationship) {
	if entities.IsSelfSymmetric(rel.Kind) && rel.PrimaryID > rel.RelatedID {
		rel.PrimaryID, rel.RelatedID = rel.RelatedID, rel.PrimaryID
	}
}
