package entities

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxNotesLength is the maximum number of characters allowed in relationship notes.
const MaxNotesLength = 500

// Relationship is a directed relationship fact between two members.
// The edge (primary, kind, related) reads "related is primary's kind":
// (1, parent, 2) records that member 2 is the parent of member 1.
type Relationship struct {
	ID              string    `json:"id"`
	PrimaryID       int64     `json:"primary_id"`
	RelatedID       int64     `json:"related_id"`
	Kind            Kind      `json:"kind"`
	Notes           string    `json:"notes,omitempty"`
	ReciprocalID    string    `json:"reciprocal_id,omitempty"` // Mirror row, asymmetric kinds only
	CreatedByUserID string    `json:"created_by_user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Connects reports whether the edge touches both members, in either direction.
func (r *Relationship) Connects(a, b int64) bool {
	return (r.PrimaryID == a && r.RelatedID == b) || (r.PrimaryID == b && r.RelatedID == a)
}

// Touches reports whether memberID is one of the edge's endpoints.
func (r *Relationship) Touches(memberID int64) bool {
	return r.PrimaryID == memberID || r.RelatedID == memberID
}

// Other returns the endpoint that is not memberID.
func (r *Relationship) Other(memberID int64) int64 {
	if r.PrimaryID == memberID {
		return r.RelatedID
	}
	return r.PrimaryID
}

// PerspectiveKind returns the role the other endpoint plays for memberID.
// When memberID is the related side, the stored kind is read through its reciprocal.
func (r *Relationship) PerspectiveKind(memberID int64) Kind {
	if r.PrimaryID == memberID {
		return r.Kind
	}
	return ReciprocalKind(r.Kind)
}

// ValidateNotes checks the notes length limit.
func ValidateNotes(notes string) error {
	if n := utf8.RuneCountInString(notes); n > MaxNotesLength {
		return fmt.Errorf("%w: notes are %d characters, maximum is %d", ErrInvalidInput, n, MaxNotesLength)
	}
	return nil
}

// RelationshipView is a relationship enriched with endpoint names.
type RelationshipView struct {
	Relationship
	PrimaryName string `json:"primary_name"`
	RelatedName string `json:"related_name"`
}
