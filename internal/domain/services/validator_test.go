package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/mocks"
)

func TestEdgeValidator_Validate(t *testing.T) {
	store := mocks.NewGraphStore()
	fam := store.AddFamily("Curie")
	store.AddMemberWithID(1, fam.ID, "Marie")
	store.AddMemberWithID(2, fam.ID, "Pierre")
	other := store.AddFamily("Joliot")
	store.AddMemberWithID(3, other.ID, "Frederic")

	parentEdge := entities.Relationship{ID: "e1", PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent, ReciprocalID: "e2"}
	childMirror := entities.Relationship{ID: "e2", PrimaryID: 2, RelatedID: 1, Kind: entities.KindChild, ReciprocalID: "e1"}
	spouseEdge := entities.Relationship{ID: "e3", PrimaryID: 1, RelatedID: 2, Kind: entities.KindSpouse}

	tests := []struct {
		name      string
		candidate entities.Relationship
		existing  []entities.Relationship
		wantErr   error
	}{
		{
			name:      "valid edge",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent},
		},
		{
			name:      "invalid kind is checked first",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 1, Kind: entities.Kind(0)},
			wantErr:   entities.ErrInvalidInput,
		},
		{
			name:      "self loop",
			candidate: entities.Relationship{PrimaryID: 2, RelatedID: 2, Kind: entities.KindOther},
			wantErr:   entities.ErrSelfLoop,
		},
		{
			name:      "duplicate of stored edge",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent},
			existing:  []entities.Relationship{parentEdge, childMirror},
			wantErr:   entities.ErrDuplicateEdge,
		},
		{
			name:      "duplicate of stored mirror",
			candidate: entities.Relationship{PrimaryID: 2, RelatedID: 1, Kind: entities.KindChild},
			existing:  []entities.Relationship{parentEdge, childMirror},
			wantErr:   entities.ErrDuplicateEdge,
		},
		{
			name:      "reversed self-symmetric duplicate",
			candidate: entities.Relationship{PrimaryID: 2, RelatedID: 1, Kind: entities.KindSpouse},
			existing:  []entities.Relationship{spouseEdge},
			wantErr:   entities.ErrDuplicateEdge,
		},
		{
			name:      "duplicate wins over conflict",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 2, Kind: entities.KindSpouse},
			existing:  []entities.Relationship{parentEdge, childMirror, spouseEdge},
			wantErr:   entities.ErrDuplicateEdge,
		},
		{
			name:      "conflicting kind",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 2, Kind: entities.KindCousin},
			existing:  []entities.Relationship{spouseEdge},
			wantErr:   entities.ErrConflictingKind,
		},
		{
			name:      "edges of other pairs are ignored",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 2, Kind: entities.KindCousin},
			existing:  []entities.Relationship{{ID: "x", PrimaryID: 1, RelatedID: 5, Kind: entities.KindSibling}},
		},
		{
			name:      "missing member",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 9, Kind: entities.KindSibling},
			wantErr:   entities.ErrNotFound,
		},
		{
			name:      "cross family",
			candidate: entities.Relationship{PrimaryID: 1, RelatedID: 3, Kind: entities.KindSibling},
			wantErr:   entities.ErrCrossFamilyReference,
		},
	}

	v := NewEdgeValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := tt.candidate
			err := v.Validate(context.Background(), store, &candidate, tt.existing)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
