package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/mocks"
)

// setupRelationshipTest creates a service over an in-memory store holding one
// family with members 1, 2 and 3.
func setupRelationshipTest() (*RelationshipService, *mocks.GraphStore, *mocks.MetricsCollector) {
	store := mocks.NewGraphStore()
	fam := store.AddFamily("Lovelace")
	store.AddMember(fam.ID, "Ada")
	store.AddMember(fam.ID, "Annabella")
	store.AddMember(fam.ID, "Judith")

	metrics := mocks.NewMetricsCollector()
	svc := NewRelationshipService(store, WithMetrics(metrics))
	return svc, store, metrics
}

func createEdge(t *testing.T, svc *RelationshipService, primary int64, kind entities.Kind, related int64) *WriteResult {
	t.Helper()
	result, err := svc.Create(context.Background(), CreateRequest{PrimaryID: primary, RelatedID: related, Kind: kind})
	require.NoError(t, err)
	return result
}

func TestRelationshipService_Create(t *testing.T) {
	t.Run("asymmetric kind stores a linked mirror", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()

		result := createEdge(t, svc, 1, entities.KindParent, 2)

		rel := result.Relationship
		require.NotNil(t, result.Reciprocal)
		mirror := result.Reciprocal
		assert.NotEmpty(t, rel.ID)
		assert.Equal(t, int64(1), rel.PrimaryID)
		assert.Equal(t, int64(2), rel.RelatedID)
		assert.Equal(t, entities.KindParent, rel.Kind)
		assert.Equal(t, int64(2), mirror.PrimaryID)
		assert.Equal(t, int64(1), mirror.RelatedID)
		assert.Equal(t, entities.KindChild, mirror.Kind)
		assert.Equal(t, mirror.ID, rel.ReciprocalID)
		assert.Equal(t, rel.ID, mirror.ReciprocalID)
		assert.Equal(t, 2, store.EdgeCount())

		stored, err := svc.GetByID(context.Background(), mirror.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.KindChild, stored.Kind)
	})

	t.Run("self-symmetric kind is stored once in canonical order", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()

		result := createEdge(t, svc, 3, entities.KindSpouse, 1)

		assert.Nil(t, result.Reciprocal)
		assert.Equal(t, int64(1), result.Relationship.PrimaryID)
		assert.Equal(t, int64(3), result.Relationship.RelatedID)
		assert.Empty(t, result.Relationship.ReciprocalID)
		assert.Equal(t, 1, store.EdgeCount())
	})

	t.Run("records acting user from context", func(t *testing.T) {
		svc, _, _ := setupRelationshipTest()
		ctx := WithActingUser(context.Background(), "user-7")

		result, err := svc.Create(ctx, CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindSibling})
		require.NoError(t, err)
		assert.Equal(t, "user-7", result.Relationship.CreatedByUserID)

		history, err := svc.History(ctx, result.Relationship.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, entities.ActionRelationshipCreated, history[0].Action)
		assert.Equal(t, "user-7", history[0].UserID)
	})

	t.Run("request user wins over context", func(t *testing.T) {
		svc, _, _ := setupRelationshipTest()
		ctx := WithActingUser(context.Background(), "user-7")

		result, err := svc.Create(ctx, CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindSibling, ActingUserID: "importer"})
		require.NoError(t, err)
		assert.Equal(t, "importer", result.Relationship.CreatedByUserID)
	})
}

func TestRelationshipService_Create_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, svc *RelationshipService, store *mocks.GraphStore)
		req     CreateRequest
		wantErr error
	}{
		{
			name:    "self loop",
			req:     CreateRequest{PrimaryID: 1, RelatedID: 1, Kind: entities.KindSibling},
			wantErr: entities.ErrSelfLoop,
		},
		{
			name:    "self loop is reported before member lookup",
			req:     CreateRequest{PrimaryID: 99, RelatedID: 99, Kind: entities.KindSibling},
			wantErr: entities.ErrSelfLoop,
		},
		{
			name:    "unknown kind",
			req:     CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.Kind(42)},
			wantErr: entities.ErrInvalidInput,
		},
		{
			name:    "notes too long",
			req:     CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindSibling, Notes: strings.Repeat("é", entities.MaxNotesLength+1)},
			wantErr: entities.ErrInvalidInput,
		},
		{
			name:    "unknown member",
			req:     CreateRequest{PrimaryID: 1, RelatedID: 99, Kind: entities.KindSibling},
			wantErr: entities.ErrNotFound,
		},
		{
			name: "cross family",
			setup: func(_ *testing.T, _ *RelationshipService, store *mocks.GraphStore) {
				other := store.AddFamily("Byron")
				store.AddMemberWithID(4, other.ID, "George")
			},
			req:     CreateRequest{PrimaryID: 1, RelatedID: 4, Kind: entities.KindCousin},
			wantErr: entities.ErrCrossFamilyReference,
		},
		{
			name: "exact duplicate",
			setup: func(t *testing.T, svc *RelationshipService, _ *mocks.GraphStore) {
				createEdge(t, svc, 1, entities.KindParent, 2)
			},
			req:     CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent},
			wantErr: entities.ErrDuplicateEdge,
		},
		{
			name: "reciprocal of an existing edge is a duplicate",
			setup: func(t *testing.T, svc *RelationshipService, _ *mocks.GraphStore) {
				createEdge(t, svc, 1, entities.KindParent, 2)
			},
			req:     CreateRequest{PrimaryID: 2, RelatedID: 1, Kind: entities.KindChild},
			wantErr: entities.ErrDuplicateEdge,
		},
		{
			name: "reversed self-symmetric edge is a duplicate",
			setup: func(t *testing.T, svc *RelationshipService, _ *mocks.GraphStore) {
				createEdge(t, svc, 1, entities.KindSpouse, 3)
			},
			req:     CreateRequest{PrimaryID: 3, RelatedID: 1, Kind: entities.KindSpouse},
			wantErr: entities.ErrDuplicateEdge,
		},
		{
			name: "different kind for the same pair conflicts",
			setup: func(t *testing.T, svc *RelationshipService, _ *mocks.GraphStore) {
				createEdge(t, svc, 1, entities.KindParent, 2)
			},
			req:     CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindSibling},
			wantErr: entities.ErrConflictingKind,
		},
		{
			name: "reversed direction of the same kind conflicts",
			setup: func(t *testing.T, svc *RelationshipService, _ *mocks.GraphStore) {
				createEdge(t, svc, 1, entities.KindParent, 2)
			},
			req:     CreateRequest{PrimaryID: 2, RelatedID: 1, Kind: entities.KindParent},
			wantErr: entities.ErrConflictingKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := setupRelationshipTest()
			if tt.setup != nil {
				tt.setup(t, svc, store)
			}
			before := store.EdgeCount()

			_, err := svc.Create(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, store.EdgeCount(), "rejected create must not store anything")
		})
	}
}

func TestRelationshipService_Scenario(t *testing.T) {
	svc, _, _ := setupRelationshipTest()
	ctx := context.Background()

	createEdge(t, svc, 1, entities.KindParent, 2)
	createEdge(t, svc, 2, entities.KindParent, 3)

	tree, err := svc.Tree(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tree.Groups, 2)
	assert.Equal(t, entities.KindChild, tree.Groups[0].Kind)
	assert.Equal(t, entities.KindParent, tree.Groups[1].Kind)
	require.Len(t, tree.Groups[0].Members, 1)
	require.Len(t, tree.Groups[1].Members, 1)
	assert.Equal(t, int64(1), tree.Groups[0].Members[0].MemberID)
	assert.Equal(t, "Ada", tree.Groups[0].Members[0].MemberName)
	assert.Equal(t, int64(3), tree.Groups[1].Members[0].MemberID)

	_, err = svc.Create(ctx, CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent})
	assert.ErrorIs(t, err, entities.ErrDuplicateEdge)

	_, err = svc.Create(ctx, CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindSibling})
	assert.ErrorIs(t, err, entities.ErrConflictingKind)

	exists, err := svc.Exists(ctx, 3, 2)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRelationshipService_Update(t *testing.T) {
	t.Run("kind change replaces the mirror", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindParent, 2)
		oldMirrorID := created.Reciprocal.ID

		result, err := svc.Update(context.Background(), created.Relationship.ID, UpdateRequest{Kind: entities.KindGrandparent})
		require.NoError(t, err)

		require.NotNil(t, result.Reciprocal)
		assert.Equal(t, entities.KindGrandparent, result.Relationship.Kind)
		assert.Equal(t, entities.KindGrandchild, result.Reciprocal.Kind)
		assert.NotEqual(t, oldMirrorID, result.Reciprocal.ID)
		assert.Equal(t, result.Reciprocal.ID, result.Relationship.ReciprocalID)
		assert.Equal(t, 2, store.EdgeCount())

		_, err = svc.GetByID(context.Background(), oldMirrorID)
		assert.ErrorIs(t, err, entities.ErrNotFound)

		mirror, err := svc.GetByID(context.Background(), result.Reciprocal.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Relationship.ID, mirror.ReciprocalID)
	})

	t.Run("notes change keeps the mirror row", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindParent, 2)

		result, err := svc.Update(context.Background(), created.Relationship.ID,
			UpdateRequest{Kind: entities.KindParent, Notes: "adoptive"})
		require.NoError(t, err)

		assert.Equal(t, created.Reciprocal.ID, result.Reciprocal.ID)
		assert.Equal(t, 2, store.EdgeCount())

		mirror, err := svc.GetByID(context.Background(), created.Reciprocal.ID)
		require.NoError(t, err)
		assert.Equal(t, "adoptive", mirror.Notes)
		assert.Equal(t, entities.KindChild, mirror.Kind)
	})

	t.Run("change to self-symmetric kind drops the mirror", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()
		created := createEdge(t, svc, 2, entities.KindParent, 1)

		result, err := svc.Update(context.Background(), created.Relationship.ID, UpdateRequest{Kind: entities.KindSibling})
		require.NoError(t, err)

		assert.Nil(t, result.Reciprocal)
		assert.Empty(t, result.Relationship.ReciprocalID)
		assert.Equal(t, int64(1), result.Relationship.PrimaryID, "self-symmetric edges are canonicalized")
		assert.Equal(t, 1, store.EdgeCount())
	})

	t.Run("change from self-symmetric kind adds a mirror", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindCousin, 3)

		result, err := svc.Update(context.Background(), created.Relationship.ID, UpdateRequest{Kind: entities.KindUncle})
		require.NoError(t, err)

		require.NotNil(t, result.Reciprocal)
		assert.Equal(t, entities.KindNephew, result.Reciprocal.Kind)
		assert.Equal(t, 2, store.EdgeCount())
	})

	t.Run("updating the mirror row re-derives the original", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindParent, 2)

		result, err := svc.Update(context.Background(), created.Reciprocal.ID, UpdateRequest{Kind: entities.KindStepChild})
		require.NoError(t, err)

		assert.Equal(t, entities.KindStepParent, result.Reciprocal.Kind)
		assert.Equal(t, int64(1), result.Reciprocal.PrimaryID)
		assert.Equal(t, 2, store.EdgeCount())
	})

	t.Run("unknown relationship", func(t *testing.T) {
		svc, _, _ := setupRelationshipTest()

		_, err := svc.Update(context.Background(), "missing", UpdateRequest{Kind: entities.KindParent})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("invalid notes leave the edge untouched", func(t *testing.T) {
		svc, _, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindParent, 2)

		_, err := svc.Update(context.Background(), created.Relationship.ID,
			UpdateRequest{Kind: entities.KindParent, Notes: strings.Repeat("x", entities.MaxNotesLength+1)})
		assert.ErrorIs(t, err, entities.ErrInvalidInput)

		stored, err := svc.GetByID(context.Background(), created.Relationship.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Notes)
	})
}

func TestRelationshipService_Delete(t *testing.T) {
	t.Run("removes the edge and its mirror", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindGrandparent, 3)

		deleted, err := svc.Delete(context.Background(), created.Relationship.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, 0, store.EdgeCount())

		exists, err := svc.Exists(context.Background(), 1, 3)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("deleting via the mirror removes both rows", func(t *testing.T) {
		svc, store, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindGrandparent, 3)

		deleted, err := svc.Delete(context.Background(), created.Reciprocal.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, 0, store.EdgeCount())
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		svc, _, _ := setupRelationshipTest()

		deleted, err := svc.Delete(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("audit log keeps history", func(t *testing.T) {
		svc, _, _ := setupRelationshipTest()
		created := createEdge(t, svc, 1, entities.KindSpouse, 2)

		_, err := svc.Delete(context.Background(), created.Relationship.ID)
		require.NoError(t, err)

		history, err := svc.History(context.Background(), created.Relationship.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, entities.ActionRelationshipDeleted, history[0].Action)
		assert.Equal(t, entities.ActionRelationshipCreated, history[1].Action)
	})
}

func TestRelationshipService_Queries(t *testing.T) {
	svc, store, _ := setupRelationshipTest()
	ctx := context.Background()
	other := store.AddFamily("Byron")
	store.AddMemberWithID(10, other.ID, "George")
	store.AddMemberWithID(11, other.ID, "Catherine")

	createEdge(t, svc, 1, entities.KindParent, 2)
	createEdge(t, svc, 10, entities.KindChild, 11)

	t.Run("list returns every row with names", func(t *testing.T) {
		views, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, views, 4)
		assert.Equal(t, "Ada", views[0].PrimaryName)
		assert.Equal(t, "Annabella", views[0].RelatedName)
	})

	t.Run("list by member", func(t *testing.T) {
		views, err := svc.ListByMember(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, views, 2)

		views, err = svc.ListByMember(ctx, 3)
		require.NoError(t, err)
		assert.Empty(t, views)
		assert.NotNil(t, views)
	})

	t.Run("list by unknown member", func(t *testing.T) {
		_, err := svc.ListByMember(ctx, 404)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("list by family", func(t *testing.T) {
		views, err := svc.ListByFamily(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, views, 2)
		for _, v := range views {
			assert.Contains(t, []int64{10, 11}, v.PrimaryID)
		}
	})

	t.Run("exists is direction-agnostic", func(t *testing.T) {
		for _, pair := range [][2]int64{{1, 2}, {2, 1}, {10, 11}} {
			exists, err := svc.Exists(ctx, pair[0], pair[1])
			require.NoError(t, err)
			assert.True(t, exists, "pair %v", pair)
		}
		exists, err := svc.Exists(ctx, 1, 3)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := svc.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestRelationshipService_Contention(t *testing.T) {
	t.Run("retries once", func(t *testing.T) {
		svc, store, metrics := setupRelationshipTest()
		store.ContentionFailures = 1

		_, err := svc.Create(context.Background(), CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent})
		require.NoError(t, err)
		assert.Equal(t, 2, store.TxCount)
		assert.Equal(t, 1, metrics.Retries["create"])
		assert.Equal(t, []string{"ok"}, metrics.Operations["create"])
	})

	t.Run("surfaces contention after the retry budget", func(t *testing.T) {
		svc, store, metrics := setupRelationshipTest()
		store.ContentionFailures = 2

		_, err := svc.Create(context.Background(), CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent})
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrContention)
		assert.True(t, entities.IsRetryable(err))
		assert.Equal(t, 0, store.EdgeCount())
		assert.Equal(t, []string{entities.CodeContention}, metrics.Operations["create"])
	})

	t.Run("retry budget is configurable", func(t *testing.T) {
		store := mocks.NewGraphStore()
		fam := store.AddFamily("Lovelace")
		store.AddMember(fam.ID, "Ada")
		store.AddMember(fam.ID, "Annabella")
		store.ContentionFailures = 1
		svc := NewRelationshipService(store, WithContentionRetries(0))

		_, err := svc.Create(context.Background(), CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent})
		assert.ErrorIs(t, err, entities.ErrContention)
		assert.Equal(t, 1, store.TxCount)
	})
}

func TestRelationshipService_Atomicity(t *testing.T) {
	svc, store, metrics := setupRelationshipTest()
	store.InsertErr = errors.New("disk full")
	store.InsertErrAfter = 1

	_, err := svc.Create(context.Background(), CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving reciprocal relationship")
	assert.Equal(t, entities.CodeInternal, entities.ErrorCode(err))
	assert.Equal(t, 0, store.EdgeCount(), "the edge must not be stored without its mirror")
	assert.Equal(t, []string{entities.CodeInternal}, metrics.Operations["create"])
}

func TestRelationshipService_Metrics(t *testing.T) {
	svc, _, metrics := setupRelationshipTest()
	ctx := context.Background()

	createEdge(t, svc, 1, entities.KindParent, 2)
	_, _ = svc.Create(ctx, CreateRequest{PrimaryID: 1, RelatedID: 2, Kind: entities.KindParent})
	_, _ = svc.Tree(ctx, 1)

	assert.Equal(t, []string{"ok", entities.CodeDuplicateEdge}, metrics.Operations["create"])
	assert.Equal(t, []string{"ok"}, metrics.Operations["tree"])
}
