package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/mocks"
	"github.com/ersonp/kin-core/internal/domain/services"
)

func setupRelationshipHandler() (*RelationshipHandler, *mocks.GraphStore) {
	store := mocks.NewGraphStore()
	fam := store.AddFamily("Bronte")
	store.AddMember(fam.ID, "Charlotte") // 1
	store.AddMember(fam.ID, "Emily")     // 2
	store.AddMember(fam.ID, "Patrick")   // 3

	other := store.AddFamily("Austen")
	store.AddMember(other.ID, "Jane") // 4

	handler := NewRelationshipHandler(
		services.NewRelationshipService(store),
		services.NewMemberService(store, store),
	)
	return handler, store
}

func TestRelationshipHandler_HandleCreate(t *testing.T) {
	t.Run("by name within family", func(t *testing.T) {
		handler, store := setupRelationshipHandler()

		result, err := handler.HandleCreate(context.Background(), CreateInput{
			Family:  "Bronte",
			Primary: "Charlotte",
			Kind:    "parent",
			Related: "Patrick",
			Notes:   "father",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Relationship.PrimaryID)
		assert.Equal(t, int64(3), result.Relationship.RelatedID)
		assert.Equal(t, "father", result.Relationship.Notes)
		require.NotNil(t, result.Reciprocal)
		assert.Equal(t, entities.KindChild, result.Reciprocal.Kind)
		assert.Equal(t, 2, store.EdgeCount())
	})

	t.Run("by id without family", func(t *testing.T) {
		handler, _ := setupRelationshipHandler()

		result, err := handler.HandleCreate(context.Background(), CreateInput{
			Primary: "1", Kind: "sibling", Related: "2",
		})

		require.NoError(t, err)
		assert.Nil(t, result.Reciprocal)
	})

	t.Run("acting user from context", func(t *testing.T) {
		handler, _ := setupRelationshipHandler()
		ctx := services.WithActingUser(context.Background(), "user-7")

		result, err := handler.HandleCreate(ctx, CreateInput{Primary: "1", Kind: "sibling", Related: "2"})

		require.NoError(t, err)
		assert.Equal(t, "user-7", result.Relationship.CreatedByUserID)
	})

	tests := []struct {
		name    string
		input   CreateInput
		wantErr error
	}{
		{"unknown kind", CreateInput{Primary: "1", Kind: "friend", Related: "2"}, entities.ErrInvalidInput},
		{"name without family", CreateInput{Primary: "Charlotte", Kind: "sibling", Related: "Emily"}, entities.ErrInvalidInput},
		{"unknown family", CreateInput{Family: "Eyre", Primary: "Charlotte", Kind: "sibling", Related: "Emily"}, entities.ErrNotFound},
		{"unknown member", CreateInput{Family: "Bronte", Primary: "Anne", Kind: "sibling", Related: "Emily"}, entities.ErrNotFound},
		{"self loop", CreateInput{Primary: "2", Kind: "sibling", Related: "2"}, entities.ErrSelfLoop},
		{"cross family", CreateInput{Primary: "1", Kind: "cousin", Related: "4"}, entities.ErrCrossFamilyReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := setupRelationshipHandler()

			_, err := handler.HandleCreate(context.Background(), tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRelationshipHandler_HandleUpdate(t *testing.T) {
	t.Run("kind only keeps notes", func(t *testing.T) {
		handler, _ := setupRelationshipHandler()
		created, err := handler.HandleCreate(context.Background(), CreateInput{
			Primary: "1", Kind: "parent", Related: "3", Notes: "father",
		})
		require.NoError(t, err)

		result, err := handler.HandleUpdate(context.Background(), created.Relationship.ID, UpdateInput{Kind: "step-parent"})

		require.NoError(t, err)
		assert.Equal(t, entities.KindStepParent, result.Relationship.Kind)
		assert.Equal(t, "father", result.Relationship.Notes)
		require.NotNil(t, result.Reciprocal)
		assert.Equal(t, entities.KindStepChild, result.Reciprocal.Kind)
	})

	t.Run("notes only keeps kind", func(t *testing.T) {
		handler, _ := setupRelationshipHandler()
		created, err := handler.HandleCreate(context.Background(), CreateInput{Primary: "1", Kind: "sibling", Related: "2"})
		require.NoError(t, err)

		notes := "older sister"
		result, err := handler.HandleUpdate(context.Background(), created.Relationship.ID, UpdateInput{Notes: &notes})

		require.NoError(t, err)
		assert.Equal(t, entities.KindSibling, result.Relationship.Kind)
		assert.Equal(t, "older sister", result.Relationship.Notes)
	})

	t.Run("unknown id", func(t *testing.T) {
		handler, _ := setupRelationshipHandler()

		_, err := handler.HandleUpdate(context.Background(), "missing", UpdateInput{Kind: "sibling"})

		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("invalid kind", func(t *testing.T) {
		handler, _ := setupRelationshipHandler()
		created, err := handler.HandleCreate(context.Background(), CreateInput{Primary: "1", Kind: "sibling", Related: "2"})
		require.NoError(t, err)

		_, err = handler.HandleUpdate(context.Background(), created.Relationship.ID, UpdateInput{Kind: "rival"})

		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})
}

func TestRelationshipHandler_HandleDelete(t *testing.T) {
	handler, store := setupRelationshipHandler()
	created, err := handler.HandleCreate(context.Background(), CreateInput{Primary: "1", Kind: "parent", Related: "3"})
	require.NoError(t, err)

	deleted, err := handler.HandleDelete(context.Background(), created.Relationship.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, store.EdgeCount())

	deleted, err = handler.HandleDelete(context.Background(), created.Relationship.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRelationshipHandler_HandleList(t *testing.T) {
	handler, _ := setupRelationshipHandler()
	ctx := context.Background()
	_, err := handler.HandleCreate(ctx, CreateInput{Primary: "1", Kind: "sibling", Related: "2"})
	require.NoError(t, err)
	_, err = handler.HandleCreate(ctx, CreateInput{Primary: "1", Kind: "parent", Related: "3"})
	require.NoError(t, err)

	t.Run("all", func(t *testing.T) {
		result, err := handler.HandleList(ctx, ListOptions{})
		require.NoError(t, err)
		assert.Len(t, result.Relationships, 3)
	})

	t.Run("by family", func(t *testing.T) {
		result, err := handler.HandleList(ctx, ListOptions{Family: "Bronte"})
		require.NoError(t, err)
		assert.Len(t, result.Relationships, 3)

		result, err = handler.HandleList(ctx, ListOptions{Family: "Austen"})
		require.NoError(t, err)
		assert.Empty(t, result.Relationships)
	})

	t.Run("by member", func(t *testing.T) {
		result, err := handler.HandleList(ctx, ListOptions{Family: "Bronte", Member: "Emily"})
		require.NoError(t, err)
		require.Len(t, result.Relationships, 1)
		assert.Equal(t, "Charlotte", result.Relationships[0].PrimaryName)
		assert.Equal(t, "Emily", result.Relationships[0].RelatedName)
	})

	t.Run("kind from member perspective", func(t *testing.T) {
		// Patrick sees Charlotte as his child through either stored row.
		result, err := handler.HandleList(ctx, ListOptions{Member: "3", Kind: "child"})
		require.NoError(t, err)
		require.NotEmpty(t, result.Relationships)
		for _, v := range result.Relationships {
			assert.Equal(t, entities.KindChild, v.PerspectiveKind(3))
		}

		result, err = handler.HandleList(ctx, ListOptions{Member: "3", Kind: "parent"})
		require.NoError(t, err)
		assert.Empty(t, result.Relationships)
	})

	t.Run("invalid kind filter", func(t *testing.T) {
		_, err := handler.HandleList(ctx, ListOptions{Kind: "rival"})
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})
}

func TestRelationshipHandler_HandleTreeAndExists(t *testing.T) {
	handler, _ := setupRelationshipHandler()
	ctx := context.Background()
	_, err := handler.HandleCreate(ctx, CreateInput{Primary: "1", Kind: "parent", Related: "3"})
	require.NoError(t, err)

	tree, err := handler.HandleTree(ctx, "Bronte", "Patrick")
	require.NoError(t, err)
	assert.Equal(t, int64(3), tree.MemberID)
	group := tree.Group(entities.KindChild)
	require.NotNil(t, group)
	require.Len(t, group.Members, 1)
	assert.Equal(t, "Charlotte", group.Members[0].MemberName)

	exists, err := handler.HandleExists(ctx, "Bronte", "Patrick", "Charlotte")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = handler.HandleExists(ctx, "", "2", "3")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = handler.HandleTree(ctx, "", "99")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRelationshipHandler_HandleHistory(t *testing.T) {
	handler, _ := setupRelationshipHandler()
	ctx := services.WithActingUser(context.Background(), "archivist")
	created, err := handler.HandleCreate(ctx, CreateInput{Primary: "1", Kind: "sibling", Related: "2"})
	require.NoError(t, err)

	history, err := handler.HandleHistory(ctx, created.Relationship.ID)

	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entities.ActionRelationshipCreated, history[0].Action)
	assert.Equal(t, "archivist", history[0].UserID)
}

func TestRelationshipHandler_HandleKinds(t *testing.T) {
	handler, _ := setupRelationshipHandler()

	kinds := handler.HandleKinds()

	require.Len(t, kinds, len(entities.AllKinds()))
	assert.Equal(t, KindInfo{
		Kind: "parent", Ordinal: 1, Label: "Parent", Reciprocal: "child", Symmetry: "asymmetric-pair",
	}, kinds[0])
	assert.Equal(t, "spouse", kinds[2].Reciprocal)
	assert.Equal(t, "self-symmetric", kinds[2].Symmetry)
	assert.Equal(t, 99, kinds[len(kinds)-1].Ordinal)
}
