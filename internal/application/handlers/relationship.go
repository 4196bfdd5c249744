package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

// RelationshipHandler handles relationship operations.
// Members may be referenced by numeric ID, or by name when a family is given.
type RelationshipHandler struct {
	relationships *services.RelationshipService
	members       *services.MemberService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(relationships *services.RelationshipService, members *services.MemberService) *RelationshipHandler {
	return &RelationshipHandler{
		relationships: relationships,
		members:       members,
	}
}

// CreateInput describes a relationship to create.
type CreateInput struct {
	Family  string // Family ID or name, required for name references
	Primary string
	Kind    string
	Related string
	Notes   string
}

// UpdateInput describes changes to a relationship. Empty fields keep their value.
type UpdateInput struct {
	Kind  string
	Notes *string
}

// ListOptions configures relationship listing behavior.
type ListOptions struct {
	Family string // Family ID or name (empty = all families)
	Member string // Member ID or name (empty = all members)
	Kind   string // Filter by kind as seen from the member (empty = all)
}

// ListResult contains the result of listing relationships.
type ListResult struct {
	Relationships []entities.RelationshipView `json:"relationships"`
}

// KindInfo describes one relationship kind for display.
type KindInfo struct {
	Kind       string `json:"kind"`
	Ordinal    int    `json:"ordinal"`
	Label      string `json:"label"`
	Reciprocal string `json:"reciprocal"`
	Symmetry   string `json:"symmetry"`
}

// HandleCreate creates a new relationship.
func (h *RelationshipHandler) HandleCreate(ctx context.Context, in CreateInput) (*services.WriteResult, error) {
	kind, err := entities.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}

	familyID, err := h.familyID(ctx, in.Family)
	if err != nil {
		return nil, err
	}

	primary, err := h.members.ResolveMember(ctx, familyID, in.Primary)
	if err != nil {
		return nil, err
	}
	related, err := h.members.ResolveMember(ctx, familyID, in.Related)
	if err != nil {
		return nil, err
	}

	return h.relationships.Create(ctx, services.CreateRequest{
		PrimaryID: primary.ID,
		RelatedID: related.ID,
		Kind:      kind,
		Notes:     in.Notes,
	})
}

// HandleUpdate changes the kind and/or notes of a relationship.
func (h *RelationshipHandler) HandleUpdate(ctx context.Context, id string, in UpdateInput) (*services.WriteResult, error) {
	current, err := h.relationships.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req := services.UpdateRequest{Kind: current.Kind, Notes: current.Notes}
	if in.Kind != "" {
		if req.Kind, err = entities.ParseKind(in.Kind); err != nil {
			return nil, err
		}
	}
	if in.Notes != nil {
		req.Notes = *in.Notes
	}

	return h.relationships.Update(ctx, id, req)
}

// HandleDelete removes a relationship and its mirror.
// It reports whether anything was deleted.
func (h *RelationshipHandler) HandleDelete(ctx context.Context, id string) (bool, error) {
	return h.relationships.Delete(ctx, id)
}

// HandleGet returns a relationship by ID.
func (h *RelationshipHandler) HandleGet(ctx context.Context, id string) (*entities.Relationship, error) {
	return h.relationships.GetByID(ctx, id)
}

// HandleList returns relationships with optional filtering.
func (h *RelationshipHandler) HandleList(ctx context.Context, opts ListOptions) (*ListResult, error) {
	var filter entities.Kind
	if opts.Kind != "" {
		k, err := entities.ParseKind(opts.Kind)
		if err != nil {
			return nil, err
		}
		filter = k
	}

	familyID, err := h.familyID(ctx, opts.Family)
	if err != nil {
		return nil, err
	}

	var (
		views    []entities.RelationshipView
		memberID int64
	)
	switch {
	case opts.Member != "":
		member, err := h.members.ResolveMember(ctx, familyID, opts.Member)
		if err != nil {
			return nil, err
		}
		memberID = member.ID
		views, err = h.relationships.ListByMember(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("listing relationships: %w", err)
		}
	case familyID != 0:
		views, err = h.relationships.ListByFamily(ctx, familyID)
		if err != nil {
			return nil, fmt.Errorf("listing relationships: %w", err)
		}
	default:
		views, err = h.relationships.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing relationships: %w", err)
		}
	}

	if filter != 0 {
		views = filterByKind(views, memberID, filter)
	}

	return &ListResult{Relationships: views}, nil
}

// HandleTree returns the grouped relationship tree of a member.
func (h *RelationshipHandler) HandleTree(ctx context.Context, family, member string) (*entities.RelationshipTree, error) {
	familyID, err := h.familyID(ctx, family)
	if err != nil {
		return nil, err
	}
	m, err := h.members.ResolveMember(ctx, familyID, member)
	if err != nil {
		return nil, err
	}
	return h.relationships.Tree(ctx, m.ID)
}

// HandleExists reports whether any relationship connects two members.
func (h *RelationshipHandler) HandleExists(ctx context.Context, family, a, b string) (bool, error) {
	familyID, err := h.familyID(ctx, family)
	if err != nil {
		return false, err
	}
	first, err := h.members.ResolveMember(ctx, familyID, a)
	if err != nil {
		return false, err
	}
	second, err := h.members.ResolveMember(ctx, familyID, b)
	if err != nil {
		return false, err
	}
	return h.relationships.Exists(ctx, first.ID, second.ID)
}

// HandleHistory returns the audit trail of a relationship, newest first.
func (h *RelationshipHandler) HandleHistory(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	return h.relationships.History(ctx, id)
}

// HandleKinds lists every relationship kind in ordinal order.
func (h *RelationshipHandler) HandleKinds() []KindInfo {
	return ListKinds()
}

// ListKinds describes every relationship kind in ordinal order.
func ListKinds() []KindInfo {
	kinds := entities.AllKinds()
	infos := make([]KindInfo, 0, len(kinds))
	for _, k := range kinds {
		infos = append(infos, KindInfo{
			Kind:       k.String(),
			Ordinal:    int(k),
			Label:      k.Label(),
			Reciprocal: entities.ReciprocalKind(k).String(),
			Symmetry:   entities.Symmetry(k).String(),
		})
	}
	return infos
}

func (h *RelationshipHandler) familyID(ctx context.Context, ref string) (int64, error) {
	if ref == "" {
		return 0, nil
	}
	family, err := h.members.ResolveFamily(ctx, ref)
	if err != nil {
		return 0, err
	}
	return family.ID, nil
}

// filterByKind keeps edges of the given kind. With a member, the kind is read
// from that member's point of view.
func filterByKind(views []entities.RelationshipView, memberID int64, kind entities.Kind) []entities.RelationshipView {
	filtered := make([]entities.RelationshipView, 0, len(views))
	for _, v := range views {
		k := v.Kind
		if memberID != 0 {
			k = v.PerspectiveKind(memberID)
		}
		if k == kind {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
