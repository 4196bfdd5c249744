package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

// Default pagination for member listings.
const (
	DefaultListLimit   = 50
	DefaultSearchLimit = 20
)

// MemberHandler handles family and member operations.
type MemberHandler struct {
	service *services.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(service *services.MemberService) *MemberHandler {
	return &MemberHandler{service: service}
}

// MemberListResult contains a page of members.
type MemberListResult struct {
	Family  *entities.Family   `json:"family"`
	Members []*entities.Member `json:"members"`
	Total   int                `json:"total"`
}

// HandleAddFamily creates a family.
func (h *MemberHandler) HandleAddFamily(ctx context.Context, name string) (*entities.Family, error) {
	return h.service.CreateFamily(ctx, name)
}

// HandleListFamilies lists all families.
func (h *MemberHandler) HandleListFamilies(ctx context.Context) ([]entities.Family, error) {
	families, err := h.service.ListFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing families: %w", err)
	}
	return families, nil
}

// HandleAddMember adds a member to the family with the given ID or name.
func (h *MemberHandler) HandleAddMember(ctx context.Context, family, name string) (*entities.Member, error) {
	f, err := h.service.ResolveFamily(ctx, family)
	if err != nil {
		return nil, err
	}
	return h.service.AddMember(ctx, f.ID, name)
}

// HandleGetMember finds a member by ID.
func (h *MemberHandler) HandleGetMember(ctx context.Context, memberID int64) (*entities.Member, error) {
	return h.service.FindByID(ctx, memberID)
}

// HandleList lists a page of members of a family.
func (h *MemberHandler) HandleList(ctx context.Context, family string, limit, offset int) (*MemberListResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	f, err := h.service.ResolveFamily(ctx, family)
	if err != nil {
		return nil, err
	}

	members, err := h.service.List(ctx, f.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	total, err := h.service.Count(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("counting members: %w", err)
	}

	return &MemberListResult{Family: f, Members: members, Total: total}, nil
}

// HandleSearch searches the members of a family by name.
func (h *MemberHandler) HandleSearch(ctx context.Context, family, query string, limit int) ([]*entities.Member, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	f, err := h.service.ResolveFamily(ctx, family)
	if err != nil {
		return nil, err
	}

	members, err := h.service.Search(ctx, f.ID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching members: %w", err)
	}
	return members, nil
}
