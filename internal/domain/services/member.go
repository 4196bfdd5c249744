package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// MaxNameLength is the maximum length of family and member names.
const MaxNameLength = 200

// MemberService manages families and the members the graph connects.
type MemberService struct {
	directory ports.MemberDirectory
	graph     ports.GraphReader
}

// NewMemberService creates a new MemberService.
func NewMemberService(directory ports.MemberDirectory, graph ports.GraphReader) *MemberService {
	return &MemberService{
		directory: directory,
		graph:     graph,
	}
}

// CreateFamily creates a family with a unique name.
func (s *MemberService) CreateFamily(ctx context.Context, name string) (*entities.Family, error) {
	name, err := validateName("family", name)
	if err != nil {
		return nil, err
	}

	existing, err := s.directory.FindFamilyByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("checking existing family: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: family %q already exists (id: %d)", entities.ErrInvalidInput, name, existing.ID)
	}

	family := &entities.Family{Name: name, CreatedAt: timeNow()}
	if err := s.directory.SaveFamily(ctx, family); err != nil {
		return nil, fmt.Errorf("saving family: %w", err)
	}
	return family, nil
}

// FindOrCreateFamily returns the family with the given name, creating it if needed.
func (s *MemberService) FindOrCreateFamily(ctx context.Context, name string) (*entities.Family, bool, error) {
	existing, err := s.directory.FindFamilyByName(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("finding family: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	family, err := s.CreateFamily(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return family, true, nil
}

// ListFamilies lists all families.
func (s *MemberService) ListFamilies(ctx context.Context) ([]entities.Family, error) {
	return s.directory.ListFamilies(ctx)
}

// ResolveFamily finds a family by numeric ID or by name.
func (s *MemberService) ResolveFamily(ctx context.Context, ref string) (*entities.Family, error) {
	var (
		family *entities.Family
		err    error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		family, err = s.directory.FindFamilyByID(ctx, id)
	} else {
		family, err = s.directory.FindFamilyByName(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("finding family: %w", err)
	}
	if family == nil {
		return nil, fmt.Errorf("family %q: %w", ref, entities.ErrNotFound)
	}
	return family, nil
}

// AddMember adds a member to an existing family.
func (s *MemberService) AddMember(ctx context.Context, familyID int64, name string) (*entities.Member, error) {
	name, err := validateName("member", name)
	if err != nil {
		return nil, err
	}

	family, err := s.directory.FindFamilyByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("finding family: %w", err)
	}
	if family == nil {
		return nil, fmt.Errorf("family %d: %w", familyID, entities.ErrNotFound)
	}

	member := &entities.Member{
		FamilyID:       familyID,
		Name:           name,
		NormalizedName: entities.NormalizeName(name),
		CreatedAt:      timeNow(),
	}
	if err := s.directory.SaveMember(ctx, member); err != nil {
		return nil, fmt.Errorf("saving member: %w", err)
	}
	return member, nil
}

// FindOrAddMember returns the family member with the given name, adding it if needed.
func (s *MemberService) FindOrAddMember(ctx context.Context, familyID int64, name string) (*entities.Member, bool, error) {
	existing, err := s.directory.FindMemberByName(ctx, familyID, name)
	if err != nil {
		return nil, false, fmt.Errorf("finding member: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	member, err := s.AddMember(ctx, familyID, name)
	if err != nil {
		return nil, false, err
	}
	return member, true, nil
}

// FindByID finds a member by ID.
func (s *MemberService) FindByID(ctx context.Context, memberID int64) (*entities.Member, error) {
	return resolveMember(ctx, s.graph, memberID)
}

// ResolveMember finds a member by numeric ID, or by name within the family
// when familyID is non-zero.
func (s *MemberService) ResolveMember(ctx context.Context, familyID int64, ref string) (*entities.Member, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.FindByID(ctx, id)
	}
	if familyID == 0 {
		return nil, fmt.Errorf("%w: member %q must be an ID unless a family is given", entities.ErrInvalidInput, ref)
	}
	member, err := s.directory.FindMemberByName(ctx, familyID, ref)
	if err != nil {
		return nil, fmt.Errorf("finding member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %q: %w", ref, entities.ErrNotFound)
	}
	return member, nil
}

// List returns the members of a family with pagination.
func (s *MemberService) List(ctx context.Context, familyID int64, limit, offset int) ([]*entities.Member, error) {
	return s.directory.ListMembers(ctx, familyID, limit, offset)
}

// Search searches the members of a family by name.
func (s *MemberService) Search(ctx context.Context, familyID int64, query string, limit int) ([]*entities.Member, error) {
	return s.directory.SearchMembers(ctx, familyID, query, limit)
}

// Count returns the number of members in a family.
func (s *MemberService) Count(ctx context.Context, familyID int64) (int, error) {
	return s.directory.CountMembers(ctx, familyID)
}

func validateName(what, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s name is required", entities.ErrInvalidInput, what)
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("%w: %s name exceeds %d characters", entities.ErrInvalidInput, what, MaxNameLength)
	}
	return name, nil
}
