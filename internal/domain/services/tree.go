package services

import (
	"context"
	"fmt"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// TreeAssembler builds the per-member relationship tree.
type TreeAssembler struct {
	reader ports.GraphReader
}

// NewTreeAssembler creates a new TreeAssembler.
func NewTreeAssembler(reader ports.GraphReader) *TreeAssembler {
	return &TreeAssembler{reader: reader}
}

// Assemble gathers every edge touching the member and groups the connected members
// by the role they play for it. Groups keep the order in which their kind first
// appears. A fact stored as an edge plus its mirror is listed once.
func (a *TreeAssembler) Assemble(ctx context.Context, memberID int64) (*entities.RelationshipTree, error) {
	member, err := resolveMember(ctx, a.reader, memberID)
	if err != nil {
		return nil, err
	}

	edges, err := a.reader.FindEdgesForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("finding relationships for member %d: %w", memberID, err)
	}

	tree := &entities.RelationshipTree{
		MemberID:   member.ID,
		MemberName: member.Name,
		Groups:     []entities.TreeGroup{},
	}
	if len(edges) == 0 {
		return tree, nil
	}

	others := make([]int64, 0, len(edges))
	for i := range edges {
		others = append(others, edges[i].Other(memberID))
	}
	names, err := a.reader.ResolveMemberNames(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("resolving member names: %w", err)
	}

	type factKey struct {
		other int64
		kind  entities.Kind
	}
	seen := make(map[factKey]bool, len(edges))
	groupIndex := make(map[entities.Kind]int)

	for i := range edges {
		e := &edges[i]
		other := e.Other(memberID)
		kind := e.PerspectiveKind(memberID)

		key := factKey{other: other, kind: kind}
		if seen[key] {
			continue
		}
		seen[key] = true

		idx, ok := groupIndex[kind]
		if !ok {
			idx = len(tree.Groups)
			groupIndex[kind] = idx
			tree.Groups = append(tree.Groups, entities.TreeGroup{Kind: kind, Label: kind.Label()})
		}
		tree.Groups[idx].Members = append(tree.Groups[idx].Members, entities.TreeEntry{
			RelationshipID: e.ID,
			MemberID:       other,
			MemberName:     names[other],
			Notes:          e.Notes,
			CreatedAt:      e.CreatedAt,
		})
	}

	return tree, nil
}
