package entities

import "time"

// TreeEntry is one connected member inside a tree group.
type TreeEntry struct {
	RelationshipID string    `json:"relationship_id"`
	MemberID       int64     `json:"member_id"`
	MemberName     string    `json:"member_name"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TreeGroup holds all members related to the tree's root by one kind.
type TreeGroup struct {
	Kind    Kind        `json:"kind"`
	Label   string      `json:"label"`
	Members []TreeEntry `json:"members"`
}

// RelationshipTree is the per-member view of the graph, grouped by the role each
// connected member plays for the root.
type RelationshipTree struct {
	MemberID   int64       `json:"member_id"`
	MemberName string      `json:"member_name"`
	Groups     []TreeGroup `json:"groups"`
}

// Group returns the group for kind k, or nil if the tree has none.
func (t *RelationshipTree) Group(k Kind) *TreeGroup {
	for i := range t.Groups {
		if t.Groups[i].Kind == k {
			return &t.Groups[i]
		}
	}
	return nil
}

// Size returns the number of entries across all groups.
func (t *RelationshipTree) Size() int {
	n := 0
	for i := range t.Groups {
		n += len(t.Groups[i].Members)
	}
	return n
}
