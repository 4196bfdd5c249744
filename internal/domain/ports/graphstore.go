package ports

import (
	"context"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// GraphReader defines read access to members and relationship edges.
// Lookups that find nothing return nil (or an empty slice) and no error.
type GraphReader interface {
	// FindEdgeByID finds a relationship by its ID.
	FindEdgeByID(ctx context.Context, id string) (*entities.Relationship, error)

	// FindEdgesForPair finds every edge connecting a and b, in either direction.
	FindEdgesForPair(ctx context.Context, a, b int64) ([]entities.Relationship, error)

	// FindEdgesForMember finds every edge where the member is primary or related.
	// Edges are ordered by creation time, oldest first.
	FindEdgesForMember(ctx context.Context, memberID int64) ([]entities.Relationship, error)

	// FindEdgesForFamily finds every edge whose endpoints both belong to the family.
	FindEdgesForFamily(ctx context.Context, familyID int64) ([]entities.Relationship, error)

	// FindAllEdges returns all relationships, oldest first.
	FindAllEdges(ctx context.Context) ([]entities.Relationship, error)

	// ResolveMember finds a member by ID, including its family.
	ResolveMember(ctx context.Context, memberID int64) (*entities.Member, error)

	// ResolveMemberNames returns display names keyed by member ID.
	// Unknown IDs are omitted from the result.
	ResolveMemberNames(ctx context.Context, memberIDs []int64) (map[int64]string, error)
}

// GraphWriter defines edge mutations. Writes are only reachable through GraphTx.
type GraphWriter interface {
	// InsertEdge stores a new relationship.
	InsertEdge(ctx context.Context, rel *entities.Relationship) error

	// UpdateEdge replaces the mutable fields of an existing relationship
	// (endpoints, kind, notes, reciprocal link, updated time).
	UpdateEdge(ctx context.Context, rel *entities.Relationship) error

	// DeleteEdge deletes a relationship by ID. Deleting a missing ID is not an error.
	DeleteEdge(ctx context.Context, id string) error

	// LogAction appends an entry to the audit log.
	LogAction(ctx context.Context, entry *entities.AuditEntry) error
}

// GraphTx is the transactional scope handed to WithinTx callbacks.
type GraphTx interface {
	GraphReader
	GraphWriter
}

// GraphStore is the persistence collaborator of the relationship engine.
type GraphStore interface {
	GraphReader

	// WithinTx runs fn inside a transaction that serializes writers touching the
	// same members. The transaction commits when fn returns nil and rolls back
	// otherwise. A write-write conflict surfaces as entities.ErrContention.
	WithinTx(ctx context.Context, fn func(tx GraphTx) error) error

	// FindAuditLog finds audit entries for a relationship, newest first.
	FindAuditLog(ctx context.Context, relationshipID string) ([]entities.AuditEntry, error)
}

// MemberDirectory manages the person nodes and families the graph refers to.
type MemberDirectory interface {
	// SaveFamily stores a new family and assigns its ID.
	SaveFamily(ctx context.Context, family *entities.Family) error

	// FindFamilyByID finds a family by ID.
	FindFamilyByID(ctx context.Context, familyID int64) (*entities.Family, error)

	// FindFamilyByName finds a family by name (case-insensitive).
	FindFamilyByName(ctx context.Context, name string) (*entities.Family, error)

	// ListFamilies lists all families ordered by name.
	ListFamilies(ctx context.Context) ([]entities.Family, error)

	// SaveMember stores a new member and assigns its ID.
	SaveMember(ctx context.Context, member *entities.Member) error

	// FindMemberByName finds a member of a family by normalized name.
	FindMemberByName(ctx context.Context, familyID int64, name string) (*entities.Member, error)

	// ListMembers lists members of a family with pagination, ordered by name.
	ListMembers(ctx context.Context, familyID int64, limit, offset int) ([]*entities.Member, error)

	// SearchMembers searches members of a family by name pattern.
	SearchMembers(ctx context.Context, familyID int64, query string, limit int) ([]*entities.Member, error)

	// CountMembers returns the number of members in a family.
	CountMembers(ctx context.Context, familyID int64) (int, error)
}

// Store combines everything the SQLite repository provides.
type Store interface {
	GraphStore
	MemberDirectory

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
