package entities

import "time"

// Audit actions recorded for relationship writes.
const (
	ActionRelationshipCreated = "relationship.created"
	ActionRelationshipUpdated = "relationship.updated"
	ActionRelationshipDeleted = "relationship.deleted"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID             int64          `json:"id"`
	Action         string         `json:"action"`
	RelationshipID string         `json:"relationship_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
