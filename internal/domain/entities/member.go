package entities

import (
	"strings"
	"time"
)

// Family groups members. Relationships may only connect members of the same family.
type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a person node in the relationship graph. The engine only reads members;
// they are created through the member service or an import.
type Member struct {
	ID             int64     `json:"id"`
	FamilyID       int64     `json:"family_id"`
	Name           string    `json:"name"`            // Original name (e.g., "Ada Lovelace")
	NormalizedName string    `json:"normalized_name"` // Lowercase for matching (e.g., "ada lovelace")
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
