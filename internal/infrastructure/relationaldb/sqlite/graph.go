package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

const edgeColumns = `id, primary_member_id, related_member_id, kind, notes, reciprocal_id,
	created_by_user_id, created_at, updated_at`

// graphQueries implements ports.GraphReader over a database or a transaction.
type graphQueries struct {
	q querier
}

// FindEdgeByID finds a relationship by its ID.
func (g graphQueries) FindEdgeByID(ctx context.Context, id string) (*entities.Relationship, error) {
	query := `SELECT ` + edgeColumns + ` FROM relationships WHERE id = ?`
	row := g.q.QueryRowContext(ctx, query, id)

	rel, err := scanEdge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning relationship: %w", mapError(err))
	}
	return rel, nil
}

// FindEdgesForPair finds every edge connecting a and b, in either direction.
func (g graphQueries) FindEdgesForPair(ctx context.Context, a, b int64) ([]entities.Relationship, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM relationships
		WHERE (primary_member_id = ? AND related_member_id = ?)
		   OR (primary_member_id = ? AND related_member_id = ?)
		ORDER BY created_at ASC, rowid ASC
	`
	return g.queryEdges(ctx, query, a, b, b, a)
}

// FindEdgesForMember finds every edge where the member is primary or related.
func (g graphQueries) FindEdgesForMember(ctx context.Context, memberID int64) ([]entities.Relationship, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM relationships
		WHERE primary_member_id = ? OR related_member_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	return g.queryEdges(ctx, query, memberID, memberID)
}

// FindEdgesForFamily finds every edge whose endpoints both belong to the family.
func (g graphQueries) FindEdgesForFamily(ctx context.Context, familyID int64) ([]entities.Relationship, error) {
	query := `
		SELECT r.id, r.primary_member_id, r.related_member_id, r.kind, r.notes, r.reciprocal_id,
			r.created_by_user_id, r.created_at, r.updated_at
		FROM relationships r
		JOIN members p ON p.id = r.primary_member_id
		JOIN members m ON m.id = r.related_member_id
		WHERE p.family_id = ? AND m.family_id = ?
		ORDER BY r.created_at ASC, r.rowid ASC
	`
	return g.queryEdges(ctx, query, familyID, familyID)
}

// FindAllEdges returns all relationships, oldest first.
func (g graphQueries) FindAllEdges(ctx context.Context) ([]entities.Relationship, error) {
	query := `SELECT ` + edgeColumns + ` FROM relationships ORDER BY created_at ASC, rowid ASC`
	return g.queryEdges(ctx, query)
}

// ResolveMember finds a member by ID.
func (g graphQueries) ResolveMember(ctx context.Context, memberID int64) (*entities.Member, error) {
	query := `
		SELECT id, family_id, name, normalized_name, created_at
		FROM members
		WHERE id = ?
	`
	member, err := scanMember(g.q.QueryRowContext(ctx, query, memberID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning member: %w", mapError(err))
	}
	return member, nil
}

// ResolveMemberNames returns display names keyed by member ID in a single query.
func (g graphQueries) ResolveMemberNames(ctx context.Context, memberIDs []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(memberIDs))
	if len(memberIDs) == 0 {
		return names, nil
	}

	// Build placeholders for IN clause
	placeholders := make([]string, len(memberIDs))
	args := make([]any, len(memberIDs))
	for i, id := range memberIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id, name FROM members WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := g.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying member names: %w", mapError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning member name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// queryEdges is a helper to execute relationship queries.
func (g graphQueries) queryEdges(ctx context.Context, query string, args ...any) ([]entities.Relationship, error) {
	rows, err := g.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", mapError(err))
	}
	defer rows.Close()

	relationships := make([]entities.Relationship, 0, 16)
	for rows.Next() {
		rel, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		relationships = append(relationships, *rel)
	}
	return relationships, rows.Err()
}

// txScope adds edge mutations to the reads of a transaction.
type txScope struct {
	graphQueries
}

// InsertEdge stores a new relationship.
func (t *txScope) InsertEdge(ctx context.Context, rel *entities.Relationship) error {
	query := `
		INSERT INTO relationships (` + edgeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := t.q.ExecContext(ctx, query,
		rel.ID,
		rel.PrimaryID,
		rel.RelatedID,
		int(rel.Kind),
		rel.Notes,
		nullString(rel.ReciprocalID),
		nullString(rel.CreatedByUserID),
		utc(rel.CreatedAt),
		utc(rel.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting relationship: %w", mapError(err))
	}
	return nil
}

// UpdateEdge replaces the mutable fields of an existing relationship.
func (t *txScope) UpdateEdge(ctx context.Context, rel *entities.Relationship) error {
	query := `
		UPDATE relationships
		SET primary_member_id = ?, related_member_id = ?, kind = ?, notes = ?,
			reciprocal_id = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := t.q.ExecContext(ctx, query,
		rel.PrimaryID,
		rel.RelatedID,
		int(rel.Kind),
		rel.Notes,
		nullString(rel.ReciprocalID),
		utc(rel.UpdatedAt),
		rel.ID,
	)
	if err != nil {
		return fmt.Errorf("updating relationship: %w", mapError(err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("relationship %s: %w", rel.ID, entities.ErrNotFound)
	}
	return nil
}

// DeleteEdge deletes a relationship by ID. Deleting a missing ID is not an error.
func (t *txScope) DeleteEdge(ctx context.Context, id string) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", mapError(err))
	}
	return nil
}

// LogAction appends an entry to the audit log.
func (t *txScope) LogAction(ctx context.Context, entry *entities.AuditEntry) error {
	var detailsJSON sql.NullString
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO audit_log (action, relationship_id, user_id, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := t.q.ExecContext(ctx, query,
		entry.Action,
		nullString(entry.RelationshipID),
		nullString(entry.UserID),
		detailsJSON,
		utc(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("logging action: %w", mapError(err))
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// FindAuditLog finds audit log entries for a relationship, newest first.
func (r *Repository) FindAuditLog(ctx context.Context, relationshipID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, relationship_id, user_id, details, created_at
		FROM audit_log
		WHERE relationship_id = ?
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", mapError(err))
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var relID, userID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&relID,
			&userID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.RelationshipID = relID.String
		entry.UserID = userID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEdge(row rowScanner) (*entities.Relationship, error) {
	var (
		rel                     entities.Relationship
		kind                    int
		reciprocalID, createdBy sql.NullString
	)
	if err := row.Scan(
		&rel.ID,
		&rel.PrimaryID,
		&rel.RelatedID,
		&kind,
		&rel.Notes,
		&reciprocalID,
		&createdBy,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rel.Kind = entities.Kind(kind)
	rel.ReciprocalID = reciprocalID.String
	rel.CreatedByUserID = createdBy.String
	return &rel, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
