package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// SaveFamily stores a new family and assigns its ID.
func (r *Repository) SaveFamily(ctx context.Context, family *entities.Family) error {
	if family.CreatedAt.IsZero() {
		family.CreatedAt = timeNow()
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO families (name, created_at) VALUES (?, ?)`,
		family.Name,
		utc(family.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: family %q already exists", entities.ErrInvalidInput, family.Name)
		}
		return fmt.Errorf("saving family: %w", mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading family id: %w", err)
	}
	family.ID = id
	return nil
}

// FindFamilyByID finds a family by ID.
func (r *Repository) FindFamilyByID(ctx context.Context, familyID int64) (*entities.Family, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM families WHERE id = ?`, familyID)
	return scanFamily(row)
}

// FindFamilyByName finds a family by name (case-insensitive).
func (r *Repository) FindFamilyByName(ctx context.Context, name string) (*entities.Family, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM families WHERE name = ? COLLATE NOCASE`,
		strings.TrimSpace(name),
	)
	return scanFamily(row)
}

// ListFamilies lists all families ordered by name.
func (r *Repository) ListFamilies(ctx context.Context) ([]entities.Family, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM families ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying families: %w", mapError(err))
	}
	defer rows.Close()

	families := make([]entities.Family, 0, 8)
	for rows.Next() {
		var f entities.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning family: %w", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

// SaveMember stores a new member and assigns its ID.
func (r *Repository) SaveMember(ctx context.Context, member *entities.Member) error {
	member.NormalizedName = entities.NormalizeName(member.Name)
	if member.CreatedAt.IsZero() {
		member.CreatedAt = timeNow()
	}

	query := `
		INSERT INTO members (family_id, name, normalized_name, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		member.FamilyID,
		member.Name,
		member.NormalizedName,
		utc(member.CreatedAt),
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return fmt.Errorf("%w: member %q already exists in family %d", entities.ErrInvalidInput, member.Name, member.FamilyID)
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return fmt.Errorf("family %d: %w", member.FamilyID, entities.ErrNotFound)
		}
		return fmt.Errorf("saving member: %w", mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading member id: %w", err)
	}
	member.ID = id
	return nil
}

// FindMemberByName finds a member of a family by normalized name.
func (r *Repository) FindMemberByName(ctx context.Context, familyID int64, name string) (*entities.Member, error) {
	query := `
		SELECT id, family_id, name, normalized_name, created_at
		FROM members
		WHERE family_id = ? AND normalized_name = ?
	`
	member, err := scanMember(r.db.QueryRowContext(ctx, query, familyID, entities.NormalizeName(name)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning member: %w", mapError(err))
	}
	return member, nil
}

// ListMembers lists members of a family with pagination.
func (r *Repository) ListMembers(ctx context.Context, familyID int64, limit, offset int) ([]*entities.Member, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query := `
		SELECT id, family_id, name, normalized_name, created_at
		FROM members
		WHERE family_id = ?
		ORDER BY name ASC, id ASC
		LIMIT ? OFFSET ?
	`
	return r.queryMembers(ctx, query, familyID, limit, offset)
}

// SearchMembers searches members of a family by name pattern.
func (r *Repository) SearchMembers(ctx context.Context, familyID int64, query string, limit int) ([]*entities.Member, error) {
	normalizedQuery := "%" + entities.NormalizeName(query) + "%"
	sqlQuery := `
		SELECT id, family_id, name, normalized_name, created_at
		FROM members
		WHERE family_id = ? AND normalized_name LIKE ?
		ORDER BY name ASC, id ASC
		LIMIT ?
	`
	return r.queryMembers(ctx, sqlQuery, familyID, normalizedQuery, limit)
}

// CountMembers returns the number of members in a family.
func (r *Repository) CountMembers(ctx context.Context, familyID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE family_id = ?`, familyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting members: %w", mapError(err))
	}
	return count, nil
}

func (r *Repository) queryMembers(ctx context.Context, query string, args ...any) ([]*entities.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", mapError(err))
	}
	defer rows.Close()

	result := make([]*entities.Member, 0, 16)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

func scanFamily(row *sql.Row) (*entities.Family, error) {
	var f entities.Family
	err := row.Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning family: %w", mapError(err))
	}
	return &f, nil
}

func scanMember(row rowScanner) (*entities.Member, error) {
	var m entities.Member
	if err := row.Scan(&m.ID, &m.FamilyID, &m.Name, &m.NormalizedName, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
