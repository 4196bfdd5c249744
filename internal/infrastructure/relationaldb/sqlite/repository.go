// Package sqlite provides a SQLite implementation of the relationship store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/infrastructure/config"
)

// SQLite primary result codes that signal a competing writer.
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.Store using SQLite.
type Repository struct {
	graphQueries
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
// Transactions begin with BEGIN IMMEDIATE so writers serialize on the database
// lock instead of failing at commit.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	dsn := cfg.Path
	if !strings.Contains(dsn, "?") {
		dsn += "?_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// A single connection keeps :memory: databases shared and PRAGMAs in effect.
	db.SetMaxOpenConns(1)

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = config.DefaultBusyTimeout
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		graphQueries: graphQueries{q: db},
		db:           db,
		path:         cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// Ping verifies the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Families (relationships never cross a family boundary)
	CREATE TABLE IF NOT EXISTS families (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_families_name ON families(name COLLATE NOCASE);

	-- Members (person nodes of the graph)
	CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		family_id INTEGER NOT NULL REFERENCES families(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(family_id, normalized_name)
	);
	CREATE INDEX IF NOT EXISTS idx_members_family ON members(family_id);

	-- Relationship edges; asymmetric kinds are stored with a linked mirror row
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		primary_member_id INTEGER NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		related_member_id INTEGER NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		kind INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		reciprocal_id TEXT,
		created_by_user_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CHECK (primary_member_id <> related_member_id),
		UNIQUE(primary_member_id, related_member_id, kind)
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_primary ON relationships(primary_member_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_related ON relationships(related_member_id);

	-- Audit log (tracks relationship writes)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		relationship_id TEXT,
		user_id TEXT,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_relationship ON audit_log(relationship_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// WithinTx runs fn inside an immediate transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx ports.GraphTx) error) (err error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", mapError(err))
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&txScope{graphQueries: graphQueries{q: sqlTx}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", mapError(err))
	}
	committed = true
	return nil
}

// mapError translates lock errors into entities.ErrContention and relationship
// uniqueness violations into entities.ErrDuplicateEdge.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqliteBusy, sqliteLocked:
			return fmt.Errorf("%w: %v", entities.ErrContention, err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", entities.ErrContention, err)
	case strings.Contains(msg, "UNIQUE constraint failed: relationships."):
		return fmt.Errorf("%w: %v", entities.ErrDuplicateEdge, err)
	}
	return err
}

// utc normalizes timestamps before they are written so that stored values
// order correctly as text.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		t = timeNow()
	}
	return t.UTC()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

var _ ports.Store = (*Repository)(nil)
