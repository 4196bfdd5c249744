package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// DefaultContentionRetries is how many times a write is retried after contention.
const DefaultContentionRetries = 1

// CreateRequest describes a new relationship.
type CreateRequest struct {
	PrimaryID    int64
	RelatedID    int64
	Kind         entities.Kind
	Notes        string
	ActingUserID string
}

// UpdateRequest carries the replacement kind and notes for a relationship.
type UpdateRequest struct {
	Kind  entities.Kind
	Notes string
}

// WriteResult is a stored relationship together with its materialized mirror,
// which is nil for self-symmetric kinds.
type WriteResult struct {
	Relationship *entities.Relationship `json:"relationship"`
	Reciprocal   *entities.Relationship `json:"reciprocal,omitempty"`
}

// RelationshipService is the public surface of the relationship engine.
// Writes run inside a store transaction so an edge and its mirror are never
// observable apart.
type RelationshipService struct {
	store      ports.GraphStore
	validator  *EdgeValidator
	assembler  *TreeAssembler
	metrics    ports.MetricsCollector
	logger     *slog.Logger
	maxRetries int
}

// Option configures a RelationshipService.
type Option func(*RelationshipService)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *RelationshipService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(s *RelationshipService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithContentionRetries sets how many times a write is retried after contention.
func WithContentionRetries(n int) Option {
	return func(s *RelationshipService) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(store ports.GraphStore, opts ...Option) *RelationshipService {
	s := &RelationshipService{
		store:      store,
		validator:  NewEdgeValidator(),
		assembler:  NewTreeAssembler(store),
		metrics:    noopMetrics{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRetries: DefaultContentionRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores a relationship, together with its mirror for
// asymmetric kinds. Self-symmetric edges are stored in canonical order.
func (s *RelationshipService) Create(ctx context.Context, req CreateRequest) (*WriteResult, error) {
	actor := req.ActingUserID
	if actor == "" {
		actor = ActingUser(ctx)
	}

	var result *WriteResult
	err := s.write(ctx, "create", func(tx ports.GraphTx) error {
		now := timeNow()
		rel := &entities.Relationship{
			ID:              newID(),
			PrimaryID:       req.PrimaryID,
			RelatedID:       req.RelatedID,
			Kind:            req.Kind,
			Notes:           req.Notes,
			CreatedByUserID: actor,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		Canonicalize(rel)

		existing, err := tx.FindEdgesForPair(ctx, rel.PrimaryID, rel.RelatedID)
		if err != nil {
			return fmt.Errorf("finding existing relationships: %w", err)
		}
		if err := s.validator.Validate(ctx, tx, rel, existing); err != nil {
			return err
		}

		mirror, hasMirror := Mirror(rel)
		if hasMirror {
			rel.ReciprocalID = mirror.ID
		}

		if err := tx.InsertEdge(ctx, rel); err != nil {
			return fmt.Errorf("saving relationship: %w", err)
		}
		if hasMirror {
			if err := tx.InsertEdge(ctx, mirror); err != nil {
				return fmt.Errorf("saving reciprocal relationship: %w", err)
			}
		}

		if err := logAudit(ctx, tx, entities.ActionRelationshipCreated, rel, actor); err != nil {
			return err
		}

		result = &WriteResult{Relationship: rel, Reciprocal: mirror}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "relationship created",
		"id", result.Relationship.ID,
		"primary_id", result.Relationship.PrimaryID,
		"related_id", result.Relationship.RelatedID,
		"kind", result.Relationship.Kind.String(),
		"reciprocal_id", result.Relationship.ReciprocalID,
	)
	return result, nil
}

// Update replaces the kind and notes of a relationship. The edge is re-validated
// against the other edges of the pair and its mirror is re-derived: a kind change
// replaces the old mirror row, a notes change updates it in place.
func (s *RelationshipService) Update(ctx context.Context, id string, req UpdateRequest) (*WriteResult, error) {
	actor := ActingUser(ctx)

	var result *WriteResult
	err := s.write(ctx, "update", func(tx ports.GraphTx) error {
		current, err := tx.FindEdgeByID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding relationship: %w", err)
		}
		if current == nil {
			return fmt.Errorf("relationship %s: %w", id, entities.ErrNotFound)
		}

		var oldMirror *entities.Relationship
		if current.ReciprocalID != "" {
			oldMirror, err = tx.FindEdgeByID(ctx, current.ReciprocalID)
			if err != nil {
				return fmt.Errorf("finding reciprocal relationship: %w", err)
			}
		}

		updated := *current
		updated.Kind = req.Kind
		updated.Notes = req.Notes
		updated.ReciprocalID = ""
		updated.UpdatedAt = timeNow()
		Canonicalize(&updated)

		existing, err := tx.FindEdgesForPair(ctx, updated.PrimaryID, updated.RelatedID)
		if err != nil {
			return fmt.Errorf("finding existing relationships: %w", err)
		}
		others := make([]entities.Relationship, 0, len(existing))
		for i := range existing {
			if existing[i].ID == current.ID || existing[i].ID == current.ReciprocalID {
				continue
			}
			others = append(others, existing[i])
		}
		if err := s.validator.Validate(ctx, tx, &updated, others); err != nil {
			return err
		}

		mirror, err := s.replaceMirror(ctx, tx, current, &updated, oldMirror)
		if err != nil {
			return err
		}

		if err := tx.UpdateEdge(ctx, &updated); err != nil {
			return fmt.Errorf("updating relationship: %w", err)
		}
		if err := logAudit(ctx, tx, entities.ActionRelationshipUpdated, &updated, actor); err != nil {
			return err
		}

		result = &WriteResult{Relationship: &updated, Reciprocal: mirror}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "relationship updated",
		"id", result.Relationship.ID,
		"kind", result.Relationship.Kind.String(),
		"reciprocal_id", result.Relationship.ReciprocalID,
	)
	return result, nil
}

// replaceMirror brings the mirror row in line with the updated edge and links
// updated to it. It returns the current mirror, or nil for self-symmetric kinds.
func (s *RelationshipService) replaceMirror(
	ctx context.Context,
	tx ports.GraphTx,
	current, updated, oldMirror *entities.Relationship,
) (*entities.Relationship, error) {
	mirror, hasMirror := Mirror(updated)

	// Same kind and same endpoints: keep the existing mirror row.
	if hasMirror && oldMirror != nil && current.Kind == updated.Kind {
		mirror.ID = oldMirror.ID
		mirror.CreatedAt = oldMirror.CreatedAt
		updated.ReciprocalID = mirror.ID
		if err := tx.UpdateEdge(ctx, mirror); err != nil {
			return nil, fmt.Errorf("updating reciprocal relationship: %w", err)
		}
		return mirror, nil
	}

	if oldMirror != nil {
		if err := tx.DeleteEdge(ctx, oldMirror.ID); err != nil {
			return nil, fmt.Errorf("deleting stale reciprocal relationship: %w", err)
		}
	}
	if !hasMirror {
		return nil, nil
	}

	updated.ReciprocalID = mirror.ID
	mirror.CreatedAt = timeNow()
	if err := tx.InsertEdge(ctx, mirror); err != nil {
		return nil, fmt.Errorf("saving reciprocal relationship: %w", err)
	}
	return mirror, nil
}

// Delete removes a relationship and its mirror. Deleting an unknown ID is a
// no-op that reports false.
func (s *RelationshipService) Delete(ctx context.Context, id string) (bool, error) {
	actor := ActingUser(ctx)

	deleted := false
	err := s.write(ctx, "delete", func(tx ports.GraphTx) error {
		deleted = false
		rel, err := tx.FindEdgeByID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding relationship: %w", err)
		}
		if rel == nil {
			return nil
		}

		if err := tx.DeleteEdge(ctx, rel.ID); err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}
		if rel.ReciprocalID != "" {
			if err := tx.DeleteEdge(ctx, rel.ReciprocalID); err != nil {
				return fmt.Errorf("deleting reciprocal relationship: %w", err)
			}
		}
		if err := logAudit(ctx, tx, entities.ActionRelationshipDeleted, rel, actor); err != nil {
			return err
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.InfoContext(ctx, "relationship deleted", "id", id)
	}
	return deleted, nil
}

// GetByID returns a single relationship.
func (s *RelationshipService) GetByID(ctx context.Context, id string) (rel *entities.Relationship, err error) {
	defer s.observe(ctx, "get", timeNow(), &err)

	rel, err = s.store.FindEdgeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}
	if rel == nil {
		return nil, fmt.Errorf("relationship %s: %w", id, entities.ErrNotFound)
	}
	return rel, nil
}

// List returns every relationship with endpoint names.
func (s *RelationshipService) List(ctx context.Context) (views []entities.RelationshipView, err error) {
	defer s.observe(ctx, "list", timeNow(), &err)

	edges, err := s.store.FindAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	return s.enrich(ctx, edges)
}

// ListByMember returns the relationships touching a member.
func (s *RelationshipService) ListByMember(ctx context.Context, memberID int64) (views []entities.RelationshipView, err error) {
	defer s.observe(ctx, "list_by_member", timeNow(), &err)

	if _, err := resolveMember(ctx, s.store, memberID); err != nil {
		return nil, err
	}
	edges, err := s.store.FindEdgesForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships for member %d: %w", memberID, err)
	}
	return s.enrich(ctx, edges)
}

// ListByFamily returns the relationships among a family's members.
func (s *RelationshipService) ListByFamily(ctx context.Context, familyID int64) (views []entities.RelationshipView, err error) {
	defer s.observe(ctx, "list_by_family", timeNow(), &err)

	edges, err := s.store.FindEdgesForFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships for family %d: %w", familyID, err)
	}
	return s.enrich(ctx, edges)
}

// Exists reports whether any edge connects the two members, in either direction.
func (s *RelationshipService) Exists(ctx context.Context, a, b int64) (exists bool, err error) {
	defer s.observe(ctx, "exists", timeNow(), &err)

	edges, err := s.store.FindEdgesForPair(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("finding relationships between %d and %d: %w", a, b, err)
	}
	return len(edges) > 0, nil
}

// Tree returns the relationship tree of a member.
func (s *RelationshipService) Tree(ctx context.Context, memberID int64) (tree *entities.RelationshipTree, err error) {
	defer s.observe(ctx, "tree", timeNow(), &err)

	return s.assembler.Assemble(ctx, memberID)
}

// History returns the audit entries recorded for a relationship, newest first.
func (s *RelationshipService) History(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	entries, err := s.store.FindAuditLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding audit log: %w", err)
	}
	return entries, nil
}

// write runs fn in a transaction, retrying after contention up to maxRetries times.
func (s *RelationshipService) write(ctx context.Context, operation string, fn func(tx ports.GraphTx) error) (err error) {
	defer s.observe(ctx, operation, timeNow(), &err)

	for attempt := 0; ; attempt++ {
		err = s.store.WithinTx(ctx, fn)
		if err == nil || !entities.IsRetryable(err) || attempt >= s.maxRetries {
			return err
		}
		s.metrics.RecordRetry(ctx, operation)
		s.logger.WarnContext(ctx, "retrying after contention", "operation", operation, "attempt", attempt+1, "error", err)
	}
}

// observe records the outcome of an operation.
func (s *RelationshipService) observe(ctx context.Context, operation string, start time.Time, errp *error) {
	status := "ok"
	if err := *errp; err != nil {
		status = entities.ErrorCode(err)
		if status == entities.CodeInternal {
			s.logger.ErrorContext(ctx, "relationship operation failed", "operation", operation, "error", err)
		} else {
			s.logger.DebugContext(ctx, "relationship operation rejected", "operation", operation, "error", err)
		}
	}
	s.metrics.RecordOperation(ctx, operation, status, timeNow().Sub(start))
}

// enrich attaches endpoint names to edges.
func (s *RelationshipService) enrich(ctx context.Context, edges []entities.Relationship) ([]entities.RelationshipView, error) {
	views := make([]entities.RelationshipView, 0, len(edges))
	if len(edges) == 0 {
		return views, nil
	}

	seen := make(map[int64]bool, len(edges))
	ids := make([]int64, 0, len(edges))
	for i := range edges {
		for _, id := range []int64{edges[i].PrimaryID, edges[i].RelatedID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	names, err := s.store.ResolveMemberNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving member names: %w", err)
	}

	for i := range edges {
		views = append(views, entities.RelationshipView{
			Relationship: edges[i],
			PrimaryName:  names[edges[i].PrimaryID],
			RelatedName:  names[edges[i].RelatedID],
		})
	}
	return views, nil
}

// logAudit appends an audit entry for a relationship write.
func logAudit(ctx context.Context, tx ports.GraphTx, action string, rel *entities.Relationship, actor string) error {
	entry := &entities.AuditEntry{
		Action:         action,
		RelationshipID: rel.ID,
		UserID:         actor,
		Details: map[string]any{
			"primary_id":    rel.PrimaryID,
			"related_id":    rel.RelatedID,
			"kind":          rel.Kind.String(),
			"reciprocal_id": rel.ReciprocalID,
		},
		CreatedAt: timeNow(),
	}
	if err := tx.LogAction(ctx, entry); err != nil {
		return fmt.Errorf("logging %s: %w", action, err)
	}
	return nil
}

// noopMetrics discards metrics.
type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, string, string, time.Duration) {}
func (noopMetrics) RecordRetry(context.Context, string)                           {}
