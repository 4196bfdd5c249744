// Package mocks provides in-memory implementations of the domain ports for tests.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// GraphStore is an in-memory implementation of ports.Store.
// Transactions run against a copy of the state that replaces the live state on commit.
type GraphStore struct {
	mu sync.RWMutex
	st *state

	// Err, when set, is returned by every method.
	Err error
	// InsertErr, when set, is returned by InsertEdge once InsertErrAfter inserts
	// have succeeded within the current transaction.
	InsertErr      error
	InsertErrAfter int
	// ContentionFailures makes the next N WithinTx calls fail with ErrContention.
	ContentionFailures int
	// TxCount counts WithinTx calls, including failed ones.
	TxCount int
}

// NewGraphStore creates an empty in-memory store.
func NewGraphStore() *GraphStore {
	return &GraphStore{st: newState()}
}

// EnsureSchema is a no-op.
func (m *GraphStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *GraphStore) Close() error {
	return nil
}

// WithinTx runs fn against a private copy of the state and commits it when fn succeeds.
func (m *GraphStore) WithinTx(ctx context.Context, fn func(tx ports.GraphTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TxCount++
	if m.Err != nil {
		return m.Err
	}
	if m.ContentionFailures > 0 {
		m.ContentionFailures--
		return fmt.Errorf("beginning transaction: %w", entities.ErrContention)
	}

	tx := &txView{st: m.st.clone(), store: m}
	if err := fn(tx); err != nil {
		return err
	}
	m.st = tx.st
	return nil
}

// EdgeCount returns the number of stored edge rows.
func (m *GraphStore) EdgeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.st.edges)
}

// AddFamily stores a family directly and returns it (test fixture helper).
func (m *GraphStore) AddFamily(name string) *entities.Family {
	f := &entities.Family{Name: name}
	_ = m.SaveFamily(context.Background(), f)
	return f
}

// AddMember stores a member directly and returns it (test fixture helper).
func (m *GraphStore) AddMember(familyID int64, name string) *entities.Member {
	mem := &entities.Member{FamilyID: familyID, Name: name}
	_ = m.SaveMember(context.Background(), mem)
	return mem
}

// AddMemberWithID stores a member under a fixed ID (test fixture helper).
func (m *GraphStore) AddMemberWithID(id, familyID int64, name string) *entities.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := &entities.Member{
		ID:             id,
		FamilyID:       familyID,
		Name:           name,
		NormalizedName: entities.NormalizeName(name),
		CreatedAt:      time.Now(),
	}
	m.st.members[id] = mem
	if id >= m.st.nextMemberID {
		m.st.nextMemberID = id + 1
	}
	return mem
}

// Graph reads.

// FindEdgeByID finds a relationship by its ID.
func (m *GraphStore) FindEdgeByID(_ context.Context, id string) (*entities.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.st.edgeByID(id), nil
}

// FindEdgesForPair finds every edge connecting a and b.
func (m *GraphStore) FindEdgesForPair(_ context.Context, a, b int64) ([]entities.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.st.edgesWhere(func(r *entities.Relationship) bool { return r.Connects(a, b) }), nil
}

// FindEdgesForMember finds every edge touching the member.
func (m *GraphStore) FindEdgesForMember(_ context.Context, memberID int64) ([]entities.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.st.edgesWhere(func(r *entities.Relationship) bool { return r.Touches(memberID) }), nil
}

// FindEdgesForFamily finds every edge between members of the family.
func (m *GraphStore) FindEdgesForFamily(_ context.Context, familyID int64) ([]entities.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.st.edgesForFamily(familyID), nil
}

// FindAllEdges returns every relationship.
func (m *GraphStore) FindAllEdges(_ context.Context) ([]entities.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.st.edgesWhere(func(*entities.Relationship) bool { return true }), nil
}

// ResolveMember finds a member by ID.
func (m *GraphStore) ResolveMember(_ context.Context, memberID int64) (*entities.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.st.member(memberID), nil
}

// ResolveMemberNames returns display names keyed by member ID.
func (m *GraphStore) ResolveMemberNames(_ context.Context, memberIDs []int64) (map[int64]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.st.names(memberIDs), nil
}

// FindAuditLog finds audit entries for a relationship, newest first.
func (m *GraphStore) FindAuditLog(_ context.Context, relationshipID string) ([]entities.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for i := len(m.st.audit) - 1; i >= 0; i-- {
		if m.st.audit[i].RelationshipID == relationshipID {
			result = append(result, m.st.audit[i])
		}
	}
	return result, nil
}

// Member directory.

// SaveFamily stores a new family and assigns its ID.
func (m *GraphStore) SaveFamily(_ context.Context, family *entities.Family) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	family.ID = m.st.nextFamilyID
	m.st.nextFamilyID++
	if family.CreatedAt.IsZero() {
		family.CreatedAt = time.Now()
	}
	f := *family
	m.st.families[f.ID] = &f
	return nil
}

// FindFamilyByID finds a family by ID.
func (m *GraphStore) FindFamilyByID(_ context.Context, familyID int64) (*entities.Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if f, ok := m.st.families[familyID]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

// FindFamilyByName finds a family by name (case-insensitive).
func (m *GraphStore) FindFamilyByName(_ context.Context, name string) (*entities.Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, f := range m.st.families {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

// ListFamilies lists all families ordered by name.
func (m *GraphStore) ListFamilies(_ context.Context) ([]entities.Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Family, 0, len(m.st.families))
	for _, f := range m.st.families {
		result = append(result, *f)
	}
	// Sort by name for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// SaveMember stores a new member and assigns its ID.
func (m *GraphStore) SaveMember(_ context.Context, member *entities.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.st.families[member.FamilyID]; !ok {
		return fmt.Errorf("family %d: %w", member.FamilyID, entities.ErrNotFound)
	}
	member.ID = m.st.nextMemberID
	m.st.nextMemberID++
	member.NormalizedName = entities.NormalizeName(member.Name)
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}
	mem := *member
	m.st.members[mem.ID] = &mem
	return nil
}

// FindMemberByName finds a member of a family by normalized name.
func (m *GraphStore) FindMemberByName(_ context.Context, familyID int64, name string) (*entities.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	normalized := entities.NormalizeName(name)
	for _, mem := range m.st.sortedMembers(familyID) {
		if mem.NormalizedName == normalized {
			return mem, nil
		}
	}
	return nil, nil
}

// ListMembers lists members of a family ordered by name.
func (m *GraphStore) ListMembers(_ context.Context, familyID int64, limit, offset int) ([]*entities.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	all := m.st.sortedMembers(familyID)
	if offset >= len(all) {
		return []*entities.Member{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// SearchMembers searches members of a family by name substring.
func (m *GraphStore) SearchMembers(_ context.Context, familyID int64, query string, limit int) ([]*entities.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	normalized := entities.NormalizeName(query)
	result := make([]*entities.Member, 0, limit)
	for _, mem := range m.st.sortedMembers(familyID) {
		if strings.Contains(mem.NormalizedName, normalized) {
			result = append(result, mem)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// CountMembers returns the number of members in a family.
func (m *GraphStore) CountMembers(_ context.Context, familyID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.st.sortedMembers(familyID)), nil
}

// txView exposes a cloned state as a ports.GraphTx. The store's write lock is
// held for the lifetime of the view.
type txView struct {
	st      *state
	store   *GraphStore
	inserts int
}

func (t *txView) FindEdgeByID(_ context.Context, id string) (*entities.Relationship, error) {
	return t.st.edgeByID(id), nil
}

func (t *txView) FindEdgesForPair(_ context.Context, a, b int64) ([]entities.Relationship, error) {
	return t.st.edgesWhere(func(r *entities.Relationship) bool { return r.Connects(a, b) }), nil
}

func (t *txView) FindEdgesForMember(_ context.Context, memberID int64) ([]entities.Relationship, error) {
	return t.st.edgesWhere(func(r *entities.Relationship) bool { return r.Touches(memberID) }), nil
}

func (t *txView) FindEdgesForFamily(_ context.Context, familyID int64) ([]entities.Relationship, error) {
	return t.st.edgesForFamily(familyID), nil
}

func (t *txView) FindAllEdges(_ context.Context) ([]entities.Relationship, error) {
	return t.st.edgesWhere(func(*entities.Relationship) bool { return true }), nil
}

func (t *txView) ResolveMember(_ context.Context, memberID int64) (*entities.Member, error) {
	return t.st.member(memberID), nil
}

func (t *txView) ResolveMemberNames(_ context.Context, memberIDs []int64) (map[int64]string, error) {
	return t.st.names(memberIDs), nil
}

func (t *txView) InsertEdge(_ context.Context, rel *entities.Relationship) error {
	if t.store.InsertErr != nil && t.inserts >= t.store.InsertErrAfter {
		return t.store.InsertErr
	}
	if _, exists := t.st.edges[rel.ID]; exists {
		return fmt.Errorf("edge %s already stored", rel.ID)
	}
	t.inserts++
	cp := *rel
	t.st.edges[cp.ID] = &cp
	t.st.order = append(t.st.order, cp.ID)
	return nil
}

func (t *txView) UpdateEdge(_ context.Context, rel *entities.Relationship) error {
	existing, ok := t.st.edges[rel.ID]
	if !ok {
		return fmt.Errorf("relationship %s: %w", rel.ID, entities.ErrNotFound)
	}
	cp := *rel
	cp.CreatedAt = existing.CreatedAt
	cp.CreatedByUserID = existing.CreatedByUserID
	t.st.edges[cp.ID] = &cp
	return nil
}

func (t *txView) DeleteEdge(_ context.Context, id string) error {
	if _, ok := t.st.edges[id]; !ok {
		return nil
	}
	delete(t.st.edges, id)
	for i, eid := range t.st.order {
		if eid == id {
			t.st.order = append(t.st.order[:i], t.st.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *txView) LogAction(_ context.Context, entry *entities.AuditEntry) error {
	t.st.nextAuditID++
	cp := *entry
	cp.ID = t.st.nextAuditID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.st.audit = append(t.st.audit, cp)
	return nil
}

// state is the data held by GraphStore.
type state struct {
	families     map[int64]*entities.Family
	members      map[int64]*entities.Member
	edges        map[string]*entities.Relationship
	order        []string
	audit        []entities.AuditEntry
	nextFamilyID int64
	nextMemberID int64
	nextAuditID  int64
}

func newState() *state {
	return &state{
		families:     make(map[int64]*entities.Family),
		members:      make(map[int64]*entities.Member),
		edges:        make(map[string]*entities.Relationship),
		nextFamilyID: 1,
		nextMemberID: 1,
	}
}

func (s *state) clone() *state {
	c := &state{
		families:     make(map[int64]*entities.Family, len(s.families)),
		members:      make(map[int64]*entities.Member, len(s.members)),
		edges:        make(map[string]*entities.Relationship, len(s.edges)),
		order:        append([]string(nil), s.order...),
		audit:        append([]entities.AuditEntry(nil), s.audit...),
		nextFamilyID: s.nextFamilyID,
		nextMemberID: s.nextMemberID,
		nextAuditID:  s.nextAuditID,
	}
	for id, f := range s.families {
		c.families[id] = f
	}
	for id, mem := range s.members {
		c.members[id] = mem
	}
	for id, e := range s.edges {
		cp := *e
		c.edges[id] = &cp
	}
	return c
}

func (s *state) edgeByID(id string) *entities.Relationship {
	if e, ok := s.edges[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}

func (s *state) edgesWhere(match func(*entities.Relationship) bool) []entities.Relationship {
	result := make([]entities.Relationship, 0, len(s.order))
	for _, id := range s.order {
		if e := s.edges[id]; match(e) {
			result = append(result, *e)
		}
	}
	return result
}

func (s *state) edgesForFamily(familyID int64) []entities.Relationship {
	inFamily := func(id int64) bool {
		mem, ok := s.members[id]
		return ok && mem.FamilyID == familyID
	}
	return s.edgesWhere(func(r *entities.Relationship) bool {
		return inFamily(r.PrimaryID) && inFamily(r.RelatedID)
	})
}

func (s *state) member(id int64) *entities.Member {
	if mem, ok := s.members[id]; ok {
		cp := *mem
		return &cp
	}
	return nil
}

func (s *state) names(ids []int64) map[int64]string {
	result := make(map[int64]string, len(ids))
	for _, id := range ids {
		if mem, ok := s.members[id]; ok {
			result[id] = mem.Name
		}
	}
	return result
}

func (s *state) sortedMembers(familyID int64) []*entities.Member {
	var result []*entities.Member
	for _, mem := range s.members {
		if mem.FamilyID == familyID {
			cp := *mem
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result
}

var _ ports.Store = (*GraphStore)(nil)
