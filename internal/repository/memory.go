package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pingup/backend/internal/domain"
)

type userSet map[uuid.UUID]struct{}

func (s userSet) add(id uuid.UUID) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s userSet) remove(id uuid.UUID) bool {
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	return true
}

func (s userSet) snapshot() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

type userRecord struct {
	following   userSet
	followers   userSet
	connections userSet
}

func newUserRecord() *userRecord {
	return &userRecord{
		following:   make(userSet),
		followers:   make(userSet),
		connections: make(userSet),
	}
}

// pairKey is the canonical key of an unordered user pair.
type pairKey [2]uuid.UUID

func newPairKey(a, b uuid.UUID) pairKey {
	if a.String() > b.String() {
		a, b = b, a
	}
	return pairKey{a, b}
}

// MemoryStore keeps every relationship record in process. One mutex guards
// all of it, so each check-then-write below runs as a single critical section
// and accept commits the status flip and both connection edges together.
//
// Its message log is only filled through AppendMessage. Nothing in the server
// writes messages, so recent-message previews are empty on this backend.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*userRecord
	requests map[uuid.UUID]*domain.ConnectionRequest
	pairs    map[pairKey]uuid.UUID
	sent     map[uuid.UUID][]uuid.UUID
	messages []*domain.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]*userRecord),
		requests: make(map[uuid.UUID]*domain.ConnectionRequest),
		pairs:    make(map[pairKey]uuid.UUID),
		sent:     make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MemoryStore) EnsureUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		m.users[userID] = newUserRecord()
	}
	return nil
}

func (m *MemoryStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.users[userID]
	return ok, nil
}

func (m *MemoryStore) AddFollow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if followerID == followeeID {
		return false, domain.ErrSelfReference
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	follower, followee, err := m.pairLocked(followerID, followeeID)
	if err != nil {
		return false, err
	}

	added := follower.following.add(followeeID)
	followee.followers.add(followerID)
	return added, nil
}

func (m *MemoryStore) RemoveFollow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	follower, followee, err := m.pairLocked(followerID, followeeID)
	if err != nil {
		return false, err
	}

	removed := follower.following.remove(followeeID)
	followee.followers.remove(followerID)
	return removed, nil
}

func (m *MemoryStore) AddConnection(ctx context.Context, aID, bID uuid.UUID) error {
	if aID == bID {
		return domain.ErrSelfReference
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.addConnectionLocked(aID, bID)
}

func (m *MemoryStore) GetRelationships(ctx context.Context, userID uuid.UUID) (*domain.Relationships, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.relationshipsLocked(userID)
}

func (m *MemoryStore) GetRelationshipsView(ctx context.Context, userID uuid.UUID) (*domain.RelationshipsView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rels, err := m.relationshipsLocked(userID)
	if err != nil {
		return nil, err
	}

	pending := m.pendingIncomingLocked(userID)
	senders := make([]uuid.UUID, 0, len(pending))
	for _, req := range pending {
		senders = append(senders, req.FromUserID)
	}

	return &domain.RelationshipsView{
		Relationships:   *rels,
		PendingIncoming: senders,
	}, nil
}

func (m *MemoryStore) CountRequestsSince(ctx context.Context, fromUserID uuid.UUID, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, id := range m.sent[fromUserID] {
		if m.requests[id].CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) FindRequestBetween(ctx context.Context, aID, bID uuid.UUID) (*domain.ConnectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.pairs[newPairKey(aID, bID)]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return copyRequest(m.requests[id]), nil
}

func (m *MemoryStore) FindRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*domain.ConnectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.pairs[newPairKey(fromUserID, toUserID)]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	req := m.requests[id]
	if req.FromUserID != fromUserID {
		return nil, domain.ErrRequestNotFound
	}
	return copyRequest(req), nil
}

func (m *MemoryStore) CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID, createdAt time.Time) (*domain.ConnectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, _, err := m.pairLocked(fromUserID, toUserID); err != nil {
		return nil, err
	}

	key := newPairKey(fromUserID, toUserID)
	if _, ok := m.pairs[key]; ok {
		return nil, domain.ErrRequestExists
	}

	req := &domain.ConnectionRequest{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     domain.ConnectionStatusPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	m.requests[req.ID] = req
	m.pairs[key] = req.ID
	m.sent[fromUserID] = append(m.sent[fromUserID], req.ID)

	return copyRequest(req), nil
}

func (m *MemoryStore) AcceptRequest(ctx context.Context, requestID uuid.UUID, acceptedAt time.Time) (*domain.ConnectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if req.Status != domain.ConnectionStatusPending {
		return nil, domain.ErrAlreadyAccepted
	}

	// Validate both users before touching anything so a failure leaves no
	// partial state behind.
	if _, _, err := m.pairLocked(req.FromUserID, req.ToUserID); err != nil {
		return nil, err
	}

	req.Status = domain.ConnectionStatusAccepted
	req.UpdatedAt = acceptedAt
	if err := m.addConnectionLocked(req.ToUserID, req.FromUserID); err != nil {
		return nil, err
	}
	return copyRequest(req), nil
}

func (m *MemoryStore) ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.pendingIncomingLocked(userID), nil
}

// AppendMessage adds a message to the in-process message log.
func (m *MemoryStore) AppendMessage(msg *domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *msg
	m.messages = append(m.messages, &cp)
}

func (m *MemoryStore) ListInbound(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var inbound []*domain.Message
	for _, msg := range m.messages {
		if msg.ToUserID == userID {
			cp := *msg
			inbound = append(inbound, &cp)
		}
	}
	sort.Slice(inbound, func(i, j int) bool {
		return newerFirst(inbound[i].CreatedAt, inbound[j].CreatedAt, inbound[i].ID, inbound[j].ID)
	})
	if limit > 0 && len(inbound) > limit {
		inbound = inbound[:limit]
	}
	return inbound, nil
}

func (m *MemoryStore) relationshipsLocked(userID uuid.UUID) (*domain.Relationships, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	return &domain.Relationships{
		UserID:      userID,
		Following:   user.following.snapshot(),
		Followers:   user.followers.snapshot(),
		Connections: user.connections.snapshot(),
	}, nil
}

func (m *MemoryStore) pendingIncomingLocked(userID uuid.UUID) []*domain.ConnectionRequest {
	var pending []*domain.ConnectionRequest
	for _, req := range m.requests {
		if req.ToUserID == userID && req.Status == domain.ConnectionStatusPending {
			pending = append(pending, copyRequest(req))
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return newerFirst(pending[i].CreatedAt, pending[j].CreatedAt, pending[i].ID, pending[j].ID)
	})
	return pending
}

// newerFirst orders by time descending, then id descending, matching the
// ORDER BY of the Postgres backend.
func newerFirst(a, b time.Time, aID, bID uuid.UUID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID.String() > bID.String()
}

func (m *MemoryStore) pairLocked(aID, bID uuid.UUID) (*userRecord, *userRecord, error) {
	a, ok := m.users[aID]
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}
	b, ok := m.users[bID]
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}
	return a, b, nil
}

func (m *MemoryStore) addConnectionLocked(aID, bID uuid.UUID) error {
	a, b, err := m.pairLocked(aID, bID)
	if err != nil {
		return err
	}
	a.connections.add(bID)
	b.connections.add(aID)
	return nil
}

func copyRequest(req *domain.ConnectionRequest) *domain.ConnectionRequest {
	cp := *req
	return &cp
}
