package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/metrics"
)

const (
	DefaultRequestLimit  = 20
	DefaultRequestWindow = 24 * time.Hour
)

// ConnectionService owns the pending -> accepted handshake. It is the only
// writer of ConnectionRequest status.
//
// The per-sender rate limit is a count followed by an insert with no lock in
// between, so two concurrent requests from one sender near the limit can both
// pass. The limit is a soft bound, not a security boundary.
type ConnectionService struct {
	repo      ConnectionRequestRepository
	store     RelationshipStore
	publisher EventPublisher
	logger    *zap.Logger

	requestLimit  int
	requestWindow time.Duration
	now           func() time.Time
}

type ConnectionOption func(*ConnectionService)

// WithRateLimit overrides how many requests a sender may create per window.
func WithRateLimit(limit int, window time.Duration) ConnectionOption {
	return func(s *ConnectionService) {
		if limit > 0 {
			s.requestLimit = limit
		}
		if window > 0 {
			s.requestWindow = window
		}
	}
}

func WithClock(now func() time.Time) ConnectionOption {
	return func(s *ConnectionService) {
		s.now = now
	}
}

func NewConnectionService(repo ConnectionRequestRepository, store RelationshipStore, publisher EventPublisher, logger *zap.Logger, opts ...ConnectionOption) *ConnectionService {
	s := &ConnectionService{
		repo:          repo,
		store:         store,
		publisher:     publisher,
		logger:        logger,
		requestLimit:  DefaultRequestLimit,
		requestWindow: DefaultRequestWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ConnectionService) RequestConnection(ctx context.Context, fromID, toID uuid.UUID) (req *ConnectionRequest, err error) {
	defer func() { observe("request_connection", err) }()

	if fromID == toID {
		return nil, ErrSelfConnect
	}
	if err := requireUsers(ctx, s.store, fromID, toID); err != nil {
		return nil, err
	}

	now := s.now()
	sent, err := s.repo.CountRequestsSince(ctx, fromID, now.Add(-s.requestWindow))
	if err != nil {
		return nil, err
	}
	if sent >= s.requestLimit {
		return nil, ErrRateLimitExceeded
	}

	existing, err := s.repo.FindRequestBetween(ctx, fromID, toID)
	switch {
	case err == nil:
		return nil, existingRequestError(existing)
	case !errors.Is(err, ErrRequestNotFound):
		return nil, err
	}

	req, err = s.repo.CreateRequest(ctx, fromID, toID, now)
	if errors.Is(err, ErrRequestExists) {
		// Lost a race with a request for the same pair.
		existing, findErr := s.repo.FindRequestBetween(ctx, fromID, toID)
		if findErr != nil {
			return nil, findErr
		}
		return nil, existingRequestError(existing)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, req)
	return req, nil
}

func (s *ConnectionService) AcceptConnection(ctx context.Context, accepterID, requesterID uuid.UUID) (req *ConnectionRequest, err error) {
	defer func() { observe("accept_connection", err) }()

	if accepterID == requesterID {
		return nil, ErrInvalidRequest
	}

	req, err = s.repo.FindRequest(ctx, requesterID, accepterID)
	if err != nil {
		return nil, err
	}
	if req.Status == ConnectionStatusAccepted {
		return nil, ErrAlreadyAccepted
	}

	accepted, err := s.repo.AcceptRequest(ctx, req.ID, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("connection accepted",
		zap.String("request_id", accepted.ID.String()),
		zap.String("from_user_id", accepted.FromUserID.String()),
		zap.String("to_user_id", accepted.ToUserID.String()),
	)
	return accepted, nil
}

// GetRelationships returns the user's sets plus the senders of pending
// requests addressed to them.
func (s *ConnectionService) GetRelationships(ctx context.Context, userID uuid.UUID) (view *RelationshipsView, err error) {
	defer func() { observe("get_relationships", err) }()

	return s.repo.GetRelationshipsView(ctx, userID)
}

func (s *ConnectionService) ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]*ConnectionRequest, error) {
	if err := requireUsers(ctx, s.store, userID); err != nil {
		return nil, err
	}
	return s.repo.ListPendingIncoming(ctx, userID)
}

// publish is fire-and-forget: a failed delivery never undoes the request.
func (s *ConnectionService) publish(ctx context.Context, req *ConnectionRequest) {
	if s.publisher == nil {
		return
	}

	event := NewConnectionRequestEvent(req)
	err := s.publisher.PublishConnectionRequest(ctx, event)
	metrics.ObserveEvent(event.Type, err)
	if err != nil {
		s.logger.Warn("failed to publish connection request event",
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
	}
}

func existingRequestError(req *ConnectionRequest) error {
	if req.Status == ConnectionStatusAccepted {
		return ErrAlreadyConnected
	}
	return ErrRequestPending
}
