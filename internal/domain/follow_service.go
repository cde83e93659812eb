package domain

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/metrics"
)

// FollowService applies follow edges. Follow is strict about duplicates while
// Unfollow accepts no-ops.
type FollowService struct {
	store  RelationshipStore
	logger *zap.Logger
}

func NewFollowService(store RelationshipStore, logger *zap.Logger) *FollowService {
	return &FollowService{
		store:  store,
		logger: logger,
	}
}

func (s *FollowService) Follow(ctx context.Context, requesterID, targetID uuid.UUID) (err error) {
	defer func() { observe("follow", err) }()

	if requesterID == targetID {
		return ErrSelfFollow
	}
	if err := requireUsers(ctx, s.store, requesterID, targetID); err != nil {
		return err
	}

	added, err := s.store.AddFollow(ctx, requesterID, targetID)
	if err != nil {
		return err
	}
	if !added {
		return ErrAlreadyFollowing
	}

	s.logger.Debug("follow added",
		zap.String("follower_id", requesterID.String()),
		zap.String("followee_id", targetID.String()),
	)
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, requesterID, targetID uuid.UUID) (err error) {
	defer func() { observe("unfollow", err) }()

	if err := requireUsers(ctx, s.store, requesterID, targetID); err != nil {
		return err
	}
	if requesterID == targetID {
		return nil
	}

	removed, err := s.store.RemoveFollow(ctx, requesterID, targetID)
	if err != nil {
		return err
	}
	if removed {
		s.logger.Debug("follow removed",
			zap.String("follower_id", requesterID.String()),
			zap.String("followee_id", targetID.String()),
		)
	}
	return nil
}

// requireUsers fails with ErrUserNotFound unless every id is known to the store.
func requireUsers(ctx context.Context, store RelationshipStore, ids ...uuid.UUID) error {
	for _, id := range ids {
		exists, err := store.UserExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
	}
	return nil
}

func observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	metrics.ObserveOperation(operation, outcome)
}
