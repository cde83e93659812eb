package domain

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/metrics"
)

const DefaultInboxFetchLimit = 500

// InboxService builds the recent-messages preview. Clients poll it; nothing is
// cached between calls.
type InboxService struct {
	log        MessageLog
	fetchLimit int
	logger     *zap.Logger
}

func NewInboxService(log MessageLog, fetchLimit int, logger *zap.Logger) *InboxService {
	if fetchLimit <= 0 {
		fetchLimit = DefaultInboxFetchLimit
	}
	return &InboxService{
		log:        log,
		fetchLimit: fetchLimit,
		logger:     logger,
	}
}

func (s *InboxService) RecentMessages(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	messages, err := s.log.ListInbound(ctx, userID, s.fetchLimit)
	if err != nil {
		return nil, err
	}

	preview := AggregateRecentMessages(messages)
	metrics.ObservePreviewSize(len(preview))
	if len(messages) == s.fetchLimit {
		s.logger.Debug("recent messages truncated at fetch limit",
			zap.String("user_id", userID.String()),
			zap.Int("limit", s.fetchLimit),
		)
	}
	return preview, nil
}
