// Package events delivers domain events to the external notification bus.
package events

import (
	"context"
	"errors"

	"github.com/pingup/backend/internal/domain"
)

// Fanout hands each event to every publisher in order. All publishers are
// tried even if one fails; the failures are joined.
type Fanout []domain.EventPublisher

func (f Fanout) PublishConnectionRequest(ctx context.Context, event *domain.ConnectionRequestEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishConnectionRequest(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
