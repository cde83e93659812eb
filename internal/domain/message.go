package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message is a direct message from the external messaging log. It is read-only
// here.
type Message struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Text       *string   `json:"text,omitempty"`
	MediaURL   *string   `json:"media_url,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageLog reads a user's inbound messages, newest first, at most limit of them.
type MessageLog interface {
	ListInbound(ctx context.Context, userID uuid.UUID, limit int) ([]*Message, error)
}
