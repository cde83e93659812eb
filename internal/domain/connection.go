package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
)

// ConnectionRequest tracks the handshake between two users. There is at most
// one per unordered pair; it moves from pending to accepted once and is never
// deleted.
type ConnectionRequest struct {
	ID         uuid.UUID        `json:"id"`
	FromUserID uuid.UUID        `json:"from_user_id"`
	ToUserID   uuid.UUID        `json:"to_user_id"`
	Status     ConnectionStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type ConnectionRequestRepository interface {
	// CountRequestsSince counts requests sent by fromUserID strictly after since.
	CountRequestsSince(ctx context.Context, fromUserID uuid.UUID, since time.Time) (int, error)

	// FindRequestBetween looks the pair up in both directions.
	FindRequestBetween(ctx context.Context, aID, bID uuid.UUID) (*ConnectionRequest, error)
	// FindRequest only matches fromUserID -> toUserID.
	FindRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*ConnectionRequest, error)

	// CreateRequest stores a pending request. It fails with ErrRequestExists
	// when any request already exists for the unordered pair.
	CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID, createdAt time.Time) (*ConnectionRequest, error)

	// AcceptRequest flips a pending request to accepted and links both users
	// as connections in one commit. It fails with ErrAlreadyAccepted when the
	// request is no longer pending.
	AcceptRequest(ctx context.Context, requestID uuid.UUID, acceptedAt time.Time) (*ConnectionRequest, error)

	ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]*ConnectionRequest, error)

	// GetRelationshipsView reads the user's sets and pending senders from one
	// snapshot, so an accept is seen either fully or not at all.
	GetRelationshipsView(ctx context.Context, userID uuid.UUID) (*RelationshipsView, error)
}

const EventTypeConnectionRequest = "connection-request"

// ConnectionRequestEvent is emitted once per newly created request.
type ConnectionRequestEvent struct {
	Type       string    `json:"type"`
	RequestID  uuid.UUID `json:"request_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewConnectionRequestEvent(req *ConnectionRequest) *ConnectionRequestEvent {
	return &ConnectionRequestEvent{
		Type:       EventTypeConnectionRequest,
		RequestID:  req.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		CreatedAt:  req.CreatedAt,
	}
}

// EventPublisher hands events to the notification bus. Delivery is at most
// once from the caller's point of view.
type EventPublisher interface {
	PublishConnectionRequest(ctx context.Context, event *ConnectionRequestEvent) error
}
