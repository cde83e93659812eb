package domain

import (
	"context"

	"github.com/google/uuid"
)

// Relationships is a point-in-time copy of a user's relationship sets.
// Mutating it never affects the store.
type Relationships struct {
	UserID      uuid.UUID   `json:"user_id"`
	Following   []uuid.UUID `json:"following"`
	Followers   []uuid.UUID `json:"followers"`
	Connections []uuid.UUID `json:"connections"`
}

// RelationshipsView is what callers see for a user: the stored sets plus the
// senders of pending requests addressed to the user.
type RelationshipsView struct {
	Relationships
	PendingIncoming []uuid.UUID `json:"pending_incoming"`
}

// RelationshipStore is the system of record for follow and connection sets.
//
// AddFollow and RemoveFollow are idempotent: the boolean result reports
// whether the call changed anything, and a no-op is not an error. AddFollow
// is a single conditional write, so concurrent callers for the same pair see
// exactly one true.
type RelationshipStore interface {
	EnsureUser(ctx context.Context, userID uuid.UUID) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)

	AddFollow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	RemoveFollow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	AddConnection(ctx context.Context, aID, bID uuid.UUID) error

	GetRelationships(ctx context.Context, userID uuid.UUID) (*Relationships, error)
}
