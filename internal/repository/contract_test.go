package repository

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingup/backend/internal/domain"
)

type backend interface {
	domain.RelationshipStore
	domain.ConnectionRequestRepository
	domain.MessageLog
}

type backendFactory struct {
	open          func(t *testing.T) backend
	appendMessage func(t *testing.T, b backend, msg *domain.Message)
}

// runBackendContract checks the behavior every storage backend must share.
func runBackendContract(t *testing.T, f backendFactory) {
	ctx := context.Background()
	t0 := time.Now().UTC().Truncate(time.Second)

	users := func(t *testing.T, b backend, n int) []uuid.UUID {
		t.Helper()
		ids := make([]uuid.UUID, n)
		for i := range ids {
			ids[i] = uuid.New()
			require.NoError(t, b.EnsureUser(ctx, ids[i]))
		}
		return ids
	}

	t.Run("EnsureUser is idempotent", func(t *testing.T) {
		b := f.open(t)
		id := uuid.New()

		exists, err := b.UserExists(ctx, id)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, b.EnsureUser(ctx, id))
		require.NoError(t, b.EnsureUser(ctx, id))

		exists, err = b.UserExists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("GetRelationships", func(t *testing.T) {
		b := f.open(t)
		id := users(t, b, 1)[0]

		rels, err := b.GetRelationships(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rels.UserID)
		assert.NotNil(t, rels.Following)
		assert.NotNil(t, rels.Followers)
		assert.NotNil(t, rels.Connections)
		assert.Empty(t, rels.Following)

		_, err = b.GetRelationships(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("AddFollow and RemoveFollow report changes", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 2)
		a, c := ids[0], ids[1]

		added, err := b.AddFollow(ctx, a, c)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = b.AddFollow(ctx, a, c)
		require.NoError(t, err)
		assert.False(t, added)

		relsA, err := b.GetRelationships(ctx, a)
		require.NoError(t, err)
		relsC, err := b.GetRelationships(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c}, relsA.Following)
		assert.Equal(t, []uuid.UUID{a}, relsC.Followers)

		removed, err := b.RemoveFollow(ctx, a, c)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = b.RemoveFollow(ctx, a, c)
		require.NoError(t, err)
		assert.False(t, removed)

		relsC, err = b.GetRelationships(ctx, c)
		require.NoError(t, err)
		assert.Empty(t, relsC.Followers)
	})

	t.Run("AddFollow rejects bad edges", func(t *testing.T) {
		b := f.open(t)
		a := users(t, b, 1)[0]

		_, err := b.AddFollow(ctx, a, a)
		assert.ErrorIs(t, err, domain.ErrSelfReference)

		_, err = b.AddFollow(ctx, a, uuid.New())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("AddConnection is symmetric and idempotent", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 2)
		a, c := ids[0], ids[1]

		require.NoError(t, b.AddConnection(ctx, a, c))
		require.NoError(t, b.AddConnection(ctx, c, a))

		relsA, err := b.GetRelationships(ctx, a)
		require.NoError(t, err)
		relsC, err := b.GetRelationships(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c}, relsA.Connections)
		assert.Equal(t, []uuid.UUID{a}, relsC.Connections)

		assert.ErrorIs(t, b.AddConnection(ctx, a, a), domain.ErrSelfReference)
	})

	t.Run("one request per unordered pair", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 2)
		a, c := ids[0], ids[1]

		req, err := b.CreateRequest(ctx, a, c, t0)
		require.NoError(t, err)
		assert.Equal(t, domain.ConnectionStatusPending, req.Status)
		assert.True(t, req.CreatedAt.Equal(t0))

		_, err = b.CreateRequest(ctx, a, c, t0)
		assert.ErrorIs(t, err, domain.ErrRequestExists)
		_, err = b.CreateRequest(ctx, c, a, t0)
		assert.ErrorIs(t, err, domain.ErrRequestExists)

		found, err := b.FindRequestBetween(ctx, c, a)
		require.NoError(t, err)
		assert.Equal(t, req.ID, found.ID)

		found, err = b.FindRequest(ctx, a, c)
		require.NoError(t, err)
		assert.Equal(t, req.ID, found.ID)

		_, err = b.FindRequest(ctx, c, a)
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	})

	t.Run("CreateRequest for unknown user", func(t *testing.T) {
		b := f.open(t)
		a := users(t, b, 1)[0]

		_, err := b.CreateRequest(ctx, a, uuid.New(), t0)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("CountRequestsSince is strictly after", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 4)
		sender := ids[0]

		_, err := b.CreateRequest(ctx, sender, ids[1], t0)
		require.NoError(t, err)
		_, err = b.CreateRequest(ctx, sender, ids[2], t0.Add(time.Hour))
		require.NoError(t, err)
		// Received requests do not count against the receiver.
		_, err = b.CreateRequest(ctx, ids[3], sender, t0.Add(time.Hour))
		require.NoError(t, err)

		count, err := b.CountRequestsSince(ctx, sender, t0.Add(-time.Second))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = b.CountRequestsSince(ctx, sender, t0)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = b.CountRequestsSince(ctx, sender, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("AcceptRequest commits once", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 2)
		a, c := ids[0], ids[1]

		req, err := b.CreateRequest(ctx, a, c, t0)
		require.NoError(t, err)

		accepted, err := b.AcceptRequest(ctx, req.ID, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, domain.ConnectionStatusAccepted, accepted.Status)
		assert.True(t, accepted.UpdatedAt.Equal(t0.Add(time.Minute)))

		relsA, err := b.GetRelationships(ctx, a)
		require.NoError(t, err)
		relsC, err := b.GetRelationships(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c}, relsA.Connections)
		assert.Equal(t, []uuid.UUID{a}, relsC.Connections)

		_, err = b.AcceptRequest(ctx, req.ID, t0.Add(2*time.Minute))
		assert.ErrorIs(t, err, domain.ErrAlreadyAccepted)

		_, err = b.AcceptRequest(ctx, uuid.New(), t0)
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)

		found, err := b.FindRequestBetween(ctx, a, c)
		require.NoError(t, err)
		assert.Equal(t, domain.ConnectionStatusAccepted, found.Status)
	})

	t.Run("ListPendingIncoming newest first", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 4)
		me := ids[0]

		first, err := b.CreateRequest(ctx, ids[1], me, t0)
		require.NoError(t, err)
		_, err = b.CreateRequest(ctx, ids[2], me, t0.Add(time.Minute))
		require.NoError(t, err)
		_, err = b.CreateRequest(ctx, me, ids[3], t0)
		require.NoError(t, err)

		pending, err := b.ListPendingIncoming(ctx, me)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, ids[2], pending[0].FromUserID)
		assert.Equal(t, ids[1], pending[1].FromUserID)

		_, err = b.AcceptRequest(ctx, first.ID, t0.Add(time.Hour))
		require.NoError(t, err)

		pending, err = b.ListPendingIncoming(ctx, me)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, ids[2], pending[0].FromUserID)
	})

	t.Run("ListInbound newest first with limit", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 3)
		me, x, y := ids[0], ids[1], ids[2]

		for i, from := range []uuid.UUID{x, y, x} {
			f.appendMessage(t, b, &domain.Message{
				ID:         uuid.New(),
				FromUserID: from,
				ToUserID:   me,
				CreatedAt:  t0.Add(time.Duration(i) * time.Minute),
			})
		}
		f.appendMessage(t, b, &domain.Message{
			ID:         uuid.New(),
			FromUserID: me,
			ToUserID:   x,
			CreatedAt:  t0.Add(time.Hour),
		})

		inbound, err := b.ListInbound(ctx, me, 10)
		require.NoError(t, err)
		require.Len(t, inbound, 3)
		assert.Equal(t, x, inbound[0].FromUserID)
		assert.Equal(t, y, inbound[1].FromUserID)
		assert.Equal(t, x, inbound[2].FromUserID)

		inbound, err = b.ListInbound(ctx, me, 2)
		require.NoError(t, err)
		assert.Len(t, inbound, 2)
	})

	t.Run("GetRelationshipsView reads sets and pending together", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 3)
		me, friend, asker := ids[0], ids[1], ids[2]

		req, err := b.CreateRequest(ctx, friend, me, t0)
		require.NoError(t, err)
		_, err = b.CreateRequest(ctx, asker, me, t0.Add(time.Minute))
		require.NoError(t, err)

		view, err := b.GetRelationshipsView(ctx, me)
		require.NoError(t, err)
		assert.Equal(t, me, view.UserID)
		assert.Empty(t, view.Connections)
		assert.Equal(t, []uuid.UUID{asker, friend}, view.PendingIncoming)

		_, err = b.AcceptRequest(ctx, req.ID, t0.Add(time.Hour))
		require.NoError(t, err)

		view, err = b.GetRelationshipsView(ctx, me)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{friend}, view.Connections)
		assert.Equal(t, []uuid.UUID{asker}, view.PendingIncoming)

		_, err = b.GetRelationshipsView(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("ListInbound breaks timestamp ties by id", func(t *testing.T) {
		b := f.open(t)
		ids := users(t, b, 2)
		me, x := ids[0], ids[1]

		msgIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		for _, id := range msgIDs {
			f.appendMessage(t, b, &domain.Message{ID: id, FromUserID: x, ToUserID: me, CreatedAt: t0})
		}
		sort.Slice(msgIDs, func(i, j int) bool { return msgIDs[i].String() > msgIDs[j].String() })

		for poll := 0; poll < 3; poll++ {
			inbound, err := b.ListInbound(ctx, me, 10)
			require.NoError(t, err)
			require.Len(t, inbound, 3)
			for i, msg := range inbound {
				assert.Equal(t, msgIDs[i], msg.ID)
			}
		}

		limited, err := b.ListInbound(ctx, me, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, msgIDs[:2], []uuid.UUID{limited[0].ID, limited[1].ID})
	})
}
