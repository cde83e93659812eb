package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func msgAt(from uuid.UUID, offset int) *Message {
	return &Message{
		ID:         uuid.New(),
		FromUserID: from,
		CreatedAt:  base.Add(time.Duration(offset) * time.Second),
	}
}

func TestAggregateRecentMessages_LatestPerSenderNewestFirst(t *testing.T) {
	x, y := uuid.New(), uuid.New()
	x1, x5, y3 := msgAt(x, 1), msgAt(x, 5), msgAt(y, 3)

	got := AggregateRecentMessages([]*Message{x1, x5, y3})

	require.Len(t, got, 2)
	assert.Same(t, x5, got[0])
	assert.Same(t, y3, got[1])
}

func TestAggregateRecentMessages_UnsortedInput(t *testing.T) {
	x, y, z := uuid.New(), uuid.New(), uuid.New()
	input := []*Message{
		msgAt(y, 2),
		msgAt(z, 9),
		msgAt(x, 4),
		msgAt(y, 7),
		msgAt(x, 1),
		msgAt(z, 3),
	}

	got := AggregateRecentMessages(input)

	require.Len(t, got, 3)
	assert.Equal(t, z, got[0].FromUserID)
	assert.Equal(t, base.Add(9*time.Second), got[0].CreatedAt)
	assert.Equal(t, y, got[1].FromUserID)
	assert.Equal(t, base.Add(7*time.Second), got[1].CreatedAt)
	assert.Equal(t, x, got[2].FromUserID)
	assert.Equal(t, base.Add(4*time.Second), got[2].CreatedAt)
}

func TestAggregateRecentMessages_TieKeepsLastEncountered(t *testing.T) {
	x := uuid.New()
	first, second := msgAt(x, 5), msgAt(x, 5)

	got := AggregateRecentMessages([]*Message{first, msgAt(x, 2), second})

	require.Len(t, got, 1)
	assert.Same(t, second, got[0])
}

func TestAggregateRecentMessages_DropsUnresolvableSenders(t *testing.T) {
	x := uuid.New()
	kept := msgAt(x, 1)

	got := AggregateRecentMessages([]*Message{nil, msgAt(uuid.Nil, 10), kept})

	require.Len(t, got, 1)
	assert.Same(t, kept, got[0])
}

func TestAggregateRecentMessages_Empty(t *testing.T) {
	got := AggregateRecentMessages(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregateRecentMessages_Idempotent(t *testing.T) {
	senders := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	var input []*Message
	for i := 0; i < 40; i++ {
		// Repeating offsets give same-timestamp ties both within and across senders.
		input = append(input, msgAt(senders[i%len(senders)], (i*7)%11))
	}

	once := AggregateRecentMessages(input)
	twice := AggregateRecentMessages(once)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.Same(t, once[i], twice[i])
	}
}

func TestAggregateRecentMessages_DoesNotMutateInput(t *testing.T) {
	x, y := uuid.New(), uuid.New()
	input := []*Message{msgAt(x, 1), msgAt(y, 2), msgAt(x, 3)}
	snapshot := append([]*Message(nil), input...)

	_ = AggregateRecentMessages(input)

	assert.Equal(t, snapshot, input)
}
