package domain

import (
	"sort"

	"github.com/google/uuid"
)

// AggregateRecentMessages collapses a message log into one entry per sender,
// the latest one, ordered newest first.
//
// Messages without a resolvable sender are dropped. When a sender has several
// messages with the same timestamp the one that appears last in the input
// wins, which keeps repeated polls from flickering between them.
func AggregateRecentMessages(messages []*Message) []*Message {
	latest := make(map[uuid.UUID]int)
	order := make([]uuid.UUID, 0)

	for i, msg := range messages {
		if msg == nil || msg.FromUserID == uuid.Nil {
			continue
		}
		best, seen := latest[msg.FromUserID]
		if !seen {
			order = append(order, msg.FromUserID)
			latest[msg.FromUserID] = i
			continue
		}
		if !msg.CreatedAt.Before(messages[best].CreatedAt) {
			latest[msg.FromUserID] = i
		}
	}

	preview := make([]*Message, 0, len(order))
	for _, sender := range order {
		preview = append(preview, messages[latest[sender]])
	}

	sort.SliceStable(preview, func(i, j int) bool {
		return preview[i].CreatedAt.After(preview[j].CreatedAt)
	})
	return preview
}
