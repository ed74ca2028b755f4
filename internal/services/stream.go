package services

import (
	"sort"
	"sync"

	"github.com/bonfireapp/bonfire-backend/internal/models"
)

// MessageStream owns the ordered, deduplicated message sequence for one
// bonfire subscription. Two inputs merge here: the initial bulk fetch and the
// live delta feed, which can redeliver messages the fetch already returned
// (subscribe race, reconnect). All mutation goes through these methods under
// one mutex; nothing else touches the slice.
type MessageStream struct {
	mu   sync.Mutex
	ids  map[string]struct{}
	msgs []models.BonfireMessage
}

func NewMessageStream() *MessageStream {
	return &MessageStream{ids: make(map[string]struct{})}
}

// SetBulk replaces the sequence with the initial fetch, deduplicated and
// sorted ascending by creation time.
func (s *MessageStream) SetBulk(msgs []models.BonfireMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = make(map[string]struct{}, len(msgs))
	s.msgs = s.msgs[:0]
	for _, m := range msgs {
		key := m.ID.Hex()
		if _, dup := s.ids[key]; dup {
			continue
		}
		s.ids[key] = struct{}{}
		s.msgs = append(s.msgs, m)
	}
	s.sortLocked()
}

// Insert merges one live message into the sequence. Returns false when the
// ID is already present (the duplicate is dropped silently).
func (s *MessageStream) Insert(msg models.BonfireMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := msg.ID.Hex()
	if _, dup := s.ids[key]; dup {
		return false
	}
	s.ids[key] = struct{}{}
	s.msgs = append(s.msgs, msg)
	s.sortLocked()
	return true
}

// Snapshot returns a copy of the current sequence.
func (s *MessageStream) Snapshot() []models.BonfireMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BonfireMessage, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of distinct messages held.
func (s *MessageStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// Reset empties the stream. Called when the session view is torn down.
func (s *MessageStream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
	s.msgs = nil
}

// sortLocked keeps ascending created_at order. Stable, so equal timestamps
// keep their arrival order. Caller holds mu.
func (s *MessageStream) sortLocked() {
	sort.SliceStable(s.msgs, func(i, j int) bool {
		return s.msgs[i].CreatedAt.Before(s.msgs[j].CreatedAt)
	})
}
