package live

import (
	"sync"
	"time"

	"bookadmin/internal/domain"
)

// seenLimit bounds the dedup set; old ids are evicted FIFO.
const seenLimit = 1024

// Subscriber is the receiving half of the sync channel, shared by every
// admin-session frontend. It deduplicates events by id — a session receiving
// the echo of its own mutation applies nothing twice — and coalesces bursts
// into a single debounced re-fetch. On reconnect it assumes events were
// missed and triggers one immediate full re-fetch instead of replaying a gap.
type Subscriber struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	seenOrder []string
	timer     *time.Timer
	debounce  time.Duration
	refetch   func()
}

// NewSubscriber wires refetch as the sole re-fetch trigger. debounce on the
// order of a few hundred milliseconds keeps event bursts to one re-fetch.
func NewSubscriber(refetch func(), debounce time.Duration) *Subscriber {
	return &Subscriber{
		seen:     make(map[string]struct{}),
		debounce: debounce,
		refetch:  refetch,
	}
}

// Handle processes one pushed event. Already-seen ids are dropped; new ones
// schedule (or extend) the debounced re-fetch.
func (s *Subscriber) Handle(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[ev.ID]; dup {
		return
	}
	s.remember(ev.ID)

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

// Reconnected must be called after the push connection is re-established.
// Pending debounce is discarded in favour of an immediate full re-fetch.
func (s *Subscriber) Reconnected() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.refetch()
}

func (s *Subscriber) fire() {
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()

	s.refetch()
}

// remember must be called with the lock held.
func (s *Subscriber) remember(id string) {
	s.seen[id] = struct{}{}
	s.seenOrder = append(s.seenOrder, id)
	if len(s.seenOrder) > seenLimit {
		delete(s.seen, s.seenOrder[0])
		s.seenOrder = s.seenOrder[1:]
	}
}
