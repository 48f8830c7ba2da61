package bookingflow

import (
	"sync"

	"bookadmin/internal/domain"
)

// Store is the explicit, owned cache behind the booking form. Views hold a
// reference and read through it; the only writers are the orchestrator's own
// fetches and the live-sync triggered refreshes. No ambient module state.
type Store struct {
	mu            sync.RWMutex
	services      []domain.Service
	slots         []domain.AnnotatedSlot
	refreshFailed bool
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Services() []domain.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

func (s *Store) Slots() []domain.AnnotatedSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots
}

func (s *Store) SlotByID(id int64) (domain.AnnotatedSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sl := range s.slots {
		if sl.ID == id {
			return sl, true
		}
	}
	return domain.AnnotatedSlot{}, false
}

// RefreshFailed reports whether the last background refresh failed; the view
// shows a "refresh failed" indicator over the stale-but-consistent data.
func (s *Store) RefreshFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshFailed
}

func (s *Store) setServices(services []domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = services
	s.refreshFailed = false
}

func (s *Store) setSlots(slots []domain.AnnotatedSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = slots
	s.refreshFailed = false
}

func (s *Store) clearSlots() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = nil
}

func (s *Store) markRefreshFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFailed = true
}
