package executor

import "sync"

// inflightSet tracks tasks with a transition request in flight, so the
// same client session never has two concurrent requests for one task.
// The marker is owned here, not by any UI layer, so the invariant holds
// regardless of how the executor is driven.
type inflightSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{ids: make(map[string]struct{})}
}

// acquire marks a task as having a request in flight.
// Returns false if one is already in flight.
func (s *inflightSet) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.ids[id]; busy {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// release clears the in-flight marker. Safe to call when not held.
func (s *inflightSet) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}
