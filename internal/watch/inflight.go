package watch

import "sync"

// InFlight tracks file names currently being processed. TryAdd is the
// single indivisible check-and-insert that keeps two near-simultaneous
// triggers for the same name from both passing.
type InFlight struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{names: make(map[string]struct{})}
}

// TryAdd inserts name and reports whether it was absent.
func (s *InFlight) TryAdd(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

// Remove frees the entry; removing an absent name is a no-op.
func (s *InFlight) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, name)
}

// Contains reports current membership.
func (s *InFlight) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

// Len reports how many files are being processed right now.
func (s *InFlight) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}
