package memory

import (
	"sync"
	"time"

	"reviews_widget/internal/adapters/observability"
	"reviews_widget/internal/domain"
)

const DefaultMaxAge = 24 * time.Hour

// Store is the in-memory home of the CacheState. Writers swap the whole state
// under the lock, so readers see either the old snapshot or the new one.
type Store struct {
	mu     sync.RWMutex
	state  domain.CacheState
	maxAge time.Duration
	now    func() time.Time
}

func New(maxAge time.Duration, now func() time.Time) *Store {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if now == nil {
		now = time.Now
	}
	return &Store{maxAge: maxAge, now: now}
}

func (s *Store) Read() domain.CacheState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Snapshot == nil {
		observability.ObserveCache("memory", "miss")
	} else {
		observability.ObserveCache("memory", "hit")
	}
	return s.state
}

func (s *Store) Peek() domain.CacheState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Write(snap domain.BusinessSnapshot) domain.CacheState {
	// copy so the caller can't mutate what readers see
	cp := copySnapshot(snap)
	ts := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.CacheState{
		Snapshot:    &cp,
		LastUpdated: &ts,
		Identifier:  s.state.Identifier,
	}
	observability.ObserveCache("memory", "set")
	return s.state
}

func (s *Store) IsStale(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Stale(now, s.maxAge)
}

func (s *Store) MaxAge() time.Duration { return s.maxAge }

func (s *Store) Identifier() (domain.BusinessIdentifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Identifier == nil {
		return "", false
	}
	return *s.state.Identifier, true
}

// SetIdentifier keeps the first identifier it is given; the memo is valid for
// the process lifetime.
func (s *Store) SetIdentifier(id domain.BusinessIdentifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Identifier != nil {
		return
	}
	s.state.Identifier = &id
}

func copySnapshot(in domain.BusinessSnapshot) domain.BusinessSnapshot {
	out := in
	if n := len(in.Reviews); n > 0 {
		out.Reviews = make([]domain.Review, n)
		copy(out.Reviews, in.Reviews)
	}
	return out
}
