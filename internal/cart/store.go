package cart

import (
	"sync"
	"time"
)

type entry struct {
	cart      *Cart
	expiresAt time.Time
}

// Store keeps one draft cart per session key. Drafts expire after ttl of
// inactivity.
type Store struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[string]entry
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[string]entry),
	}
}

// Put replaces the draft for key
func (s *Store) Put(key string, c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.drafts[key] = entry{cart: c, expiresAt: s.now().Add(s.ttl)}
}

// Get returns the live draft for key and extends its lifetime.
func (s *Store) Get(key string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	e, ok := s.drafts[key]
	if !ok {
		return nil, false
	}
	e.expiresAt = s.now().Add(s.ttl)
	s.drafts[key] = e
	return e.cart, true
}

// Take removes the draft for key and hands it to the caller. Only one
// caller gets a given draft.
func (s *Store) Take(key string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	e, ok := s.drafts[key]
	if !ok {
		return nil, false
	}
	delete(s.drafts, key)
	return e.cart, true
}

// Restore puts back a taken draft unless a newer one was opened meanwhile.
func (s *Store) Restore(key string, c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	if _, ok := s.drafts[key]; ok {
		return
	}
	s.drafts[key] = entry{cart: c, expiresAt: s.now().Add(s.ttl)}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.drafts)
}

func (s *Store) sweep() {
	now := s.now()
	for key, e := range s.drafts {
		if now.After(e.expiresAt) {
			delete(s.drafts, key)
		}
	}
}
