// Package session tracks pending guided-command state per owner.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/pricewatch/internal/domain"
)

// Store holds at most one pending conversation session per owner.
// Begin overwrites any pending session (no stacking, no queueing);
// Consume removes and returns the pending step in one operation, so
// two concurrent messages from the same owner cannot both observe it.
type Store interface {
	Begin(ctx context.Context, owner string, step domain.SessionStep) error
	Consume(ctx context.Context, owner string) (domain.SessionStep, bool, error)
	Close() error
}

type memoryEntry struct {
	step    domain.SessionStep
	created time.Time
}

// MemoryStore is the default in-process session store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration // 0 = sessions never expire
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store. ttl of 0 disables
// expiry; otherwise stale sessions are evicted lazily on access.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin creates or overwrites the pending session for owner.
func (s *MemoryStore) Begin(_ context.Context, owner string, step domain.SessionStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[owner] = memoryEntry{step: step, created: s.now()}
	return nil
}

// Consume removes and returns the pending session step for owner.
func (s *MemoryStore) Consume(_ context.Context, owner string) (domain.SessionStep, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[owner]
	if !ok {
		return "", false, nil
	}
	delete(s.sessions, owner)

	if s.ttl > 0 && s.now().Sub(entry.created) > s.ttl {
		return "", false, nil
	}
	return entry.step, true, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
