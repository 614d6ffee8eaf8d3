package noncestore

import (
	"context"
	"sync"
	"time"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

// MemoryStore is a single-process nonce store for tests/dev.
type MemoryStore struct {
	mu     sync.Mutex
	nonces map[string]time.Time
}

// NewMemoryStore constructs a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nonces: make(map[string]time.Time)}
}

// Put stores the nonce with a TTL.
func (s *MemoryStore) Put(_ context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
	s.nonces[nonce] = time.Now().Add(ttl)
	return nil
}

// Take consumes the nonce, reporting true at most once per Put.
func (s *MemoryStore) Take(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.nonces[nonce]
	if !ok {
		return false, nil
	}
	delete(s.nonces, nonce)
	return time.Now().Before(expiry), nil
}

func (s *MemoryStore) cleanupLocked() {
	now := time.Now()
	for nonce, expiry := range s.nonces {
		if now.After(expiry) {
			delete(s.nonces, nonce)
		}
	}
}

var _ auth.NonceStore = (*MemoryStore)(nil)
