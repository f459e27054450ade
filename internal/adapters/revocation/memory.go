package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// MemoryStore is a single-instance revocation list used when Redis is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

var _ ports.TokenRevoker = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge()

	if until.After(s.now()) {
		s.revoked[tokenID] = until
	}

	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}

	if !until.After(s.now()) {
		delete(s.revoked, tokenID)
		return false, nil
	}

	return true, nil
}

// Len is the number of unexpired revocations.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge()

	return len(s.revoked)
}

// purge drops expired entries. Callers hold mu.
func (s *MemoryStore) purge() {
	now := s.now()
	for id, until := range s.revoked {
		if !until.After(now) {
			delete(s.revoked, id)
		}
	}
}
