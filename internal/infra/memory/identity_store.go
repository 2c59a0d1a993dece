package memory

import (
	"context"
	"sync"

	"quiz-battle-service/internal/domain"
)

// IdentityStore resolves handshake tokens from a static map (tests/demos).
type IdentityStore struct {
	mu         sync.RWMutex
	identities map[string]domain.Identity
}

func NewIdentityStore(identities map[string]domain.Identity) *IdentityStore {
	if identities == nil {
		identities = make(map[string]domain.Identity)
	}
	return &IdentityStore{identities: identities}
}

// Put registers or replaces a token binding.
func (s *IdentityStore) Put(token string, id domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[token] = id
}

func (s *IdentityStore) Identify(_ context.Context, token string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[token]
	if !ok {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	if !id.IsActive {
		return domain.Identity{}, domain.ErrIdentityInactive
	}
	return id, nil
}
