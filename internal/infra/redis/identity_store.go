package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"quiz-battle-service/internal/domain"
)

// IdentityStore resolves handshake tokens from Redis. Sessions are written by
// the auth service as JSON under battle:identity:{token}.
type IdentityStore struct {
	client *redis.Client
}

func NewIdentityStore(client *redis.Client) *IdentityStore {
	return &IdentityStore{client: client}
}

func (s *IdentityStore) Identify(ctx context.Context, token string) (domain.Identity, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Identity{}, domain.ErrIdentityNotFound
		}
		return domain.Identity{}, err
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, err
	}
	if !id.IsActive {
		return domain.Identity{}, domain.ErrIdentityInactive
	}
	return id, nil
}

func (s *IdentityStore) key(token string) string {
	return "battle:identity:" + token
}
