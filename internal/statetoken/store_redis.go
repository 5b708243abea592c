package statetoken

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	dErrors "linkgate/pkg/domain-errors"
)

// slotKey is fixed: the store is a single slot, not a keyed collection.
const slotKey = "linkgate:state_token"

// RedisStore persists the slot in Redis so the token survives a gateway
// restart mid-flow. The Redis TTL is a physical purge backstop; logical
// expiry is still evaluated lazily by the manager.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, token Token) error {
	encoded, err := json.Marshal(token)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode state token")
	}
	if err := s.client.Set(ctx, slotKey, encoded, TTL).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "store state token")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context) (*Token, error) {
	data, err := s.client.Get(ctx, slotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "load state token")
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode state token")
	}
	return &token, nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, slotKey).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "delete state token")
	}
	return nil
}
