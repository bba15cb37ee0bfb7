package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/warden/core"
)

// RedisStore is a Redis implementation of the state and token stores. A
// restarted instance resumes its live session from the stored state.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "warden:",
	}
}

func (s *RedisStore) stateKey(instance common.Address) string {
	return s.prefix + "state:" + instance.Hex()
}

// Load returns the stored instance state, or nil when absent.
func (s *RedisStore) Load(ctx context.Context, instance common.Address) (*core.State, error) {
	data, err := s.client.Get(ctx, s.stateKey(instance)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load instance state: %w", err)
	}

	var state core.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode instance state: %w", err)
	}
	return &state, nil
}

// Save replaces the stored instance state. State outlives any single
// session, so no TTL is set.
func (s *RedisStore) Save(ctx context.Context, instance common.Address, state *core.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode instance state: %w", err)
	}
	if err := s.client.Set(ctx, s.stateKey(instance), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save instance state: %w", err)
	}
	return nil
}

// InvalidateToken marks a token as invalidated in Redis.
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.prefix + "invalidated:" + tokenID

	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis.
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	key := s.prefix + "invalidated:" + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	return val > 0, nil
}
