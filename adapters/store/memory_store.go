package store

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
)

// MemoryStore is an in-memory implementation of the state and token stores,
// used in tests and single-node deployments.
type MemoryStore struct {
	states            map[common.Address]*core.State
	invalidatedTokens map[string]time.Time
	mu                sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:            make(map[common.Address]*core.State),
		invalidatedTokens: make(map[string]time.Time),
	}
}

// Load returns a copy of the stored instance state, or nil when absent.
func (s *MemoryStore) Load(ctx context.Context, instance common.Address) (*core.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[instance]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

// Save replaces the stored instance state.
func (s *MemoryStore) Save(ctx context.Context, instance common.Address, state *core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[instance] = state.Clone()
	return nil
}

// InvalidateToken marks a token as invalidated.
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := time.Now().Add(expiry)
	s.invalidatedTokens[tokenID] = expiryTime

	// Drop the record once the token itself would have expired anyway.
	go func() {
		time.Sleep(expiry)

		s.mu.Lock()
		defer s.mu.Unlock()

		if storedExpiry, exists := s.invalidatedTokens[tokenID]; exists && !storedExpiry.After(expiryTime) {
			delete(s.invalidatedTokens, tokenID)
		}
	}()

	return nil
}

// IsTokenInvalidated checks if a token is invalidated.
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiryTime) {
		return false, nil
	}
	return true, nil
}
