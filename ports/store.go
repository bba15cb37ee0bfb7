package ports

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
)

// StateStore persists recovery instance state, keyed by instance address.
type StateStore interface {
	// Load returns the stored state, or nil when the instance has none yet.
	Load(ctx context.Context, instance common.Address) (*core.State, error)

	// Save replaces the stored state for the instance.
	Save(ctx context.Context, instance common.Address, state *core.State) error
}

// TokenStore tracks revoked owner token ids.
type TokenStore interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
