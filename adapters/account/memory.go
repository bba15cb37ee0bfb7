// Package account provides implementations of the managed account's
// ownership surface: an in-process account for tests and single-node
// deployments, and a JSON-RPC adapter for an on-chain Ownable contract.
package account

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/ports"
)

// MemoryAccount is an in-process account with a mutable controller and an
// explicit authorization list.
type MemoryAccount struct {
	mu         sync.RWMutex
	controller common.Address
	authorized map[common.Address]bool
}

// NewMemoryAccount creates an account controlled by controller, with any
// additional identities (such as the recovery instance) pre-authorized.
func NewMemoryAccount(controller common.Address, authorized ...common.Address) *MemoryAccount {
	auth := make(map[common.Address]bool, len(authorized))
	for _, a := range authorized {
		auth[a] = true
	}
	return &MemoryAccount{controller: controller, authorized: auth}
}

// CurrentController returns the account's current controller.
func (a *MemoryAccount) CurrentController(ctx context.Context) (common.Address, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.controller, nil
}

// SetController hands control to a new controller.
func (a *MemoryAccount) SetController(ctx context.Context, newController common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.controller = newController
	return nil
}

// IsAuthorized reports whether the identity is the controller or explicitly
// authorized.
func (a *MemoryAccount) IsAuthorized(ctx context.Context, identity common.Address) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return identity == a.controller || a.authorized[identity], nil
}

var _ ports.Account = (*MemoryAccount)(nil)
