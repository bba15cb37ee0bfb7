package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Account is the managed account's ownership surface. The recovery instance
// is the only component that invokes SetController.
type Account interface {
	// CurrentController returns the account's current controller identity.
	CurrentController(ctx context.Context) (common.Address, error)

	// SetController hands control of the account to a new controller.
	SetController(ctx context.Context, newController common.Address) error

	// IsAuthorized reports whether the identity may act for the account.
	IsAuthorized(ctx context.Context, identity common.Address) (bool, error)
}
