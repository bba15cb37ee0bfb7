package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Challenge represents an owner sign-in challenge.
type Challenge struct {
	ID        string         // Unique identifier for the challenge
	Address   common.Address // Controller address the challenge was issued for
	Nonce     string         // Random nonce to be signed
	IssuedAt  time.Time      // When the challenge was created
	ExpiresAt time.Time      // When the challenge expires
}

// OwnerSession represents an authenticated account controller, authorized
// to veto a recovery or replace the policy.
type OwnerSession struct {
	ID        string         // Unique session identifier, revocable on logout
	Address   common.Address // Controller address proven at sign-in
	IssuedAt  time.Time      // When the session was created
	ExpiresAt time.Time      // When the session expires
}
