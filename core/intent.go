package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/internal/eth"
)

// Scheme name and version bound into every intent commitment through the
// EIP-712 domain. Bumping the version invalidates all outstanding proofs.
const (
	SchemeName    = "Warden Recovery"
	SchemeVersion = "1"
)

// Intent is the message a guardian authenticates over: the proposed
// ownership change plus everything needed to pin it to exactly one epoch of
// exactly one instance. Intents are hashed, never persisted.
type Intent struct {
	Account            common.Address
	ProposedController common.Address
	Counter            uint64
	Expiry             uint64 // unix seconds
	ChainID            *big.Int
	Instance           common.Address
}

// Domain returns the EIP-712 domain for the intent's network and instance.
func (i Intent) Domain() eth.EIP712Domain {
	return eth.EIP712Domain{
		Name:              SchemeName,
		Version:           SchemeVersion,
		ChainID:           i.ChainID,
		VerifyingContract: i.Instance,
	}
}

// Message returns the typed-data struct guardians sign or prove over.
func (i Intent) Message() eth.RecoveryMessage {
	return eth.RecoveryMessage{
		Account:       i.Account,
		NewController: i.ProposedController,
		Counter:       i.Counter,
		Expiry:        i.Expiry,
	}
}

// Commitment produces the domain-separated hash binding the intent. A
// commitment computed for one instance, network or scheme version can never
// be replayed against another.
func (i Intent) Commitment() common.Hash {
	return eth.TypedDataDigest(i.Domain(), i.Message())
}
