// Package verify provides the proof verifiers backing each guardian
// method: the built-in secp256k1 signature-recovery verifier and adapters
// for the external biometric-assertion and zero-knowledge services.
package verify

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/internal/eth"
	"github.com/layer-3/warden/ports"
)

// EOAVerifier is the built-in signature-recovery verifier. The proof is a
// raw 65-byte [R || S || V] secp256k1 signature over the intent commitment;
// it is valid iff the recovered signer's encoded identifier equals the
// guardian identifier.
type EOAVerifier struct{}

// NewEOAVerifier creates the built-in signature verifier.
func NewEOAVerifier() ports.Verifier {
	return &EOAVerifier{}
}

// Verify recovers the signer of the proof over the commitment digest.
func (v *EOAVerifier) Verify(_ context.Context, identifier common.Hash, commitment common.Hash, proof []byte) (bool, error) {
	signer, err := eth.RecoverAddress(commitment, proof)
	if err != nil {
		return false, err
	}
	return core.EOAIdentifier(signer) == identifier, nil
}
