package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Verifier checks a guardian's proof over an intent commitment. Exactly one
// verifier backs each guardian method; the proof blob's wire format is
// method-specific and opaque to the caller. A malformed blob may surface as
// an error or as false — the state machine treats both as an invalid proof.
type Verifier interface {
	Verify(ctx context.Context, identifier common.Hash, commitment common.Hash, proof []byte) (bool, error)
}
