package ports

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
)

// Tokenizer converts between owner-auth domain objects and bearer tokens.
type Tokenizer interface {
	// Challenge token operations
	ChallengeToToken(challenge *core.Challenge) (string, error)
	TokenToChallenge(token string) (*core.Challenge, error)

	// Owner session token operations
	OwnerSessionToToken(session *core.OwnerSession) (string, error)
	TokenToOwnerSession(token string) (*core.OwnerSession, error)

	// VerifySignature checks the typed-data signature over the challenge
	// nonce against the given controller address.
	VerifySignature(challenge *core.Challenge, signature string, address common.Address) error
}
