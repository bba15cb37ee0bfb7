package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/internal/eth"
)

func testTokenizer(t *testing.T) (*JWTTokenizer, eth.EIP712Domain) {
	t.Helper()
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	domain := eth.EIP712Domain{
		Name:              core.SchemeName,
		Version:           core.SchemeVersion,
		ChainID:           big.NewInt(1),
		VerifyingContract: common.HexToAddress("0xAA"),
	}
	return NewJWTTokenizer(signKey, domain).(*JWTTokenizer), domain
}

func TestChallengeTokenRoundTrip(t *testing.T) {
	tok, _ := testTokenizer(t)

	now := time.Now().Truncate(time.Second)
	challenge := &core.Challenge{
		ID:        "challenge-1",
		Address:   common.HexToAddress("0x01"),
		Nonce:     "deadbeef",
		IssuedAt:  now,
		ExpiresAt: now.Add(5 * time.Minute),
	}

	token, err := tok.ChallengeToToken(challenge)
	require.NoError(t, err)

	decoded, err := tok.TokenToChallenge(token)
	require.NoError(t, err)
	assert.Equal(t, challenge.ID, decoded.ID)
	assert.Equal(t, challenge.Address, decoded.Address)
	assert.Equal(t, challenge.Nonce, decoded.Nonce)
	assert.True(t, decoded.ExpiresAt.Equal(challenge.ExpiresAt))
}

func TestOwnerSessionTokenRoundTrip(t *testing.T) {
	tok, _ := testTokenizer(t)

	now := time.Now().Truncate(time.Second)
	session := &core.OwnerSession{
		ID:        "session-1",
		Address:   common.HexToAddress("0x02"),
		IssuedAt:  now,
		ExpiresAt: now.Add(15 * time.Minute),
	}

	token, err := tok.OwnerSessionToToken(session)
	require.NoError(t, err)

	decoded, err := tok.TokenToOwnerSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, decoded.ID)
	assert.Equal(t, session.Address, decoded.Address)
}

func TestTokenAudienceSeparation(t *testing.T) {
	tok, _ := testTokenizer(t)

	now := time.Now()
	challengeToken, err := tok.ChallengeToToken(&core.Challenge{
		ID:        "c",
		Address:   common.HexToAddress("0x01"),
		Nonce:     "n",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	// A challenge token can never pass as an access token.
	_, err = tok.TokenToOwnerSession(challengeToken)
	assert.Error(t, err)
}

func TestTokenSignatureBinding(t *testing.T) {
	tok, _ := testTokenizer(t)
	other, _ := testTokenizer(t)

	now := time.Now()
	token, err := tok.OwnerSessionToToken(&core.OwnerSession{
		ID:        "s",
		Address:   common.HexToAddress("0x01"),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	// A token signed with one service key fails under another.
	_, err = other.TokenToOwnerSession(token)
	assert.Error(t, err)

	_, err = tok.TokenToOwnerSession("garbage.token.value")
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	tok, domain := testTokenizer(t)

	ownerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	ownerAddr := ethcrypto.PubkeyToAddress(ownerKey.PublicKey)

	challenge := &core.Challenge{
		ID:      "c",
		Address: ownerAddr,
		Nonce:   "abc123",
	}

	sig, err := eth.SignDigest(eth.TypedDataDigest(domain, eth.NonceMessage(challenge.Nonce)), ownerKey)
	require.NoError(t, err)

	require.NoError(t, tok.VerifySignature(challenge, hexutil.Encode(sig), ownerAddr))

	// Wrong claimed address.
	err = tok.VerifySignature(challenge, hexutil.Encode(sig), common.HexToAddress("0x09"))
	assert.Error(t, err)

	// Signature over a different nonce.
	wrongSig, err := eth.SignDigest(eth.TypedDataDigest(domain, eth.NonceMessage("other")), ownerKey)
	require.NoError(t, err)
	err = tok.VerifySignature(challenge, hexutil.Encode(wrongSig), ownerAddr)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	// Not hex, wrong length.
	assert.Error(t, tok.VerifySignature(challenge, "zz", ownerAddr))
	assert.Error(t, tok.VerifySignature(challenge, hexutil.Encode(sig[:32]), ownerAddr))
}
