package service

import (
	"context"
	stdecdsa "crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/warden/adapters/account"
	"github.com/layer-3/warden/adapters/store"
	"github.com/layer-3/warden/adapters/tokenizer"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/internal/eth"
)

func TestOwnerLoginFlow(t *testing.T) {
	ctx := context.Background()

	signKey, err := stdecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ownerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	ownerAddr := crypto.PubkeyToAddress(ownerKey.PublicKey)

	domain := eth.EIP712Domain{
		Name:              core.SchemeName,
		Version:           core.SchemeVersion,
		ChainID:           big.NewInt(testChainID),
		VerifyingContract: testInstance,
	}
	tok := tokenizer.NewJWTTokenizer(signKey, domain)
	memStore := store.NewMemoryStore()
	acct := account.NewMemoryAccount(ownerAddr)
	auth := NewAuth(tok, memStore, acct)

	challengeToken, err := auth.CreateChallenge(ownerAddr)
	require.NoError(t, err)

	challenge, err := tok.TokenToChallenge(challengeToken)
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, challenge.Address)
	assert.NotEmpty(t, challenge.Nonce)

	sig, err := eth.SignDigest(eth.TypedDataDigest(domain, eth.NonceMessage(challenge.Nonce)), ownerKey)
	require.NoError(t, err)

	accessToken, err := auth.Login(ctx, challengeToken, hexutil.Encode(sig), ownerAddr)
	require.NoError(t, err)

	session, err := auth.ValidateAccessToken(ctx, accessToken)
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, session.Address)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	// Logout revokes the token for its remaining lifetime.
	require.NoError(t, auth.Logout(ctx, accessToken))
	_, err = auth.ValidateAccessToken(ctx, accessToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)
}

func TestLoginRejectsNonController(t *testing.T) {
	ctx := context.Background()

	signKey, err := stdecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	strangerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	strangerAddr := crypto.PubkeyToAddress(strangerKey.PublicKey)

	domain := eth.EIP712Domain{
		Name:              core.SchemeName,
		Version:           core.SchemeVersion,
		ChainID:           big.NewInt(testChainID),
		VerifyingContract: testInstance,
	}
	tok := tokenizer.NewJWTTokenizer(signKey, domain)
	// The account is controlled by someone else entirely.
	auth := NewAuth(tok, store.NewMemoryStore(), account.NewMemoryAccount(testOwner))

	challengeToken, err := auth.CreateChallenge(strangerAddr)
	require.NoError(t, err)
	challenge, err := tok.TokenToChallenge(challengeToken)
	require.NoError(t, err)

	// A perfectly valid signature by a non-controller is still refused.
	sig, err := eth.SignDigest(eth.TypedDataDigest(domain, eth.NonceMessage(challenge.Nonce)), strangerKey)
	require.NoError(t, err)

	_, err = auth.Login(ctx, challengeToken, hexutil.Encode(sig), strangerAddr)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestLoginRejectsWrongSigner(t *testing.T) {
	ctx := context.Background()

	signKey, err := stdecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ownerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	ownerAddr := crypto.PubkeyToAddress(ownerKey.PublicKey)

	domain := eth.EIP712Domain{
		Name:              core.SchemeName,
		Version:           core.SchemeVersion,
		ChainID:           big.NewInt(testChainID),
		VerifyingContract: testInstance,
	}
	tok := tokenizer.NewJWTTokenizer(signKey, domain)
	auth := NewAuth(tok, store.NewMemoryStore(), account.NewMemoryAccount(ownerAddr))

	challengeToken, err := auth.CreateChallenge(ownerAddr)
	require.NoError(t, err)
	challenge, err := tok.TokenToChallenge(challengeToken)
	require.NoError(t, err)

	sig, err := eth.SignDigest(eth.TypedDataDigest(domain, eth.NonceMessage(challenge.Nonce)), otherKey)
	require.NoError(t, err)

	_, err = auth.Login(ctx, challengeToken, hexutil.Encode(sig), ownerAddr)
	assert.Error(t, err)
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	ctx := context.Background()

	signKey, err := stdecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	domain := eth.EIP712Domain{
		Name:              core.SchemeName,
		Version:           core.SchemeVersion,
		ChainID:           big.NewInt(testChainID),
		VerifyingContract: testInstance,
	}
	auth := NewAuth(tokenizer.NewJWTTokenizer(signKey, domain), store.NewMemoryStore(), account.NewMemoryAccount(testOwner))

	_, err = auth.ValidateAccessToken(ctx, "not-a-token")
	assert.Error(t, err)

	// A challenge token is not an access token.
	challengeToken, err := auth.CreateChallenge(testOwner)
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(ctx, challengeToken)
	assert.Error(t, err)
}
