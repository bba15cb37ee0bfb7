package verify

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/internal/eth"
)

func TestEOAVerify(t *testing.T) {
	ctx := context.Background()
	verifier := NewEOAVerifier()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	identifier := core.EOAIdentifier(crypto.PubkeyToAddress(key.PublicKey))
	commitment := common.HexToHash("0x5aadc59b6d6f0b0effa34f325b9878f1f5eac0ca171cbdc4b8d8a4f9a3bdc1d2")

	proof, err := eth.SignDigest(commitment, key)
	require.NoError(t, err)

	valid, err := verifier.Verify(ctx, identifier, commitment, proof)
	require.NoError(t, err)
	assert.True(t, valid)

	// The same signature does not authenticate another guardian.
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherID := core.EOAIdentifier(crypto.PubkeyToAddress(otherKey.PublicKey))
	valid, err = verifier.Verify(ctx, otherID, commitment, proof)
	require.NoError(t, err)
	assert.False(t, valid)

	// Nor a different commitment.
	valid, err = verifier.Verify(ctx, identifier, common.HexToHash("0x01"), proof)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestEOAVerifyMalformedProof(t *testing.T) {
	ctx := context.Background()
	verifier := NewEOAVerifier()
	commitment := common.HexToHash("0x02")

	_, err := verifier.Verify(ctx, common.HexToHash("0x01"), commitment, []byte{1, 2, 3})
	assert.Error(t, err)

	_, err = verifier.Verify(ctx, common.HexToHash("0x01"), commitment, nil)
	assert.Error(t, err)
}
