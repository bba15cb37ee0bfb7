package verify

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/warden/core"
)

// makeAssertion produces a complete assertion proof over the commitment,
// signed with the given passkey.
func makeAssertion(t *testing.T, key *ecdsa.PrivateKey, commitment common.Hash, ceremony string) []byte {
	t.Helper()

	clientData := fmt.Sprintf(
		`{"type":%q,"challenge":%q,"origin":"https://wallet.example.org"}`,
		ceremony,
		base64.RawURLEncoding.EncodeToString(commitment.Bytes()),
	)
	authData := make([]byte, 37)
	copy(authData, []byte("rp-id-hash-and-flags"))

	clientDataHash := sha256.Sum256([]byte(clientData))
	signed := append(append([]byte{}, authData...), clientDataHash[:]...)
	digest := sha256.Sum256(signed)

	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	require.NoError(t, err)

	proof, err := json.Marshal(AssertionProof{
		PublicKeyX:        key.PublicKey.X.Bytes(),
		PublicKeyY:        key.PublicKey.Y.Bytes(),
		AuthenticatorData: authData,
		ClientDataJSON:    []byte(clientData),
		Signature:         sig,
	})
	require.NoError(t, err)
	return proof
}

func TestWebAuthnVerify(t *testing.T) {
	ctx := context.Background()
	verifier := NewWebAuthnVerifier()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	identifier := core.BiometricIdentifier(key.PublicKey.X, key.PublicKey.Y)
	commitment := common.HexToHash("0x7b226368616c6c656e6765223a2274657374227d0000000000000000000000aa")

	valid, err := verifier.Verify(ctx, identifier, commitment, makeAssertion(t, key, commitment, "webauthn.get"))
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestWebAuthnVerifyRejections(t *testing.T) {
	ctx := context.Background()
	verifier := NewWebAuthnVerifier()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	identifier := core.BiometricIdentifier(key.PublicKey.X, key.PublicKey.Y)
	commitment := common.HexToHash("0x03")

	t.Run("wrong identifier", func(t *testing.T) {
		valid, err := verifier.Verify(ctx, common.HexToHash("0x04"), commitment, makeAssertion(t, key, commitment, "webauthn.get"))
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("registration ceremony", func(t *testing.T) {
		valid, err := verifier.Verify(ctx, identifier, commitment, makeAssertion(t, key, commitment, "webauthn.create"))
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("challenge mismatch", func(t *testing.T) {
		// Assertion over one commitment presented for another.
		valid, err := verifier.Verify(ctx, identifier, common.HexToHash("0x05"), makeAssertion(t, key, commitment, "webauthn.get"))
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("wrong key", func(t *testing.T) {
		otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		// The envelope carries the right public key but the signature was
		// made with a different one.
		proof := makeAssertion(t, otherKey, commitment, "webauthn.get")
		var assertion AssertionProof
		require.NoError(t, json.Unmarshal(proof, &assertion))
		assertion.PublicKeyX = key.PublicKey.X.Bytes()
		assertion.PublicKeyY = key.PublicKey.Y.Bytes()
		tampered, err := json.Marshal(assertion)
		require.NoError(t, err)

		valid, err := verifier.Verify(ctx, identifier, commitment, tampered)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("malformed envelope", func(t *testing.T) {
		_, err := verifier.Verify(ctx, identifier, commitment, []byte("{"))
		assert.Error(t, err)
	})
}
