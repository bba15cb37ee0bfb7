package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDomain() EIP712Domain {
	return EIP712Domain{
		Name:              "Warden Recovery",
		Version:           "1",
		ChainID:           big.NewInt(1),
		VerifyingContract: common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}
}

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	digest := TypedDataDigest(testDomain(), NonceMessage("abc123"))
	sig, err := SignDigest(digest, key)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.GreaterOrEqual(t, sig[64], byte(27))

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
}

func TestRecoverAddressNormalizesV(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	digest := TypedDataDigest(testDomain(), NonceMessage("abc123"))
	sig, err := crypto.Sign(digest.Bytes(), key) // raw V in {0, 1}
	require.NoError(t, err)

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
}

func TestRecoverAddressRejectsMalformed(t *testing.T) {
	digest := TypedDataDigest(testDomain(), NonceMessage("abc123"))

	_, err := RecoverAddress(digest, make([]byte, 64))
	assert.Error(t, err)

	bad := make([]byte, 65)
	bad[64] = 5
	_, err = RecoverAddress(digest, bad)
	assert.Error(t, err)
}

func TestVerifySignatureAgainstAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	domain := testDomain()
	msg := NonceMessage("nonce-1")
	sig, err := SignDigest(TypedDataDigest(domain, msg), key)
	require.NoError(t, err)

	ok, err := VerifySignatureAgainstAddress(domain, msg, sig, crypto.PubkeyToAddress(key.PublicKey))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySignatureAgainstAddress(domain, msg, sig, crypto.PubkeyToAddress(otherKey.PublicKey))
	require.NoError(t, err)
	assert.False(t, ok)

	// A signature over a different nonce never verifies.
	ok, err = VerifySignatureAgainstAddress(domain, NonceMessage("nonce-2"), sig, crypto.PubkeyToAddress(key.PublicKey))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDomainSeparatorBindsFields(t *testing.T) {
	reference := testDomain().Separator()

	mutated := testDomain()
	mutated.Version = "2"
	assert.NotEqual(t, reference, mutated.Separator())

	mutated = testDomain()
	mutated.ChainID = big.NewInt(137)
	assert.NotEqual(t, reference, mutated.Separator())

	mutated = testDomain()
	mutated.VerifyingContract = common.HexToAddress("0x04")
	assert.NotEqual(t, reference, mutated.Separator())
}
