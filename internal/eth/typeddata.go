// Package eth provides the EIP-712 typed-data hashing and secp256k1
// signature helpers shared by the intent hasher, the built-in guardian
// verifier and the owner sign-in flow. Digests computed here must be
// bit-for-bit reproducible by off-system signers.
package eth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var eip712DomainTypeHash = crypto.Keccak256(
	[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
)

// EIP712Domain separates signatures by scheme name/version, network and
// verifying instance.
type EIP712Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// Separator returns the EIP-712 domain separator hash.
func (d EIP712Domain) Separator() common.Hash {
	return crypto.Keccak256Hash(
		eip712DomainTypeHash,
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		common.BigToHash(d.ChainID).Bytes(),
		common.BytesToHash(d.VerifyingContract.Bytes()).Bytes(),
	)
}

// Message is a typed-data struct that can be hashed per EIP-712.
type Message interface {
	StructHash() common.Hash
}

var nonceTypeHash = crypto.Keccak256([]byte("Nonce(string nonce)"))

// NonceMessage is the challenge nonce an account controller signs to prove
// ownership during sign-in.
type NonceMessage string

func (m NonceMessage) StructHash() common.Hash {
	return crypto.Keccak256Hash(nonceTypeHash, crypto.Keccak256([]byte(m)))
}

var recoveryTypeHash = crypto.Keccak256(
	[]byte("Recovery(address account,address newController,uint256 counter,uint256 expiry)"),
)

// RecoveryMessage is the intent a guardian authenticates over. The network
// id and instance address are bound through the domain separator.
type RecoveryMessage struct {
	Account       common.Address
	NewController common.Address
	Counter       uint64
	Expiry        uint64
}

func (m RecoveryMessage) StructHash() common.Hash {
	return crypto.Keccak256Hash(
		recoveryTypeHash,
		common.BytesToHash(m.Account.Bytes()).Bytes(),
		common.BytesToHash(m.NewController.Bytes()).Bytes(),
		common.BigToHash(new(big.Int).SetUint64(m.Counter)).Bytes(),
		common.BigToHash(new(big.Int).SetUint64(m.Expiry)).Bytes(),
	)
}

// TypedDataDigest computes keccak256(0x1901 || domainSeparator || structHash).
func TypedDataDigest(domain EIP712Domain, msg Message) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		domain.Separator().Bytes(),
		msg.StructHash().Bytes(),
	)
}

// SignDigest signs a 32-byte digest, returning a 65-byte [R || S || V]
// signature with V in {27, 28}.
func SignDigest(digest common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// RecoverAddress recovers the signer of a 65-byte [R || S || V] signature
// over the given digest. V may be 0/1 or 27/28.
func RecoverAddress(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", sig[64])
	}
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignatureAgainstAddress checks that sig is a valid typed-data
// signature by expected over msg under the given domain.
func VerifySignatureAgainstAddress(domain EIP712Domain, msg Message, sig []byte, expected common.Address) (bool, error) {
	recovered, err := RecoverAddress(TypedDataDigest(domain, msg), sig)
	if err != nil {
		return false, err
	}
	return recovered == expected, nil
}
