package core

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Method identifies the authentication technology backing a guardian.
type Method uint8

const (
	// MethodEOA authenticates with a secp256k1 signature recoverable to an
	// Ethereum address.
	MethodEOA Method = iota

	// MethodBiometric authenticates with a passkey-style P-256 assertion.
	MethodBiometric

	// MethodZeroKnowledge authenticates with a succinct proof bound to an
	// enrollment commitment.
	MethodZeroKnowledge
)

const (
	methodNameEOA           = "eoa"
	methodNameBiometric     = "biometric"
	methodNameZeroKnowledge = "zk"
)

func (m Method) String() string {
	switch m {
	case MethodEOA:
		return methodNameEOA
	case MethodBiometric:
		return methodNameBiometric
	case MethodZeroKnowledge:
		return methodNameZeroKnowledge
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the three known methods.
func (m Method) Valid() bool {
	return m <= MethodZeroKnowledge
}

// MarshalJSON encodes the method as its string name.
func (m Method) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown guardian method %d", uint8(m))
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a method from its string name.
func (m *Method) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case methodNameEOA:
		*m = MethodEOA
	case methodNameBiometric:
		*m = MethodBiometric
	case methodNameZeroKnowledge:
		*m = MethodZeroKnowledge
	default:
		return fmt.Errorf("unknown guardian method %q", name)
	}
	return nil
}

// Guardian is an authenticatable party that can contribute an approval
// toward recovery. The identifier encoding is method-specific.
type Guardian struct {
	Method     Method      `json:"method"`
	Identifier common.Hash `json:"identifier"`
}

// Validate checks that the identifier is non-zero and canonically encoded
// for the guardian's method.
func (g Guardian) Validate() error {
	if !g.Method.Valid() {
		return fmt.Errorf("unknown guardian method %d", uint8(g.Method))
	}
	if g.Identifier == (common.Hash{}) {
		return fmt.Errorf("guardian identifier is zero")
	}
	if g.Method == MethodEOA {
		if _, err := EOAAddress(g.Identifier); err != nil {
			return err
		}
	}
	return nil
}

// EOAIdentifier encodes an Ethereum address as a guardian identifier:
// the 20 address bytes left-zero-padded to 32.
func EOAIdentifier(addr common.Address) common.Hash {
	var id common.Hash
	copy(id[12:], addr.Bytes())
	return id
}

// EOAAddress decodes an EOA guardian identifier back into an address.
// Any set bit above the address width makes the encoding non-canonical.
func EOAAddress(id common.Hash) (common.Address, error) {
	for _, b := range id[:12] {
		if b != 0 {
			return common.Address{}, fmt.Errorf("non-canonical EOA identifier %s", id.Hex())
		}
	}
	return common.BytesToAddress(id[12:]), nil
}

// BiometricIdentifier derives a guardian identifier from the public key
// coordinates of a P-256 key pair: keccak256(X32 || Y32).
func BiometricIdentifier(x, y *big.Int) common.Hash {
	buf := make([]byte, 64)
	x.FillBytes(buf[:32])
	y.FillBytes(buf[32:])
	return crypto.Keccak256Hash(buf)
}
