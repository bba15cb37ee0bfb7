package verify

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// AssertionProof is the wire format the passkey signer produces for a
// biometric guardian: the P-256 public key coordinates, the authenticator
// assertion metadata, the client-context blob and an ASN.1 DER signature
// over authenticatorData || SHA-256(clientDataJSON).
type AssertionProof struct {
	PublicKeyX        hexutil.Bytes `json:"public_key_x"`
	PublicKeyY        hexutil.Bytes `json:"public_key_y"`
	AuthenticatorData hexutil.Bytes `json:"authenticator_data"`
	ClientDataJSON    hexutil.Bytes `json:"client_data_json"`
	Signature         hexutil.Bytes `json:"signature"`
}

// WebAuthnVerifier checks biometric assertion proofs. The proof is valid
// iff the hash of the supplied public key equals the guardian identifier,
// the challenge embedded in the client data equals the encoded intent
// commitment, and the assertion signature verifies against the key.
type WebAuthnVerifier struct{}

// NewWebAuthnVerifier creates the biometric-assertion verifier.
func NewWebAuthnVerifier() ports.Verifier {
	return &WebAuthnVerifier{}
}

// Verify decodes and checks an assertion proof.
func (v *WebAuthnVerifier) Verify(_ context.Context, identifier common.Hash, commitment common.Hash, proof []byte) (bool, error) {
	var assertion AssertionProof
	if err := json.Unmarshal(proof, &assertion); err != nil {
		return false, fmt.Errorf("malformed assertion proof: %w", err)
	}

	x := new(big.Int).SetBytes(assertion.PublicKeyX)
	y := new(big.Int).SetBytes(assertion.PublicKeyY)
	if core.BiometricIdentifier(x, y) != identifier {
		return false, nil
	}

	var clientData protocol.CollectedClientData
	if err := json.Unmarshal(assertion.ClientDataJSON, &clientData); err != nil {
		return false, fmt.Errorf("malformed client data: %w", err)
	}
	if clientData.Type != protocol.AssertCeremony {
		return false, nil
	}
	if clientData.Challenge != base64.RawURLEncoding.EncodeToString(commitment.Bytes()) {
		return false, nil
	}

	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	if !pub.Curve.IsOnCurve(x, y) {
		return false, fmt.Errorf("public key is not on P-256")
	}

	clientDataHash := sha256.Sum256(assertion.ClientDataJSON)
	signed := make([]byte, 0, len(assertion.AuthenticatorData)+len(clientDataHash))
	signed = append(signed, assertion.AuthenticatorData...)
	signed = append(signed, clientDataHash[:]...)
	digest := sha256.Sum256(signed)

	return ecdsa.VerifyASN1(pub, digest[:], assertion.Signature), nil
}
