package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/layer-3/warden/ports"
)

// ZKProof is the wire format the proving service produces for a
// zero-knowledge guardian: the signing-key-identifying limbs, the
// enrollment commitment the circuit outputs, and the serialized groth16
// proof. The verifier's public-input vector is, in order, the key limbs,
// the intent commitment and the commitment value.
type ZKProof struct {
	KeyLimbs        []hexutil.Bytes `json:"key_limbs"`
	CommitmentValue common.Hash     `json:"commitment_value"`
	Proof           hexutil.Bytes   `json:"proof"`
}

type verifyFunc func(groth16.Proof, groth16.VerifyingKey, witness.Witness, ...backend.VerifierOption) error

// Groth16Verifier checks zero-knowledge guardian proofs on BN254 against a
// verifying key fixed at construction.
type Groth16Verifier struct {
	vk       groth16.VerifyingKey
	keyLimbs int
	verify   verifyFunc
}

// NewGroth16Verifier creates the zero-knowledge verifier. keyLimbs is the
// fixed number of signing-key-identifying public inputs the circuit expects
// ahead of the two commitments.
func NewGroth16Verifier(vk groth16.VerifyingKey, keyLimbs int) ports.Verifier {
	return &Groth16Verifier{vk: vk, keyLimbs: keyLimbs, verify: groth16.Verify}
}

// LoadVerifyingKey reads a serialized BN254 groth16 verifying key.
func LoadVerifyingKey(r io.Reader) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	return vk, nil
}

// Verify decodes and checks a zero-knowledge proof. The commitment value in
// the envelope must equal the guardian identifier; the proof must verify
// against the assembled public-input vector.
func (v *Groth16Verifier) Verify(_ context.Context, identifier common.Hash, commitment common.Hash, proofBlob []byte) (bool, error) {
	var envelope ZKProof
	if err := json.Unmarshal(proofBlob, &envelope); err != nil {
		return false, fmt.Errorf("malformed zk proof: %w", err)
	}
	if len(envelope.KeyLimbs) != v.keyLimbs {
		return false, fmt.Errorf("expected %d key limbs, got %d", v.keyLimbs, len(envelope.KeyLimbs))
	}
	if envelope.CommitmentValue != identifier {
		return false, nil
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(envelope.Proof)); err != nil {
		return false, fmt.Errorf("failed to decode proof: %w", err)
	}

	public, err := v.publicWitness(envelope, commitment)
	if err != nil {
		return false, err
	}
	if err := v.verify(proof, v.vk, public); err != nil {
		return false, nil
	}
	return true, nil
}

// publicWitness assembles [keyLimbs..., commitment, commitmentValue].
func (v *Groth16Verifier) publicWitness(envelope ZKProof, commitment common.Hash) (witness.Witness, error) {
	public, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to create witness: %w", err)
	}

	n := v.keyLimbs + 2
	values := make(chan any, n)
	for _, limb := range envelope.KeyLimbs {
		values <- new(big.Int).SetBytes(limb)
	}
	values <- new(big.Int).SetBytes(commitment.Bytes())
	values <- new(big.Int).SetBytes(envelope.CommitmentValue.Bytes())
	close(values)

	if err := public.Fill(n, 0, values); err != nil {
		return nil, fmt.Errorf("failed to fill public inputs: %w", err)
	}
	return public, nil
}
