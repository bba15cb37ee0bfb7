package core

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MaxGuardians caps the guardian list so indices always fit in a byte.
const MaxGuardians = 255

// Policy is the per-account recovery configuration. It is created once at
// initialization and only ever replaced wholesale.
type Policy struct {
	Guardians       []Guardian    `json:"guardians"`
	Threshold       uint8         `json:"threshold"`
	ChallengePeriod time.Duration `json:"challenge_period"`
}

// Validate enforces the policy invariants: a non-empty guardian list of at
// most MaxGuardians, a threshold within [1, len(guardians)], a non-negative
// challenge period and pairwise-distinct, canonically encoded identifiers.
func (p Policy) Validate() error {
	if len(p.Guardians) == 0 {
		return fmt.Errorf("%w: no guardians", ErrInvalidPolicy)
	}
	if len(p.Guardians) > MaxGuardians {
		return fmt.Errorf("%w: %d guardians exceeds maximum of %d", ErrInvalidPolicy, len(p.Guardians), MaxGuardians)
	}
	if p.Threshold == 0 {
		return fmt.Errorf("%w: threshold is zero", ErrInvalidPolicy)
	}
	if int(p.Threshold) > len(p.Guardians) {
		return fmt.Errorf("%w: threshold %d exceeds guardian count %d", ErrInvalidPolicy, p.Threshold, len(p.Guardians))
	}
	if p.ChallengePeriod < 0 {
		return fmt.Errorf("%w: negative challenge period", ErrInvalidPolicy)
	}

	seen := make(map[common.Hash]struct{}, len(p.Guardians))
	for i, g := range p.Guardians {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("%w: guardian %d: %v", ErrInvalidPolicy, i, err)
		}
		if _, dup := seen[g.Identifier]; dup {
			return fmt.Errorf("%w: duplicate guardian identifier %s", ErrInvalidPolicy, g.Identifier.Hex())
		}
		seen[g.Identifier] = struct{}{}
	}
	return nil
}

// Guardian returns the guardian at the given index.
func (p Policy) Guardian(index uint8) (Guardian, error) {
	if int(index) >= len(p.Guardians) {
		return Guardian{}, fmt.Errorf("%w: index %d", ErrGuardianNotFound, index)
	}
	return p.Guardians[index], nil
}

// GuardianCount returns the number of guardians in the policy.
func (p Policy) GuardianCount() int {
	return len(p.Guardians)
}

// Clone returns a deep copy of the policy.
func (p Policy) Clone() Policy {
	out := p
	out.Guardians = make([]Guardian, len(p.Guardians))
	copy(out.Guardians, p.Guardians)
	return out
}
