package service

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
)

// Read-only accessors over the instance state. All snapshots are copies;
// callers can never mutate the live state through them.

// Instance returns the address this state machine instance answers for.
func (r *Recovery) Instance() common.Address {
	return r.instance
}

// ChainID returns the network identifier bound into intent commitments.
func (r *Recovery) ChainID() *big.Int {
	return new(big.Int).Set(r.chainID)
}

// Initialized reports whether one-time setup has run.
func (r *Recovery) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Initialized
}

// Account returns the protected account address.
func (r *Recovery) Account() common.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Account
}

// Threshold returns the number of approvals required for execution.
func (r *Recovery) Threshold() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Policy.Threshold
}

// ChallengePeriod returns the mandatory delay between threshold and
// execution.
func (r *Recovery) ChallengePeriod() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Policy.ChallengePeriod
}

// Counter returns the current replay epoch.
func (r *Recovery) Counter() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Counter
}

// GuardianCount returns the number of guardians in the live policy.
func (r *Recovery) GuardianCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Policy.GuardianCount()
}

// Guardian returns the guardian at the given index.
func (r *Recovery) Guardian(index uint8) (core.Guardian, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Policy.Guardian(index)
}

// Guardians returns a copy of the live guardian list.
func (r *Recovery) Guardians() []core.Guardian {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Guardian, len(r.state.Policy.Guardians))
	copy(out, r.state.Policy.Guardians)
	return out
}

// ActiveSession returns a snapshot of the active session, or nil.
func (r *Recovery) ActiveSession() *core.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Session.Clone()
}

// SessionActive reports whether a session exists, regardless of its state.
func (r *Recovery) SessionActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Session != nil
}

// HasApproved reports whether the guardian at index approved the active
// session. False when no session exists.
func (r *Recovery) HasApproved(index uint8) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Session.HasApproved(index)
}

// Status derives the instance status at the current time.
func (r *Recovery) Status() core.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Session.StatusAt(r.now(), r.state.Policy.ChallengePeriod)
}
