package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the derived state of a recovery instance. It is computed on
// demand from the session fields and the caller-observed current time,
// never persisted.
type Status string

const (
	StatusNoSession         Status = "no_session"
	StatusCollectingProofs  Status = "collecting_proofs"
	StatusChallengePeriod   Status = "challenge_period"
	StatusReadyForExecution Status = "ready_for_execution"
	StatusExpired           Status = "expired"
)

// Session is one in-flight recovery attempt. At most one session exists per
// instance at any time. Timestamps are unix seconds; ThresholdMetAt is zero
// until the approval count reaches the policy threshold.
type Session struct {
	Commitment         common.Hash    `json:"commitment"`
	ProposedController common.Address `json:"proposed_controller"`
	Expiry             uint64         `json:"expiry"`
	ThresholdMetAt     uint64         `json:"threshold_met_at,omitempty"`
	Approvals          []uint8        `json:"approvals"`
}

// HasApproved reports whether the guardian at index already approved this
// session.
func (s *Session) HasApproved(index uint8) bool {
	if s == nil {
		return false
	}
	for _, i := range s.Approvals {
		if i == index {
			return true
		}
	}
	return false
}

// ApprovalCount returns the number of recorded approvals.
func (s *Session) ApprovalCount() int {
	if s == nil {
		return 0
	}
	return len(s.Approvals)
}

// ExpiredAt reports whether the session is dead at the given time. A
// session expires the instant now reaches its expiry.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(time.Unix(int64(s.Expiry), 0))
}

// ExecutableAt returns the earliest time execution is allowed, valid only
// once the threshold has been met.
func (s *Session) ExecutableAt(challengePeriod time.Duration) time.Time {
	return time.Unix(int64(s.ThresholdMetAt), 0).Add(challengePeriod)
}

// StatusAt derives the instance status at the given time.
func (s *Session) StatusAt(now time.Time, challengePeriod time.Duration) Status {
	switch {
	case s == nil:
		return StatusNoSession
	case s.ExpiredAt(now):
		return StatusExpired
	case s.ThresholdMetAt == 0:
		return StatusCollectingProofs
	case now.Before(s.ExecutableAt(challengePeriod)):
		return StatusChallengePeriod
	default:
		return StatusReadyForExecution
	}
}

// Clone returns a deep copy of the session, or nil for a nil session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Approvals = make([]uint8, len(s.Approvals))
	copy(out.Approvals, s.Approvals)
	return &out
}

// State is the full persisted state of one recovery instance: the
// initialization guard, the protected account, the policy, the replay
// counter and the active session (if any).
type State struct {
	Initialized bool           `json:"initialized"`
	Account     common.Address `json:"account"`
	Policy      Policy         `json:"policy"`
	Counter     uint64         `json:"counter"`
	Session     *Session       `json:"session,omitempty"`
}

// Clone returns a deep copy of the state.
func (st *State) Clone() *State {
	if st == nil {
		return nil
	}
	out := *st
	out.Policy = st.Policy.Clone()
	out.Session = st.Session.Clone()
	return &out
}
