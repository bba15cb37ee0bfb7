package service

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// Recovery implements the recovery authorization state machine for a single
// protected account. Every state-changing operation runs to completion under
// the instance lock and either commits the full transition or leaves the
// state untouched.
type Recovery struct {
	mu sync.Mutex

	instance common.Address
	chainID  *big.Int

	account   ports.Account
	store     ports.StateStore
	events    ports.EventPublisher
	verifiers map[core.Method]ports.Verifier

	state *core.State
	now   func() time.Time
}

// RecoveryConfig wires a recovery instance. Verifiers maps each guardian
// method to the capability that checks its proofs; methods without a handle
// reject every proof.
type RecoveryConfig struct {
	Instance  common.Address
	ChainID   *big.Int
	Account   ports.Account
	Store     ports.StateStore
	Events    ports.EventPublisher
	Verifiers map[core.Method]ports.Verifier

	// Now supplies the caller-observed current time; defaults to time.Now.
	Now func() time.Time
}

// NewRecovery loads (or starts empty) the persisted state for the instance.
func NewRecovery(ctx context.Context, cfg RecoveryConfig) (*Recovery, error) {
	state, err := cfg.Store.Load(ctx, cfg.Instance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	if state == nil {
		state = &core.State{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recovery{
		instance:  cfg.Instance,
		chainID:   cfg.ChainID,
		account:   cfg.Account,
		store:     cfg.Store,
		events:    cfg.Events,
		verifiers: cfg.Verifiers,
		state:     state,
		now:       now,
	}, nil
}

// Initialize performs the one-time setup of the instance: the protected
// account and the initial policy. The persisted initialized flag makes a
// second call fail regardless of how the instance was deployed.
func (r *Recovery) Initialize(ctx context.Context, account common.Address, policy core.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Initialized {
		return core.ErrAlreadyInitialized
	}
	if account == (common.Address{}) {
		return core.ErrZeroAccount
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	next := &core.State{
		Initialized: true,
		Account:     account,
		Policy:      policy.Clone(),
	}
	return r.persist(ctx, next)
}

// StartRecovery begins a new session from an intent and the first guardian
// proof. The first failing check wins; on success the session exists with
// one approval recorded.
func (r *Recovery) StartRecovery(ctx context.Context, intent core.Intent, guardianIndex uint8, proof []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state
	if !st.Initialized {
		return core.ErrNotInitialized
	}

	now := r.now()
	if err := r.checkIntent(intent); err != nil {
		return err
	}
	if st.Session != nil {
		return core.ErrRecoveryAlreadyActive
	}
	expiry := time.Unix(int64(intent.Expiry), 0)
	if !expiry.After(now) {
		return core.ErrIntentExpired
	}
	// The challenge window must be able to fully elapse before the intent
	// dies, otherwise the session could never become executable.
	if !expiry.After(now.Add(st.Policy.ChallengePeriod)) {
		return fmt.Errorf("%w: expiry does not outlive the challenge period", core.ErrInvalidIntent)
	}
	guardian, err := st.Policy.Guardian(guardianIndex)
	if err != nil {
		return err
	}
	commitment := intent.Commitment()
	if err := r.verifyProof(ctx, guardian, commitment, proof); err != nil {
		return err
	}

	session := &core.Session{
		Commitment:         commitment,
		ProposedController: intent.ProposedController,
		Expiry:             intent.Expiry,
		Approvals:          []uint8{guardianIndex},
	}
	thresholdMet := st.Policy.Threshold == 1
	if thresholdMet {
		session.ThresholdMetAt = uint64(now.Unix())
	}

	next := st.Clone()
	next.Session = session
	if err := r.persist(ctx, next); err != nil {
		return err
	}

	r.publish(func() error {
		return r.events.PublishSessionStarted(ctx, r.instance, commitment, intent.ProposedController)
	})
	r.publish(func() error {
		return r.events.PublishProofAccepted(ctx, r.instance, commitment, guardian, 1, next.Policy.Threshold)
	})
	if thresholdMet {
		r.publish(func() error {
			return r.events.PublishThresholdMet(ctx, r.instance, commitment, session.ExecutableAt(next.Policy.ChallengePeriod))
		})
	}
	return nil
}

// SubmitProof adds a guardian approval to the active session.
func (r *Recovery) SubmitProof(ctx context.Context, guardianIndex uint8, proof []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state
	if !st.Initialized {
		return core.ErrNotInitialized
	}
	if st.Session == nil {
		return core.ErrRecoveryNotActive
	}

	now := r.now()
	if st.Session.ExpiredAt(now) {
		return core.ErrIntentExpired
	}
	guardian, err := st.Policy.Guardian(guardianIndex)
	if err != nil {
		return err
	}
	if st.Session.HasApproved(guardianIndex) {
		return core.ErrGuardianAlreadyApproved
	}
	if err := r.verifyProof(ctx, guardian, st.Session.Commitment, proof); err != nil {
		return err
	}

	next := st.Clone()
	next.Session.Approvals = append(next.Session.Approvals, guardianIndex)
	thresholdMet := next.Session.ThresholdMetAt == 0 && next.Session.ApprovalCount() >= int(next.Policy.Threshold)
	if thresholdMet {
		next.Session.ThresholdMetAt = uint64(now.Unix())
	}
	if err := r.persist(ctx, next); err != nil {
		return err
	}

	commitment := next.Session.Commitment
	r.publish(func() error {
		return r.events.PublishProofAccepted(ctx, r.instance, commitment, guardian, next.Session.ApprovalCount(), next.Policy.Threshold)
	})
	if thresholdMet {
		r.publish(func() error {
			return r.events.PublishThresholdMet(ctx, r.instance, commitment, next.Session.ExecutableAt(next.Policy.ChallengePeriod))
		})
	}
	return nil
}

// ExecuteRecovery finalizes an approved session once the challenge period
// has elapsed. Callable by anyone.
func (r *Recovery) ExecuteRecovery(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state
	if !st.Initialized {
		return core.ErrNotInitialized
	}
	if st.Session == nil {
		return core.ErrRecoveryNotActive
	}
	if st.Session.ApprovalCount() < int(st.Policy.Threshold) {
		return core.ErrThresholdNotMet
	}

	now := r.now()
	if now.Before(st.Session.ExecutableAt(st.Policy.ChallengePeriod)) {
		return core.ErrChallengePeriodNotElapsed
	}
	if st.Session.ExpiredAt(now) {
		return core.ErrIntentExpired
	}

	newController := st.Session.ProposedController
	commitment := st.Session.Commitment
	if err := r.account.SetController(ctx, newController); err != nil {
		return fmt.Errorf("failed to change account controller: %w", err)
	}

	next := st.Clone()
	next.Session = nil
	next.Counter++
	if err := r.persist(ctx, next); err != nil {
		return err
	}

	r.publish(func() error {
		return r.events.PublishSessionExecuted(ctx, r.instance, commitment, newController)
	})
	return nil
}

// CancelRecovery vetoes the active session. Callable only by the account's
// current controller.
func (r *Recovery) CancelRecovery(ctx context.Context, caller common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state
	if !st.Initialized {
		return core.ErrNotInitialized
	}
	if err := r.authorizeOwner(ctx, caller); err != nil {
		return err
	}
	if st.Session == nil {
		return core.ErrRecoveryNotActive
	}

	commitment := st.Session.Commitment
	next := st.Clone()
	next.Session = nil
	next.Counter++
	if err := r.persist(ctx, next); err != nil {
		return err
	}

	r.publish(func() error {
		return r.events.PublishSessionCancelled(ctx, r.instance, commitment, "cancelled by account")
	})
	return nil
}

// ClearExpiredRecovery removes a session whose expiry has passed, freeing
// the instance for a fresh attempt. Callable by anyone. An expired session
// is cancelled, not executed.
func (r *Recovery) ClearExpiredRecovery(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state
	if !st.Initialized {
		return core.ErrNotInitialized
	}
	if st.Session == nil {
		return core.ErrRecoveryNotActive
	}
	if !st.Session.ExpiredAt(r.now()) {
		return core.ErrDeadlineNotReached
	}

	commitment := st.Session.Commitment
	next := st.Clone()
	next.Session = nil
	next.Counter++
	if err := r.persist(ctx, next); err != nil {
		return err
	}

	r.publish(func() error {
		return r.events.PublishSessionCancelled(ctx, r.instance, commitment, "session expired")
	})
	return nil
}

// UpdatePolicy replaces the policy wholesale. Any active session is cleared
// and the counter advances, so intents built against the old policy die with
// it. Callable only by the account's current controller.
func (r *Recovery) UpdatePolicy(ctx context.Context, caller common.Address, policy core.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state
	if !st.Initialized {
		return core.ErrNotInitialized
	}
	if err := r.authorizeOwner(ctx, caller); err != nil {
		return err
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	next := st.Clone()
	next.Policy = policy.Clone()
	next.Session = nil
	next.Counter++
	if err := r.persist(ctx, next); err != nil {
		return err
	}

	r.publish(func() error {
		return r.events.PublishPolicyUpdated(ctx, r.instance, policy.GuardianCount(), policy.Threshold)
	})
	return nil
}

// checkIntent validates the intent against the live instance state.
func (r *Recovery) checkIntent(intent core.Intent) error {
	st := r.state
	switch {
	case intent.Account != st.Account:
		return fmt.Errorf("%w: account mismatch", core.ErrInvalidIntent)
	case intent.Instance != r.instance:
		return fmt.Errorf("%w: instance mismatch", core.ErrInvalidIntent)
	case intent.ChainID == nil || r.chainID.Cmp(intent.ChainID) != 0:
		return fmt.Errorf("%w: network mismatch", core.ErrInvalidIntent)
	case intent.Counter != st.Counter:
		return fmt.Errorf("%w: stale counter %d, instance is at %d", core.ErrInvalidIntent, intent.Counter, st.Counter)
	case intent.ProposedController == (common.Address{}):
		return fmt.Errorf("%w: proposed controller is zero", core.ErrInvalidIntent)
	}
	return nil
}

// verifyProof dispatches to the verifier for the guardian's method. A
// missing handle, a verification error and a false result are all reported
// identically as an invalid proof.
func (r *Recovery) verifyProof(ctx context.Context, guardian core.Guardian, commitment common.Hash, proof []byte) error {
	verifier, ok := r.verifiers[guardian.Method]
	if !ok {
		return fmt.Errorf("%w: no verifier for method %s", core.ErrInvalidProof, guardian.Method)
	}
	valid, err := verifier.Verify(ctx, guardian.Identifier, commitment, proof)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidProof, err)
	}
	if !valid {
		return core.ErrInvalidProof
	}
	return nil
}

func (r *Recovery) authorizeOwner(ctx context.Context, caller common.Address) error {
	controller, err := r.account.CurrentController(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve account controller: %w", err)
	}
	if caller != controller {
		return core.ErrUnauthorized
	}
	return nil
}

// persist writes the next state through the store and swaps it in. The
// in-memory state never changes if the write fails.
func (r *Recovery) persist(ctx context.Context, next *core.State) error {
	if err := r.store.Save(ctx, r.instance, next); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	r.state = next
	return nil
}

// publish emits a signal best-effort: the state transition is already
// committed, so a publishing failure must not fail the operation.
func (r *Recovery) publish(fn func() error) {
	if r.events == nil {
		return
	}
	if err := fn(); err != nil {
		log.Printf("warden: failed to publish recovery event: %v", err)
	}
}
