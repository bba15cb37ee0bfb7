package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// Topics for the recovery signals.
const (
	TopicSessionStarted   = "warden.recovery.session_started"
	TopicProofAccepted    = "warden.recovery.proof_accepted"
	TopicThresholdMet     = "warden.recovery.threshold_met"
	TopicSessionExecuted  = "warden.recovery.executed"
	TopicSessionCancelled = "warden.recovery.cancelled"
	TopicPolicyUpdated    = "warden.recovery.policy_updated"
)

// SessionStartedEvent signals that a new recovery session was opened.
type SessionStartedEvent struct {
	Instance           common.Address `json:"instance"`
	Commitment         common.Hash    `json:"commitment"`
	ProposedController common.Address `json:"proposed_controller"`
}

// ProofAcceptedEvent signals that a guardian approval was recorded.
type ProofAcceptedEvent struct {
	Instance           common.Address `json:"instance"`
	Commitment         common.Hash    `json:"commitment"`
	GuardianMethod     core.Method    `json:"guardian_method"`
	GuardianIdentifier common.Hash    `json:"guardian_identifier"`
	Approvals          int            `json:"approvals"`
	Threshold          uint8          `json:"threshold"`
}

// ThresholdMetEvent signals that the approval threshold was reached and the
// challenge window opened.
type ThresholdMetEvent struct {
	Instance     common.Address `json:"instance"`
	Commitment   common.Hash    `json:"commitment"`
	ExecutableAt time.Time      `json:"executable_at"`
}

// SessionExecutedEvent signals that account ownership changed.
type SessionExecutedEvent struct {
	Instance      common.Address `json:"instance"`
	Commitment    common.Hash    `json:"commitment"`
	NewController common.Address `json:"new_controller"`
}

// SessionCancelledEvent signals that a session ended without execution,
// whether vetoed by the account or cleared after expiry.
type SessionCancelledEvent struct {
	Instance   common.Address `json:"instance"`
	Commitment common.Hash    `json:"commitment"`
	Reason     string         `json:"reason"`
}

// PolicyUpdatedEvent signals that the policy was replaced wholesale.
type PolicyUpdatedEvent struct {
	Instance      common.Address `json:"instance"`
	GuardianCount int            `json:"guardian_count"`
	Threshold     uint8          `json:"threshold"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) emit(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// PublishSessionStarted publishes a session-started signal.
func (p *WatermillPublisher) PublishSessionStarted(ctx context.Context, instance common.Address, commitment common.Hash, proposed common.Address) error {
	return p.emit(TopicSessionStarted, SessionStartedEvent{
		Instance:           instance,
		Commitment:         commitment,
		ProposedController: proposed,
	})
}

// PublishProofAccepted publishes a proof-accepted signal.
func (p *WatermillPublisher) PublishProofAccepted(ctx context.Context, instance common.Address, commitment common.Hash, guardian core.Guardian, approvals int, threshold uint8) error {
	return p.emit(TopicProofAccepted, ProofAcceptedEvent{
		Instance:           instance,
		Commitment:         commitment,
		GuardianMethod:     guardian.Method,
		GuardianIdentifier: guardian.Identifier,
		Approvals:          approvals,
		Threshold:          threshold,
	})
}

// PublishThresholdMet publishes a threshold-met signal.
func (p *WatermillPublisher) PublishThresholdMet(ctx context.Context, instance common.Address, commitment common.Hash, executableAt time.Time) error {
	return p.emit(TopicThresholdMet, ThresholdMetEvent{
		Instance:     instance,
		Commitment:   commitment,
		ExecutableAt: executableAt,
	})
}

// PublishSessionExecuted publishes a session-executed signal.
func (p *WatermillPublisher) PublishSessionExecuted(ctx context.Context, instance common.Address, commitment common.Hash, newController common.Address) error {
	return p.emit(TopicSessionExecuted, SessionExecutedEvent{
		Instance:      instance,
		Commitment:    commitment,
		NewController: newController,
	})
}

// PublishSessionCancelled publishes a session-cancelled signal.
func (p *WatermillPublisher) PublishSessionCancelled(ctx context.Context, instance common.Address, commitment common.Hash, reason string) error {
	return p.emit(TopicSessionCancelled, SessionCancelledEvent{
		Instance:   instance,
		Commitment: commitment,
		Reason:     reason,
	})
}

// PublishPolicyUpdated publishes a policy-updated signal.
func (p *WatermillPublisher) PublishPolicyUpdated(ctx context.Context, instance common.Address, guardianCount int, threshold uint8) error {
	return p.emit(TopicPolicyUpdated, PolicyUpdatedEvent{
		Instance:      instance,
		GuardianCount: guardianCount,
		Threshold:     threshold,
	})
}
