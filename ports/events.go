package ports

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/warden/core"
)

// EventPublisher emits recovery signals for off-system monitoring, e.g. an
// account owner watching for unauthorized recovery attempts.
type EventPublisher interface {
	PublishSessionStarted(ctx context.Context, instance common.Address, commitment common.Hash, proposed common.Address) error
	PublishProofAccepted(ctx context.Context, instance common.Address, commitment common.Hash, guardian core.Guardian, approvals int, threshold uint8) error
	PublishThresholdMet(ctx context.Context, instance common.Address, commitment common.Hash, executableAt time.Time) error
	PublishSessionExecuted(ctx context.Context, instance common.Address, commitment common.Hash, newController common.Address) error
	PublishSessionCancelled(ctx context.Context, instance common.Address, commitment common.Hash, reason string) error
	PublishPolicyUpdated(ctx context.Context, instance common.Address, guardianCount int, threshold uint8) error
}
