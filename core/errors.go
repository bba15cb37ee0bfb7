package core

import "errors"

// State machine errors.
var (
	ErrAlreadyInitialized = errors.New("instance already initialized")
	ErrNotInitialized     = errors.New("instance not initialized")

	ErrRecoveryAlreadyActive = errors.New("a recovery session is already active")
	ErrRecoveryNotActive     = errors.New("no active recovery session")
)

// Validation errors.
var (
	ErrZeroAccount   = errors.New("account address is zero")
	ErrInvalidPolicy = errors.New("invalid recovery policy")
	ErrInvalidIntent = errors.New("invalid recovery intent")
	ErrInvalidProof  = errors.New("invalid guardian proof")
)

// Timing errors.
var (
	ErrIntentExpired             = errors.New("recovery intent has expired")
	ErrChallengePeriodNotElapsed = errors.New("challenge period has not elapsed")
	ErrDeadlineNotReached        = errors.New("session deadline not reached")
)

// Authorization and lookup errors.
var (
	ErrUnauthorized            = errors.New("caller is not the account controller")
	ErrGuardianNotFound        = errors.New("guardian not found")
	ErrGuardianAlreadyApproved = errors.New("guardian has already approved this session")
	ErrThresholdNotMet         = errors.New("approval threshold not met")
)

// Owner authentication errors.
var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidChallenge = errors.New("invalid challenge")
)

// ErrStoreOperationFailed is returned when persisting or loading instance
// state fails.
var ErrStoreOperationFailed = errors.New("store operation failed")
