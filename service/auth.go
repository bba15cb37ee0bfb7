package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// Auth authenticates the account's current controller for the owner-gated
// operations (veto, policy replacement). The controller signs a typed-data
// nonce challenge and receives a revocable bearer token.
type Auth struct {
	tokenizer ports.Tokenizer
	tokens    ports.TokenStore
	account   ports.Account

	challengeTTL time.Duration
	accessTTL    time.Duration
}

// NewAuth creates the owner authentication service.
func NewAuth(tokenizer ports.Tokenizer, tokens ports.TokenStore, account ports.Account) *Auth {
	return &Auth{
		tokenizer:    tokenizer,
		tokens:       tokens,
		account:      account,
		challengeTTL: 5 * time.Minute,
		accessTTL:    15 * time.Minute,
	}
}

// CreateChallenge generates a sign-in challenge for the given controller
// address.
func (s *Auth) CreateChallenge(address common.Address) (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := time.Now()
	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		Address:   address,
		Nonce:     hex.EncodeToString(nonceBytes),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}

	token, err := s.tokenizer.ChallengeToToken(challenge)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// Login verifies the signed challenge and that the signer is the account's
// current controller, then issues an access token.
func (s *Auth) Login(ctx context.Context, challengeToken, signature string, address common.Address) (string, error) {
	challenge, err := s.tokenizer.TokenToChallenge(challengeToken)
	if err != nil {
		return "", fmt.Errorf("invalid challenge token: %w", err)
	}

	if err := s.tokenizer.VerifySignature(challenge, signature, address); err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}

	controller, err := s.account.CurrentController(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve account controller: %w", err)
	}
	if address != controller {
		return "", core.ErrUnauthorized
	}

	now := time.Now()
	session := &core.OwnerSession{
		ID:        uuid.New().String(),
		Address:   address,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
	}

	token, err := s.tokenizer.OwnerSessionToToken(session)
	if err != nil {
		return "", fmt.Errorf("failed to create access token: %w", err)
	}
	return token, nil
}

// Logout revokes an access token for the remainder of its lifetime.
func (s *Auth) Logout(ctx context.Context, accessToken string) error {
	session, err := s.tokenizer.TokenToOwnerSession(accessToken)
	if err != nil {
		return fmt.Errorf("invalid access token: %w", err)
	}

	// Even an expired token is recorded briefly, so it cannot be replayed
	// if clocks are slightly out of sync.
	remaining := time.Until(session.ExpiresAt)
	if remaining <= 0 {
		remaining = time.Hour
	}
	if err := s.tokens.InvalidateToken(ctx, session.ID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

// ValidateAccessToken parses an access token and checks expiry and
// revocation, returning the authenticated owner session.
func (s *Auth) ValidateAccessToken(ctx context.Context, accessToken string) (*core.OwnerSession, error) {
	session, err := s.tokenizer.TokenToOwnerSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, core.ErrTokenExpired
	}

	invalidated, err := s.tokens.IsTokenInvalidated(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return nil, core.ErrTokenInvalidated
	}
	return session, nil
}
