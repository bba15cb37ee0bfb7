package tokenizer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/internal/eth"
	"github.com/layer-3/warden/ports"
)

const AudienceChallenge = "warden:challenge"
const AudienceAccess = "warden:access"

// JWTTokenizer implements the Tokenizer interface using JWT. Owner tokens
// are signed with the service key; controller signatures are verified as
// typed data under the instance's recovery domain.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	domain  eth.EIP712Domain
}

// NewJWTTokenizer creates a new JWT tokenizer. The domain pins controller
// signatures to this network and instance.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, domain eth.EIP712Domain) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey, domain: domain}
}

// ChallengeToToken converts a Challenge to a JWT token.
func (j *JWTTokenizer) ChallengeToToken(challenge *core.Challenge) (string, error) {
	claims := ChallengeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   challenge.Address.Hex(),
			ID:        challenge.ID,
			ExpiresAt: jwt.NewNumericDate(challenge.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(challenge.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceChallenge},
		},
		Nonce: challenge.Nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// TokenToChallenge converts a JWT token to a Challenge.
func (j *JWTTokenizer) TokenToChallenge(tokenStr string) (*core.Challenge, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ChallengeClaims{}, j.keyFunc, jwt.WithAudience(AudienceChallenge))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*ChallengeClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	challenge := &core.Challenge{
		ID:        claims.ID,
		Address:   common.HexToAddress(claims.Subject),
		Nonce:     claims.Nonce,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	return challenge, nil
}

// OwnerSessionToToken converts an owner session to an access JWT token.
func (j *JWTTokenizer) OwnerSessionToToken(session *core.OwnerSession) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Address.Hex(),
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signedToken, nil
}

// TokenToOwnerSession parses an access token and returns the owner session.
func (j *JWTTokenizer) TokenToOwnerSession(tokenStr string) (*core.OwnerSession, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, j.keyFunc, jwt.WithAudience(AudienceAccess))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	session := &core.OwnerSession{
		ID:        claims.ID,
		Address:   common.HexToAddress(claims.Subject),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	return session, nil
}

// VerifySignature verifies the controller's typed-data signature over the
// challenge nonce.
func (j *JWTTokenizer) VerifySignature(challenge *core.Challenge, signatureStr string, address common.Address) error {
	if challenge.Address != address {
		return fmt.Errorf("address mismatch")
	}
	decodedSig, err := hexutil.Decode(signatureStr)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(decodedSig) != 65 {
		return fmt.Errorf("signature must be 65 bytes: %w", core.ErrInvalidSignature)
	}

	msg := eth.NonceMessage(challenge.Nonce)

	verified, err := eth.VerifySignatureAgainstAddress(j.domain, msg, decodedSig, address)
	if err != nil {
		return fmt.Errorf("typed-data signature verification failed: %w", err)
	}
	if !verified {
		return core.ErrInvalidSignature
	}
	return nil
}

// keyFunc validates the signing method and supplies the verification key.
func (j *JWTTokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return &j.signKey.PublicKey, nil
}
