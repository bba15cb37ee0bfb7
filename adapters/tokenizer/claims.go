package tokenizer

import "github.com/golang-jwt/jwt/v5"

// ChallengeClaims combines standard claims with the nonce the controller
// must sign.
type ChallengeClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
}

// AccessClaims are the standard claims for owner access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
}
