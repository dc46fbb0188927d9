package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is the lifetime of a session bound access token.
	DefaultAccessTokenTTL = 30 * time.Minute

	// DefaultChallengeTokenTTL bounds how long a user has to type their TOTP
	// code after a successful password check.
	DefaultChallengeTokenTTL = 5 * time.Minute
)

// TypeChallenge marks a token that only proves the first factor.
const TypeChallenge = "2fa_challenge"

// Claims are the claims carried by every token this service signs.
// Access tokens have an ID (jti) bound to a session row and no Type.
// Challenge tokens have Type set and never carry a jti; their Nonce keeps
// two challenges issued in the same second distinct.
type Claims struct {
	jwt.RegisteredClaims

	Type  string `json:"type,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

// IsChallenge reports whether the token is a second factor challenge.
func (c Claims) IsChallenge() bool { return c.Type == TypeChallenge }

// NewAccessClaims builds access token claims with a fresh jti.
func NewAccessClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewChallengeClaims builds the claims for a 2FA challenge token.
func NewChallengeClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type:  TypeChallenge,
		Nonce: NewJTI(),
	}
}

// NewJTI returns 160 random bits as base64url, used for the "jti" and
// "nonce" claims.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
