package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/chefstream/auth/pkg/jwtx"
)

// TokenService mints and parses the two bearer token kinds. It never looks
// at the session table: revocation is the orchestrator's job.
type TokenService struct {
	Signer       jwtx.Signer
	Verifier     jwtx.Verifier
	Issuer       string
	AccessTTL    time.Duration
	ChallengeTTL time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

// NewTokenService builds an HS256 token service. A secret shorter than
// jwtx.MinSecretLength is refused.
func NewTokenService(secret []byte, issuer string, accessTTL, challengeTTL time.Duration) (*TokenService, error) {
	signer, err := jwtx.NewHS256Signer(secret)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewHS256Verifier(secret, jwtx.VerifyOptions{Issuer: issuer})
	if err != nil {
		return nil, err
	}

	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if challengeTTL <= 0 {
		challengeTTL = jwtx.DefaultChallengeTokenTTL
	}

	return &TokenService{
		Signer:       signer,
		Verifier:     verifier,
		Issuer:       issuer,
		AccessTTL:    accessTTL,
		ChallengeTTL: challengeTTL,
	}, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// IssueAccessToken signs an access token with a fresh jti and returns both.
func (s *TokenService) IssueAccessToken(principalID int64) (token, jti string, err error) {
	claims := jwtx.NewAccessClaims(subject(principalID), s.Issuer, s.AccessTTL, s.now())
	token, err = s.Signer.Sign(claims)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	return token, claims.ID, nil
}

// IssueChallengeToken signs a short lived token proving only the first factor.
func (s *TokenService) IssueChallengeToken(principalID int64) (string, error) {
	claims := jwtx.NewChallengeClaims(subject(principalID), s.Issuer, s.ChallengeTTL, s.now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign challenge token: %w", err)
	}
	return token, nil
}

// Parse checks signature, algorithm and expiry. Every failure is
// ErrInvalidToken; the cause is wrapped for logging only.
func (s *TokenService) Parse(token string) (jwtx.Claims, error) {
	if token == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// ExpiresIn is the access token lifetime in whole seconds.
func (s *TokenService) ExpiresIn() int64 {
	return int64(s.AccessTTL / time.Second)
}

func subject(principalID int64) string {
	return strconv.FormatInt(principalID, 10)
}

// principalID reads the numeric subject back. Zero and negatives are invalid.
func principalID(claims jwtx.Claims) (int64, bool) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
