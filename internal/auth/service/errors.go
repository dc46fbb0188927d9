package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrSessionRevoked     = errors.New("session_revoked")
	ErrPrincipalNotFound  = errors.New("principal_not_found")
	ErrMFAAlreadyEnabled  = errors.New("mfa_already_enabled")
	ErrMFANotEnabled      = errors.New("mfa_not_enabled")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrInvalidChallenge   = errors.New("invalid_challenge")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
	ErrEmailTaken         = errors.New("email_taken")
	ErrOAuthFailed        = errors.New("oauth_failed")
)
