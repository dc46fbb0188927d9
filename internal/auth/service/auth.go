package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/pkg/slogx"
)

const (
	touchTimeout = 5 * time.Second

	DefaultEventLimit = 20
	MaxEventLimit     = 100
)

// IdentityProvider exchanges an authorization code for a verified identity.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.ExternalIdentity, error)
}

// ClientMeta describes where a login came from.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// LoginResult is either an access token or, for MFA accounts, a challenge.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64

	RequiresTwoFactor bool
	ChallengeToken    string

	User domain.User
}

// SessionView is a session as shown to its owner.
type SessionView struct {
	domain.Session
	IsCurrent bool
}

// AuthService ties credentials, tokens, sessions and MFA into the login
// state machine: credential, then optional challenge, then session.
type AuthService struct {
	Store       store.Store
	Credentials *CredentialService
	Tokens      *TokenService
	Sessions    *SessionService
	MFA         *MFAService
	Metrics     *Metrics

	// Google is nil when external login is not configured.
	Google IdentityProvider
}

// Login checks email and password. MFA accounts get a challenge token and
// no session.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ClientMeta) (LoginResult, error) {
	u, ok, err := s.Credentials.VerifyPassword(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		s.Metrics.login(ctx, "invalid_credentials")
		slogx.FromContext(ctx).Info("login failed", "ip", meta.IPAddress)
		return LoginResult{}, ErrInvalidCredentials
	}
	return s.afterFirstFactor(ctx, u, meta)
}

// VerifyTwoFactor finishes a challenged login.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, challengeToken, code string, meta ClientMeta) (LoginResult, error) {
	u, err := s.MFA.VerifyChallenge(ctx, challengeToken, code)
	if err != nil {
		return LoginResult{}, err
	}
	return s.startSession(ctx, u, meta)
}

func (s *AuthService) afterFirstFactor(ctx context.Context, u domain.User, meta ClientMeta) (LoginResult, error) {
	if !u.MFAEnabled {
		return s.startSession(ctx, u, meta)
	}

	challenge, err := s.Tokens.IssueChallengeToken(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	s.Metrics.login(ctx, "challenged")
	slogx.FromContext(ctx).Info("second factor required", "user_id", u.ID)
	return LoginResult{RequiresTwoFactor: true, ChallengeToken: challenge, User: u}, nil
}

func (s *AuthService) startSession(ctx context.Context, u domain.User, meta ClientMeta) (LoginResult, error) {
	token, jti, err := s.Tokens.IssueAccessToken(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if _, err := s.Sessions.Create(ctx, u.ID, jti, meta.UserAgent, meta.IPAddress); err != nil {
		return LoginResult{}, err
	}

	s.Metrics.login(ctx, "ok")
	return LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.Tokens.ExpiresIn(),
		User:        u,
	}, nil
}

// Logout revokes the token's session when it can. It never fails.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.Parse(token)
	if err != nil || claims.ID == "" {
		return nil
	}

	sess, err := s.Store.Sessions().GetSessionByJTI(ctx, claims.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Warn("logout lookup failed", slogx.Err(err))
		}
		return nil
	}
	if _, err := s.Sessions.Revoke(ctx, sess.UserID, sess.ID); err != nil {
		l.Warn("logout revoke failed", "session_id", sess.ID, slogx.Err(err))
	}
	return nil
}

// Authenticate resolves a bearer token into a principal. Only access tokens
// bound to a live session pass.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return domain.Principal{}, err
	}
	// challenge tokens and jti-less tokens never authenticate
	if claims.Type != "" || claims.ID == "" {
		return domain.Principal{}, ErrInvalidToken
	}
	uid, ok := principalID(claims)
	if !ok {
		return domain.Principal{}, ErrInvalidToken
	}

	revoked, err := s.Sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrSessionRevoked
		}
		return domain.Principal{}, err
	}
	if revoked {
		return domain.Principal{}, ErrSessionRevoked
	}

	go s.touch(ctx, claims.ID)

	u, err := s.Store.Users().GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrPrincipalNotFound
		}
		return domain.Principal{}, err
	}
	return domain.Principal{User: u, SessionJTI: claims.ID}, nil
}

// touch runs detached from the request and only logs failures.
func (s *AuthService) touch(parent context.Context, jti string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), touchTimeout)
	defer cancel()

	if err := s.Sessions.Touch(ctx, jti); err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Debug("session touch failed", slogx.Err(err))
	}
}

// ListSessions lists the principal's sessions and marks the calling one.
func (s *AuthService) ListSessions(ctx context.Context, p domain.Principal) ([]SessionView, error) {
	sessions, err := s.Sessions.ListActive(ctx, p.User.ID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionView{Session: sess, IsCurrent: sess.TokenJTI == p.SessionJTI})
	}
	return out, nil
}

func (s *AuthService) RevokeSession(ctx context.Context, p domain.Principal, sessionID string) (bool, error) {
	return s.Sessions.Revoke(ctx, p.User.ID, sessionID)
}

// RevokeOtherSessions signs out everywhere but the calling session.
func (s *AuthService) RevokeOtherSessions(ctx context.Context, p domain.Principal) (int64, error) {
	return s.Sessions.RevokeAllExcept(ctx, p.User.ID, p.SessionJTI)
}

// SetNotifications stores the security notification preference.
func (s *AuthService) SetNotifications(ctx context.Context, principalID int64, enabled bool) (bool, error) {
	err := s.Store.Users().UpdateNotificationPreference(ctx, principalID, enabled, time.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrPrincipalNotFound
	}
	if err != nil {
		return false, err
	}
	return enabled, nil
}

// RegisterLocal creates an email/password account.
func (s *AuthService) RegisterLocal(ctx context.Context, email, password, fullName string) (domain.User, error) {
	u, ok, err := s.Credentials.RegisterLocal(ctx, email, password, fullName)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, ErrEmailTaken
	}
	slogx.FromContext(ctx).Info("principal registered", "user_id", u.ID)
	return u, nil
}

// ExternalLoginURL is where the browser goes to start a Google login.
func (s *AuthService) ExternalLoginURL(state string) (string, error) {
	if s.Google == nil {
		return "", ErrOAuthFailed
	}
	return s.Google.AuthCodeURL(state), nil
}

// LoginExternal completes a Google login. MFA accounts still get a
// challenge.
func (s *AuthService) LoginExternal(ctx context.Context, code string, meta ClientMeta) (LoginResult, error) {
	if s.Google == nil {
		return LoginResult{}, ErrOAuthFailed
	}

	ident, err := s.Google.Exchange(ctx, code)
	if err != nil {
		slogx.FromContext(ctx).Warn("identity provider exchange failed", slogx.Err(err))
		return LoginResult{}, fmt.Errorf("%w: %w", ErrOAuthFailed, err)
	}

	u, err := s.Credentials.FindOrCreateExternal(ctx, ident.Provider, ident.Subject, ident.Email, ident.Name)
	if err != nil {
		return LoginResult{}, err
	}
	if !u.IsActive {
		return LoginResult{}, ErrInvalidCredentials
	}
	return s.afterFirstFactor(ctx, u, meta)
}

// ListEvents returns the principal's security history, newest first.
func (s *AuthService) ListEvents(ctx context.Context, principalID int64, limit int) ([]domain.SecurityEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	return s.Store.SecurityEvents().ListEvents(ctx, principalID, limit)
}
