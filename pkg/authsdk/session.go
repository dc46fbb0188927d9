package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// Session holds an access token and calls the authenticated endpoints.
// Safe for concurrent use.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string
}

// NewSession wraps an access token obtained elsewhere.
func (c *SDKClient) NewSession(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) call(ctx context.Context, method, path string, body, target any, expected int) error {
	resp, err := s.client.doJSON(ctx, method, path, s.AccessToken(), body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expected)
}

// Me returns the signed-in user.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	var u UserResponse
	if err := s.call(ctx, http.MethodGet, "/v1/auth/me", nil, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes this session server-side and forgets the token.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.call(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, http.StatusOK); err != nil {
		return err
	}
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
	return nil
}

// ListSessions returns the account's active sessions, most recent first.
func (s *Session) ListSessions(ctx context.Context) ([]SessionResponse, error) {
	var out []SessionResponse
	if err := s.call(ctx, http.MethodGet, "/v1/security/sessions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeSession signs out one session by id.
func (s *Session) RevokeSession(ctx context.Context, sessionID string) error {
	return s.call(ctx, http.MethodPost, "/v1/security/sessions/"+url.PathEscape(sessionID)+"/revoke", nil, nil, http.StatusOK)
}

// RevokeOtherSessions signs out every session except this one.
func (s *Session) RevokeOtherSessions(ctx context.Context) (int64, error) {
	var out RevokeOthersResponse
	if err := s.call(ctx, http.MethodPost, "/v1/security/sessions/revoke-others", nil, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.RevokedCount, nil
}

// SetupTwoFactor starts TOTP enrolment. Nothing is saved until EnableTwoFactor.
func (s *Session) SetupTwoFactor(ctx context.Context) (*TwoFactorSetupResponse, error) {
	var out TwoFactorSetupResponse
	if err := s.call(ctx, http.MethodPost, "/v1/security/2fa/setup", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnableTwoFactor confirms enrolment and returns the one-time backup codes.
func (s *Session) EnableTwoFactor(ctx context.Context, secret, code string) ([]string, error) {
	var out BackupCodesResponse
	req := EnableTwoFactorRequest{Secret: secret, Code: code}
	if err := s.call(ctx, http.MethodPost, "/v1/security/2fa/enable", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.BackupCodes, nil
}

func (s *Session) DisableTwoFactor(ctx context.Context) error {
	return s.call(ctx, http.MethodPost, "/v1/security/2fa/disable", nil, nil, http.StatusOK)
}

// RegenerateBackupCodes replaces every backup code. Needs a current TOTP code.
func (s *Session) RegenerateBackupCodes(ctx context.Context, code string) ([]string, error) {
	var out BackupCodesResponse
	req := RegenerateBackupCodesRequest{Code: code}
	if err := s.call(ctx, http.MethodPost, "/v1/security/2fa/backup-codes", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.BackupCodes, nil
}

// SetNotifications turns security notification emails on or off.
func (s *Session) SetNotifications(ctx context.Context, enabled bool) (bool, error) {
	var out NotificationToggleResponse
	req := NotificationToggleRequest{Enabled: enabled}
	if err := s.call(ctx, http.MethodPost, "/v1/security/notifications/toggle", req, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

// ListEvents returns the newest security events first. A limit of zero uses
// the server default.
func (s *Session) ListEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	path := "/v1/security/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []EventResponse
	if err := s.call(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}
