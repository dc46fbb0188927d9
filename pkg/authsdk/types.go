package authsdk

import "time"

// ErrorResponse is the wire shape of every error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Authentication
// ============================================================================

// RegisterRequest creates a local account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// LoginRequest is the JSON body of POST /v1/auth/token. The endpoint also
// accepts an OAuth2 password form with username/password fields.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and 2FA verification.
//
// When RequiresTwoFactor is true only ChallengeToken is set and the caller
// must finish with VerifyTwoFactor.
type TokenResponse struct {
	AccessToken       string `json:"access_token,omitempty"`
	TokenType         string `json:"token_type,omitempty"`
	ExpiresIn         int    `json:"expires_in,omitempty"`
	RequiresTwoFactor bool   `json:"requires_2fa"`
	ChallengeToken    string `json:"challenge_token,omitempty"`
}

// VerifyTwoFactorRequest completes a login for an MFA-enabled account.
// Code is either a 6-digit TOTP code or a backup code.
type VerifyTwoFactorRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
}

// StatusResponse is the body of simple acknowledgements.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ============================================================================
// Users
// ============================================================================

// UserResponse is the public view of an account.
type UserResponse struct {
	ID                           int64      `json:"id"`
	Email                        string     `json:"email"`
	FullName                     string     `json:"full_name,omitempty"`
	IsActive                     bool       `json:"is_active"`
	AuthProvider                 string     `json:"auth_provider"`
	LastLoginAt                  *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP                  string     `json:"last_login_ip,omitempty"`
	Is2FAEnabled                 bool       `json:"is_2fa_enabled"`
	SecurityNotificationsEnabled bool       `json:"security_notifications_enabled"`
	CreatedAt                    time.Time  `json:"created_at"`
}

// ============================================================================
// Sessions
// ============================================================================

// SessionResponse describes one signed-in device.
type SessionResponse struct {
	ID              string    `json:"id"`
	DeviceType      string    `json:"device_type"`
	BrowserName     string    `json:"browser_name"`
	BrowserVersion  string    `json:"browser_version"`
	OSName          string    `json:"os_name"`
	OSVersion       string    `json:"os_version"`
	IPAddress       string    `json:"ip_address"`
	LocationCity    *string   `json:"location_city"`
	LocationCountry *string   `json:"location_country"`
	CreatedAt       time.Time `json:"created_at"`
	LastActiveAt    time.Time `json:"last_active_at"`
	IsCurrent       bool      `json:"is_current"`
}

// RevokeOthersResponse reports how many sessions were signed out.
type RevokeOthersResponse struct {
	Status       string `json:"status"`
	RevokedCount int64  `json:"revoked_count"`
}

// ============================================================================
// Two-factor
// ============================================================================

// TwoFactorSetupResponse carries an unsaved TOTP secret for enrolment.
type TwoFactorSetupResponse struct {
	Secret       string `json:"secret"`
	OTPAuthURL   string `json:"otpauth_url"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
}

// EnableTwoFactorRequest confirms enrolment with the secret from setup and
// a code generated from it.
type EnableTwoFactorRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// RegenerateBackupCodesRequest needs a current TOTP code.
type RegenerateBackupCodesRequest struct {
	Code string `json:"code"`
}

// BackupCodesResponse returns plaintext backup codes. They are shown once.
type BackupCodesResponse struct {
	Status      string   `json:"status"`
	BackupCodes []string `json:"backup_codes"`
}

// ============================================================================
// Notifications
// ============================================================================

type NotificationToggleRequest struct {
	Enabled bool `json:"enabled"`
}

type NotificationToggleResponse struct {
	Status  string `json:"status"`
	Enabled bool   `json:"enabled"`
}

// ============================================================================
// Security events
// ============================================================================

// EventResponse is one entry of the account's security history.
type EventResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"event_type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is filled by /readyz. Redis is empty when not configured.
type HealthChecks struct {
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}
