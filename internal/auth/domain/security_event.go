package domain

import "time"

// Security event kinds.
const (
	EventLogin                  = "login"
	EventMFAEnabled             = "mfa_enabled"
	EventMFADisabled            = "mfa_disabled"
	EventBackupCodeUsed         = "backup_code_used"
	EventBackupCodesRegenerated = "backup_codes_regenerated"
	EventSessionRevoked         = "session_revoked"
	EventOtherSessionsRevoked   = "other_sessions_revoked"
)

// SecurityEvent is an append-only audit record. Only NotificationSent may
// change after insert.
type SecurityEvent struct {
	ID               string // ULID
	UserID           int64
	Type             string
	Metadata         map[string]string
	NotificationSent bool
	CreatedAt        time.Time
}
