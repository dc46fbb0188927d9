package domain

import "time"

// Auth providers a principal can originate from.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// User is a principal. Optional columns are empty strings or nil pointers.
type User struct {
	ID                           int64
	Email                        string // unique, compared case-sensitively
	FullName                     string
	PasswordHash                 string // argon2id PHC string; empty for external-only accounts
	AuthProvider                 string
	ProviderID                   string // subject at the external provider
	IsActive                     bool
	MFAEnabled                   bool
	TOTPSecret                   string // base32; set only while MFA is enabled
	SecurityNotificationsEnabled bool
	LastLoginAt                  *time.Time
	LastLoginIP                  string
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// Principal is the authenticated caller of a request.
type Principal struct {
	User       User
	SessionJTI string
}
