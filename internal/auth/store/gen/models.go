package gen

import (
	"database/sql"
	"time"
)

type User struct {
	ID                           int64
	Email                        string
	FullName                     string
	PasswordHash                 sql.NullString
	AuthProvider                 string
	ProviderID                   sql.NullString
	IsActive                     bool
	MfaEnabled                   bool
	TotpSecret                   sql.NullString
	SecurityNotificationsEnabled bool
	LastLoginAt                  sql.NullTime
	LastLoginIp                  sql.NullString
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

type Session struct {
	ID              string
	UserID          int64
	TokenJti        string
	DeviceType      string
	BrowserName     string
	BrowserVersion  string
	OsName          string
	OsVersion       string
	IpAddress       string
	LocationCity    sql.NullString
	LocationCountry sql.NullString
	CreatedAt       time.Time
	LastActiveAt    time.Time
	RevokedAt       sql.NullTime
}

type SecurityEvent struct {
	ID               string
	UserID           int64
	EventType        string
	EventMetadata    string
	NotificationSent bool
	CreatedAt        time.Time
}
