package domain

import "time"

// Session is the server-side record of one issued access token.
type Session struct {
	ID              string // UUID
	UserID          int64
	TokenJTI        string
	DeviceType      string
	BrowserName     string
	BrowserVersion  string
	OSName          string
	OSVersion       string
	IPAddress       string
	LocationCity    *string
	LocationCountry *string
	CreatedAt       time.Time
	LastActiveAt    time.Time
	RevokedAt       *time.Time
}

func (s Session) Active() bool { return s.RevokedAt == nil }

// DeviceInfo is what we can tell about a client from its User-Agent.
type DeviceInfo struct {
	DeviceType     string // Desktop, Mobile, Tablet or Bot
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
}
