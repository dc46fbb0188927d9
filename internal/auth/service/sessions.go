package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/pkg/idx"
	"github.com/chefstream/auth/pkg/slogx"
	"github.com/google/uuid"
)

// SessionService keeps one row per issued access token.
type SessionService struct {
	Store    store.Store
	Locator  Locator
	Notifier *AnomalyNotifier
	Metrics  *Metrics
}

// Create records the session for a freshly minted access token, together
// with its login event and the user's last-login fields. The new device
// check runs after commit and cannot fail the login.
func (s *SessionService) Create(ctx context.Context, principalID int64, jti, userAgent, originAddress string) (domain.Session, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()
	device := ParseUserAgent(userAgent)

	var city, country *string
	if s.Locator != nil {
		c, cc, err := s.Locator.Locate(ctx, originAddress)
		if err != nil {
			l.Debug("geolocation failed", "ip", originAddress, slogx.Err(err))
		} else {
			city, country = c, cc
		}
	}

	sess := domain.Session{
		ID:              uuid.NewString(),
		UserID:          principalID,
		TokenJTI:        jti,
		DeviceType:      device.DeviceType,
		BrowserName:     device.BrowserName,
		BrowserVersion:  device.BrowserVersion,
		OSName:          device.OSName,
		OSVersion:       device.OSVersion,
		IPAddress:       originAddress,
		LocationCity:    city,
		LocationCountry: country,
		CreatedAt:       now,
		LastActiveAt:    now,
	}
	eventID := string(idx.NewAt(now))

	var user domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, principalID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPrincipalNotFound
			}
			return err
		}
		user = u

		if err := tx.Sessions().CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		if err := tx.SecurityEvents().AppendEvent(ctx, domain.SecurityEvent{
			ID:     eventID,
			UserID: principalID,
			Type:   domain.EventLogin,
			Metadata: map[string]string{
				"ip":      originAddress,
				"device":  device.DeviceType,
				"browser": device.BrowserName,
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("append login event: %w", err)
		}

		if err := tx.Users().UpdateLoginMetadata(ctx, principalID, originAddress, now); err != nil {
			return fmt.Errorf("update login metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	l.Info("session created",
		"user_id", principalID,
		"session_id", sess.ID,
		"device", device.DeviceType,
		"browser", device.BrowserName,
		"ip", originAddress,
	)

	s.Notifier.NotifyLogin(ctx, user, sess, eventID)
	return sess, nil
}

// ListActive returns the principal's unrevoked sessions, most recently
// active first.
func (s *SessionService) ListActive(ctx context.Context, principalID int64) ([]domain.Session, error) {
	return s.Store.Sessions().ListActiveSessions(ctx, principalID)
}

// Revoke revokes one of the principal's sessions. It reports false when the
// session does not exist, belongs to someone else or is already revoked.
func (s *SessionService) Revoke(ctx context.Context, principalID int64, sessionID string) (bool, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, nil
	}

	now := time.Now().UTC()
	var revoked bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Sessions().RevokeSession(ctx, principalID, sessionID, now)
		if err != nil || !ok {
			return err
		}
		revoked = true

		return tx.SecurityEvents().AppendEvent(ctx, domain.SecurityEvent{
			ID:        string(idx.NewAt(now)),
			UserID:    principalID,
			Type:      domain.EventSessionRevoked,
			Metadata:  map[string]string{"session_id": sessionID},
			CreatedAt: now,
		})
	})
	if err != nil {
		return false, err
	}

	if revoked {
		s.Metrics.revoked(ctx, "user", 1)
		slogx.FromContext(ctx).Info("session revoked", "user_id", principalID, "session_id", sessionID)
	}
	return revoked, nil
}

// RevokeAllExcept revokes every active session of the principal but the one
// bound to keepJTI, and returns how many it revoked.
func (s *SessionService) RevokeAllExcept(ctx context.Context, principalID int64, keepJTI string) (int64, error) {
	now := time.Now().UTC()
	var n int64
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		n, err = tx.Sessions().RevokeOtherSessions(ctx, principalID, keepJTI, now)
		if err != nil || n == 0 {
			return err
		}

		return tx.SecurityEvents().AppendEvent(ctx, domain.SecurityEvent{
			ID:        string(idx.NewAt(now)),
			UserID:    principalID,
			Type:      domain.EventOtherSessionsRevoked,
			Metadata:  map[string]string{"count": fmt.Sprint(n)},
			CreatedAt: now,
		})
	})
	if err != nil {
		return 0, err
	}

	s.Metrics.revoked(ctx, "others", n)
	slogx.FromContext(ctx).Info("other sessions revoked", "user_id", principalID, "count", n)
	return n, nil
}

// IsRevoked reports whether the session bound to jti has been revoked. A
// missing session is store.ErrNotFound.
func (s *SessionService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	sess, err := s.Store.Sessions().GetSessionByJTI(ctx, jti)
	if err != nil {
		return false, err
	}
	return !sess.Active(), nil
}

// Touch refreshes the session's last activity.
func (s *SessionService) Touch(ctx context.Context, jti string) error {
	return s.Store.Sessions().TouchSession(ctx, jti, time.Now().UTC())
}
