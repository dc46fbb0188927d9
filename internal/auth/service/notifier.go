package service

import (
	"context"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/pkg/slogx"
)

// Notification kinds handed to a Mailer.
const (
	NotifyNewDeviceLogin = "new_device_login"
	NotifyMFAEnabled     = "mfa_enabled"
	NotifyMFADisabled    = "mfa_disabled"
)

// Mailer delivers a security notification to an address.
type Mailer interface {
	Notify(ctx context.Context, to, kind string, data map[string]string) error
}

// AnomalyNotifier decides whether a login looks like a new device and sends
// the user's security notifications. Delivery is best effort: failures are
// logged and never reach the caller.
type AnomalyNotifier struct {
	Store   store.Store
	Mailer  Mailer
	Metrics *Metrics
}

// ShouldNotify is true when no other active session of the principal shares
// the origin address and browser.
func (n *AnomalyNotifier) ShouldNotify(ctx context.Context, principalID int64, originAddress, browserName, excludingJTI string) (bool, error) {
	count, err := n.Store.Sessions().CountActiveFrom(ctx, principalID, originAddress, browserName, excludingJTI)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// NotifyLogin sends the new device mail for sess when warranted and flags
// the login event once the mail is out.
func (n *AnomalyNotifier) NotifyLogin(ctx context.Context, u domain.User, sess domain.Session, eventID string) {
	if n == nil || n.Mailer == nil || !u.SecurityNotificationsEnabled {
		return
	}
	l := slogx.FromContext(ctx)

	fresh, err := n.ShouldNotify(ctx, u.ID, sess.IPAddress, sess.BrowserName, sess.TokenJTI)
	if err != nil {
		l.Warn("new device check failed", "user_id", u.ID, slogx.Err(err))
		return
	}
	if !fresh {
		return
	}

	data := map[string]string{
		"device_info": sess.BrowserName + " on " + sess.OSName,
		"location":    orUnknown(sess.LocationCity) + ", " + orUnknown(sess.LocationCountry),
		"ip_address":  sess.IPAddress,
		"timestamp":   sess.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
	}
	if !n.send(ctx, u, NotifyNewDeviceLogin, data) {
		return
	}

	if err := n.Store.SecurityEvents().MarkNotificationSent(ctx, eventID); err != nil {
		l.Warn("failed to flag login event as notified", "event_id", eventID, slogx.Err(err))
	}
}

// NotifySecurityChange tells the user about an MFA state change.
func (n *AnomalyNotifier) NotifySecurityChange(ctx context.Context, u domain.User, kind string) {
	if n == nil || n.Mailer == nil || !u.SecurityNotificationsEnabled {
		return
	}
	n.send(ctx, u, kind, map[string]string{
		"timestamp": time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
	})
}

func (n *AnomalyNotifier) send(ctx context.Context, u domain.User, kind string, data map[string]string) bool {
	err := n.Mailer.Notify(ctx, u.Email, kind, data)
	n.Metrics.notified(ctx, kind, err == nil)
	if err != nil {
		slogx.FromContext(ctx).Warn("security notification failed", "user_id", u.ID, "kind", kind, slogx.Err(err))
		return false
	}
	return true
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return "Unknown"
	}
	return *s
}
