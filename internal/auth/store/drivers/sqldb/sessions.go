package sqldb

import (
	"context"
	"sort"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store/gen"
)

type sessionsRepo struct {
	q *gen.Queries
	d Dialect
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	err := r.q.CreateSession(ctx, gen.CreateSessionParams{
		ID:              s.ID,
		UserID:          s.UserID,
		TokenJti:        s.TokenJTI,
		DeviceType:      s.DeviceType,
		BrowserName:     s.BrowserName,
		BrowserVersion:  s.BrowserVersion,
		OsName:          s.OSName,
		OsVersion:       s.OSVersion,
		IpAddress:       s.IPAddress,
		LocationCity:    nullStringPtr(s.LocationCity),
		LocationCountry: nullStringPtr(s.LocationCountry),
		CreatedAt:       s.CreatedAt,
	})
	return r.d.mapWriteErr(err)
}

func (r *sessionsRepo) GetSessionByJTI(ctx context.Context, jti string) (domain.Session, error) {
	row, err := r.q.GetSessionByJTI(ctx, jti)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) ListActiveSessions(ctx context.Context, userID int64) ([]domain.Session, error) {
	rows, err := r.q.ListActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSession(row))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastActiveAt.Equal(out[j].LastActiveAt) {
			return out[i].LastActiveAt.After(out[j].LastActiveAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, userID int64, sessionID string, at time.Time) (bool, error) {
	n, err := r.q.RevokeSession(ctx, sessionID, userID, at)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *sessionsRepo) RevokeOtherSessions(ctx context.Context, userID int64, keepJTI string, at time.Time) (int64, error) {
	return r.q.RevokeOtherSessions(ctx, userID, keepJTI, at)
}

// RevokeIdleSessions compares timestamps in Go; sqlite stores them as text
// that doesn't sort reliably.
func (r *sessionsRepo) RevokeIdleSessions(ctx context.Context, idleBefore, at time.Time) (int64, error) {
	active, err := r.q.ListActiveSessionActivity(ctx)
	if err != nil {
		return 0, err
	}

	var revoked int64
	for _, a := range active {
		if !a.LastActiveAt.Before(idleBefore) {
			continue
		}
		n, err := r.q.RevokeSessionByID(ctx, a.ID, at)
		if err != nil {
			return revoked, err
		}
		revoked += n
	}
	return revoked, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, jti string, at time.Time) error {
	return requireRow(r.q.TouchSession(ctx, jti, at))
}

func (r *sessionsRepo) CountActiveFrom(ctx context.Context, userID int64, ip, browser, excludingJTI string) (int64, error) {
	return r.q.CountActiveSessionsFrom(ctx, userID, ip, browser, excludingJTI)
}

func mapSession(row gen.Session) domain.Session {
	return domain.Session{
		ID:              row.ID,
		UserID:          row.UserID,
		TokenJTI:        row.TokenJti,
		DeviceType:      row.DeviceType,
		BrowserName:     row.BrowserName,
		BrowserVersion:  row.BrowserVersion,
		OSName:          row.OsName,
		OSVersion:       row.OsVersion,
		IPAddress:       row.IpAddress,
		LocationCity:    stringPtr(row.LocationCity),
		LocationCountry: stringPtr(row.LocationCountry),
		CreatedAt:       row.CreatedAt.UTC(),
		LastActiveAt:    row.LastActiveAt.UTC(),
		RevokedAt:       timePtr(row.RevokedAt),
	}
}
