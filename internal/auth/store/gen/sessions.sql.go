package gen

import (
	"context"
	"database/sql"
	"time"
)

const sessionColumns = `id, user_id, token_jti, device_type, browser_name, browser_version,
	os_name, os_version, ip_address, location_city, location_country,
	created_at, last_active_at, revoked_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.TokenJti,
		&s.DeviceType,
		&s.BrowserName,
		&s.BrowserVersion,
		&s.OsName,
		&s.OsVersion,
		&s.IpAddress,
		&s.LocationCity,
		&s.LocationCountry,
		&s.CreatedAt,
		&s.LastActiveAt,
		&s.RevokedAt,
	)
	return s, err
}

const createSession = `INSERT INTO sessions (` + sessionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`

type CreateSessionParams struct {
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
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.UserID,
		arg.TokenJti,
		arg.DeviceType,
		arg.BrowserName,
		arg.BrowserVersion,
		arg.OsName,
		arg.OsVersion,
		arg.IpAddress,
		arg.LocationCity,
		arg.LocationCountry,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return err
}

const getSessionByJTI = `SELECT ` + sessionColumns + ` FROM sessions WHERE token_jti = ?`

func (q *Queries) GetSessionByJTI(ctx context.Context, jti string) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByJTI, jti))
}

const listActiveSessions = `SELECT ` + sessionColumns + `
FROM sessions
WHERE user_id = ? AND revoked_at IS NULL`

// ListActiveSessions returns rows in no particular order; timestamps are
// stored as text in sqlite so ordering is done by the caller.
func (q *Queries) ListActiveSessions(ctx context.Context, userID int64) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSessions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const revokeSession = `UPDATE sessions
SET revoked_at = ?
WHERE id = ? AND user_id = ? AND revoked_at IS NULL`

func (q *Queries) RevokeSession(ctx context.Context, id string, userID int64, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, revokeSession, at, id, userID))
}

const revokeOtherSessions = `UPDATE sessions
SET revoked_at = ?
WHERE user_id = ? AND token_jti <> ? AND revoked_at IS NULL`

func (q *Queries) RevokeOtherSessions(ctx context.Context, userID int64, keepJTI string, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, revokeOtherSessions, at, userID, keepJTI))
}

const listActiveSessionActivity = `SELECT id, last_active_at FROM sessions WHERE revoked_at IS NULL`

type SessionActivity struct {
	ID           string
	LastActiveAt time.Time
}

func (q *Queries) ListActiveSessionActivity(ctx context.Context) ([]SessionActivity, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSessionActivity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SessionActivity
	for rows.Next() {
		var a SessionActivity
		if err := rows.Scan(&a.ID, &a.LastActiveAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const revokeSessionByID = `UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`

func (q *Queries) RevokeSessionByID(ctx context.Context, id string, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, revokeSessionByID, at, id))
}

const touchSession = `UPDATE sessions
SET last_active_at = ?
WHERE token_jti = ? AND revoked_at IS NULL`

func (q *Queries) TouchSession(ctx context.Context, jti string, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, touchSession, at, jti))
}

const countActiveSessionsFrom = `SELECT COUNT(*)
FROM sessions
WHERE user_id = ? AND ip_address = ? AND browser_name = ?
	AND token_jti <> ? AND revoked_at IS NULL`

func (q *Queries) CountActiveSessionsFrom(ctx context.Context, userID int64, ip, browser, excludingJTI string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countActiveSessionsFrom, userID, ip, browser, excludingJTI).Scan(&n)
	return n, err
}
