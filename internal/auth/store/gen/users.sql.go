package gen

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email, full_name, password_hash, auth_provider, provider_id,
	is_active, mfa_enabled, totp_secret, security_notifications_enabled,
	last_login_at, last_login_ip, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.AuthProvider,
		&u.ProviderID,
		&u.IsActive,
		&u.MfaEnabled,
		&u.TotpSecret,
		&u.SecurityNotificationsEnabled,
		&u.LastLoginAt,
		&u.LastLoginIp,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const createUser = `INSERT INTO users (
	email, full_name, password_hash, auth_provider, provider_id,
	is_active, mfa_enabled, security_notifications_enabled, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email                        string
	FullName                     string
	PasswordHash                 sql.NullString
	AuthProvider                 string
	ProviderID                   sql.NullString
	IsActive                     bool
	SecurityNotificationsEnabled bool
	CreatedAt                    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.FullName,
		arg.PasswordHash,
		arg.AuthProvider,
		arg.ProviderID,
		arg.IsActive,
		arg.SecurityNotificationsEnabled,
		arg.CreatedAt,
		arg.CreatedAt,
	))
}

const updateUserLoginMetadata = `UPDATE users
SET last_login_at = ?, last_login_ip = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateUserLoginMetadata(ctx context.Context, id int64, ip string, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateUserLoginMetadata, at, ip, at, id))
}

const updateUserNotificationPreference = `UPDATE users
SET security_notifications_enabled = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateUserNotificationPreference(ctx context.Context, id int64, enabled bool, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateUserNotificationPreference, enabled, at, id))
}

const enableUserMFA = `UPDATE users
SET mfa_enabled = TRUE, totp_secret = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) EnableUserMFA(ctx context.Context, id int64, secret string, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, enableUserMFA, secret, at, id))
}

const disableUserMFA = `UPDATE users
SET mfa_enabled = FALSE, totp_secret = NULL, updated_at = ?
WHERE id = ?`

func (q *Queries) DisableUserMFA(ctx context.Context, id int64, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, disableUserMFA, at, id))
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
