package store

import (
	"context"
	"errors"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Repositories hang off it so that work inside WithTx can
// only reach the transaction's repositories, never the outer Store's.
type Store interface {
	Users() Users
	Sessions() Sessions
	SecurityEvents() SecurityEvents
	BackupCodes() BackupCodes

	// ApplyMigrations runs all pending up migrations.
	ApplyMigrations() error

	// RollbackMigration reverts the most recent migration.
	RollbackMigration() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing if fn returns nil and
	// rolling back otherwise (including when ctx is cancelled).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users has one explicit update per mutable field group; there is no
// generic patch.
type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByEmail matches email exactly.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u and returns it with the generated ID. A duplicate
	// email is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	UpdateLoginMetadata(ctx context.Context, id int64, ip string, at time.Time) error
	UpdateNotificationPreference(ctx context.Context, id int64, enabled bool, at time.Time) error

	// EnableMFA stores the TOTP secret and sets the flag.
	EnableMFA(ctx context.Context, id int64, secret string, at time.Time) error

	// DisableMFA clears the TOTP secret and the flag.
	DisableMFA(ctx context.Context, id int64, at time.Time) error
}

type Sessions interface {
	// CreateSession inserts s. A reused token_jti is ErrAlreadyExists.
	CreateSession(ctx context.Context, s domain.Session) error

	GetSessionByJTI(ctx context.Context, jti string) (domain.Session, error)

	// ListActiveSessions returns non-revoked sessions, most recently active first.
	ListActiveSessions(ctx context.Context, userID int64) ([]domain.Session, error)

	// RevokeSession sets revoked_at only if the session belongs to userID and
	// is still active. Reports whether a row changed.
	RevokeSession(ctx context.Context, userID int64, sessionID string, at time.Time) (bool, error)

	// RevokeOtherSessions revokes every active session of userID except the
	// one bound to keepJTI and returns how many were revoked.
	RevokeOtherSessions(ctx context.Context, userID int64, keepJTI string, at time.Time) (int64, error)

	// RevokeIdleSessions revokes active sessions whose last activity is before
	// idleBefore.
	RevokeIdleSessions(ctx context.Context, idleBefore, at time.Time) (int64, error)

	// TouchSession refreshes last_active_at of an active session.
	TouchSession(ctx context.Context, jti string, at time.Time) error

	// CountActiveFrom counts active sessions of userID with the same origin
	// address and browser, ignoring the session bound to excludingJTI.
	CountActiveFrom(ctx context.Context, userID int64, ip, browser, excludingJTI string) (int64, error)
}

type SecurityEvents interface {
	AppendEvent(ctx context.Context, e domain.SecurityEvent) error

	// MarkNotificationSent is the only mutation allowed on an event.
	MarkNotificationSent(ctx context.Context, eventID string) error

	// ListEvents returns the newest events of userID first.
	ListEvents(ctx context.Context, userID int64, limit int) ([]domain.SecurityEvent, error)
}

// BackupCodes stores fingerprints only; plaintext codes never reach the store.
type BackupCodes interface {
	CreateBackupCode(ctx context.Context, userID int64, codeHash string) error

	// ConsumeBackupCode deletes the code and reports whether it existed.
	ConsumeBackupCode(ctx context.Context, userID int64, codeHash string) (bool, error)

	DeleteAllBackupCodes(ctx context.Context, userID int64) error

	CountBackupCodes(ctx context.Context, userID int64) (int, error)
}
