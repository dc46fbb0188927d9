// Package sqldb implements store.Store over database/sql. The sqlite and
// postgres drivers supply a Dialect and share everything else.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/internal/auth/store/gen"
)

// Dialect is what differs between database engines.
type Dialect struct {
	Name string

	// Wrap adapts the connection before queries run, e.g. to rebind
	// placeholders. Nil means queries are sent as written.
	Wrap func(gen.DBTX) gen.DBTX

	// IsUniqueViolation recognises the engine's unique constraint error.
	IsUniqueViolation func(error) bool

	// MigrateUp and MigrateDown run the dialect's embedded migrations.
	MigrateUp   func(*sql.DB) error
	MigrateDown func(*sql.DB) error
}

type Store struct {
	db *sql.DB
	q  *gen.Queries
	d  Dialect
}

func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, q: gen.New(d.wrap(db)), d: d}
}

func (d Dialect) wrap(db gen.DBTX) gen.DBTX {
	if d.Wrap == nil {
		return db
	}
	return d.Wrap(db)
}

// DB exposes the pool for callers that need raw access, such as tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) ApplyMigrations() error { return s.d.MigrateUp(s.db) }

func (s *Store) RollbackMigration() error { return s.d.MigrateDown(s.db) }

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, q: gen.New(s.d.wrap(tx)), d: s.d}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users                   { return &usersRepo{q: s.q, d: s.d} }
func (s *Store) Sessions() store.Sessions             { return &sessionsRepo{q: s.q, d: s.d} }
func (s *Store) SecurityEvents() store.SecurityEvents { return &securityEventsRepo{q: s.q} }
func (s *Store) BackupCodes() store.BackupCodes       { return &backupCodesRepo{q: s.q, d: s.d} }

type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
	d  Dialect
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error               { return nil }
func (t *txStore) Ping(context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error     { return errNestedTx }
func (t *txStore) RollbackMigration() error   { return errNestedTx }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return errNestedTx }

func (t *txStore) Users() store.Users                   { return &usersRepo{q: t.q, d: t.d} }
func (t *txStore) Sessions() store.Sessions             { return &sessionsRepo{q: t.q, d: t.d} }
func (t *txStore) SecurityEvents() store.SecurityEvents { return &securityEventsRepo{q: t.q} }
func (t *txStore) BackupCodes() store.BackupCodes       { return &backupCodesRepo{q: t.q, d: t.d} }

var errNestedTx = errors.New("sqldb: not supported inside a transaction")

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapWriteErr turns unique violations into store.ErrAlreadyExists.
func (d Dialect) mapWriteErr(err error) error {
	if err != nil && d.IsUniqueViolation != nil && d.IsUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// requireRow turns an UPDATE that matched nothing into store.ErrNotFound.
func requireRow(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}
