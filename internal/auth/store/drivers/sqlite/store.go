package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/chefstream/auth/internal/auth/store/drivers/sqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// NewStore opens a sqlite database. Foreign keys, a busy timeout and the
// sqlite time format are added to the DSN unless it sets them already.
//
// Use a file DSN in tests: ":memory:" gives every pooled connection its own
// empty database.
func NewStore(dsn string) (*sqldb.Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	return sqldb.New(db, Dialect()), nil
}

func Dialect() sqldb.Dialect {
	return sqldb.Dialect{
		Name:              "sqlite",
		IsUniqueViolation: isUniqueViolation,
		MigrateUp:         migrateUp,
		MigrateDown:       migrateDown,
	}
}

func withPragmas(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	// primary result code only, when extended codes are off
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
