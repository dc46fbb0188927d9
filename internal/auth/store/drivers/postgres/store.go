package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chefstream/auth/internal/auth/store/drivers/sqldb"
	"github.com/chefstream/auth/internal/auth/store/gen"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

// NewStore opens a postgres pool through the pgx database/sql driver and
// checks that the server answers.
func NewStore(ctx context.Context, dsn string) (*sqldb.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqldb.New(db, Dialect()), nil
}

func Dialect() sqldb.Dialect {
	return sqldb.Dialect{
		Name:              "postgres",
		Wrap:              func(db gen.DBTX) gen.DBTX { return rebinder{db: db} },
		IsUniqueViolation: isUniqueViolation,
		MigrateUp:         migrateUp,
		MigrateDown:       migrateDown,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
