package repository

import (
	"errors"
	"fmt"

	"filevault/internal/common"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapPostgresError turns PostgreSQL errors into common sentinels. Errors that
// are not *pgconn.PgError are returned unchanged.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("unique constraint %s: %w", pgErr.ConstraintName, common.ErrConflict)

	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %s", common.ErrNotFound, pgErr.Detail)

	case pgerrcode.InvalidTextRepresentation:
		// e.g. a malformed uuid in a WHERE clause
		return fmt.Errorf("%w: %s", common.ErrNotFound, pgErr.Message)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection,
		pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}

	return err
}
