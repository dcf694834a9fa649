package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, use TRANSIT_PG_CONN_URL env var")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToMigrate          = errors.New("failed to create state table")
)

// IsNotFoundError detects pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows)
}

// IsSerializationError detects SQLSTATE 40001, raised when a concurrent
// transaction touched the same row under serializable isolation.
func IsSerializationError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}
