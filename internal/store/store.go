package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrEventNotFound signals a lookup for an event id that does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrVenueNotFound signals a lookup for a venue id that does not exist.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrEnrichmentNotFound signals an event that has not been enriched yet.
	ErrEnrichmentNotFound = errors.New("enrichment not found")
	// ErrWeatherCellNotFound signals a forecast cell with no cache entry.
	ErrWeatherCellNotFound = errors.New("weather cell not found")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// IsUnavailable reports whether err means the database is unreachable, as
// opposed to a fault with the statement or row. Callers use it to abort a
// batch instead of burning through every remaining record.
func IsUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
