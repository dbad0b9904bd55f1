package store

import (
	"context"
	"database/sql"
	"errors"

	"gigscout/internal/models"
)

// CreateVenue adds a venue; it is idempotent on (name, city) so the
// bootstrap seed can run on every start.
func (s *Store) CreateVenue(ctx context.Context, venue *models.Venue) error {
	query := `
		INSERT INTO venues (name, address, city, state, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name, city) DO UPDATE SET
			address = EXCLUDED.address,
			state   = EXCLUDED.state,
			lat     = EXCLUDED.lat,
			lng     = EXCLUDED.lng
		RETURNING id, created_at
	`

	return s.db.QueryRowContext(ctx, query,
		venue.Name, venue.Address, venue.City, venue.State, venue.Lat, venue.Lng,
	).Scan(&venue.ID, &venue.CreatedAt)
}

// GetVenue retrieves a single venue by ID
func (s *Store) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	query := `
		SELECT id, name, address, city, state, lat, lng, created_at
		FROM venues
		WHERE id = $1
	`

	var v models.Venue
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.Lat, &v.Lng, &v.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// ListVenues returns all venues ordered by name
func (s *Store) ListVenues(ctx context.Context) ([]*models.Venue, error) {
	query := `
		SELECT id, name, address, city, state, lat, lng, created_at
		FROM venues
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		var v models.Venue
		err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.State,
			&v.Lat, &v.Lng, &v.CreatedAt)
		if err != nil {
			return nil, err
		}
		venues = append(venues, &v)
	}

	return venues, rows.Err()
}
