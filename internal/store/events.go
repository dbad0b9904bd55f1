package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gigscout/internal/models"
)

// UpsertEvent reconciles one scraped event against the canonical store,
// keyed by (source, source_event_id). A new key inserts a row; an existing
// key updates only the mutable presentation/schedule fields and keeps the
// row's id. The most recent scrape wins, except that an empty scraped value
// never overwrites a stored one. Category is owned by enrichment and is not
// touched here. Returns whether the row was created (vs updated).
func (s *Store) UpsertEvent(ctx context.Context, event *models.Event) (bool, error) {
	query := `
		INSERT INTO events (source, source_event_id, title, start_time, end_time,
		                    venue_id, status, image_url, event_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source, source_event_id) DO UPDATE SET
			title      = COALESCE(NULLIF(EXCLUDED.title, ''), events.title),
			start_time = EXCLUDED.start_time,
			end_time   = COALESCE(EXCLUDED.end_time, events.end_time),
			status     = EXCLUDED.status,
			image_url  = COALESCE(NULLIF(EXCLUDED.image_url, ''), events.image_url),
			event_url  = COALESCE(NULLIF(EXCLUDED.event_url, ''), events.event_url),
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		event.Source, event.SourceEventID, event.Title, event.StartTime, event.EndTime,
		event.VenueID, event.Status, event.ImageURL, event.EventURL,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt, &inserted)

	if err != nil {
		return false, fmt.Errorf("upsert event %s/%s: %w", event.Source, event.SourceEventID, err)
	}

	return inserted, nil
}

// GetEvent retrieves a single event by ID, with its enrichment when present.
func (s *Store) GetEvent(ctx context.Context, id int64) (*models.EventWithEnrichment, error) {
	query := `
		SELECT e.id, e.source, e.source_event_id, e.title, e.start_time, e.end_time,
		       e.venue_id, e.category, e.status, e.image_url, e.event_url,
		       e.created_at, e.updated_at
		FROM events e
		WHERE e.id = $1
	`

	var ev models.EventWithEnrichment
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ev.ID, &ev.Source, &ev.SourceEventID, &ev.Title, &ev.StartTime, &ev.EndTime,
		&ev.VenueID, &ev.Category, &ev.Status, &ev.ImageURL, &ev.EventURL,
		&ev.CreatedAt, &ev.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	enrichment, err := s.GetEnrichment(ctx, id)
	if err != nil && !errors.Is(err, ErrEnrichmentNotFound) {
		return nil, err
	}
	ev.Enrichment = enrichment

	return &ev, nil
}

// ListEvents returns events matching the filter, soonest first.
func (s *Store) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, error) {
	query := `
		SELECT id, source, source_event_id, title, start_time, end_time,
		       venue_id, category, status, image_url, event_url,
		       created_at, updated_at
		FROM events
		WHERE ($1 = '' OR source = $1)
		  AND ($2::bigint IS NULL OR venue_id = $2)
		  AND ($3 = '' OR category = $3)
		  AND ($4 = '' OR status = $4)
		  AND ($5::timestamptz IS NULL OR start_time >= $5)
		  AND ($6::timestamptz IS NULL OR start_time <= $6)
		ORDER BY start_time ASC
		LIMIT $7
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, query,
		filter.Source, filter.VenueID, filter.Category, string(filter.Status),
		filter.From, filter.To, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var ev models.Event
		err := rows.Scan(&ev.ID, &ev.Source, &ev.SourceEventID, &ev.Title,
			&ev.StartTime, &ev.EndTime, &ev.VenueID, &ev.Category, &ev.Status,
			&ev.ImageURL, &ev.EventURL, &ev.CreatedAt, &ev.UpdatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}

	return events, rows.Err()
}

// ListEventsMissingEnrichment returns up to limit events with no enrichment
// row, soonest start first. This is the normal-mode selection of the
// enrichment batch: failed attempts leave no row, so they reappear here.
func (s *Store) ListEventsMissingEnrichment(ctx context.Context, limit int) ([]*models.Event, error) {
	query := `
		SELECT e.id, e.source, e.source_event_id, e.title, e.start_time, e.end_time,
		       e.venue_id, e.category, e.status, e.image_url, e.event_url,
		       e.created_at, e.updated_at
		FROM events e
		LEFT JOIN enrichments en ON en.event_id = e.id
		WHERE en.event_id IS NULL
		ORDER BY e.start_time ASC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var ev models.Event
		err := rows.Scan(&ev.ID, &ev.Source, &ev.SourceEventID, &ev.Title,
			&ev.StartTime, &ev.EndTime, &ev.VenueID, &ev.Category, &ev.Status,
			&ev.ImageURL, &ev.EventURL, &ev.CreatedAt, &ev.UpdatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}

	return events, rows.Err()
}

// ListEventsWithCoordinates returns events starting inside [from, to] whose
// venue has resolvable coordinates, joined with those coordinates. Used by
// the weather pre-warm scan.
func (s *Store) ListEventsWithCoordinates(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	query := `
		SELECT e.id, e.source, e.source_event_id, e.title, e.start_time, e.end_time,
		       e.venue_id, e.category, e.status, e.image_url, e.event_url,
		       e.created_at, e.updated_at,
		       v.id, v.name, v.lat, v.lng
		FROM events e
		INNER JOIN venues v ON e.venue_id = v.id
		WHERE e.start_time >= $1 AND e.start_time <= $2
		  AND (v.lat <> 0 OR v.lng <> 0)
		ORDER BY e.start_time ASC
	`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var ev models.Event
		var v models.Venue
		err := rows.Scan(&ev.ID, &ev.Source, &ev.SourceEventID, &ev.Title,
			&ev.StartTime, &ev.EndTime, &ev.VenueID, &ev.Category, &ev.Status,
			&ev.ImageURL, &ev.EventURL, &ev.CreatedAt, &ev.UpdatedAt,
			&v.ID, &v.Name, &v.Lat, &v.Lng)
		if err != nil {
			return nil, err
		}
		ev.Venue = &v
		events = append(events, &ev)
	}

	return events, rows.Err()
}

// UpdateEventCategory records the category assigned by enrichment.
func (s *Store) UpdateEventCategory(ctx context.Context, eventID int64, category string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET category = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, category, eventID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEventNotFound
	}

	return nil
}
