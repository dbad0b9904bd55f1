package ingest

import (
	"context"
	"errors"
	"fmt"

	"gigscout/internal/logging"
	"gigscout/internal/models"
	"gigscout/internal/scraper"
	"gigscout/internal/store"
)

var (
	ErrMissingSource  = errors.New("raw event has no source")
	ErrMissingEventID = errors.New("raw event has no source event id")
	ErrMissingTitle   = errors.New("raw event has no title")
	ErrMissingStart   = errors.New("raw event has no start time")
	ErrMissingVenue   = errors.New("raw event has no venue")
)

// maxConsecutiveStoreFailures is the point at which a run of upsert errors
// stops looking like bad records and starts looking like a dead store.
const maxConsecutiveStoreFailures = 5

// Store defines the persistence operation the upsert engine needs.
type Store interface {
	UpsertEvent(ctx context.Context, event *models.Event) (bool, error)
}

// UpsertSummary counts the outcome of one ingestion batch.
type UpsertSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// Service reconciles raw scraped events into the canonical store.
type Service interface {
	// Upsert processes the batch and returns its counts. A non-nil error
	// means the store itself became unavailable mid-batch; the summary still
	// carries the counts accumulated before the abort.
	Upsert(ctx context.Context, raws []scraper.RawEvent) (UpsertSummary, error)
}

type service struct {
	store  Store
	logger *logging.Logger
}

// New constructs an ingest Service.
func New(store Store, logger *logging.Logger) Service {
	return &service{store: store, logger: logger}
}

// Upsert processes each raw event independently: validate, map to the
// canonical shape, and create-or-merge on the (source, source_event_id)
// key. A failing record is counted and logged; the rest of the batch is
// unaffected. Re-running with identical input changes nothing but
// updated_at, and order across the batch is irrelevant because the dedup
// key decides row identity.
//
// Record faults are isolated; an unreachable store is not. On a
// connection-class error, or once store errors run long enough to mean the
// store is gone, the batch aborts with its partial counts.
func (s *service) Upsert(ctx context.Context, raws []scraper.RawEvent) (UpsertSummary, error) {
	var summary UpsertSummary
	consecutive := 0

	for _, raw := range raws {
		event, err := toEvent(raw)
		if err != nil {
			summary.Errors++
			s.logger.WithFields(map[string]interface{}{
				"source":          raw.Source,
				"source_event_id": raw.SourceEventID,
			}).Warn().Err(err).Msg("raw event rejected")
			continue
		}

		created, err := s.store.UpsertEvent(ctx, event)
		if err != nil {
			summary.Errors++
			consecutive++
			s.logger.WithFields(map[string]interface{}{
				"source":          raw.Source,
				"source_event_id": raw.SourceEventID,
			}).Warn().Err(err).Msg("event upsert failed")

			if store.IsUnavailable(err) || consecutive >= maxConsecutiveStoreFailures {
				return summary, fmt.Errorf("store unavailable: %w", err)
			}
			continue
		}
		consecutive = 0

		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	return summary, nil
}

func toEvent(raw scraper.RawEvent) (*models.Event, error) {
	switch {
	case raw.Source == "":
		return nil, ErrMissingSource
	case raw.SourceEventID == "":
		return nil, fmt.Errorf("%w (source %s)", ErrMissingEventID, raw.Source)
	case raw.Title == "":
		return nil, fmt.Errorf("%w (%s/%s)", ErrMissingTitle, raw.Source, raw.SourceEventID)
	case raw.StartTime.IsZero():
		return nil, fmt.Errorf("%w (%s/%s)", ErrMissingStart, raw.Source, raw.SourceEventID)
	case raw.VenueID <= 0:
		return nil, fmt.Errorf("%w (%s/%s)", ErrMissingVenue, raw.Source, raw.SourceEventID)
	}

	status := raw.Status
	if !status.Valid() {
		status = models.StatusScheduled
	}

	return &models.Event{
		Source:        raw.Source,
		SourceEventID: raw.SourceEventID,
		Title:         raw.Title,
		StartTime:     raw.StartTime,
		EndTime:       raw.EndTime,
		VenueID:       raw.VenueID,
		Status:        status,
		ImageURL:      raw.ImageURL,
		EventURL:      raw.EventURL,
	}, nil
}
