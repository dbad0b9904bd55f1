package scraper

import (
	"context"
	"time"

	"gigscout/internal/models"
)

// RawEvent is the uniform shape every scraper produces, regardless of how
// the underlying source is parsed. The upsert engine turns these into
// canonical events keyed by (Source, SourceEventID).
type RawEvent struct {
	Source        string             `json:"source"`
	SourceEventID string             `json:"source_event_id"`
	Title         string             `json:"title"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       *time.Time         `json:"end_time,omitempty"`
	VenueID       int64              `json:"venue_id"`
	Status        models.EventStatus `json:"status"`
	EventURL      string             `json:"event_url,omitempty"`
	ImageURL      string             `json:"image_url,omitempty"`
}

// Scraper fetches the current listings of one venue source. Implementations
// are registered with a Registry; the orchestrator depends only on this
// interface.
type Scraper interface {
	// Source returns the stable identifier of the ingestion channel.
	Source() string
	// Scrape returns every event currently listed by the source.
	Scrape(ctx context.Context) ([]RawEvent, error)
}
