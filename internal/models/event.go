package models

import "time"

// EventStatus tracks the lifecycle of a listed event.
type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusSoldOut   EventStatus = "sold_out"
	StatusCancelled EventStatus = "cancelled"
	StatusPostponed EventStatus = "postponed"
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusSoldOut, StatusCancelled, StatusPostponed:
		return true
	}
	return false
}

// Event is a canonical listing reconciled from one or more scrapes of the
// same source. The (source, source_event_id) pair is the dedup key: every
// re-ingestion of the same source event resolves to the same ID.
type Event struct {
	ID            int64       `json:"id"`
	Source        string      `json:"source"`
	SourceEventID string      `json:"source_event_id"`
	Title         string      `json:"title"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       *time.Time  `json:"end_time,omitempty"`
	VenueID       int64       `json:"venue_id"`
	Category      string      `json:"category,omitempty"`
	Status        EventStatus `json:"status"`
	ImageURL      string      `json:"image_url,omitempty"`
	EventURL      string      `json:"event_url,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	// Populated via JOIN queries (not stored in the events table)
	Venue *Venue `json:"venue,omitempty"`
}

// EventFilter for listing events
type EventFilter struct {
	Source   string
	VenueID  *int64
	Category string
	Status   EventStatus
	From     *time.Time // Events starting after this time
	To       *time.Time // Events starting before this time
	Limit    int
}

// EventWithEnrichment includes the enrichment row when one exists.
type EventWithEnrichment struct {
	Event
	Enrichment *Enrichment `json:"enrichment,omitempty"`
}
