package enrich

import (
	"context"

	"gigscout/internal/models"
)

// TicketMatch is the usable result of a ticket-platform lookup. A nil match
// with a nil error means the provider answered but found nothing.
type TicketMatch struct {
	PlatformID     string
	PlatformName   string
	TicketURL      string
	PreferredTitle bool
	SaleWindows    *models.SaleWindows
	SupportingActs []string
}

// Category is a classification label with the provider's confidence.
type Category struct {
	Label      string
	Confidence float64
}

// TicketMatcher finds an event on a ticketing platform by venue and title.
type TicketMatcher interface {
	Match(ctx context.Context, event *models.Event) (*TicketMatch, error)
}

// Categorizer assigns a category label to an event title.
type Categorizer interface {
	Categorize(ctx context.Context, title string) (*Category, error)
}

// KnowledgeGraph resolves an event's headliner to a knowledge-graph entity
// id. An empty id with a nil error means no entity matched.
type KnowledgeGraph interface {
	Lookup(ctx context.Context, title string) (string, error)
}

// MusicPlatform resolves an event's headliner to a music-platform artist id.
// An empty id with a nil error means no artist matched.
type MusicPlatform interface {
	MatchArtist(ctx context.Context, name string) (string, error)
}
