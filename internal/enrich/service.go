package enrich

import (
	"context"
	"fmt"
	"time"

	"gigscout/internal/logging"
	"gigscout/internal/models"
)

const (
	// DefaultLimit bounds external-API load per batch invocation.
	DefaultLimit = 50

	providerTimeout = 15 * time.Second
)

// Store defines the persistence operations the batch processor needs.
type Store interface {
	ListEventsMissingEnrichment(ctx context.Context, limit int) ([]*models.Event, error)
	UpsertEnrichment(ctx context.Context, enrichment *models.Enrichment) error
	DeleteAllEnrichments(ctx context.Context) (int64, error)
	UpdateEventCategory(ctx context.Context, eventID int64, category string) error
}

// BatchSummary counts one enrichment run. Processed is the number of
// selected events handled, including skips.
type BatchSummary struct {
	Processed         int   `json:"processed"`
	Completed         int   `json:"completed"`
	Partial           int   `json:"partial"`
	Failed            int   `json:"failed"`
	Skipped           int   `json:"skipped"`
	CategoriesUpdated int   `json:"categories_updated"`
	Cleared           int64 `json:"cleared,omitempty"`
}

// Service drives unenriched events through the external providers.
type Service interface {
	// Run processes up to limit events. force first deletes every existing
	// enrichment row — a destructive full reset — so all events reprocess.
	Run(ctx context.Context, limit int, force bool) (BatchSummary, error)
}

type service struct {
	store     Store
	tickets   TicketMatcher
	category  Categorizer
	knowledge KnowledgeGraph
	music     MusicPlatform
	logger    *logging.Logger

	now func() time.Time
}

// New constructs an enrichment Service. A nil provider is treated as not
// applicable rather than as a failure, so a deployment can run with any
// subset of providers configured.
func New(store Store, tickets TicketMatcher, category Categorizer, knowledge KnowledgeGraph, music MusicPlatform, logger *logging.Logger) Service {
	return &service{
		store:     store,
		tickets:   tickets,
		category:  category,
		knowledge: knowledge,
		music:     music,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) Run(ctx context.Context, limit int, force bool) (BatchSummary, error) {
	var summary BatchSummary

	if limit <= 0 {
		limit = DefaultLimit
	}

	if force {
		cleared, err := s.store.DeleteAllEnrichments(ctx)
		if err != nil {
			return summary, fmt.Errorf("clear enrichments: %w", err)
		}
		summary.Cleared = cleared
		s.logger.WithFields(map[string]interface{}{
			"cleared": cleared,
		}).Warn().Msg("force mode cleared all enrichments")
	}

	events, err := s.store.ListEventsMissingEnrichment(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("select events: %w", err)
	}

	for _, event := range events {
		summary.Processed++

		if !s.eligible(event) {
			summary.Skipped++
			continue
		}

		outcome := s.enrichOne(ctx, event, &summary)
		switch outcome {
		case outcomeCompleted:
			summary.Completed++
		case outcomePartial:
			summary.Partial++
		case outcomeFailed:
			summary.Failed++
		}
	}

	return summary, nil
}

// eligible excludes events enrichment cannot help: already-past shows stay
// unprocessed but are never retried as failures.
func (s *service) eligible(event *models.Event) bool {
	return event.StartTime.After(s.now())
}

type outcome int

const (
	outcomeCompleted outcome = iota
	outcomePartial
	outcomeFailed
)

// enrichOne calls each applicable provider in sequence — deliberately not in
// parallel, to keep third-party request rates flat — and classifies the
// result. A partial row is persisted so a later run only fills gaps; a
// failed event gets no row and stays selectable.
func (s *service) enrichOne(ctx context.Context, event *models.Event, summary *BatchSummary) outcome {
	enrichment := models.Enrichment{EventID: event.ID}
	succeeded, failed := 0, 0

	if s.tickets != nil {
		match, err := s.callTickets(ctx, event)
		if err != nil {
			failed++
			s.warn(event, "ticket match failed", err)
		} else {
			succeeded++
			if match != nil {
				enrichment.TicketPlatformID = match.PlatformID
				enrichment.TicketPlatformName = match.PlatformName
				enrichment.TicketURL = match.TicketURL
				enrichment.PreferredTitle = match.PreferredTitle
				enrichment.SaleWindows = match.SaleWindows
				enrichment.SupportingActs = match.SupportingActs
			}
		}
	}

	if s.category != nil {
		category, err := s.callCategory(ctx, event)
		if err != nil {
			failed++
			s.warn(event, "categorization failed", err)
		} else {
			succeeded++
			if category != nil && category.Label != "" {
				enrichment.Category = category.Label
				confidence := category.Confidence
				enrichment.CategoryConfidence = &confidence

				if err := s.store.UpdateEventCategory(ctx, event.ID, category.Label); err != nil {
					s.warn(event, "category update failed", err)
				} else {
					summary.CategoriesUpdated++
				}
			}
		}
	}

	if s.knowledge != nil {
		id, err := s.callKnowledge(ctx, event)
		if err != nil {
			failed++
			s.warn(event, "knowledge graph lookup failed", err)
		} else {
			succeeded++
			enrichment.KnowledgeGraphID = id
		}
	}

	if s.music != nil {
		id, err := s.callMusic(ctx, event)
		if err != nil {
			failed++
			s.warn(event, "music platform lookup failed", err)
		} else {
			succeeded++
			enrichment.MusicPlatformID = id
		}
	}

	if succeeded == 0 {
		// Nothing usable; leave no row so the next run retries.
		return outcomeFailed
	}

	if err := s.store.UpsertEnrichment(ctx, &enrichment); err != nil {
		s.warn(event, "enrichment persist failed", err)
		return outcomeFailed
	}

	if failed > 0 {
		return outcomePartial
	}
	return outcomeCompleted
}

func (s *service) callTickets(ctx context.Context, event *models.Event) (*TicketMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	return s.tickets.Match(ctx, event)
}

func (s *service) callCategory(ctx context.Context, event *models.Event) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	return s.category.Categorize(ctx, event.Title)
}

func (s *service) callKnowledge(ctx context.Context, event *models.Event) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	return s.knowledge.Lookup(ctx, event.Title)
}

func (s *service) callMusic(ctx context.Context, event *models.Event) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	return s.music.MatchArtist(ctx, event.Title)
}

func (s *service) warn(event *models.Event, msg string, err error) {
	s.logger.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"source":   event.Source,
	}).Warn().Err(err).Msg(msg)
}
