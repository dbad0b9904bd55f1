package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gigscout/internal/logging"
	"gigscout/internal/models"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	events      []*models.Event
	enrichments map[int64]*models.Enrichment
	categories  map[int64]string
	cleared     int64
	clearCalls  int

	upsertErr error
}

func newEnrichStore(events ...*models.Event) *fakeStore {
	return &fakeStore{
		events:      events,
		enrichments: map[int64]*models.Enrichment{},
		categories:  map[int64]string{},
	}
}

func (f *fakeStore) ListEventsMissingEnrichment(_ context.Context, limit int) ([]*models.Event, error) {
	var missing []*models.Event
	for _, e := range f.events {
		if _, ok := f.enrichments[e.ID]; ok {
			continue
		}
		missing = append(missing, e)
		if len(missing) == limit {
			break
		}
	}
	return missing, nil
}

func (f *fakeStore) UpsertEnrichment(_ context.Context, enrichment *models.Enrichment) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	clone := *enrichment
	f.enrichments[enrichment.EventID] = &clone
	return nil
}

func (f *fakeStore) DeleteAllEnrichments(_ context.Context) (int64, error) {
	f.clearCalls++
	n := int64(len(f.enrichments))
	f.enrichments = map[int64]*models.Enrichment{}
	f.cleared += n
	return n, nil
}

func (f *fakeStore) UpdateEventCategory(_ context.Context, eventID int64, category string) error {
	f.categories[eventID] = category
	return nil
}

type fakeTickets struct {
	failIDs map[int64]bool
	calls   int
}

func (f *fakeTickets) Match(_ context.Context, event *models.Event) (*TicketMatch, error) {
	f.calls++
	if f.failIDs[event.ID] {
		return nil, errors.New("discovery api timeout")
	}
	return &TicketMatch{
		PlatformID:   fmt.Sprintf("tm-%d", event.ID),
		PlatformName: "Ticketmaster",
		TicketURL:    fmt.Sprintf("https://tickets.example/%d", event.ID),
	}, nil
}

type fakeCategorizer struct {
	label string
	err   error
}

func (f *fakeCategorizer) Categorize(_ context.Context, _ string) (*Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.label == "" {
		return nil, nil
	}
	return &Category{Label: f.label, Confidence: 0.92}, nil
}

type fakeKnowledge struct{ err error }

func (f *fakeKnowledge) Lookup(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Q42", nil
}

type fakeMusic struct{ err error }

func (f *fakeMusic) MatchArtist(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "spotify-artist-1", nil
}

func futureEvent(id int64) *models.Event {
	return &models.Event{
		ID:        id,
		Source:    "crocodile",
		Title:     fmt.Sprintf("Show %d", id),
		StartTime: testNow.Add(time.Duration(id) * time.Hour),
		VenueID:   1,
		Status:    models.StatusScheduled,
	}
}

func newTestService(store Store, tickets TicketMatcher, category Categorizer, knowledge KnowledgeGraph, music MusicPlatform) *service {
	svc := New(store, tickets, category, knowledge, music, logging.Nop()).(*service)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestRunClassifiesOutcomes(t *testing.T) {
	events := make([]*models.Event, 0, 60)
	for i := int64(1); i <= 60; i++ {
		events = append(events, futureEvent(i))
	}
	store := newEnrichStore(events...)

	tickets := &fakeTickets{failIDs: map[int64]bool{}}
	for i := int64(1); i <= 10; i++ {
		tickets.failIDs[i] = true
	}

	svc := newTestService(store, tickets, &fakeCategorizer{label: "indie rock"}, &fakeKnowledge{}, &fakeMusic{})

	summary, err := svc.Run(context.Background(), 60, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 60 {
		t.Fatalf("processed = %d, want 60", summary.Processed)
	}
	if summary.Completed != 50 || summary.Partial != 10 || summary.Failed != 0 {
		t.Fatalf("got %+v, want completed=50 partial=10 failed=0", summary)
	}
	if summary.CategoriesUpdated != 60 {
		t.Fatalf("categories updated = %d, want 60", summary.CategoriesUpdated)
	}
	if len(store.enrichments) != 60 {
		t.Fatalf("persisted rows = %d, want 60 (partials keep their row)", len(store.enrichments))
	}

	// A partially enriched event still carries what succeeded.
	partial := store.enrichments[3]
	if partial.TicketPlatformID != "" {
		t.Fatalf("failed ticket match should leave platform id empty")
	}
	if partial.KnowledgeGraphID != "Q42" || partial.MusicPlatformID != "spotify-artist-1" {
		t.Fatalf("partial row missing successful fields: %+v", partial)
	}
}

func TestRunRetriesFullyFailedEvents(t *testing.T) {
	store := newEnrichStore(futureEvent(1))

	// Only the ticket provider is configured, and it fails.
	tickets := &fakeTickets{failIDs: map[int64]bool{1: true}}
	svc := newTestService(store, tickets, nil, nil, nil)

	summary, err := svc.Run(context.Background(), 10, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 || summary.Completed != 0 {
		t.Fatalf("got %+v, want failed=1", summary)
	}
	if len(store.enrichments) != 0 {
		t.Fatalf("failed event must not get a row")
	}

	// Provider recovers: the same event is selected and enriched.
	tickets.failIDs = nil
	summary, err = svc.Run(context.Background(), 10, false)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Completed != 1 {
		t.Fatalf("got %+v, want completed=1 on retry", summary)
	}
	if _, ok := store.enrichments[1]; !ok {
		t.Fatalf("retried event has no row")
	}
}

func TestRunSkipsPastEvents(t *testing.T) {
	past := futureEvent(1)
	past.StartTime = testNow.Add(-2 * time.Hour)
	store := newEnrichStore(past, futureEvent(2))

	tickets := &fakeTickets{}
	svc := newTestService(store, tickets, nil, nil, nil)

	summary, err := svc.Run(context.Background(), 10, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || summary.Completed != 1 {
		t.Fatalf("got %+v, want skipped=1 completed=1", summary)
	}
	if tickets.calls != 1 {
		t.Fatalf("providers were called for a past event")
	}
}

func TestRunForceClearsExistingRows(t *testing.T) {
	store := newEnrichStore(futureEvent(1), futureEvent(2))
	svc := newTestService(store, &fakeTickets{}, nil, nil, nil)

	if _, err := svc.Run(context.Background(), 10, false); err != nil {
		t.Fatalf("seed Run: %v", err)
	}
	if len(store.enrichments) != 2 {
		t.Fatalf("seed run persisted %d rows", len(store.enrichments))
	}

	summary, err := svc.Run(context.Background(), 10, true)
	if err != nil {
		t.Fatalf("force Run: %v", err)
	}
	if summary.Cleared != 2 {
		t.Fatalf("cleared = %d, want 2", summary.Cleared)
	}
	if summary.Completed != 2 {
		t.Fatalf("got %+v, want both events reprocessed", summary)
	}
	if store.clearCalls != 1 {
		t.Fatalf("DeleteAllEnrichments called %d times", store.clearCalls)
	}
}

func TestRunPersistFailureCountsAsFailed(t *testing.T) {
	store := newEnrichStore(futureEvent(1))
	store.upsertErr = errors.New("deadlock detected")

	svc := newTestService(store, &fakeTickets{}, nil, nil, nil)

	summary, err := svc.Run(context.Background(), 10, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("got %+v, want failed=1", summary)
	}
}

func TestRunDefaultsLimit(t *testing.T) {
	events := make([]*models.Event, 0, DefaultLimit+10)
	for i := int64(1); i <= int64(DefaultLimit+10); i++ {
		events = append(events, futureEvent(i))
	}
	store := newEnrichStore(events...)

	svc := newTestService(store, &fakeTickets{}, nil, nil, nil)

	summary, err := svc.Run(context.Background(), 0, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != DefaultLimit {
		t.Fatalf("processed = %d, want %d", summary.Processed, DefaultLimit)
	}
}
