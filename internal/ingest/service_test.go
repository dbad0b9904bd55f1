package ingest

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"gigscout/internal/logging"
	"gigscout/internal/models"
	"gigscout/internal/scraper"
)

// fakeStore emulates the dedup semantics of the real upsert: rows are keyed
// by (source, source_event_id), non-empty incoming fields replace stored
// ones, and empty incoming fields leave them alone.
type fakeStore struct {
	rows    map[string]*models.Event
	upserts int
	failFor string
	failErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]*models.Event{}}
}

func (f *fakeStore) UpsertEvent(_ context.Context, event *models.Event) (bool, error) {
	f.upserts++
	key := event.Source + "|" + event.SourceEventID
	if key == f.failFor {
		if f.failErr != nil {
			return false, f.failErr
		}
		return false, errors.New("duplicate key value violates constraint")
	}

	existing, ok := f.rows[key]
	if !ok {
		clone := *event
		f.rows[key] = &clone
		return true, nil
	}

	existing.StartTime = event.StartTime
	existing.EndTime = event.EndTime
	existing.VenueID = event.VenueID
	existing.Status = event.Status
	if event.Title != "" {
		existing.Title = event.Title
	}
	if event.ImageURL != "" {
		existing.ImageURL = event.ImageURL
	}
	if event.EventURL != "" {
		existing.EventURL = event.EventURL
	}
	return false, nil
}

func rawEvent(source, id, title string) scraper.RawEvent {
	return scraper.RawEvent{
		Source:        source,
		SourceEventID: id,
		Title:         title,
		StartTime:     time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC),
		VenueID:       3,
		Status:        models.StatusScheduled,
	}
}

func TestUpsertCountsCreatedAndUpdated(t *testing.T) {
	store := newFakeStore()
	svc := New(store, logging.Nop())

	first := []scraper.RawEvent{
		rawEvent("crocodile", "c-1", "The National"),
		rawEvent("crocodile", "c-2", "Big Thief"),
		rawEvent("neumos", "n-1", "Japanese Breakfast"),
	}
	summary, err := svc.Upsert(context.Background(), first)
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if summary.Created != 3 || summary.Updated != 0 || summary.Errors != 0 {
		t.Fatalf("first batch: got %+v, want created=3 updated=0 errors=0", summary)
	}

	second := []scraper.RawEvent{
		rawEvent("crocodile", "c-1", "The National"),
		rawEvent("crocodile", "c-3", "Mitski"),
		rawEvent("neumos", "n-1", "Japanese Breakfast"),
		rawEvent("neumos", "n-2", "Alvvays"),
		rawEvent("crocodile", "c-2", "Big Thief"),
	}
	summary, err = svc.Upsert(context.Background(), second)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if summary.Created != 2 || summary.Updated != 3 || summary.Errors != 0 {
		t.Fatalf("second batch: got %+v, want created=2 updated=3 errors=0", summary)
	}
	if len(store.rows) != 5 {
		t.Fatalf("expected 5 distinct events, got %d", len(store.rows))
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := New(store, logging.Nop())

	batch := []scraper.RawEvent{
		rawEvent("tractor", "t-1", "Waxahatchee"),
		rawEvent("tractor", "t-2", "Snail Mail"),
	}

	if _, err := svc.Upsert(context.Background(), batch); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	before := *store.rows["tractor|t-1"]

	summary, err := svc.Upsert(context.Background(), batch)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if summary.Created != 0 || summary.Updated != 2 || summary.Errors != 0 {
		t.Fatalf("rerun: got %+v, want created=0 updated=2 errors=0", summary)
	}

	after := *store.rows["tractor|t-1"]
	if before != after {
		t.Fatalf("identical rerun changed stored event: %+v != %+v", before, after)
	}
}

func TestUpsertIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.failFor = "showbox|s-2"
	svc := New(store, logging.Nop())

	batch := []scraper.RawEvent{
		rawEvent("showbox", "s-1", "Parquet Courts"),
		rawEvent("showbox", "s-2", "Courtney Barnett"),
		rawEvent("showbox", "s-3", "Soccer Mommy"),
	}

	summary, err := svc.Upsert(context.Background(), batch)
	if err != nil {
		t.Fatalf("a record fault must not fail the batch: %v", err)
	}
	if summary.Created != 2 || summary.Errors != 1 {
		t.Fatalf("got %+v, want created=2 errors=1", summary)
	}
	if _, ok := store.rows["showbox|s-3"]; !ok {
		t.Fatalf("event after the failing one was not processed")
	}
}

func TestUpsertAbortsWhenStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.failFor = "showbox|s-2"
	store.failErr = driver.ErrBadConn
	svc := New(store, logging.Nop())

	batch := []scraper.RawEvent{
		rawEvent("showbox", "s-1", "Parquet Courts"),
		rawEvent("showbox", "s-2", "Courtney Barnett"),
		rawEvent("showbox", "s-3", "Soccer Mommy"),
	}

	summary, err := svc.Upsert(context.Background(), batch)
	if err == nil {
		t.Fatalf("connection-class error must abort the batch")
	}
	if summary.Created != 1 || summary.Errors != 1 {
		t.Fatalf("partial counts before abort: got %+v, want created=1 errors=1", summary)
	}
	if _, ok := store.rows["showbox|s-3"]; ok {
		t.Fatalf("records after the abort point were still processed")
	}
}

// failAllStore fails every upsert with a non-connection error.
type failAllStore struct{}

func (failAllStore) UpsertEvent(_ context.Context, _ *models.Event) (bool, error) {
	return false, errors.New("value too long for type")
}

func TestUpsertAbortsAfterConsecutiveFailures(t *testing.T) {
	svc := New(failAllStore{}, logging.Nop())

	batch := make([]scraper.RawEvent, maxConsecutiveStoreFailures+3)
	for i := range batch {
		batch[i] = rawEvent("crocodile", string(rune('a'+i)), "show")
	}

	summary, err := svc.Upsert(context.Background(), batch)
	if err == nil {
		t.Fatalf("sustained store failures must abort the batch")
	}
	if summary.Errors != maxConsecutiveStoreFailures {
		t.Fatalf("errors = %d, want abort after %d", summary.Errors, maxConsecutiveStoreFailures)
	}
}

func TestUpsertRejectsInvalidRawEvents(t *testing.T) {
	missingStart := rawEvent("crocodile", "c-9", "Lucy Dacus")
	missingStart.StartTime = time.Time{}

	missingVenue := rawEvent("crocodile", "c-10", "Wednesday")
	missingVenue.VenueID = 0

	testCases := []struct {
		name string
		raw  scraper.RawEvent
	}{
		{"no source", rawEvent("", "x-1", "Phoebe Bridgers")},
		{"no source event id", rawEvent("crocodile", "", "Phoebe Bridgers")},
		{"no title", rawEvent("crocodile", "c-8", "")},
		{"no start time", missingStart},
		{"no venue", missingVenue},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			svc := New(store, logging.Nop())

			summary, err := svc.Upsert(context.Background(), []scraper.RawEvent{tc.raw})
			if err != nil {
				t.Fatalf("validation failure must not fail the batch: %v", err)
			}
			if summary.Errors != 1 || summary.Created != 0 {
				t.Fatalf("got %+v, want errors=1 created=0", summary)
			}
			if store.upserts != 0 {
				t.Fatalf("invalid event reached the store")
			}
		})
	}
}

func TestUpsertDefaultsUnknownStatus(t *testing.T) {
	store := newFakeStore()
	svc := New(store, logging.Nop())

	raw := rawEvent("neumos", "n-7", "Angel Olsen")
	raw.Status = models.EventStatus("rescheduled-maybe")

	summary, err := svc.Upsert(context.Background(), []scraper.RawEvent{raw})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if summary.Created != 1 {
		t.Fatalf("got %+v, want created=1", summary)
	}
	if got := store.rows["neumos|n-7"].Status; got != models.StatusScheduled {
		t.Fatalf("status = %q, want %q", got, models.StatusScheduled)
	}
}
