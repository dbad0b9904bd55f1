package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"gigscout/internal/logging"
	"gigscout/internal/models"
	"gigscout/internal/store"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fakeWeatherStore struct {
	events []*models.Event
	cells  map[cellKey]*models.WeatherCell
}

func newWeatherStore() *fakeWeatherStore {
	return &fakeWeatherStore{cells: map[cellKey]*models.WeatherCell{}}
}

func (f *fakeWeatherStore) ListEventsWithCoordinates(_ context.Context, _, _ time.Time) ([]*models.Event, error) {
	return f.events, nil
}

func (f *fakeWeatherStore) GetWeatherCell(_ context.Context, lat, lng float64, date time.Time) (*models.WeatherCell, error) {
	cell, ok := f.cells[cellKey{lat: lat, lng: lng, date: date}]
	if !ok {
		return nil, store.ErrWeatherCellNotFound
	}
	clone := *cell
	return &clone, nil
}

func (f *fakeWeatherStore) UpsertWeatherCell(_ context.Context, cell *models.WeatherCell) error {
	clone := *cell
	clone.FetchedAt = testNow
	f.cells[cellKey{lat: cell.RoundedLat, lng: cell.RoundedLng, date: cell.ForecastDate}] = &clone
	return nil
}

func (f *fakeWeatherStore) seed(lat, lng float64, date, fetchedAt time.Time) {
	f.cells[cellKey{lat: lat, lng: lng, date: date}] = &models.WeatherCell{
		RoundedLat:   lat,
		RoundedLng:   lng,
		ForecastDate: date,
		TempHigh:     20,
		FetchedAt:    fetchedAt,
	}
}

type fakeProvider struct {
	calls int
	err   error
	empty bool
}

func (f *fakeProvider) Forecast(_ context.Context, lat, lng float64, date time.Time) (*models.WeatherCell, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}
	return &models.WeatherCell{TempHigh: 22.5, TempLow: 11, Condition: "1"}, nil
}

func coordEvent(lat, lng float64, start time.Time) *models.Event {
	return &models.Event{
		Title:     "show",
		StartTime: start,
		Venue:     &models.Venue{Lat: lat, Lng: lng},
	}
}

func newTestWeather(st Store, provider Provider) *service {
	svc := New(st, provider, logging.Nop()).(*service)
	svc.now = func() time.Time { return testNow }
	svc.delay = 0
	return svc
}

func TestPrewarmBucketsNearbyVenues(t *testing.T) {
	st := newWeatherStore()
	day := testNow.Add(24 * time.Hour)
	// Three venues within the same rounded cell on the same night, plus one
	// distinct cell.
	st.events = []*models.Event{
		coordEvent(47.6131, -122.3472, day),
		coordEvent(47.6139, -122.3468, day),
		coordEvent(47.6127, -122.3581, day.Add(time.Hour)), // rounds to a different lng
		coordEvent(47.6133, -122.3474, day.Add(2*time.Hour)),
	}

	provider := &fakeProvider{}
	svc := newTestWeather(st, provider)

	summary, err := svc.Prewarm(context.Background())
	if err != nil {
		t.Fatalf("Prewarm: %v", err)
	}

	if summary.Events != 4 {
		t.Fatalf("events = %d, want 4", summary.Events)
	}
	if summary.Cells != 2 {
		t.Fatalf("cells = %d, want 2 (venues on the same block share a cell)", summary.Cells)
	}
	if provider.calls != 2 || summary.Fetched != 2 {
		t.Fatalf("provider calls = %d, fetched = %d, want 2 each", provider.calls, summary.Fetched)
	}
}

func TestPrewarmSkipsFreshCells(t *testing.T) {
	st := newWeatherStore()
	day := dateOnly(testNow.Add(24 * time.Hour))
	st.events = []*models.Event{coordEvent(47.61, -122.35, day.Add(20 * time.Hour))}
	st.seed(47.61, -122.35, day, testNow.Add(-30*time.Minute))

	provider := &fakeProvider{}
	svc := newTestWeather(st, provider)

	summary, err := svc.Prewarm(context.Background())
	if err != nil {
		t.Fatalf("Prewarm: %v", err)
	}
	if summary.Fresh != 1 || summary.Fetched != 0 {
		t.Fatalf("got %+v, want fresh=1 fetched=0", summary)
	}
	if provider.calls != 0 {
		t.Fatalf("fresh cell triggered a provider call")
	}
}

func TestPrewarmRefreshesStaleCells(t *testing.T) {
	st := newWeatherStore()
	day := dateOnly(testNow.Add(24 * time.Hour))
	st.events = []*models.Event{coordEvent(47.61, -122.35, day.Add(20 * time.Hour))}
	st.seed(47.61, -122.35, day, testNow.Add(-2*time.Hour))

	provider := &fakeProvider{}
	svc := newTestWeather(st, provider)

	summary, err := svc.Prewarm(context.Background())
	if err != nil {
		t.Fatalf("Prewarm: %v", err)
	}
	if summary.Fetched != 1 || provider.calls != 1 {
		t.Fatalf("stale cell was not refreshed: %+v, calls=%d", summary, provider.calls)
	}

	refreshed := st.cells[cellKey{lat: 47.61, lng: -122.35, date: day}]
	if refreshed.TempHigh != 22.5 {
		t.Fatalf("cell not overwritten with fresh forecast: %+v", refreshed)
	}
}

func TestPrewarmCountsProviderErrors(t *testing.T) {
	st := newWeatherStore()
	day := testNow.Add(24 * time.Hour)
	st.events = []*models.Event{coordEvent(47.61, -122.35, day)}

	svc := newTestWeather(st, &fakeProvider{err: errors.New("429 too many requests")})

	summary, err := svc.Prewarm(context.Background())
	if err != nil {
		t.Fatalf("Prewarm: %v", err)
	}
	if summary.Errors != 1 || summary.Fetched != 0 {
		t.Fatalf("got %+v, want errors=1", summary)
	}
}

func TestLookupServesCacheAndRoundsCoordinates(t *testing.T) {
	st := newWeatherStore()
	day := dateOnly(testNow.Add(48 * time.Hour))
	st.seed(47.61, -122.35, day, testNow.Add(-10*time.Minute))

	provider := &fakeProvider{}
	svc := newTestWeather(st, provider)

	// Full-precision coordinates must hit the rounded cell.
	result, err := svc.Lookup(context.Background(), 47.6142, -122.3478, day)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !result.Available || result.Forecast == nil {
		t.Fatalf("result: %+v", result)
	}
	if provider.calls != 0 {
		t.Fatalf("cached lookup called the provider")
	}
}

func TestLookupFetchesWhenMissing(t *testing.T) {
	st := newWeatherStore()
	day := dateOnly(testNow.Add(48 * time.Hour))

	provider := &fakeProvider{}
	svc := newTestWeather(st, provider)

	result, err := svc.Lookup(context.Background(), 47.6142, -122.3478, day)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !result.Available {
		t.Fatalf("result: %+v", result)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.calls)
	}
	if _, ok := st.cells[cellKey{lat: 47.61, lng: -122.35, date: day}]; !ok {
		t.Fatalf("fetched forecast was not cached")
	}
}

func TestLookupRejectsOutOfRangeDates(t *testing.T) {
	svc := newTestWeather(newWeatherStore(), &fakeProvider{})

	testCases := []struct {
		name   string
		date   time.Time
		reason string
	}{
		{"yesterday", testNow.Add(-24 * time.Hour), ReasonInThePast},
		{"beyond horizon", testNow.AddDate(0, 0, ForecastHorizonDays+1), ReasonTooFarFuture},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Lookup(context.Background(), 47.61, -122.35, tc.date)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if result.Available || result.Reason != tc.reason {
				t.Fatalf("got %+v, want reason %q", result, tc.reason)
			}
		})
	}
}

func TestLookupReportsProviderUnavailable(t *testing.T) {
	day := dateOnly(testNow.Add(48 * time.Hour))

	testCases := []struct {
		name     string
		provider *fakeProvider
	}{
		{"provider error", &fakeProvider{err: errors.New("connect: connection refused")}},
		{"no forecast for cell", &fakeProvider{empty: true}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestWeather(newWeatherStore(), tc.provider)

			result, err := svc.Lookup(context.Background(), 47.61, -122.35, day)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if result.Available || result.Reason != ReasonProviderUnavailable {
				t.Fatalf("got %+v, want reason %q", result, ReasonProviderUnavailable)
			}
		})
	}
}

func TestLookupMissIsNotThrottled(t *testing.T) {
	st := newWeatherStore()
	day := dateOnly(testNow.Add(48 * time.Hour))

	provider := &fakeProvider{}
	svc := newTestWeather(st, provider)
	// A throttled lookup would hang here for an hour and fail the run.
	svc.delay = time.Hour

	result, err := svc.Lookup(context.Background(), 47.61, -122.35, day)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !result.Available || provider.calls != 1 {
		t.Fatalf("result: %+v, calls=%d", result, provider.calls)
	}
}

func TestPrewarmThrottlesBetweenFetches(t *testing.T) {
	st := newWeatherStore()
	day := testNow.Add(24 * time.Hour)
	st.events = []*models.Event{
		coordEvent(47.61, -122.35, day),
		coordEvent(47.66, -122.38, day),
		coordEvent(47.60, -122.33, day),
	}

	provider := &fakeProvider{}
	svc := newTestWeather(st, provider)
	svc.delay = 20 * time.Millisecond

	start := time.Now()
	summary, err := svc.Prewarm(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Prewarm: %v", err)
	}
	if summary.Fetched != 3 || provider.calls != 3 {
		t.Fatalf("got %+v, calls=%d, want 3 fetches", summary, provider.calls)
	}
	// The first call is immediate; the two that follow are each delayed.
	if want := 2 * svc.delay; elapsed < want {
		t.Fatalf("elapsed %v, want at least %v of throttling", elapsed, want)
	}
}

func TestLookupTodayIsInRange(t *testing.T) {
	svc := newTestWeather(newWeatherStore(), &fakeProvider{})

	result, err := svc.Lookup(context.Background(), 47.61, -122.35, testNow)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !result.Available {
		t.Fatalf("same-day lookup unavailable: %+v", result)
	}
}
