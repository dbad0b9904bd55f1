package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigscout/internal/logging"
	"gigscout/internal/models"
	"gigscout/internal/store"
)

const (
	// ForecastHorizonDays is how far ahead the provider can see; dates
	// beyond it are not fetchable.
	ForecastHorizonDays = 10

	// FreshnessThreshold is the maximum age at which a cache entry is
	// served without refetching.
	FreshnessThreshold = time.Hour

	// fetchDelay spaces out consecutive provider calls during pre-warm. The
	// provider is rate limited; this throttle is deliberate backpressure.
	// On-demand lookups are single calls and are never delayed.
	fetchDelay = time.Second

	providerTimeout = 15 * time.Second
)

// ErrNoForecast signals the provider answered but had nothing for the cell.
var ErrNoForecast = errors.New("provider returned no forecast")

// Lookup unavailability reasons.
const (
	ReasonTooFarFuture        = "too_far_future"
	ReasonInThePast           = "in_the_past"
	ReasonProviderUnavailable = "provider_unavailable"
)

// Provider is a day-level forecast API keyed by coordinate and date.
type Provider interface {
	Forecast(ctx context.Context, lat, lng float64, date time.Time) (*models.WeatherCell, error)
}

// Store defines the persistence operations the cache needs.
type Store interface {
	ListEventsWithCoordinates(ctx context.Context, from, to time.Time) ([]*models.Event, error)
	GetWeatherCell(ctx context.Context, lat, lng float64, date time.Time) (*models.WeatherCell, error)
	UpsertWeatherCell(ctx context.Context, cell *models.WeatherCell) error
}

// PrewarmSummary counts one pre-warm run.
type PrewarmSummary struct {
	Events  int `json:"events"`
	Cells   int `json:"cells"`
	Fresh   int `json:"fresh"`
	Fetched int `json:"fetched"`
	Errors  int `json:"errors"`
}

// LookupResult is the on-demand answer: a forecast, or a reason there is none.
type LookupResult struct {
	Available bool                `json:"available"`
	Reason    string              `json:"reason,omitempty"`
	Forecast  *models.WeatherCell `json:"forecast,omitempty"`
}

// Service keeps the weather cache warm and serves on-demand lookups. Both
// entry points go through one refresh path, so the cache behaves identically
// regardless of which populated it.
type Service interface {
	Prewarm(ctx context.Context) (PrewarmSummary, error)
	Lookup(ctx context.Context, lat, lng float64, date time.Time) (LookupResult, error)
}

type service struct {
	store    Store
	provider Provider
	logger   *logging.Logger

	now   func() time.Time
	delay time.Duration
}

// New constructs a weather Service.
func New(st Store, provider Provider, logger *logging.Logger) Service {
	return &service{
		store:    st,
		provider: provider,
		logger:   logger,
		now:      time.Now,
		delay:    fetchDelay,
	}
}

type cellKey struct {
	lat  float64
	lng  float64
	date time.Time
}

// Prewarm scans events inside the forecast horizon, buckets their venues
// into rounded cells, and refreshes every stale or missing cell with a
// throttled provider call. Fresh cells are skipped without a call.
func (s *service) Prewarm(ctx context.Context) (PrewarmSummary, error) {
	var summary PrewarmSummary

	now := s.now()
	horizon := dateOnly(now).AddDate(0, 0, ForecastHorizonDays)

	events, err := s.store.ListEventsWithCoordinates(ctx, now, horizon)
	if err != nil {
		return summary, fmt.Errorf("scan events: %w", err)
	}
	summary.Events = len(events)

	// Distinct cells, in event order so runs are deterministic.
	seen := make(map[cellKey]struct{})
	var cells []cellKey
	for _, event := range events {
		key := cellKey{
			lat:  models.RoundCoordinate(event.Venue.Lat),
			lng:  models.RoundCoordinate(event.Venue.Lng),
			date: dateOnly(event.StartTime),
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cells = append(cells, key)
	}
	summary.Cells = len(cells)

	for _, cell := range cells {
		// Throttle only between provider calls, never before the first.
		throttled := summary.Fetched > 0 || summary.Errors > 0
		_, fetched, err := s.refresh(ctx, cell.lat, cell.lng, cell.date, throttled)
		if err != nil {
			summary.Errors++
			s.logger.WithFields(map[string]interface{}{
				"lat":  cell.lat,
				"lng":  cell.lng,
				"date": cell.date.Format("2006-01-02"),
			}).Warn().Err(err).Msg("cell refresh failed")
			continue
		}
		if fetched {
			summary.Fetched++
		} else {
			summary.Fresh++
		}
	}

	return summary, nil
}

// Lookup runs the same check-freshness, fetch-if-stale, upsert sequence for
// one cell. Dates outside the horizon and provider misses come back as
// available:false with a reason; only store faults surface as errors.
func (s *service) Lookup(ctx context.Context, lat, lng float64, date time.Time) (LookupResult, error) {
	day := dateOnly(date)
	today := dateOnly(s.now())

	if day.Before(today) {
		return LookupResult{Reason: ReasonInThePast}, nil
	}
	if day.After(today.AddDate(0, 0, ForecastHorizonDays)) {
		return LookupResult{Reason: ReasonTooFarFuture}, nil
	}

	cell, _, err := s.refresh(ctx, models.RoundCoordinate(lat), models.RoundCoordinate(lng), day, false)
	if err != nil {
		if errors.Is(err, ErrNoForecast) || isProviderFault(err) {
			return LookupResult{Reason: ReasonProviderUnavailable}, nil
		}
		return LookupResult{}, err
	}

	return LookupResult{Available: true, Forecast: cell}, nil
}

// refresh is the single cache algorithm: serve a fresh entry, otherwise
// fetch and upsert. Coordinates must already be rounded. throttled delays
// the provider call; pre-warm sets it between consecutive fetches.
func (s *service) refresh(ctx context.Context, lat, lng float64, date time.Time, throttled bool) (*models.WeatherCell, bool, error) {
	cached, err := s.store.GetWeatherCell(ctx, lat, lng, date)
	if err == nil && cached.Age(s.now()) < FreshnessThreshold {
		return cached, false, nil
	}
	if err != nil && !errors.Is(err, store.ErrWeatherCellNotFound) {
		return nil, false, err
	}

	if throttled && s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	forecast, err := s.provider.Forecast(fetchCtx, lat, lng, date)
	if err != nil {
		return nil, false, &providerError{err: err}
	}
	if forecast == nil {
		return nil, false, ErrNoForecast
	}

	forecast.RoundedLat = lat
	forecast.RoundedLng = lng
	forecast.ForecastDate = date

	if err := s.store.UpsertWeatherCell(ctx, forecast); err != nil {
		return nil, false, err
	}

	return forecast, true, nil
}

type providerError struct {
	err error
}

func (e *providerError) Error() string { return fmt.Sprintf("weather provider: %v", e.err) }
func (e *providerError) Unwrap() error { return e.err }

func isProviderFault(err error) bool {
	var pe *providerError
	return errors.As(err, &pe)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
