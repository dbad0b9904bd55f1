package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"gigscout/internal/enrich"
	"gigscout/internal/ingest"
	"gigscout/internal/logging"
	"gigscout/internal/models"
	"gigscout/internal/scraper"
	"gigscout/internal/weather"
)

// Orchestrator captures the scraper fan-out operations the handlers need.
type Orchestrator interface {
	RunAll(ctx context.Context) scraper.RunSummary
	RunOne(ctx context.Context, source string) (scraper.SourceResult, error)
}

// IngestService reconciles raw events into the canonical store.
type IngestService interface {
	Upsert(ctx context.Context, raws []scraper.RawEvent) (ingest.UpsertSummary, error)
}

// EnrichService runs the enrichment batch.
type EnrichService interface {
	Run(ctx context.Context, limit int, force bool) (enrich.BatchSummary, error)
}

// WeatherService serves the pre-warm job and on-demand lookups.
type WeatherService interface {
	Prewarm(ctx context.Context) (weather.PrewarmSummary, error)
	Lookup(ctx context.Context, lat, lng float64, date time.Time) (weather.LookupResult, error)
}

// EventStore exposes the read surface over enriched events.
type EventStore interface {
	GetEvent(ctx context.Context, id int64) (*models.EventWithEnrichment, error)
	ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, error)
}

// VenueStore exposes the venue reference data.
type VenueStore interface {
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	ListVenues(ctx context.Context) ([]*models.Venue, error)
}

// Server wires HTTP handlers to the underlying services. The scheduler
// token is injected at construction so the auth check never reads global
// process state.
type Server struct {
	orchestrator   Orchestrator
	ingest         IngestService
	enrich         EnrichService
	weather        WeatherService
	events         EventStore
	venues         VenueStore
	schedulerToken string
	logger         *logging.Logger
}

// New configures a Server with the given services.
func New(
	orchestrator Orchestrator,
	ingestService IngestService,
	enrichService EnrichService,
	weatherService WeatherService,
	events EventStore,
	venues VenueStore,
	schedulerToken string,
	logger *logging.Logger,
) *Server {
	return &Server{
		orchestrator:   orchestrator,
		ingest:         ingestService,
		enrich:         enrichService,
		weather:        weatherService,
		events:         events,
		venues:         venues,
		schedulerToken: schedulerToken,
		logger:         logger,
	}
}

// Routes exposes the trigger and read endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Job trigger routes (scheduler-facing, bearer secret required)
	mux.HandleFunc("POST /api/v1/jobs/scrape", s.handleScrapeAll)
	mux.HandleFunc("POST /api/v1/jobs/scrape/{source}", s.handleScrapeOne)
	mux.HandleFunc("POST /api/v1/jobs/enrich", s.handleEnrich)
	mux.HandleFunc("POST /api/v1/jobs/weather", s.handleWeatherPrewarm)

	// On-demand weather lookup (also scheduler-credentialed)
	mux.HandleFunc("GET /api/v1/weather", s.handleWeatherLookup)

	// Event and venue read routes
	mux.HandleFunc("GET /api/v1/events", s.handleListEvents)
	mux.HandleFunc("GET /api/v1/events/{id}", s.handleGetEvent)
	mux.HandleFunc("GET /api/v1/venues", s.handleListVenues)
	mux.HandleFunc("GET /api/v1/venues/{id}", s.handleGetVenue)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

// authorize enforces the shared-secret bearer credential on trigger routes.
// A missing server-side secret is a configuration fault and fails closed
// with a server error; a mismatched credential is an authorization fault.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.schedulerToken == "" {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "scheduler token not configured"})
		return false
	}

	token := parseBearerToken(r.Header.Get("Authorization"))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.schedulerToken)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid scheduler credential"})
		return false
	}

	return true
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
