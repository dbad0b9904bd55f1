package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gigscout/internal/enrich"
	"gigscout/internal/ingest"
	"gigscout/internal/scraper"
	"gigscout/internal/weather"
)

type sourceBreakdown struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

type scrapeResponse struct {
	Success    bool                `json:"success"`
	RunID      string              `json:"run_id"`
	DurationMS int64               `json:"duration_ms"`
	Total      int                 `json:"total"`
	Upsert     ingest.UpsertSummary `json:"upsert"`
	Sources    []sourceBreakdown   `json:"sources"`
	Error      string              `json:"error,omitempty"`
}

type enrichResponse struct {
	Success    bool                `json:"success"`
	RunID      string              `json:"run_id"`
	DurationMS int64               `json:"duration_ms"`
	Force      bool                `json:"force"`
	Summary    enrich.BatchSummary `json:"summary"`
	Error      string              `json:"error,omitempty"`
}

type prewarmResponse struct {
	Success    bool                   `json:"success"`
	RunID      string                 `json:"run_id"`
	DurationMS int64                  `json:"duration_ms"`
	Summary    weather.PrewarmSummary `json:"summary"`
	Error      string                 `json:"error,omitempty"`
}

func breakdown(results []scraper.SourceResult) []sourceBreakdown {
	out := make([]sourceBreakdown, 0, len(results))
	for _, r := range results {
		out = append(out, sourceBreakdown{
			Source: r.Source,
			Count:  r.Count,
			Error:  r.ErrString(),
		})
	}
	return out
}

// handleScrapeAll runs every registered source end-to-end: orchestrated
// fan-out followed by the canonical upsert. Per-source failures appear in
// the breakdown and the run still succeeds; an unreachable store fails the
// whole run, with whatever counts accumulated before the abort.
func (s *Server) handleScrapeAll(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	runID := uuid.NewString()
	start := time.Now()

	summary := s.orchestrator.RunAll(r.Context())
	upsert, err := s.ingest.Upsert(r.Context(), summary.RawEvents())

	duration := time.Since(start)
	s.logger.Job(runID, "scrape_all", duration, err)

	resp := scrapeResponse{
		Success:    err == nil,
		RunID:      runID,
		DurationMS: duration.Milliseconds(),
		Total:      summary.Total,
		Upsert:     upsert,
		Sources:    breakdown(summary.Sources),
	}

	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleScrapeOne runs a single source end-to-end, used for diagnostics.
func (s *Server) handleScrapeOne(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	runID := uuid.NewString()
	start := time.Now()
	source := r.PathValue("source")

	result, err := s.orchestrator.RunOne(r.Context(), source)
	if err != nil {
		s.logger.Job(runID, "scrape_one", time.Since(start), err)
		writeJSON(w, http.StatusNotFound, scrapeResponse{
			RunID:      runID,
			DurationMS: time.Since(start).Milliseconds(),
			Error:      err.Error(),
		})
		return
	}

	upsert, upsertErr := s.ingest.Upsert(r.Context(), result.Events)

	duration := time.Since(start)
	s.logger.Job(runID, "scrape_one", duration, upsertErr)

	resp := scrapeResponse{
		Success:    result.Err == nil && upsertErr == nil,
		RunID:      runID,
		DurationMS: duration.Milliseconds(),
		Total:      result.Count,
		Upsert:     upsert,
		Sources:    breakdown([]scraper.SourceResult{result}),
	}

	if upsertErr != nil {
		resp.Error = upsertErr.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleEnrich runs an enrichment batch. force=true is destructive: it
// clears every stored enrichment before reprocessing.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	query := r.URL.Query()

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	force := query.Get("force") == "true"

	runID := uuid.NewString()
	start := time.Now()

	summary, err := s.enrich.Run(r.Context(), limit, force)
	duration := time.Since(start)
	s.logger.Job(runID, "enrich", duration, err)

	resp := enrichResponse{
		Success:    err == nil,
		RunID:      runID,
		DurationMS: duration.Milliseconds(),
		Force:      force,
		Summary:    summary,
	}

	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleWeatherPrewarm refreshes forecast cells for upcoming events.
func (s *Server) handleWeatherPrewarm(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	runID := uuid.NewString()
	start := time.Now()

	summary, err := s.weather.Prewarm(r.Context())
	duration := time.Since(start)
	s.logger.Job(runID, "weather_prewarm", duration, err)

	resp := prewarmResponse{
		Success:    err == nil,
		RunID:      runID,
		DurationMS: duration.Milliseconds(),
		Summary:    summary,
	}

	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
