package httpapi

import (
	"net/http"
	"strconv"
	"time"
)

// handleWeatherLookup serves an on-demand forecast for one coordinate pair
// and date, going through the same cache the pre-warm job populates.
func (s *Server) handleWeatherLookup(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid lat parameter"})
		return
	}

	lng, err := strconv.ParseFloat(query.Get("lng"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid lng parameter"})
		return
	}

	date, err := time.Parse("2006-01-02", query.Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date parameter, want YYYY-MM-DD"})
		return
	}

	result, err := s.weather.Lookup(r.Context(), lat, lng, date)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
