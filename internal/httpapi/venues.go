package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"gigscout/internal/models"
	"gigscout/internal/store"
)

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.venues.ListVenues(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Venues []*models.Venue `json:"venues"`
	}{Venues: venues})
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id parameter"})
		return
	}

	venue, err := s.venues.GetVenue(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrVenueNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "venue not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, venue)
}
