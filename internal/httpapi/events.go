package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gigscout/internal/models"
	"gigscout/internal/store"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := models.EventFilter{
		Source:   query.Get("source"),
		Category: query.Get("category"),
		Status:   models.EventStatus(query.Get("status")),
	}

	if venueStr := query.Get("venue_id"); venueStr != "" {
		venueID, err := strconv.ParseInt(venueStr, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue_id parameter"})
			return
		}
		filter.VenueID = &venueID
	}

	if fromStr := query.Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from parameter"})
			return
		}
		filter.From = &from
	}

	if toStr := query.Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid to parameter"})
			return
		}
		filter.To = &to
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})
			return
		}
		filter.Limit = limit
	}

	events, err := s.events.ListEvents(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Events []*models.Event `json:"events"`
	}{Events: events})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id parameter"})
		return
	}

	event, err := s.events.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrEventNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "event not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, event)
}
