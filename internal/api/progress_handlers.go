package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// venueProgress handles GET /api/venues/{venue_id}/progress. A venue that has
// never been scraped since startup reports status "not_found".
func (s *Server) venueProgress(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseVenueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Progress.Get(venueID))
}

// venueRuns handles GET /api/venues/{venue_id}/runs?limit=. It answers 503
// when run history is not persisted.
func (s *Server) venueRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history unavailable")
		return
	}
	venueID, err := parseVenueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseLimit(r, defaultRunLimit, maxRunLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := s.deps.Runs.ListRuns(r.Context(), venueID, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Int64("venue_id", venueID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}
