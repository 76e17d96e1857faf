package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

const dateLayout = "2006-01-02"

// listConcerts handles GET /api/concerts. Dates are YYYY-MM-DD in the scrape
// timezone and date_to includes the whole day.
func (s *Server) listConcerts(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseConcertFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	concerts, err := s.deps.Concerts.ListConcerts(r.Context(), filter)
	if err != nil {
		s.logger.Error("list concerts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list concerts")
		return
	}
	if concerts == nil {
		concerts = []concert.Concert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"concerts": concerts})
}

func (s *Server) parseConcertFilter(r *http.Request) (store.ConcertFilter, error) {
	q := r.URL.Query()
	filter := store.ConcertFilter{
		Performer:  strings.TrimSpace(q.Get("performer")),
		Repertoire: strings.TrimSpace(q.Get("repertoire")),
	}
	if raw := strings.TrimSpace(q.Get("date_from")); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, s.deps.Location)
		if err != nil {
			return filter, fmt.Errorf("invalid date_from %q, use YYYY-MM-DD", raw)
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(q.Get("date_to")); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, s.deps.Location)
		if err != nil {
			return filter, fmt.Errorf("invalid date_to %q, use YYYY-MM-DD", raw)
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if raw := strings.TrimSpace(q.Get("venue_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid venue_id %q", raw)
		}
		filter.VenueID = id
	}
	return filter, nil
}
