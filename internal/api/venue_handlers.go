package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/dispatcher"
	"github.com/JakeFAU/concert-crawler/internal/store"
	"github.com/JakeFAU/concert-crawler/internal/worker"
)

type scrapeResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Results map[int64]bool `json:"results,omitempty"`
}

type createVenueRequest struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ScraperType string `json:"scraper_type"`
}

// scrapeVenue handles POST /api/venues/{venue_id}/scrape. The scrape runs
// inside the request and answers 200 on success or 400 otherwise.
func (s *Server) scrapeVenue(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseVenueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.deps.Scraper.ScrapeVenue(r.Context(), venueID) {
		writeJSON(w, http.StatusBadRequest, scrapeResponse{Status: "error", Message: "Failed to scrape venue"})
		return
	}
	writeJSON(w, http.StatusOK, scrapeResponse{Status: "success", Message: "Venue scraped successfully"})
}

// scrapeAllVenues handles POST /api/venues/scrape-all. It succeeds when at
// least one venue saved concerts.
func (s *Server) scrapeAllVenues(w http.ResponseWriter, r *http.Request) {
	results := s.deps.Scraper.ScrapeAllVenues(r.Context())
	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded == 0 {
		writeJSON(w, http.StatusBadRequest, scrapeResponse{
			Status:  "warning",
			Message: "Failed to scrape any venues successfully",
			Results: results,
		})
		return
	}
	writeJSON(w, http.StatusOK, scrapeResponse{
		Status:  "success",
		Message: fmt.Sprintf("Successfully scraped %d out of %d venues", succeeded, len(results)),
		Results: results,
	})
}

func (s *Server) scrapeVenueAsync(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseVenueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.deps.Venues.GetVenue(r.Context(), venueID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "venue not found")
			return
		}
		s.logger.Error("get venue failed", zap.Int64("venue_id", venueID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load venue")
		return
	}
	s.launch(w, s.deps.Scraper.Launch(r.Context(), venueID), "Scrape started")
}

func (s *Server) scrapeAllVenuesAsync(w http.ResponseWriter, r *http.Request) {
	s.launch(w, s.deps.Scraper.LaunchAll(r.Context()), "Scrape of all venues started")
}

func (s *Server) launch(w http.ResponseWriter, err error, message string) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, scrapeResponse{Status: "started", Message: message})
	case errors.Is(err, worker.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, scrapeResponse{Status: "running", Message: "Scrape already in progress"})
	default:
		s.logger.Error("launch scrape failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "scrape queue unavailable")
	}
}

func (s *Server) listVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.deps.Venues.ListVenues(r.Context())
	if err != nil {
		s.logger.Error("list venues failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list venues")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"venues": venues})
}

func (s *Server) createVenue(w http.ResponseWriter, r *http.Request) {
	var req createVenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	venue, err := dispatcher.PrepareVenue(req.Name, req.URL, req.ScraperType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.deps.Venues.CreateVenue(r.Context(), venue)
	if err != nil {
		s.logger.Error("create venue failed", zap.String("url", venue.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create venue")
		return
	}
	s.logger.Info("venue added", zap.Int64("venue_id", created.ID), zap.String("venue_name", created.Name))
	writeJSON(w, http.StatusCreated, map[string]any{"venue": created})
}

// deleteVenue removes a venue together with its concerts.
func (s *Server) deleteVenue(w http.ResponseWriter, r *http.Request) {
	venueID, err := parseVenueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Venues.DeleteVenue(r.Context(), venueID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "venue not found")
			return
		}
		s.logger.Error("delete venue failed", zap.Int64("venue_id", venueID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete venue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func parseVenueID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "venue_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid venue id %q", raw)
	}
	return id, nil
}
