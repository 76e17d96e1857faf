package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/worker"
)

func TestScrapeVenue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	good := env.addVenue(t, "Hall", "https://hall.example")
	bad := env.addVenue(t, "Broken", "https://broken.example")
	env.scraper.ok[good.ID] = true

	rec := env.do(http.MethodPost, fmt.Sprintf("/api/venues/%d/scrape", good.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", decode[scrapeResponse](t, rec).Status)

	rec = env.do(http.MethodPost, fmt.Sprintf("/api/venues/%d/scrape", bad.ID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "error", decode[scrapeResponse](t, rec).Status)

	rec = env.do(http.MethodPost, "/api/venues/abc/scrape", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeAllVenues(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	env.scraper.ok[1] = true
	env.scraper.ok[2] = false

	rec := env.do(http.MethodPost, "/api/venues/scrape-all", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[scrapeResponse](t, rec)
	require.Equal(t, "success", body.Status)
	require.Equal(t, "Successfully scraped 1 out of 2 venues", body.Message)
	require.Equal(t, map[int64]bool{1: true, 2: false}, body.Results)
}

func TestScrapeAllVenuesNoneSucceeded(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	env.scraper.ok[3] = false

	rec := env.do(http.MethodPost, "/api/venues/scrape-all", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "warning", decode[scrapeResponse](t, rec).Status)
}

func TestScrapeVenueAsync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	venue := env.addVenue(t, "Hall", "https://hall.example")

	rec := env.do(http.MethodPost, fmt.Sprintf("/api/venues/%d/scrape/async", venue.ID), nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []int64{venue.ID}, env.scraper.launched)

	env.scraper.launchErr = fmt.Errorf("venue:%d: %w", venue.ID, worker.ErrAlreadyRunning)
	rec = env.do(http.MethodPost, fmt.Sprintf("/api/venues/%d/scrape/async", venue.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "running", decode[scrapeResponse](t, rec).Status)

	rec = env.do(http.MethodPost, "/api/venues/999/scrape/async", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScrapeAllVenuesAsync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodPost, "/api/venues/scrape-all/async", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, env.scraper.all)

	env.scraper.launchErr = context.DeadlineExceeded
	rec = env.do(http.MethodPost, "/api/venues/scrape-all/async", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVenueCRUD(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodPost, "/api/venues", []byte(
		`{"name":"Filharmonia Narodowa","url":"filharmonia.pl/repertuar/koncert-symfoniczny"}`,
	))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[struct {
		Venue concert.Venue `json:"venue"`
	}](t, rec).Venue
	require.Equal(t, "Filharmonia Narodowa - Symphonic Concerts", created.Name)
	require.Equal(t, "https://filharmonia.pl/repertuar/koncert-symfoniczny", created.URL)
	require.Equal(t, "generic", created.ScraperType)

	rec = env.do(http.MethodGet, "/api/venues", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[struct {
		Venues []concert.Venue `json:"venues"`
	}](t, rec).Venues
	require.Len(t, listed, 1)
	require.Equal(t, created.ID, listed[0].ID)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/api/venues/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/api/venues/%d", created.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateVenueRejectsBadInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodPost, "/api/venues", []byte(`{invalid`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/venues", []byte(`{"name":"","url":"hall.example"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
