package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/progress"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

func TestVenueProgress(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/api/venues/7/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, progress.StatusNotFound, decode[progress.Snapshot](t, rec).Status)

	env.tracker.Start(7, uuid.New(), "Starting scrape for Hall")
	env.tracker.Update(7, 2, 5, "Processing concert 2 of 5")

	rec = env.do(http.MethodGet, "/api/venues/7/progress", nil)
	snap := decode[progress.Snapshot](t, rec)
	require.Equal(t, progress.StatusRunning, snap.Status)
	require.Equal(t, 2, snap.Current)
	require.Equal(t, 5, snap.Total)
	require.Nil(t, snap.Error)
}

func TestVenueRuns(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := range 3 {
		runID := uuid.New()
		require.NoError(t, env.store.StartRun(ctx, runID, 4, start.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, env.store.CompleteRun(ctx, runID, start.Add(time.Duration(i)*time.Minute+time.Second),
			store.RunCompleted, i, nil))
	}

	rec := env.do(http.MethodGet, "/api/venues/4/runs?limit=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[struct {
		Runs []store.ScrapeRun `json:"runs"`
	}](t, rec).Runs
	require.Len(t, runs, 2)
	require.Equal(t, 2, runs[0].Saved)
}

func TestVenueRunsInvalidLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodGet, "/api/venues/4/runs?limit=-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVenueRunsWithoutHistory(t *testing.T) {
	t.Parallel()

	server := NewServer(Deps{Progress: progress.NewTracker(nil)}, Options{})
	env := &testEnv{server: server}
	rec := env.do(http.MethodGet, fmt.Sprintf("/api/venues/%d/runs", 4), nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
