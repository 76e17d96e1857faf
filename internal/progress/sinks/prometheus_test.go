package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures run counters follow the event stream.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	ok := uuid.Must(uuid.NewV7())
	failed := uuid.Must(uuid.NewV7())
	now := time.Now()
	batch := []progress.Event{
		{RunID: ok, VenueID: 1, TS: now, Stage: progress.StageRunStart},
		{RunID: failed, VenueID: 2, TS: now, Stage: progress.StageRunStart},
		{RunID: ok, VenueID: 1, TS: now, Stage: progress.StageProgress, Current: 3, Total: 4},
		{RunID: ok, VenueID: 1, TS: now, Stage: progress.StageRunDone, Saved: 4, Dur: 15 * time.Second},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 2.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.InDelta(t, 0.75, testutil.ToFloat64(sink.progressRatio.WithLabelValues("1")), 1e-9)
	require.Equal(t, 1, testutil.CollectAndCount(sink.runDuration, "concerts_scrape_run_duration_seconds"))

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: failed, VenueID: 2, TS: now, Stage: progress.StageRunError, Note: "fetch failed"},
		{RunID: failed, VenueID: 2, TS: now, Stage: progress.StageRunError, Note: "duplicate"},
	}))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
	require.Equal(t, 2.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
}

func TestPrometheusSinkRejectsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
