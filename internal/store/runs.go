package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// RunStatus mirrors the scrape_runs status column.
type RunStatus string

// Scrape run statuses persisted in scrape_runs.status.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
)

// ScrapeRun models one scrape of one venue.
type ScrapeRun struct {
	// ID is the UUIDv7 run identifier shared with logs and notifications.
	ID        uuid.UUID `json:"id"`
	VenueID   int64     `json:"venue_id"`
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is nil until the run completes.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     RunStatus  `json:"status"`
	Saved      int        `json:"saved"`
	// Error optionally stores the final failure reason.
	Error *string `json:"error,omitempty"`
}

// ProgressRepository persists scrape run history.
type ProgressRepository interface {
	// StartRun records a running scrape.
	StartRun(ctx context.Context, runID uuid.UUID, venueID int64, startedAt time.Time) error
	// CompleteRun marks the run finished with the provided status and error.
	CompleteRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, status RunStatus, saved int, errMsg *string) error
	// ListRuns returns the runs of one venue, newest first.
	ListRuns(ctx context.Context, venueID int64, limit int) ([]ScrapeRun, error)
}
