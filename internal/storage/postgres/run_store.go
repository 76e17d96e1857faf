package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/concert-crawler/internal/store"
)

// StartRun records a running scrape. Replays of the same run id are ignored.
func (s *Store) StartRun(ctx context.Context, runID uuid.UUID, venueID int64, startedAt time.Time) error {
	query := `
		INSERT INTO scrape_runs (id, venue_id, started_at, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING;
	`
	if _, err := s.pool.Exec(ctx, query, runID, venueID, startedAt, string(store.RunRunning)); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// CompleteRun marks a run as finished with a status and optional error message.
func (s *Store) CompleteRun(
	ctx context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	saved int,
	errMsg *string,
) error {
	query := `
		UPDATE scrape_runs
		SET finished_at = $1, status = $2, saved = $3, error_message = $4
		WHERE id = $5;
	`
	if _, err := s.pool.Exec(ctx, query, finishedAt, string(status), saved, errMsg, runID); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// ListRuns retrieves the newest runs of a venue.
func (s *Store) ListRuns(ctx context.Context, venueID int64, limit int) ([]store.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, venue_id, started_at, finished_at, status, saved, error_message
		FROM scrape_runs
		WHERE venue_id = $1
		ORDER BY started_at DESC
		LIMIT $2;
	`
	rows, err := s.pool.Query(ctx, query, venueID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.ScrapeRun
	for rows.Next() {
		var (
			run    store.ScrapeRun
			status string
		)
		err := rows.Scan(
			&run.ID,
			&run.VenueID,
			&run.StartedAt,
			&run.FinishedAt,
			&status,
			&run.Saved,
			&run.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Status = store.RunStatus(status)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
