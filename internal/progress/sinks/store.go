package sinks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/progress"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

// StoreSink persists run boundaries to a store.ProgressRepository. Progress
// updates are not persisted; the Tracker already serves them.
type StoreSink struct {
	repo   store.ProgressRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo store.ProgressRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume writes start and completion rows in batch order. It respects ctx
// deadlines and returns the first repository error.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			if err := s.repo.StartRun(ctx, evt.RunID, evt.VenueID, evt.TS); err != nil {
				return fmt.Errorf("start run: %w", err)
			}
		case progress.StageRunDone:
			if err := s.repo.CompleteRun(ctx, evt.RunID, evt.TS, store.RunCompleted, evt.Saved, nil); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}
		case progress.StageRunError:
			var note *string
			if evt.Note != "" {
				n := evt.Note
				note = &n
			}
			if err := s.repo.CompleteRun(ctx, evt.RunID, evt.TS, store.RunError, 0, note); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
