package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/progress"
)

// LogSink writes progress events as structured logs. Progress updates go to
// debug, run boundaries to info.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("progress")}
}

// Consume logs each event in the batch.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID.String()),
			zap.Int64("venue_id", evt.VenueID),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.Strategy != "" {
			fields = append(fields, zap.String("strategy", evt.Strategy))
		}
		switch evt.Stage {
		case progress.StageProgress:
			fields = append(fields,
				zap.Int("current", evt.Current),
				zap.Int("total", evt.Total),
				zap.String("message", evt.Message))
			s.logger.Debug("scrape progress", fields...)
		case progress.StageRunDone:
			fields = append(fields, zap.Int("saved", evt.Saved), zap.Duration("dur", evt.Dur))
			s.logger.Info("scrape run finished", fields...)
		case progress.StageRunError:
			fields = append(fields, zap.String("note", evt.Note), zap.Duration("dur", evt.Dur))
			s.logger.Warn("scrape run failed", fields...)
		default:
			s.logger.Info("scrape run started", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
