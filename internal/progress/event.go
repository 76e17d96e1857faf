package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart Stage = "RUN_START"
	StageProgress Stage = "RUN_PROGRESS"
	StageRunDone  Stage = "RUN_DONE"
	StageRunError Stage = "RUN_ERROR"
)

// Event captures one milestone of a venue scrape run.
type Event struct {
	// RunID identifies the scrape run (UUIDv7).
	RunID   uuid.UUID
	VenueID int64
	// Strategy names the extraction strategy, once selected.
	Strategy string
	// TS is the UTC timestamp recorded by the emitter.
	TS    time.Time
	Stage Stage
	// Current and Total report strategy progress for StageProgress.
	Current int
	Total   int
	Message string
	// Saved is the number of persisted concerts for StageRunDone.
	Saved int
	// Dur is the run duration on terminal stages.
	Dur time.Duration
	// Note carries the failure reason for StageRunError.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageProgress:
		if e.Current < 0 || e.Total < 0 {
			return errors.New("progress counters must be >= 0")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Stage == StageRunDone || e.Stage == StageRunError
}
