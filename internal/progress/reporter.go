package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/concert-crawler/internal/concert"
)

// Reporter reports one venue run to the Tracker and the event Hub. It
// implements concert.ProgressSink so strategies can drive it directly.
type Reporter struct {
	tracker  *Tracker
	emitter  Emitter
	clock    concert.Clock
	runID    uuid.UUID
	venueID  int64
	strategy string
	started  time.Time
}

var _ concert.ProgressSink = (*Reporter)(nil)

// NewReporter binds a reporter to one run. A nil emitter discards events.
func NewReporter(tracker *Tracker, emitter Emitter, clock concert.Clock, runID uuid.UUID, venueID int64) *Reporter {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Reporter{
		tracker: tracker,
		emitter: emitter,
		clock:   clock,
		runID:   runID,
		venueID: venueID,
	}
}

// RunID returns the run identifier.
func (r *Reporter) RunID() uuid.UUID { return r.runID }

// Begin marks the run as starting.
func (r *Reporter) Begin(venueName string) {
	r.started = r.clock.Now()
	msg := fmt.Sprintf("Starting scrape for %s", venueName)
	r.tracker.Start(r.venueID, r.runID, msg)
	r.emit(Event{Stage: StageRunStart, Message: msg})
}

// SetStrategy records which strategy runs the venue.
func (r *Reporter) SetStrategy(name string) {
	r.strategy = name
}

// Update implements concert.ProgressSink.
func (r *Reporter) Update(current, total int, message string) {
	r.tracker.Update(r.venueID, current, total, message)
	r.emit(Event{Stage: StageProgress, Current: current, Total: total, Message: message})
}

// Complete marks the run finished with saved concerts.
func (r *Reporter) Complete(saved int) {
	msg := fmt.Sprintf("Saved %d concerts", saved)
	r.tracker.Complete(r.venueID, msg)
	r.emit(Event{Stage: StageRunDone, Saved: saved, Message: msg, Dur: r.elapsed()})
}

// Fail marks the run failed.
func (r *Reporter) Fail(err error) {
	msg := "scrape failed"
	if err != nil {
		msg = err.Error()
	}
	r.tracker.Fail(r.venueID, msg)
	r.emit(Event{Stage: StageRunError, Note: msg, Dur: r.elapsed()})
}

func (r *Reporter) elapsed() time.Duration {
	if r.started.IsZero() {
		return 0
	}
	if d := r.clock.Now().Sub(r.started); d > 0 {
		return d
	}
	return 0
}

func (r *Reporter) emit(evt Event) {
	evt.RunID = r.runID
	evt.VenueID = r.venueID
	evt.Strategy = r.strategy
	evt.TS = r.clock.Now().UTC()
	r.emitter.Emit(evt)
}

// Nop is a ProgressSink that discards updates.
type Nop struct{}

// Update implements concert.ProgressSink.
func (Nop) Update(int, int, string) {}

// Update is one recorded progress call.
type Update struct {
	Current int
	Total   int
	Message string
}

// Recorder is a ProgressSink that keeps every update, for tests.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
}

// Update implements concert.ProgressSink.
func (r *Recorder) Update(current, total int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, Update{Current: current, Total: total, Message: message})
}

// Updates returns a copy of the recorded updates.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}
