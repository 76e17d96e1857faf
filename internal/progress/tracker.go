package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/concert-crawler/internal/concert"
)

// Status is the externally visible state of a venue's latest scrape.
type Status string

// Tracker statuses.
const (
	StatusNotFound  Status = "not_found"
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Snapshot is the latest progress of one venue.
type Snapshot struct {
	Status    Status    `json:"status"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Message   string    `json:"message"`
	Error     *string   `json:"error"`
	RunID     string    `json:"run_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Tracker keeps the latest Snapshot per venue in memory. It is a
// best-effort side channel: nothing is persisted and entries are replaced by
// the next run of the same venue.
type Tracker struct {
	mu      sync.RWMutex
	entries map[int64]Snapshot
	clock   concert.Clock
}

// NewTracker constructs an empty Tracker.
func NewTracker(clock concert.Clock) *Tracker {
	return &Tracker{entries: make(map[int64]Snapshot), clock: clock}
}

// Get returns the snapshot for venueID, or a not_found snapshot.
func (t *Tracker) Get(venueID int64) Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap, ok := t.entries[venueID]
	if !ok {
		return Snapshot{Status: StatusNotFound}
	}
	return snap
}

// Start resets the venue's entry for a new run.
func (t *Tracker) Start(venueID int64, runID uuid.UUID, message string) {
	t.set(venueID, Snapshot{Status: StatusStarting, Message: message, RunID: runID.String()})
}

// Update records strategy progress. A finished entry is left untouched so a
// late update cannot resurrect it.
func (t *Tracker) Update(venueID int64, current, total int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.entries[venueID]
	if snap.Status == StatusCompleted || snap.Status == StatusError {
		return
	}
	snap.Status = StatusRunning
	snap.Current = current
	snap.Total = total
	snap.Message = message
	snap.UpdatedAt = t.clock.Now()
	t.entries[venueID] = snap
}

// Complete marks the run finished.
func (t *Tracker) Complete(venueID int64, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.entries[venueID]
	snap.Status = StatusCompleted
	if snap.Total > 0 {
		snap.Current = snap.Total
	}
	snap.Message = message
	snap.UpdatedAt = t.clock.Now()
	t.entries[venueID] = snap
}

// Fail marks the run failed with errMsg.
func (t *Tracker) Fail(venueID int64, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.entries[venueID]
	snap.Status = StatusError
	snap.Error = &errMsg
	snap.Message = errMsg
	snap.UpdatedAt = t.clock.Now()
	t.entries[venueID] = snap
}

func (t *Tracker) set(venueID int64, snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap.UpdatedAt = t.clock.Now()
	t.entries[venueID] = snap
}
