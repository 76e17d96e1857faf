package scraper

import "sync"

// venueLocks serializes runs of the same venue. Entries are dropped once no
// run holds or waits on them.
type venueLocks struct {
	mu    sync.Mutex
	venue map[int64]*venueLock
}

type venueLock struct {
	sync.Mutex
	refs int
}

func newVenueLocks() *venueLocks {
	return &venueLocks{venue: make(map[int64]*venueLock)}
}

// lock blocks until no other run of venueID is in progress and returns the
// matching unlock.
func (l *venueLocks) lock(venueID int64) func() {
	l.mu.Lock()
	vl, ok := l.venue[venueID]
	if !ok {
		vl = &venueLock{}
		l.venue[venueID] = vl
	}
	vl.refs++
	l.mu.Unlock()

	vl.Lock()
	return func() {
		vl.Unlock()
		l.mu.Lock()
		vl.refs--
		if vl.refs == 0 {
			delete(l.venue, venueID)
		}
		l.mu.Unlock()
	}
}
