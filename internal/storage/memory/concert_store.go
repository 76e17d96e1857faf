package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

type performerKey struct{ name, role string }

type pieceKey struct{ title, composer string }

type concertKey struct {
	venueID int64
	url     string
}

// state is everything WithinTx snapshots.
type state struct {
	venues         map[int64]concert.Venue
	concerts       map[int64]concert.Concert
	byURL          map[concertKey]int64
	performers     map[int64]concert.Performer
	performerByKey map[performerKey]int64
	pieces         map[int64]concert.Piece
	pieceByKey     map[pieceKey]int64
	concertPerfs   map[int64]map[int64]struct{}
	concertPieces  map[int64]map[int64]struct{}
	runs           map[uuid.UUID]store.ScrapeRun
	nextVenue      int64
	nextConcert    int64
	nextPerformer  int64
	nextPiece      int64
}

func newState() *state {
	return &state{
		venues:         make(map[int64]concert.Venue),
		concerts:       make(map[int64]concert.Concert),
		byURL:          make(map[concertKey]int64),
		performers:     make(map[int64]concert.Performer),
		performerByKey: make(map[performerKey]int64),
		pieces:         make(map[int64]concert.Piece),
		pieceByKey:     make(map[pieceKey]int64),
		concertPerfs:   make(map[int64]map[int64]struct{}),
		concertPieces:  make(map[int64]map[int64]struct{}),
		runs:           make(map[uuid.UUID]store.ScrapeRun),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.venues {
		out.venues[k] = v
	}
	for k, v := range s.concerts {
		out.concerts[k] = v
	}
	for k, v := range s.byURL {
		out.byURL[k] = v
	}
	for k, v := range s.performers {
		out.performers[k] = v
	}
	for k, v := range s.performerByKey {
		out.performerByKey[k] = v
	}
	for k, v := range s.pieces {
		out.pieces[k] = v
	}
	for k, v := range s.pieceByKey {
		out.pieceByKey[k] = v
	}
	for k, set := range s.concertPerfs {
		out.concertPerfs[k] = cloneSet(set)
	}
	for k, set := range s.concertPieces {
		out.concertPieces[k] = cloneSet(set)
	}
	for k, v := range s.runs {
		out.runs[k] = v
	}
	out.nextVenue = s.nextVenue
	out.nextConcert = s.nextConcert
	out.nextPerformer = s.nextPerformer
	out.nextPiece = s.nextPiece
	return out
}

func cloneSet(in map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// ConcertStore implements the venue, concert and scrape-run repositories in
// memory. Transactions hold the lock for their whole duration and restore a
// snapshot when fn fails.
type ConcertStore struct {
	mu sync.RWMutex
	st *state
}

var (
	_ store.VenueRepository    = (*ConcertStore)(nil)
	_ store.UnitOfWork         = (*ConcertStore)(nil)
	_ store.ConcertQuery       = (*ConcertStore)(nil)
	_ store.ProgressRepository = (*ConcertStore)(nil)
)

// NewConcertStore constructs an empty ConcertStore.
func NewConcertStore() *ConcertStore {
	return &ConcertStore{st: newState()}
}

// ListVenues returns every venue ordered by id.
func (s *ConcertStore) ListVenues(_ context.Context) ([]concert.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]concert.Venue, 0, len(s.st.venues))
	for _, v := range s.st.venues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetVenue fetches a venue by id.
func (s *ConcertStore) GetVenue(_ context.Context, id int64) (concert.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.st.venues[id]
	if !ok {
		return concert.Venue{}, store.ErrNotFound
	}
	return v, nil
}

// CreateVenue assigns the next id and stores the venue.
func (s *ConcertStore) CreateVenue(_ context.Context, venue concert.Venue) (concert.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextVenue++
	venue.ID = s.st.nextVenue
	s.st.venues[venue.ID] = venue
	return venue, nil
}

// DeleteVenue removes a venue together with its concerts and runs.
func (s *ConcertStore) DeleteVenue(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.venues[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.st.venues, id)
	for cid, c := range s.st.concerts {
		if c.VenueID != id {
			continue
		}
		delete(s.st.concerts, cid)
		delete(s.st.byURL, concertKey{venueID: id, url: c.ExternalURL})
		delete(s.st.concertPerfs, cid)
		delete(s.st.concertPieces, cid)
	}
	for rid, run := range s.st.runs {
		if run.VenueID == id {
			delete(s.st.runs, rid)
		}
	}
	return nil
}

// MarkScraped stamps last_scraped.
func (s *ConcertStore) MarkScraped(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.st.venues[id]
	if !ok {
		return store.ErrNotFound
	}
	v.LastScraped = &at
	s.st.venues[id] = v
	return nil
}

// WithinTx runs fn under the write lock; an error or panic restores the
// state captured before fn ran.
func (s *ConcertStore) WithinTx(_ context.Context, fn func(tx store.ConcertTx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()
	return fn(&memTx{st: s.st})
}

// memTx operates on the live state; the owning store holds the lock.
type memTx struct {
	st *state
}

func (t *memTx) FindConcertByURL(_ context.Context, venueID int64, externalURL string) (concert.Concert, bool, error) {
	id, ok := t.st.byURL[concertKey{venueID: venueID, url: externalURL}]
	if !ok {
		return concert.Concert{}, false, nil
	}
	return t.st.concerts[id], true, nil
}

func (t *memTx) CreateConcert(_ context.Context, c concert.Concert) (int64, error) {
	key := concertKey{venueID: c.VenueID, url: c.ExternalURL}
	if _, exists := t.st.byURL[key]; exists {
		return 0, fmt.Errorf("concert %q already exists for venue %d", c.ExternalURL, c.VenueID)
	}
	if _, ok := t.st.venues[c.VenueID]; !ok {
		return 0, fmt.Errorf("venue %d: %w", c.VenueID, store.ErrNotFound)
	}
	t.st.nextConcert++
	c.ID = t.st.nextConcert
	c.Performers, c.Pieces = nil, nil
	t.st.concerts[c.ID] = c
	t.st.byURL[key] = c.ID
	return c.ID, nil
}

func (t *memTx) UpdateConcert(_ context.Context, c concert.Concert) error {
	cur, ok := t.st.concerts[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Title = c.Title
	cur.Date = c.Date
	cur.UpdatedAt = c.UpdatedAt
	if c.City != nil {
		city := *c.City
		cur.City = &city
	}
	t.st.concerts[c.ID] = cur
	return nil
}

func (t *memTx) ClearAssociations(_ context.Context, concertID int64) error {
	delete(t.st.concertPerfs, concertID)
	delete(t.st.concertPieces, concertID)
	return nil
}

func (t *memTx) FindOrCreatePerformer(_ context.Context, name, role string) (int64, error) {
	key := performerKey{name: name, role: role}
	if id, ok := t.st.performerByKey[key]; ok {
		return id, nil
	}
	t.st.nextPerformer++
	id := t.st.nextPerformer
	t.st.performers[id] = concert.Performer{ID: id, Name: name, Role: role}
	t.st.performerByKey[key] = id
	return id, nil
}

func (t *memTx) FindOrCreatePiece(_ context.Context, title, composer string) (int64, error) {
	key := pieceKey{title: title, composer: composer}
	if id, ok := t.st.pieceByKey[key]; ok {
		return id, nil
	}
	t.st.nextPiece++
	id := t.st.nextPiece
	t.st.pieces[id] = concert.Piece{ID: id, Title: title, Composer: composer}
	t.st.pieceByKey[key] = id
	return id, nil
}

func (t *memTx) LinkPerformer(_ context.Context, concertID, performerID int64) error {
	return link(t.st.concertPerfs, concertID, performerID)
}

func (t *memTx) LinkPiece(_ context.Context, concertID, pieceID int64) error {
	return link(t.st.concertPieces, concertID, pieceID)
}

func link(sets map[int64]map[int64]struct{}, concertID, otherID int64) error {
	set, ok := sets[concertID]
	if !ok {
		set = make(map[int64]struct{})
		sets[concertID] = set
	}
	set[otherID] = struct{}{}
	return nil
}

// ListConcerts filters concerts the way the Postgres store does and orders
// them by date.
func (s *ConcertStore) ListConcerts(_ context.Context, filter store.ConcertFilter) ([]concert.Concert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	performer := strings.ToLower(filter.Performer)
	repertoire := strings.ToLower(filter.Repertoire)
	out := []concert.Concert{}
	for id, c := range s.st.concerts {
		if filter.From != nil && c.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !c.Date.Before(*filter.To) {
			continue
		}
		if filter.VenueID != 0 && c.VenueID != filter.VenueID {
			continue
		}
		c.Performers = s.performersOf(id)
		c.Pieces = s.piecesOf(id)
		if performer != "" && !matchesPerformer(c.Performers, performer) {
			continue
		}
		if repertoire != "" && !matchesPiece(c.Pieces, repertoire) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *ConcertStore) performersOf(concertID int64) []concert.Performer {
	out := []concert.Performer{}
	for id := range s.st.concertPerfs[concertID] {
		out = append(out, s.st.performers[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *ConcertStore) piecesOf(concertID int64) []concert.Piece {
	out := []concert.Piece{}
	for id := range s.st.concertPieces[concertID] {
		out = append(out, s.st.pieces[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchesPerformer(performers []concert.Performer, needle string) bool {
	for _, p := range performers {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Role), needle) {
			return true
		}
	}
	return false
}

func matchesPiece(pieces []concert.Piece, needle string) bool {
	for _, p := range pieces {
		if strings.Contains(strings.ToLower(p.Title), needle) || strings.Contains(strings.ToLower(p.Composer), needle) {
			return true
		}
	}
	return false
}

// StartRun records a running scrape.
func (s *ConcertStore) StartRun(_ context.Context, runID uuid.UUID, venueID int64, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.st.runs[runID]; exists {
		return nil
	}
	s.st.runs[runID] = store.ScrapeRun{
		ID:        runID,
		VenueID:   venueID,
		StartedAt: startedAt,
		Status:    store.RunRunning,
	}
	return nil
}

// CompleteRun finalizes a run.
func (s *ConcertStore) CompleteRun(
	_ context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	saved int,
	errMsg *string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.st.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	run.FinishedAt = &finishedAt
	run.Status = status
	run.Saved = saved
	run.Error = errMsg
	s.st.runs[runID] = run
	return nil
}

// ListRuns returns the newest runs of a venue.
func (s *ConcertStore) ListRuns(_ context.Context, venueID int64, limit int) ([]store.ScrapeRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	var out []store.ScrapeRun
	for _, run := range s.st.runs {
		if run.VenueID == venueID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
