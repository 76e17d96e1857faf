package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/logging"
)

// Enqueuer accepts background scrape requests.
type Enqueuer interface {
	Enqueue(ctx context.Context, req concert.ScrapeRequest) error
}

// Pool is the entry point for both synchronous and background scrapes.
// Concurrent synchronous calls for one venue share a single run, and a
// background launch is refused while the same venue is queued or running.
type Pool struct {
	enqueuer Enqueuer
	scraper  Scraper
	guard    *Guard
	clock    concert.Clock
	group    singleflight.Group
	logger   *zap.Logger
}

// NewPool constructs a Pool.
func NewPool(enqueuer Enqueuer, scraper Scraper, guard *Guard, clock concert.Clock, logger *zap.Logger) *Pool {
	return &Pool{
		enqueuer: enqueuer,
		scraper:  scraper,
		guard:    guard,
		clock:    clock,
		logger:   logging.OrNop(logger).Named("pool"),
	}
}

// Launch queues a background scrape of one venue and returns immediately.
func (p *Pool) Launch(ctx context.Context, venueID int64) error {
	return p.launch(ctx, concert.ScrapeRequest{VenueID: venueID, Submitted: p.clock.Now()})
}

// LaunchAll queues a background scrape of every venue.
func (p *Pool) LaunchAll(ctx context.Context) error {
	return p.launch(ctx, concert.ScrapeRequest{All: true, Submitted: p.clock.Now()})
}

// Running reports whether a background scrape of venueID is queued or running.
func (p *Pool) Running(venueID int64) bool {
	return p.guard.Running(VenueKey(venueID))
}

func (p *Pool) launch(ctx context.Context, req concert.ScrapeRequest) error {
	key := RequestKey(req)
	if !p.guard.Acquire(key) {
		return fmt.Errorf("%s: %w", key, ErrAlreadyRunning)
	}
	if err := p.enqueuer.Enqueue(ctx, req); err != nil {
		p.guard.Release(key)
		return fmt.Errorf("enqueue %s: %w", key, err)
	}
	p.logger.Debug("scrape queued", zap.String("key", key))
	return nil
}

// ScrapeVenue runs a scrape now. The caller's cancellation does not stop a
// scrape that has started.
func (p *Pool) ScrapeVenue(ctx context.Context, venueID int64) bool {
	v, _, shared := p.group.Do(VenueKey(venueID), func() (any, error) {
		return p.scraper.ScrapeVenue(context.WithoutCancel(ctx), venueID), nil
	})
	if shared {
		p.logger.Debug("joined running scrape", zap.Int64("venue_id", venueID))
	}
	ok, _ := v.(bool)
	return ok
}

// ScrapeAllVenues runs a scrape of every venue now.
func (p *Pool) ScrapeAllVenues(ctx context.Context) map[int64]bool {
	v, _, _ := p.group.Do(allKey, func() (any, error) {
		return p.scraper.ScrapeAllVenues(context.WithoutCancel(ctx)), nil
	})
	results, _ := v.(map[int64]bool)
	if results == nil {
		results = map[int64]bool{}
	}
	return results
}
