// Package dispatcher routes work: venues to extraction strategies, and
// queued scrape requests to background workers.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/logging"
	"github.com/JakeFAU/concert-crawler/internal/metrics"
	"github.com/JakeFAU/concert-crawler/internal/worker"
)

// Dispatcher sits in front of the scrape queue. Producers enqueue through it
// and workers dequeue through it, so it can stamp and validate requests and
// observe how long they waited.
type Dispatcher struct {
	queue   worker.Queue
	clock   concert.Clock
	logger  *zap.Logger
	pending atomic.Int64
}

// New creates a Dispatcher over queue.
func New(queue worker.Queue, clock concert.Clock, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queue:  queue,
		clock:  clock,
		logger: logging.OrNop(logger).Named("dispatcher"),
	}
}

// Enqueue validates req, stamps its submission time when unset, and queues it.
func (d *Dispatcher) Enqueue(ctx context.Context, req concert.ScrapeRequest) error {
	if !req.All && req.VenueID <= 0 {
		return fmt.Errorf("venue id %d: %w", req.VenueID, ErrInvalidVenue)
	}
	if req.Submitted.IsZero() {
		req.Submitted = d.clock.Now()
	}
	d.pending.Add(1)
	if err := d.queue.Enqueue(ctx, req); err != nil {
		d.pending.Add(-1)
		return fmt.Errorf("queue enqueue: %w", err)
	}
	d.logger.Debug("scrape queued", zap.Int64("venue_id", req.VenueID), zap.Bool("all", req.All))
	return nil
}

// Dequeue hands the next request to a worker and records its queue wait.
func (d *Dispatcher) Dequeue(ctx context.Context) (concert.ScrapeRequest, error) {
	req, err := d.queue.Dequeue(ctx)
	if err != nil {
		return concert.ScrapeRequest{}, err
	}
	d.pending.Add(-1)
	scope := "venue"
	if req.All {
		scope = "all"
	}
	metrics.ObserveQueueWait(scope, d.clock.Now().Sub(req.Submitted))
	return req, nil
}

// Pending reports requests queued but not yet picked up.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Run starts workers and blocks until the context finishes and every worker
// has returned. Requests still queued at shutdown are dropped.
func (d *Dispatcher) Run(ctx context.Context, workers []*worker.Worker) {
	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	<-ctx.Done()
	wg.Wait()
	if n := d.Pending(); n > 0 {
		d.logger.Warn("dropping queued scrapes on shutdown", zap.Int("pending", n))
	}
}
