// Package worker runs venue scrapes in the background, one request at a time
// per worker, with at most one scrape per venue in flight.
package worker

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/logging"
	"github.com/JakeFAU/concert-crawler/internal/metrics"
)

// ErrAlreadyRunning is returned when a scrape for the same key is queued or running.
var ErrAlreadyRunning = errors.New("scrape already running")

// Scraper runs venue scrapes synchronously.
type Scraper interface {
	ScrapeVenue(ctx context.Context, venueID int64) bool
	ScrapeAllVenues(ctx context.Context) map[int64]bool
}

// Queue hands scrape requests to workers.
type Queue interface {
	Enqueue(ctx context.Context, req concert.ScrapeRequest) error
	Dequeue(ctx context.Context) (concert.ScrapeRequest, error)
}

// Worker consumes scrape requests until its context ends.
type Worker struct {
	queue   Queue
	scraper Scraper
	guard   *Guard
	logger  *zap.Logger
}

// New constructs a Worker. guard is released after every request so the
// venue can be launched again.
func New(queue Queue, scraper Scraper, guard *Guard, logger *zap.Logger) *Worker {
	return &Worker{
		queue:   queue,
		scraper: scraper,
		guard:   guard,
		logger:  logging.OrNop(logger).Named("worker"),
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		req, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, concert.ErrQueueClosed) {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.process(ctx, req)
	}
}

func (w *Worker) process(ctx context.Context, req concert.ScrapeRequest) {
	key := RequestKey(req)
	defer w.guard.Release(key)

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	// A started scrape runs to completion even when the worker is stopping.
	runCtx := context.WithoutCancel(ctx)
	if req.All {
		results := w.scraper.ScrapeAllVenues(runCtx)
		succeeded := 0
		for _, ok := range results {
			if ok {
				succeeded++
			}
		}
		w.logger.Info("background scrape of all venues finished",
			zap.Int("venues", len(results)),
			zap.Int("succeeded", succeeded),
		)
		return
	}
	ok := w.scraper.ScrapeVenue(runCtx, req.VenueID)
	w.logger.Info("background scrape finished", zap.Int64("venue_id", req.VenueID), zap.Bool("ok", ok))
}

// RequestKey is the in-flight guard key of a request.
func RequestKey(req concert.ScrapeRequest) string {
	if req.All {
		return allKey
	}
	return VenueKey(req.VenueID)
}

const allKey = "all"

// VenueKey is the in-flight guard key of a single venue.
func VenueKey(id int64) string {
	return "venue:" + strconv.FormatInt(id, 10)
}
