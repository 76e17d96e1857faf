// Package scraper runs venue scrapes end to end: strategy selection,
// extraction, persistence, progress reporting and notification.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/logging"
	"github.com/JakeFAU/concert-crawler/internal/metrics"
	"github.com/JakeFAU/concert-crawler/internal/progress"
	"github.com/JakeFAU/concert-crawler/internal/store"
	"github.com/JakeFAU/concert-crawler/internal/telemetry"
)

// ErrVenueNotFound is logged when a scrape names an unknown venue.
var ErrVenueNotFound = errors.New("venue not found")

// DefaultTopic is the notification topic for finished venue scrapes.
const DefaultTopic = "venue.scraped"

// Selector picks the strategy for a venue.
type Selector interface {
	Select(venue concert.Venue) concert.Strategy
}

// Saver persists one candidate and reports whether it was committed.
type Saver interface {
	SaveConcert(ctx context.Context, venue concert.Venue, cand concert.Candidate) bool
}

// Notification is published after every venue scrape.
type Notification struct {
	VenueID    int64     `json:"venue_id"`
	VenueName  string    `json:"venue_name"`
	RunID      string    `json:"run_id"`
	Strategy   string    `json:"strategy"`
	Saved      int       `json:"saved"`
	Candidates int       `json:"candidates"`
	Success    bool      `json:"success"`
	FinishedAt time.Time `json:"finished_at"`
}

// Options wires the optional collaborators of a Service.
type Options struct {
	Tracker   *progress.Tracker
	Emitter   progress.Emitter
	Publisher concert.Publisher
	Topic     string
	IDs       concert.IDGenerator
	Clock     concert.Clock
	Logger    *zap.Logger
}

// Service implements ScrapeVenue and ScrapeAllVenues.
type Service struct {
	venues   store.VenueRepository
	selector Selector
	saver    Saver
	opts     Options
	logger   *zap.Logger
	locks    *venueLocks
}

// New constructs a Service. Tracker, IDs and Clock are required.
func New(venues store.VenueRepository, selector Selector, saver Saver, opts Options) *Service {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	return &Service{
		venues:   venues,
		selector: selector,
		saver:    saver,
		opts:     opts,
		logger:   logging.OrNop(opts.Logger).Named("scraper"),
		locks:    newVenueLocks(),
	}
}

// outcome is the result of one venue run.
type outcome struct {
	strategy   string
	candidates int
	saved      int
}

// ScrapeVenue scrapes one venue and reports whether at least one concert was
// saved. An unknown venue returns false without touching the network.
func (s *Service) ScrapeVenue(ctx context.Context, venueID int64) bool {
	venue, err := s.venues.GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("venue %d: %w", venueID, ErrVenueNotFound)
		}
		s.logger.Error("cannot scrape venue", zap.Int64("venue_id", venueID), zap.Error(err))
		return false
	}
	return s.scrape(ctx, venue)
}

// ScrapeAllVenues scrapes every venue in turn. A failure or panic in one
// venue never affects the others, and every venue gets an entry.
func (s *Service) ScrapeAllVenues(ctx context.Context) map[int64]bool {
	results := make(map[int64]bool)
	venues, err := s.venues.ListVenues(ctx)
	if err != nil {
		s.logger.Error("failed to list venues", zap.Error(err))
		return results
	}
	for _, venue := range venues {
		s.logger.Info("scraping venue", zap.Int64("venue_id", venue.ID), zap.String("venue", venue.Name))
		results[venue.ID] = s.scrape(ctx, venue)
	}
	return results
}

// scrape runs one venue. Runs of the same venue from any caller, including
// background workers and ScrapeAllVenues, never overlap.
func (s *Service) scrape(ctx context.Context, venue concert.Venue) bool {
	unlock := s.locks.lock(venue.ID)
	defer unlock()

	runID := s.newRunID()
	logger := logging.ForVenue(s.logger, venue.ID, venue.Name).With(zap.String("run_id", runID.String()))

	ctx, span := telemetry.Tracer().Start(ctx, "scraper.ScrapeVenue", trace.WithAttributes(
		attribute.Int64("venue.id", venue.ID),
		attribute.String("venue.url", venue.URL),
		attribute.String("run.id", runID.String()),
	))
	defer span.End()

	reporter := progress.NewReporter(s.opts.Tracker, s.opts.Emitter, s.opts.Clock, runID, venue.ID)
	reporter.Begin(venue.Name)

	out, err := s.run(ctx, venue, reporter, logger)
	if out.strategy == "" {
		out.strategy = "unknown"
	}
	ok := err == nil && out.saved > 0
	span.SetAttributes(
		attribute.String("strategy", out.strategy),
		attribute.Int("concerts.saved", out.saved),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		reporter.Fail(err)
	} else {
		reporter.Complete(out.saved)
	}
	metrics.ObserveScrape(out.strategy, ok)

	if out.saved > 0 {
		if markErr := s.venues.MarkScraped(ctx, venue.ID, s.opts.Clock.Now().UTC()); markErr != nil {
			logger.Error("failed to update last_scraped", zap.Error(markErr))
		}
	}
	logger.Info("venue scrape finished",
		zap.String("strategy", out.strategy),
		zap.Int("candidates", out.candidates),
		zap.Int("saved", out.saved),
		zap.Bool("ok", ok),
	)
	s.notify(ctx, venue, runID, out, ok, logger)
	return ok
}

// run selects and runs the strategy, then saves the candidates in document
// order. Panics become errors.
func (s *Service) run(ctx context.Context, venue concert.Venue, reporter *progress.Reporter, logger *zap.Logger) (out outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic during venue scrape", zap.Any("panic", p), zap.Stack("stack"))
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	strategy := s.selector.Select(venue)
	out.strategy = strategy.Name()
	reporter.SetStrategy(out.strategy)

	candidates, err := runStrategy(ctx, strategy, venue, reporter)
	if err != nil {
		return out, err
	}

	out.candidates = len(candidates)
	total := len(candidates)
	for i, cand := range candidates {
		reporter.Update(i+1, total, fmt.Sprintf("Saving concert %d/%d", i+1, total))
		if s.saver.SaveConcert(ctx, venue, cand) {
			out.saved++
		}
	}
	return out, nil
}

func runStrategy(ctx context.Context, strategy concert.Strategy, venue concert.Venue, sink concert.ProgressSink) ([]concert.Candidate, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "strategy."+strategy.Name())
	defer span.End()
	candidates, err := strategy.Scrape(ctx, venue, sink)
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return candidates, err
}

func (s *Service) notify(ctx context.Context, venue concert.Venue, runID uuid.UUID, out outcome, ok bool, logger *zap.Logger) {
	if s.opts.Publisher == nil {
		return
	}
	msg := Notification{
		VenueID:    venue.ID,
		VenueName:  venue.Name,
		RunID:      runID.String(),
		Strategy:   out.strategy,
		Saved:      out.saved,
		Candidates: out.candidates,
		Success:    ok,
		FinishedAt: s.opts.Clock.Now().UTC(),
	}
	if _, err := s.opts.Publisher.Publish(ctx, s.opts.Topic, msg); err != nil {
		metrics.ObserveNotificationFailure()
		logger.Warn("failed to publish scrape notification", zap.Error(err))
	}
}

func (s *Service) newRunID() uuid.UUID {
	if s.opts.IDs != nil {
		if id, err := s.opts.IDs.NewRawID(); err == nil {
			return id
		}
	}
	return uuid.New()
}
