// Package filharmonia scrapes the calendar of Filharmonia Narodowa in Warsaw,
// following each entry to its detail page for performers and repertoire.
package filharmonia

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/dates"
	"github.com/JakeFAU/concert-crawler/internal/extract"
	"github.com/JakeFAU/concert-crawler/internal/logging"
)

// Name is the scraper_type tag of this strategy.
const Name = "filharmonia_narodowa"

// Config tunes the strategy.
type Config struct {
	// Symphonic enables the layout fallback of the symphonic concerts page.
	Symphonic bool
	// ItemCap bounds the calendar entries processed per run.
	ItemCap int
}

// Strategy scrapes filharmonia.pl listings.
type Strategy struct {
	fetcher concert.Fetcher
	dates   *dates.Normalizer
	cfg     Config
	logger  *zap.Logger
}

// New builds a Strategy.
func New(fetcher concert.Fetcher, normalizer *dates.Normalizer, cfg Config, logger *zap.Logger) *Strategy {
	if cfg.ItemCap <= 0 {
		cfg.ItemCap = defaultItemCap
	}
	return &Strategy{
		fetcher: fetcher,
		dates:   normalizer,
		cfg:     cfg,
		logger:  logging.OrNop(logger).With(zap.String("strategy", Name)),
	}
}

// Name implements concert.Strategy.
func (s *Strategy) Name() string { return Name }

// Symphonic reports whether the symphonic page layout is enabled.
func (s *Strategy) Symphonic() bool { return s.cfg.Symphonic }

// Scrape implements concert.Strategy.
func (s *Strategy) Scrape(ctx context.Context, venue concert.Venue, sink concert.ProgressSink) ([]concert.Candidate, error) {
	sink = concert.SinkOrNop(sink)
	logger := logging.ForVenue(s.logger, venue.ID, venue.Name).With(zap.Bool("symphonic", s.cfg.Symphonic))

	sink.Update(0, 0, "Fetching "+venue.URL)
	page, err := s.fetcher.Fetch(ctx, concert.FetchRequest{URL: venue.URL, VenueID: venue.ID, AllowHeadless: true})
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", venue.URL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		logger.Warn("unparseable listing", zap.Error(err))
		return nil, nil
	}

	items := s.discover(doc)
	logger.Debug("calendar entries", zap.Int("count", len(items)))
	if len(items) > s.cfg.ItemCap {
		items = items[:s.cfg.ItemCap]
	}

	out := make([]concert.Candidate, 0, len(items))
	for i, item := range items {
		sink.Update(i+1, len(items), fmt.Sprintf("Processing concert %d of %d", i+1, len(items)))
		if cand, ok := s.safeCandidate(ctx, venue, item, logger); ok {
			out = append(out, cand)
		}
	}
	return out, nil
}

// safeCandidate isolates one entry so a markup surprise drops only that entry.
func (s *Strategy) safeCandidate(ctx context.Context, venue concert.Venue, item *goquery.Selection, logger *zap.Logger) (cand concert.Candidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("calendar entry panicked", zap.Any("panic", r))
			cand, ok = concert.Candidate{}, false
		}
	}()
	return s.candidate(ctx, venue, item, logger), true
}

func (s *Strategy) candidate(ctx context.Context, venue concert.Venue, item *goquery.Selection, logger *zap.Logger) concert.Candidate {
	l := s.parseListing(item, venue.URL)
	if l.link != "" {
		if d, ok := s.fetchDetail(ctx, venue.ID, l.link); ok {
			l = merge(l, d)
		} else {
			logger.Warn("detail page unavailable", zap.String("url", l.link))
		}
	}

	date, parsed := s.dates.Normalize(l.dateText, l.timeText)
	performerText := strings.Join(append(append([]string{}, l.performers...), l.description), "\n")

	logger.Debug("calendar entry",
		zap.String("title", l.title),
		zap.String("date_text", l.dateText),
		zap.String("room", l.room),
	)
	return concert.Candidate{
		Title:       extract.Ellipsize(l.title, maxTitle),
		Date:        date,
		DateUnknown: !parsed,
		ExternalURL: l.link,
		City:        city,
		Performers:  extractPerformers(l.performers, performerText),
		Pieces:      extractProgram(l.repertoire, l.description),
	}
}
