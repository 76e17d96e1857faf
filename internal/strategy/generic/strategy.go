// Package generic implements the heuristic strategy used for venues without
// a dedicated scraper. It finds repeated concert-like blocks in the listing
// markup and falls back to scanning the readable page text for dates.
package generic

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
const Name = "generic"

// TextExtractor returns the readable text of an HTML page.
type TextExtractor interface {
	Text(html []byte, pageURL string) (string, error)
}

// Config tunes the strategy.
type Config struct {
	// BlockCap bounds the blocks examined per page, applied before filtering.
	BlockCap int
}

// Strategy scrapes arbitrary concert listings.
type Strategy struct {
	fetcher concert.Fetcher
	reader  TextExtractor
	dates   *dates.Normalizer
	cfg     Config
	logger  *zap.Logger
}

// New builds a Strategy. reader may be nil, which disables the text fallback.
func New(fetcher concert.Fetcher, reader TextExtractor, normalizer *dates.Normalizer, cfg Config, logger *zap.Logger) *Strategy {
	if cfg.BlockCap <= 0 {
		cfg.BlockCap = defaultBlockCap
	}
	return &Strategy{
		fetcher: fetcher,
		reader:  reader,
		dates:   normalizer,
		cfg:     cfg,
		logger:  logging.OrNop(logger).With(zap.String("strategy", Name)),
	}
}

// Name implements concert.Strategy.
func (s *Strategy) Name() string { return Name }

// Scrape implements concert.Strategy.
func (s *Strategy) Scrape(ctx context.Context, venue concert.Venue, sink concert.ProgressSink) ([]concert.Candidate, error) {
	sink = concert.SinkOrNop(sink)
	logger := logging.ForVenue(s.logger, venue.ID, venue.Name)

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

	blocks := Discover(doc)
	if len(blocks) > s.cfg.BlockCap {
		blocks = blocks[:s.cfg.BlockCap]
	}
	logger.Debug("candidate blocks", zap.Int("count", len(blocks)))

	candidates := s.fromBlocks(blocks, venue.URL, sink, logger)
	if len(candidates) == 0 {
		sink.Update(0, 0, "No concert blocks, scanning page text")
		candidates = s.backup(page, venue.URL)
	}
	sink.Update(len(candidates), len(candidates), fmt.Sprintf("Extracted %d concerts", len(candidates)))
	return candidates, nil
}

func (s *Strategy) fromBlocks(blocks []*goquery.Selection, baseURL string, sink concert.ProgressSink, logger *zap.Logger) []concert.Candidate {
	var (
		out      []concert.Candidate
		accepted []string
	)
	for i, block := range blocks {
		sink.Update(i+1, len(blocks), fmt.Sprintf("Processing block %d of %d", i+1, len(blocks)))

		text := extract.BlockText(block)
		if len([]rune(text)) < minBlockChars {
			continue
		}
		if extract.ContainsAny(strings.ToLower(text), navigationKeywords) {
			continue
		}
		flat := extract.Clean(text)
		if overlaps(accepted, flat) {
			continue
		}

		cand, ok := s.safeCandidate(block, text, baseURL, logger)
		if !ok {
			continue
		}
		accepted = append(accepted, flat)
		out = append(out, cand)
	}
	return out
}

// safeCandidate isolates one block so a markup surprise drops only that block.
func (s *Strategy) safeCandidate(block *goquery.Selection, text, baseURL string, logger *zap.Logger) (cand concert.Candidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("block extraction panicked", zap.Any("panic", r))
			cand, ok = concert.Candidate{}, false
		}
	}()
	return s.candidateFromBlock(block, text, baseURL)
}

// overlaps reports whether text repeats, or is repeated by, an accepted block.
func overlaps(accepted []string, text string) bool {
	for _, prev := range accepted {
		if strings.Contains(prev, text) || strings.Contains(text, prev) {
			return true
		}
	}
	return false
}
