// Package resolver turns scraped candidates into persisted concerts. Each
// candidate is upserted in its own transaction, keyed by venue and external
// URL, with performers and pieces deduplicated by their natural keys.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/extract"
	"github.com/JakeFAU/concert-crawler/internal/logging"
	"github.com/JakeFAU/concert-crawler/internal/metrics"
	"github.com/JakeFAU/concert-crawler/internal/store"
	"github.com/JakeFAU/concert-crawler/internal/telemetry"
)

// Column limits, in runes.
const (
	maxTitle         = 255
	maxPerformerName = 255
	maxPerformerRole = 100
	maxPieceField    = 255
	anchorDigestLen  = 16
	anchorPrefix     = "#c-"
	dateKeyLayout    = "2006-01-02T15:04"
	undatedKey       = "undated"
	untitledConcert  = "Concert"
	defaultStrategy  = "generic"
)

// Digester derives short stable digests for synthetic anchors.
type Digester interface {
	Digest(n int, parts ...string) string
}

// Resolver saves candidates through a UnitOfWork.
type Resolver struct {
	uow    store.UnitOfWork
	digest Digester
	clock  concert.Clock
	logger *zap.Logger
}

// New constructs a Resolver.
func New(uow store.UnitOfWork, digest Digester, clock concert.Clock, logger *zap.Logger) *Resolver {
	return &Resolver{
		uow:    uow,
		digest: digest,
		clock:  clock,
		logger: logging.OrNop(logger).Named("resolver"),
	}
}

// record is a candidate after truncation and deduplication.
type record struct {
	concert    concert.Concert
	performers []concert.Performer
	pieces     []concert.Piece
	// undated records keep the date already stored for the concert.
	undated bool
}

// SaveConcert upserts cand for venue and reports whether it was committed.
// Failures are logged and never returned.
func (r *Resolver) SaveConcert(ctx context.Context, venue concert.Venue, cand concert.Candidate) (ok bool) {
	rec := r.prepare(venue, cand)
	logger := logging.ForVenue(r.logger, venue.ID, venue.Name).With(zap.String("title", rec.concert.Title))

	ctx, span := telemetry.Tracer().Start(ctx, "resolver.SaveConcert", trace.WithAttributes(
		attribute.Int64("venue.id", venue.ID),
		attribute.String("concert.external_url", rec.concert.ExternalURL),
	))
	defer span.End()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic while saving concert", zap.Any("panic", p))
			span.SetStatus(codes.Error, "panic")
			ok = false
		}
		metrics.ObserveSave(strategyLabel(venue), ok)
	}()

	err := r.uow.WithinTx(ctx, func(tx store.ConcertTx) error {
		return r.upsert(ctx, tx, rec)
	})
	if err != nil {
		logger.Error("failed to save concert", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false
	}
	logger.Debug("concert saved", zap.String("external_url", rec.concert.ExternalURL))
	return true
}

func (r *Resolver) upsert(ctx context.Context, tx store.ConcertTx, rec record) error {
	c := rec.concert
	existing, found, err := tx.FindConcertByURL(ctx, c.VenueID, c.ExternalURL)
	if err != nil {
		return err
	}
	if found {
		c.ID = existing.ID
		if rec.undated {
			c.Date = existing.Date
		}
		if err := tx.UpdateConcert(ctx, c); err != nil {
			return err
		}
		if err := tx.ClearAssociations(ctx, c.ID); err != nil {
			return err
		}
	} else {
		c.CreatedAt = c.UpdatedAt
		if c.ID, err = tx.CreateConcert(ctx, c); err != nil {
			return err
		}
	}

	for _, p := range rec.performers {
		id, err := tx.FindOrCreatePerformer(ctx, p.Name, p.Role)
		if err != nil {
			return err
		}
		if err := tx.LinkPerformer(ctx, c.ID, id); err != nil {
			return fmt.Errorf("performer %q: %w", p.Name, err)
		}
	}
	for _, p := range rec.pieces {
		id, err := tx.FindOrCreatePiece(ctx, p.Title, p.Composer)
		if err != nil {
			return err
		}
		if err := tx.LinkPiece(ctx, c.ID, id); err != nil {
			return fmt.Errorf("piece %q: %w", p.Title, err)
		}
	}
	return nil
}

func (r *Resolver) prepare(venue concert.Venue, cand concert.Candidate) record {
	now := r.clock.Now().UTC()
	title := extract.Truncate(extract.Clean(cand.Title), maxTitle)
	if title == "" {
		title = untitledConcert
	}
	date := cand.Date
	undated := cand.DateUnknown || date.IsZero()
	if date.IsZero() {
		r.logger.Warn("candidate without date, using now",
			zap.Int64("venue_id", venue.ID), zap.String("title", title))
		date = now
	}

	c := concert.Concert{
		Title:       title,
		Date:        date,
		VenueID:     venue.ID,
		ExternalURL: r.externalURL(venue, cand.ExternalURL, title, date, undated),
		UpdatedAt:   now,
	}
	if city := extract.Clean(cand.City); city != "" {
		c.City = &city
	}
	return record{
		concert:    c,
		performers: dedupePerformers(cand.Performers),
		pieces:     dedupePieces(cand.Pieces),
		undated:    undated,
	}
}

// externalURL returns link, or a synthetic anchor under the venue URL when
// the candidate has no link of its own. The anchor depends only on the
// folded title and the minute of the date, so re-scrapes converge. Undated
// candidates hash the title alone.
func (r *Resolver) externalURL(venue concert.Venue, link, title string, date time.Time, undated bool) string {
	link = strings.TrimSpace(link)
	base := strings.TrimSpace(venue.URL)
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	if link != "" && !sameURL(link, base) {
		return link
	}
	dateKey := undatedKey
	if !undated {
		dateKey = date.Format(dateKeyLayout)
	}
	return base + anchorPrefix + r.digest.Digest(anchorDigestLen, extract.FoldKey(title), dateKey)
}

func sameURL(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}

func dedupePerformers(in []concert.Performer) []concert.Performer {
	seen := make(map[concert.Performer]struct{}, len(in))
	out := make([]concert.Performer, 0, len(in))
	for _, p := range in {
		p = concert.Performer{
			Name: extract.Truncate(extract.Clean(p.Name), maxPerformerName),
			Role: extract.Truncate(extract.Clean(p.Role), maxPerformerRole),
		}
		if p.Name == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func dedupePieces(in []concert.Piece) []concert.Piece {
	seen := make(map[concert.Piece]struct{}, len(in))
	out := make([]concert.Piece, 0, len(in))
	for _, p := range in {
		p = concert.Piece{
			Title:    extract.Truncate(extract.Clean(p.Title), maxPieceField),
			Composer: extract.Truncate(extract.Clean(p.Composer), maxPieceField),
		}
		if p.Title == "" && p.Composer == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func strategyLabel(venue concert.Venue) string {
	if venue.ScraperType == "" {
		return defaultStrategy
	}
	return venue.ScraperType
}
