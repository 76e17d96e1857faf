// Package fetcher composes the probe and headless fetchers into the single
// concert.Fetcher handed to strategies.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/logging"
	"github.com/JakeFAU/concert-crawler/internal/metrics"
	"github.com/JakeFAU/concert-crawler/internal/policy/ratelimit"
)

const archiveContentType = "text/html; charset=utf-8"

// Limiter throttles fetches per host.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) (time.Duration, error)
	ReportStatus(rawURL string, status int)
}

// RetryPolicy decides whether a failed probe fetch is attempted again.
type RetryPolicy interface {
	ShouldRetry(err error, status, attempt int) bool
	Backoff(attempt int) time.Duration
}

// Options wires the optional collaborators of a Chain.
type Options struct {
	Headless      concert.Fetcher
	Retry         RetryPolicy
	Detector      concert.HeadlessDetector
	Limiter       Limiter
	Archive       concert.BlobStore
	Hasher        concert.Hasher
	Clock         concert.Clock
	ArchivePrefix string
	Logger        *zap.Logger
}

// Chain fetches with the probe fetcher, promotes client-rendered pages to the
// headless fetcher, and archives what it returns.
type Chain struct {
	probe concert.Fetcher
	opts  Options
	log   *zap.Logger
}

// NewChain builds a Chain around probe.
func NewChain(probe concert.Fetcher, opts Options) *Chain {
	return &Chain{
		probe: probe,
		opts:  opts,
		log:   logging.OrNop(opts.Logger).Named("fetcher"),
	}
}

// Fetch implements concert.Fetcher. Headless promotion failures fall back to
// the probe response; archive failures are logged and never fail the fetch.
func (c *Chain) Fetch(ctx context.Context, req concert.FetchRequest) (concert.Page, error) {
	if err := c.wait(ctx, req.URL); err != nil {
		return concert.Page{}, fmt.Errorf("%w: %w", concert.ErrFetchFailed, err)
	}

	page, err := c.fetchProbe(ctx, req)
	if err != nil {
		return concert.Page{}, err
	}

	if promoted, ok := c.maybePromote(ctx, req, page); ok {
		page = promoted
	}
	c.archive(ctx, &page)
	return page, nil
}

func (c *Chain) fetchProbe(ctx context.Context, req concert.FetchRequest) (concert.Page, error) {
	for attempt := 1; ; attempt++ {
		page, err := c.probe.Fetch(ctx, req)
		if err == nil {
			metrics.ObserveFetch(req.URL, metrics.FetchKindProbe, true, len(page.Body))
			return page, nil
		}
		metrics.ObserveFetch(req.URL, metrics.FetchKindProbe, false, 0)
		status := statusOf(err)
		c.report(req.URL, status)
		if c.opts.Retry == nil || !c.opts.Retry.ShouldRetry(err, status, attempt) {
			c.log.Warn("probe fetch failed", zap.String("url", req.URL), zap.Int("attempts", attempt), zap.Error(err))
			return concert.Page{}, err
		}
		delay := c.opts.Retry.Backoff(attempt)
		c.log.Debug("retrying probe fetch",
			zap.String("url", req.URL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return concert.Page{}, fmt.Errorf("%w: %w", concert.ErrFetchFailed, ctx.Err())
		case <-timer.C:
		}
		if err := c.wait(ctx, req.URL); err != nil {
			return concert.Page{}, fmt.Errorf("%w: %w", concert.ErrFetchFailed, err)
		}
	}
}

func (c *Chain) wait(ctx context.Context, url string) error {
	if c.opts.Limiter == nil {
		return nil
	}
	waited, err := c.opts.Limiter.Wait(ctx, url)
	if waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(ratelimit.Host(url), waited)
	}
	if err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// report feeds throttling statuses back to the limiter.
func (c *Chain) report(url string, status int) {
	if c.opts.Limiter == nil {
		return
	}
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		c.opts.Limiter.ReportStatus(url, status)
	}
}

var statusPattern = regexp.MustCompile(`status (\d{3})`)

// statusOf recovers the HTTP status from a fetcher error, or 0.
func statusOf(err error) int {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	status, _ := strconv.Atoi(m[1])
	return status
}

func (c *Chain) maybePromote(ctx context.Context, req concert.FetchRequest, probe concert.Page) (concert.Page, bool) {
	if !req.AllowHeadless || c.opts.Headless == nil || c.opts.Detector == nil {
		return probe, false
	}
	if !c.opts.Detector.ShouldPromote(probe) {
		return probe, false
	}
	metrics.ObserveHeadlessPromotion(req.URL)
	page, err := c.opts.Headless.Fetch(ctx, req)
	if err != nil {
		metrics.ObserveFetch(req.URL, metrics.FetchKindHeadless, false, 0)
		c.log.Warn("headless promotion failed", zap.String("url", req.URL), zap.Error(err))
		return probe, false
	}
	metrics.ObserveFetch(req.URL, metrics.FetchKindHeadless, true, len(page.Body))
	c.log.Debug("headless promotion applied", zap.String("url", req.URL))
	page.UsedHeadless = true
	return page, true
}

func (c *Chain) archive(ctx context.Context, page *concert.Page) {
	if c.opts.Archive == nil || c.opts.Hasher == nil || len(page.Body) == 0 {
		return
	}
	hash, err := c.opts.Hasher.Hash(page.Body)
	if err != nil {
		metrics.ObserveArchive(false)
		c.log.Warn("hash page failed", zap.String("url", page.URL), zap.Error(err))
		return
	}
	uri, err := c.opts.Archive.PutObject(ctx, c.blobPath(page.URL, hash), archiveContentType, page.Body)
	if err != nil {
		metrics.ObserveArchive(false)
		c.log.Warn("archive page failed", zap.String("url", page.URL), zap.Error(err))
		return
	}
	metrics.ObserveArchive(true)
	page.BlobURI = uri
}

// blobPath lays archived pages out as <prefix>/<host>/<day>/<hash>.html.
func (c *Chain) blobPath(url, hash string) string {
	day := time.Now().UTC()
	if c.opts.Clock != nil {
		day = c.opts.Clock.Now().UTC()
	}
	parts := []string{ratelimit.Host(url), day.Format("2006-01-02"), hash + ".html"}
	if prefix := strings.Trim(c.opts.ArchivePrefix, "/"); prefix != "" {
		parts = append([]string{prefix}, parts...)
	}
	return strings.Join(parts, "/")
}
