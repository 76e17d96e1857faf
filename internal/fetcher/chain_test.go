package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/hash/sha256"
	"github.com/JakeFAU/concert-crawler/internal/storage/memory"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	page  concert.Page
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, req concert.FetchRequest) (concert.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return concert.Page{}, f.err
	}
	page := f.page
	page.URL = req.URL
	return page, nil
}

type detectorFunc func(concert.Page) bool

func (d detectorFunc) ShouldPromote(p concert.Page) bool { return d(p) }

type fakeLimiter struct {
	waits    int
	statuses []int
	err      error
}

func (l *fakeLimiter) Wait(context.Context, string) (time.Duration, error) {
	l.waits++
	return 0, l.err
}

func (l *fakeLimiter) ReportStatus(_ string, status int) {
	l.statuses = append(l.statuses, status)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestChainPromotesWhenDetectorAgrees(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{page: concert.Page{StatusCode: 200, Body: []byte(`<div id="__next"></div>`)}}
	headless := &fakeFetcher{page: concert.Page{StatusCode: 200, Body: []byte(`<article>rendered</article>`)}}
	chain := NewChain(probe, Options{
		Headless: headless,
		Detector: detectorFunc(func(concert.Page) bool { return true }),
	})

	page, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://venue.example/", AllowHeadless: true})
	require.NoError(t, err)
	require.True(t, page.UsedHeadless)
	require.Contains(t, string(page.Body), "rendered")
	require.Equal(t, 1, headless.calls)
}

func TestChainSkipsPromotionWhenNotAllowed(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{page: concert.Page{StatusCode: 200, Body: []byte("probe")}}
	headless := &fakeFetcher{}
	chain := NewChain(probe, Options{
		Headless: headless,
		Detector: detectorFunc(func(concert.Page) bool { return true }),
	})

	page, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://venue.example/"})
	require.NoError(t, err)
	require.False(t, page.UsedHeadless)
	require.Zero(t, headless.calls)
}

func TestChainFallsBackToProbeWhenHeadlessFails(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{page: concert.Page{StatusCode: 200, Body: []byte("probe")}}
	headless := &fakeFetcher{err: fmt.Errorf("%w: chrome missing", concert.ErrFetchFailed)}
	chain := NewChain(probe, Options{
		Headless: headless,
		Detector: detectorFunc(func(concert.Page) bool { return true }),
	})

	page, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://venue.example/", AllowHeadless: true})
	require.NoError(t, err)
	require.Equal(t, "probe", string(page.Body))
}

func TestChainProbeFailureReportsThrottling(t *testing.T) {
	t.Parallel()

	limiter := &fakeLimiter{}
	probe := &fakeFetcher{err: fmt.Errorf("%w: https://venue.example/: status 429", concert.ErrFetchFailed)}
	chain := NewChain(probe, Options{Limiter: limiter})

	_, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://venue.example/"})
	require.ErrorIs(t, err, concert.ErrFetchFailed)
	require.Equal(t, 1, limiter.waits)
	require.Equal(t, []int{429}, limiter.statuses)
}

func TestChainLimiterErrorIsFetchFailure(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{}
	chain := NewChain(probe, Options{Limiter: &fakeLimiter{err: context.Canceled}})

	_, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://venue.example/"})
	require.ErrorIs(t, err, concert.ErrFetchFailed)
	require.True(t, errors.Is(err, context.Canceled))
	require.Zero(t, probe.calls)
}

func TestChainArchivesPages(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	hasher := sha256.New()
	body := []byte("<html>listing</html>")
	chain := NewChain(&fakeFetcher{page: concert.Page{StatusCode: 200, Body: body}}, Options{
		Archive:       blobs,
		Hasher:        hasher,
		Clock:         fixedClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		ArchivePrefix: "/pages/",
	})

	page, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://filharmonia.pl/repertuar"})
	require.NoError(t, err)

	sum, err := hasher.Hash(body)
	require.NoError(t, err)
	path := "pages/filharmonia.pl/2025-06-01/" + sum + ".html"
	require.Equal(t, "memory://"+path, page.BlobURI)
	stored, ok := blobs.Object(path)
	require.True(t, ok)
	require.Equal(t, body, stored)
}

// flakyFetcher fails with the queued errors before succeeding.
type flakyFetcher struct {
	errs  []error
	calls int
}

func (f *flakyFetcher) Fetch(_ context.Context, req concert.FetchRequest) (concert.Page, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return concert.Page{}, err
	}
	return concert.Page{URL: req.URL, StatusCode: 200, Body: []byte("ok")}, nil
}

type countingRetry struct {
	maxAttempts int
	asked       []int
}

func (r *countingRetry) ShouldRetry(_ error, status, attempt int) bool {
	r.asked = append(r.asked, status)
	return attempt < r.maxAttempts && (status == 0 || status >= 500)
}

func (r *countingRetry) Backoff(int) time.Duration { return time.Millisecond }

func TestChainRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	probe := &flakyFetcher{errs: []error{
		fmt.Errorf("%w: https://venue.example/: status 503", concert.ErrFetchFailed),
	}}
	limiter := &fakeLimiter{}
	retry := &countingRetry{maxAttempts: 3}
	chain := NewChain(probe, Options{Limiter: limiter, Retry: retry})

	page, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://venue.example/"})
	require.NoError(t, err)
	require.Equal(t, "ok", string(page.Body))
	require.Equal(t, 2, probe.calls)
	require.Equal(t, 2, limiter.waits)
	require.Equal(t, []int{503}, limiter.statuses)
	require.Equal(t, []int{503}, retry.asked)
}

func TestChainDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	probe := &flakyFetcher{errs: []error{
		fmt.Errorf("%w: https://venue.example/: status 404", concert.ErrFetchFailed),
	}}
	chain := NewChain(probe, Options{Retry: &countingRetry{maxAttempts: 3}})

	_, err := chain.Fetch(context.Background(), concert.FetchRequest{URL: "https://venue.example/"})
	require.ErrorIs(t, err, concert.ErrFetchFailed)
	require.Equal(t, 1, probe.calls)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, 429, statusOf(errors.New("fetch failed: https://x/: status 429")))
	require.Zero(t, statusOf(errors.New("fetch failed: dial tcp: refused")))
}
