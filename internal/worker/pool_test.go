package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolLaunchRejectsDuplicates(t *testing.T) {
	t.Parallel()

	queue := newChanQueue()
	pool := NewPool(queue, &fakeScraper{}, NewGuard(), fakeClock{now: time.Unix(5, 0)}, nil)

	require.NoError(t, pool.Launch(context.Background(), 1))
	err := pool.Launch(context.Background(), 1)
	require.True(t, errors.Is(err, ErrAlreadyRunning))
	require.NoError(t, pool.Launch(context.Background(), 2))
	require.True(t, pool.Running(1))

	require.NoError(t, pool.LaunchAll(context.Background()))
	require.True(t, errors.Is(pool.LaunchAll(context.Background()), ErrAlreadyRunning))

	req := <-queue.ch
	require.Equal(t, int64(1), req.VenueID)
	require.Equal(t, time.Unix(5, 0), req.Submitted)
}

func TestPoolLaunchReleasesOnEnqueueError(t *testing.T) {
	t.Parallel()

	queue := newChanQueue()
	queue.err = errors.New("queue full")
	pool := NewPool(queue, &fakeScraper{}, NewGuard(), fakeClock{}, nil)

	err := pool.Launch(context.Background(), 1)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrAlreadyRunning))
	require.False(t, pool.Running(1))
}

func TestPoolScrapeVenueSharesConcurrentRuns(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{result: true, release: make(chan struct{})}
	pool := NewPool(newChanQueue(), scraper, NewGuard(), fakeClock{}, nil)

	var wg sync.WaitGroup
	results := make([]bool, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = pool.ScrapeVenue(context.Background(), 9)
		}(i)
	}
	// Give the callers time to join the first run before it finishes.
	time.Sleep(50 * time.Millisecond)
	close(scraper.release)
	wg.Wait()

	require.Equal(t, []bool{true, true, true}, results)
	require.Equal(t, []int64{9}, scraper.venueCalls())
}

func TestPoolScrapeIgnoresCallerCancel(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{result: true}
	pool := NewPool(newChanQueue(), scraper, NewGuard(), fakeClock{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, pool.ScrapeVenue(ctx, 4))
	require.Equal(t, map[int64]bool{1: true, 2: false}, pool.ScrapeAllVenues(ctx))
}
