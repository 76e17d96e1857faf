package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimiterWaitDelaysSecondRequest(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 10, DefaultBurst: 1})
	ctx := context.Background()

	_, err := l.Wait(ctx, "https://filharmonia.pl/repertuar")
	require.NoError(t, err)

	waited, err := l.Wait(ctx, "https://filharmonia.pl/koncert/1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, waited, 50*time.Millisecond)
}

func TestLimiterHostsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 1, DefaultBurst: 1})
	ctx := context.Background()

	_, err := l.Wait(ctx, "https://a.example/")
	require.NoError(t, err)
	waited, err := l.Wait(ctx, "https://b.example/")
	require.NoError(t, err)
	require.Less(t, waited, 100*time.Millisecond)
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.01, DefaultBurst: 1})
	_, err := l.Wait(context.Background(), "https://slow.example/")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Wait(ctx, "https://slow.example/")
	require.Error(t, err)
}

func TestReportStatusBacksOff(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 2, DefaultBurst: 1})
	url := "https://busy.example/calendar"

	l.ReportStatus(url, http.StatusOK)
	require.Equal(t, rate.Limit(2), l.Rate(url))

	l.ReportStatus(url, http.StatusTooManyRequests)
	require.Equal(t, rate.Limit(1), l.Rate(url))

	for i := 0; i < 10; i++ {
		l.ReportStatus(url, http.StatusServiceUnavailable)
	}
	require.Equal(t, minRate, l.Rate(url))
}

func TestHost(t *testing.T) {
	t.Parallel()

	require.Equal(t, "filharmonia.pl", Host("https://filharmonia.pl/repertuar"))
	require.Equal(t, "unknown", Host("::not a url"))
	require.Equal(t, "unknown", Host(""))
}
