package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "net" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return false }

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	p := New(Config{MaxAttempts: 3})
	fetchErr := errors.New("fetch failed")
	tests := []struct {
		name    string
		err     error
		status  int
		attempt int
		want    bool
	}{
		{name: "nil error", err: nil, attempt: 1, want: false},
		{name: "server error", err: fetchErr, status: 503, attempt: 1, want: true},
		{name: "throttled", err: fetchErr, status: 429, attempt: 2, want: true},
		{name: "not found", err: fetchErr, status: 404, attempt: 1, want: false},
		{name: "attempts exhausted", err: fetchErr, status: 500, attempt: 3, want: false},
		{name: "canceled", err: fmt.Errorf("wrap: %w", context.Canceled), attempt: 1, want: false},
		{name: "network timeout", err: fmt.Errorf("get: %w", timeoutErr{timeout: true}), attempt: 1, want: true},
		{name: "network non-timeout", err: fmt.Errorf("get: %w", timeoutErr{}), attempt: 1, want: false},
		{name: "connection error", err: fetchErr, attempt: 1, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, p.ShouldRetry(tt.err, tt.status, tt.attempt))
		})
	}
}

func TestDefaultsAllowOneRetry(t *testing.T) {
	t.Parallel()

	p := New(Config{})
	require.True(t, p.ShouldRetry(errors.New("x"), 500, 1))
	require.False(t, p.ShouldRetry(errors.New("x"), 500, 2))
}

func TestBackoffIsBounded(t *testing.T) {
	t.Parallel()

	p := New(Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond})
	for attempt := 1; attempt <= 6; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, 50*time.Millisecond)
		require.LessOrEqual(t, d, 300*time.Millisecond)
	}
}
