package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubFlushes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    Config
		emit   int
		closed bool
		want   []int
	}{
		{
			name: "batch size reached",
			cfg:  Config{BufferSize: 8, MaxBatchEvents: 2, MaxBatchWait: time.Minute},
			emit: 2,
			want: []int{2},
		},
		{
			name: "timer fires on a small batch",
			cfg:  Config{BufferSize: 4, MaxBatchEvents: 10, MaxBatchWait: 20 * time.Millisecond},
			emit: 1,
			want: []int{1},
		},
		{
			name:   "close drains the buffer",
			cfg:    Config{BufferSize: 4, MaxBatchEvents: 100, MaxBatchWait: time.Minute},
			emit:   3,
			closed: true,
			want:   []int{3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sink := &batchSink{}
			hub := NewHub(tc.cfg, sink)
			run := uuid.Must(uuid.NewV7())
			for i := range tc.emit {
				hub.Emit(progressEvent(run, i+1, tc.emit))
			}

			if tc.closed {
				require.NoError(t, hub.Close(context.Background()))
			} else {
				defer func() { require.NoError(t, hub.Close(context.Background())) }()
			}
			require.Eventually(t, func() bool {
				return equalSizes(sink.sizes(), tc.want)
			}, time.Second, 5*time.Millisecond)
		})
	}
}

func TestHubKeepsRunOrderAcrossSinks(t *testing.T) {
	t.Parallel()

	first, second := &batchSink{}, &batchSink{}
	hub := NewHub(Config{BufferSize: 16, MaxBatchEvents: 3, MaxBatchWait: time.Minute}, first, second)

	run := uuid.Must(uuid.NewV7())
	for i := 1; i <= 5; i++ {
		hub.Emit(progressEvent(run, i, 5))
	}
	require.NoError(t, hub.Close(context.Background()))

	for _, sink := range []*batchSink{first, second} {
		var got []int
		for _, evt := range sink.events() {
			got = append(got, evt.Current)
		}
		require.Equal(t, []int{1, 2, 3, 4, 5}, got)
	}
}

func TestHubSinkErrorDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	healthy := &batchSink{}
	hub := NewHub(Config{MaxBatchEvents: 1}, &batchSink{err: errors.New("db down")}, healthy)
	hub.Emit(progressEvent(uuid.Must(uuid.NewV7()), 1, 1))
	require.NoError(t, hub.Close(context.Background()))
	require.Len(t, healthy.events(), 1)
}

func TestHubEmitNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := &Hub{events: make(chan Event), logger: zap.NewNop()}
	start := time.Now()
	hub.Emit(progressEvent(uuid.Must(uuid.NewV7()), 1, 1))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestHubDropsInvalidAndLateEvents(t *testing.T) {
	t.Parallel()

	sink := &batchSink{}
	hub := NewHub(Config{MaxBatchEvents: 1}, sink)

	hub.Emit(Event{TS: time.Now(), Stage: StageRunStart})
	hub.Emit(Event{RunID: uuid.New(), TS: time.Now(), Stage: "BOGUS"})
	hub.Emit(Event{RunID: uuid.New(), TS: time.Now(), Stage: StageProgress, Current: -1})
	require.NoError(t, hub.Close(context.Background()))
	require.Empty(t, sink.events())

	hub.Emit(progressEvent(uuid.Must(uuid.NewV7()), 1, 1))
	require.Empty(t, sink.events())
}

type batchSink struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (s *batchSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]Event(nil), batch...))
	return s.err
}

func (*batchSink) Close(context.Context) error { return nil }

func (s *batchSink) sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, len(b))
	}
	return out
}

func (s *batchSink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func equalSizes(got, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func progressEvent(run uuid.UUID, current, total int) Event {
	return Event{
		RunID:   run,
		VenueID: 1,
		TS:      time.Now(),
		Stage:   StageProgress,
		Current: current,
		Total:   total,
		Message: "Processing concert",
	}
}
