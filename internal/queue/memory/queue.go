// Package memory provides the in-process queue of background scrapes.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/concert-crawler/internal/concert"
)

// ErrFull is returned when the queue has no free slot.
var ErrFull = errors.New("queue full")

// ErrClosed is returned once the queue has been closed.
var ErrClosed = concert.ErrQueueClosed

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch      chan concert.ScrapeRequest
	closeMu sync.RWMutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		ch: make(chan concert.ScrapeRequest, capacity),
	}
}

// Enqueue adds a request without blocking. A full queue returns ErrFull.
func (q *Queue) Enqueue(ctx context.Context, req concert.ScrapeRequest) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	default:
	}
	select {
	case q.ch <- req:
		return nil
	default:
		return ErrFull
	}
}

// Dequeue pops the next request, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (concert.ScrapeRequest, error) {
	select {
	case <-ctx.Done():
		return concert.ScrapeRequest{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case req, ok := <-q.ch:
		if !ok {
			return concert.ScrapeRequest{}, ErrClosed
		}
		return req, nil
	}
}

// Len reports the number of queued requests.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
