package concert

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (Page, error)
}

// HeadlessDetector decides whether a probe response should be re-fetched
// with a headless browser.
type HeadlessDetector interface {
	ShouldPromote(probe Page) bool
}

// ProgressSink receives progress of a long-running strategy.
type ProgressSink interface {
	Update(current, total int, message string)
}

// Strategy extracts concert candidates from one venue's website.
// A non-nil error means the listing page could not be fetched; markup
// surprises degrade to fewer candidates instead.
type Strategy interface {
	Name() string
	Scrape(ctx context.Context, venue Venue, sink ProgressSink) ([]Candidate, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for archive paths and synthetic anchors.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces scrape run IDs.
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}

type nopSink struct{}

func (nopSink) Update(int, int, string) {}

// SinkOrNop returns sink, or a sink that discards updates when sink is nil.
func SinkOrNop(sink ProgressSink) ProgressSink {
	if sink == nil {
		return nopSink{}
	}
	return sink
}
