// Package concert defines the domain types shared across the scraping pipeline.
package concert

import (
	"errors"
	"net/http"
	"time"
)

// ErrFetchFailed wraps every failure to obtain HTML for a URL, including
// timeouts and non-2xx responses.
var ErrFetchFailed = errors.New("fetch failed")

// ErrQueueClosed is returned by a scrape queue after shutdown.
var ErrQueueClosed = errors.New("queue closed")

// Venue is a concert hall whose listing page is scraped.
type Venue struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	ScraperType string     `json:"scraper_type"`
	LastScraped *time.Time `json:"last_scraped,omitempty"`
}

// Performer is identified by its (name, role) pair.
type Performer struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Piece is identified by its (title, composer) pair.
type Piece struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title"`
	Composer string `json:"composer"`
}

// Concert is a persisted event at a venue.
type Concert struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Date        time.Time   `json:"date"`
	VenueID     int64       `json:"venue_id"`
	ExternalURL string      `json:"external_url"`
	City        *string     `json:"city,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Performers  []Performer `json:"performers"`
	Pieces      []Piece     `json:"pieces"`
}

// Candidate is one concert extracted from markup, before persistence.
type Candidate struct {
	Title       string
	Date        time.Time
	// DateUnknown is set when no date could be parsed and Date is only the
	// scrape time.
	DateUnknown bool
	ExternalURL string
	City        string
	Performers  []Performer
	Pieces      []Piece
}

// FetchRequest describes a single page fetch.
type FetchRequest struct {
	URL           string
	VenueID       int64
	Headers       http.Header
	AllowHeadless bool
}

// Page is the fetched response body plus metadata.
type Page struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
	// BlobURI is set when the page was archived.
	BlobURI string
}

// ScrapeRequest is a background scrape queued for the worker pool.
type ScrapeRequest struct {
	VenueID   int64
	All       bool
	Submitted time.Time
}
