package store

import (
	"context"
	"time"

	"github.com/JakeFAU/concert-crawler/internal/concert"
)

// VenueRepository manages the configured venues.
type VenueRepository interface {
	ListVenues(ctx context.Context) ([]concert.Venue, error)
	// GetVenue returns ErrNotFound for an unknown id.
	GetVenue(ctx context.Context, id int64) (concert.Venue, error)
	CreateVenue(ctx context.Context, venue concert.Venue) (concert.Venue, error)
	// DeleteVenue removes the venue and its concerts.
	DeleteVenue(ctx context.Context, id int64) error
	MarkScraped(ctx context.Context, id int64, at time.Time) error
}
