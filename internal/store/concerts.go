package store

import (
	"context"
	"time"

	"github.com/JakeFAU/concert-crawler/internal/concert"
)

// ConcertTx is the set of writes available inside one concert's transaction.
type ConcertTx interface {
	// FindConcertByURL looks up a concert by its (venue, external_url) key.
	// The bool is false when none exists.
	FindConcertByURL(ctx context.Context, venueID int64, externalURL string) (concert.Concert, bool, error)
	CreateConcert(ctx context.Context, c concert.Concert) (int64, error)
	// UpdateConcert rewrites title, date and updated_at, and city when non-nil.
	UpdateConcert(ctx context.Context, c concert.Concert) error
	// ClearAssociations drops every performer and piece link of a concert.
	ClearAssociations(ctx context.Context, concertID int64) error
	FindOrCreatePerformer(ctx context.Context, name, role string) (int64, error)
	FindOrCreatePiece(ctx context.Context, title, composer string) (int64, error)
	// LinkPerformer and LinkPiece are no-ops for existing links.
	LinkPerformer(ctx context.Context, concertID, performerID int64) error
	LinkPiece(ctx context.Context, concertID, pieceID int64) error
}

// UnitOfWork runs fn in a transaction, committing when it returns nil and
// rolling back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx ConcertTx) error) error
}

// ConcertFilter narrows ListConcerts. Zero values disable a filter.
type ConcertFilter struct {
	// From is inclusive, To exclusive.
	From    *time.Time
	To      *time.Time
	VenueID int64
	// Performer matches performer name or role, case-insensitively.
	Performer string
	// Repertoire matches piece title or composer, case-insensitively.
	Repertoire string
}

// ConcertQuery reads concerts with their performers and pieces.
type ConcertQuery interface {
	// ListConcerts returns matching concerts ordered by date.
	ListConcerts(ctx context.Context, filter ConcertFilter) ([]concert.Concert, error)
}
