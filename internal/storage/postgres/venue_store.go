package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

const venueColumns = `id, name, url, scraper_type, last_scraped`

// ListVenues returns every venue ordered by id.
func (s *Store) ListVenues(ctx context.Context) ([]concert.Venue, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+venueColumns+` FROM venue ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	var venues []concert.Venue
	for rows.Next() {
		var v concert.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.URL, &v.ScraperType, &v.LastScraped); err != nil {
			return nil, fmt.Errorf("failed to scan venue row: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	return venues, nil
}

// GetVenue retrieves a single venue by id.
func (s *Store) GetVenue(ctx context.Context, id int64) (concert.Venue, error) {
	var v concert.Venue
	err := s.pool.QueryRow(ctx, `SELECT `+venueColumns+` FROM venue WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.URL, &v.ScraperType, &v.LastScraped)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return concert.Venue{}, store.ErrNotFound
		}
		return concert.Venue{}, fmt.Errorf("failed to get venue: %w", err)
	}
	return v, nil
}

// CreateVenue inserts a venue and returns it with its assigned id.
func (s *Store) CreateVenue(ctx context.Context, venue concert.Venue) (concert.Venue, error) {
	query := `
		INSERT INTO venue (name, url, scraper_type)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	if err := s.pool.QueryRow(ctx, query, venue.Name, venue.URL, venue.ScraperType).Scan(&venue.ID); err != nil {
		return concert.Venue{}, fmt.Errorf("failed to create venue: %w", err)
	}
	return venue, nil
}

// DeleteVenue removes a venue; concerts and runs cascade.
func (s *Store) DeleteVenue(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM venue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkScraped stamps last_scraped.
func (s *Store) MarkScraped(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE venue SET last_scraped = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark venue scraped: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
