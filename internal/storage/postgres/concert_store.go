package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

const concertColumns = `id, title, date, venue_id, external_url, city, created_at, updated_at`

// WithinTx runs fn inside one transaction. Any error or panic rolls back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.ConcertTx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err := fn(&concertTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type concertTx struct {
	tx pgx.Tx
}

func (c *concertTx) FindConcertByURL(ctx context.Context, venueID int64, externalURL string) (concert.Concert, bool, error) {
	var out concert.Concert
	err := c.tx.QueryRow(ctx,
		`SELECT `+concertColumns+` FROM concert WHERE venue_id = $1 AND external_url = $2`,
		venueID, externalURL,
	).Scan(&out.ID, &out.Title, &out.Date, &out.VenueID, &out.ExternalURL, &out.City, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return concert.Concert{}, false, nil
		}
		return concert.Concert{}, false, fmt.Errorf("failed to find concert: %w", err)
	}
	return out, true, nil
}

func (c *concertTx) CreateConcert(ctx context.Context, in concert.Concert) (int64, error) {
	query := `
		INSERT INTO concert (title, date, venue_id, external_url, city, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;
	`
	var id int64
	err := c.tx.QueryRow(ctx, query,
		in.Title, in.Date, in.VenueID, in.ExternalURL, in.City, in.CreatedAt, in.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create concert: %w", err)
	}
	return id, nil
}

func (c *concertTx) UpdateConcert(ctx context.Context, in concert.Concert) error {
	query := `
		UPDATE concert
		SET title = $1, date = $2, updated_at = $3, city = COALESCE($4, city)
		WHERE id = $5;
	`
	if _, err := c.tx.Exec(ctx, query, in.Title, in.Date, in.UpdatedAt, in.City, in.ID); err != nil {
		return fmt.Errorf("failed to update concert: %w", err)
	}
	return nil
}

func (c *concertTx) ClearAssociations(ctx context.Context, concertID int64) error {
	if _, err := c.tx.Exec(ctx, `DELETE FROM concert_performer WHERE concert_id = $1`, concertID); err != nil {
		return fmt.Errorf("failed to clear performers: %w", err)
	}
	if _, err := c.tx.Exec(ctx, `DELETE FROM concert_piece WHERE concert_id = $1`, concertID); err != nil {
		return fmt.Errorf("failed to clear pieces: %w", err)
	}
	return nil
}

func (c *concertTx) FindOrCreatePerformer(ctx context.Context, name, role string) (int64, error) {
	query := `
		WITH ins AS (
			INSERT INTO performer (name, role) VALUES ($1, $2)
			ON CONFLICT (name, role) DO NOTHING
			RETURNING id
		)
		SELECT id FROM ins
		UNION ALL
		SELECT id FROM performer WHERE name = $1 AND role = $2
		LIMIT 1;
	`
	var id int64
	if err := c.tx.QueryRow(ctx, query, name, role).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert performer: %w", err)
	}
	return id, nil
}

func (c *concertTx) FindOrCreatePiece(ctx context.Context, title, composer string) (int64, error) {
	query := `
		WITH ins AS (
			INSERT INTO piece (title, composer) VALUES ($1, $2)
			ON CONFLICT (title, composer) DO NOTHING
			RETURNING id
		)
		SELECT id FROM ins
		UNION ALL
		SELECT id FROM piece WHERE title = $1 AND composer = $2
		LIMIT 1;
	`
	var id int64
	if err := c.tx.QueryRow(ctx, query, title, composer).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert piece: %w", err)
	}
	return id, nil
}

func (c *concertTx) LinkPerformer(ctx context.Context, concertID, performerID int64) error {
	query := `
		INSERT INTO concert_performer (concert_id, performer_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING;
	`
	if _, err := c.tx.Exec(ctx, query, concertID, performerID); err != nil {
		return fmt.Errorf("failed to link performer: %w", err)
	}
	return nil
}

func (c *concertTx) LinkPiece(ctx context.Context, concertID, pieceID int64) error {
	query := `
		INSERT INTO concert_piece (concert_id, piece_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING;
	`
	if _, err := c.tx.Exec(ctx, query, concertID, pieceID); err != nil {
		return fmt.Errorf("failed to link piece: %w", err)
	}
	return nil
}

// ListConcerts returns matching concerts ordered by date, with their
// performers and pieces attached.
func (s *Store) ListConcerts(ctx context.Context, filter store.ConcertFilter) ([]concert.Concert, error) {
	query := `
		SELECT c.id, c.title, c.date, c.venue_id, c.external_url, c.city, c.created_at, c.updated_at
		FROM concert c
		WHERE ($1::timestamptz IS NULL OR c.date >= $1)
		  AND ($2::timestamptz IS NULL OR c.date < $2)
		  AND ($3::bigint = 0 OR c.venue_id = $3)
		  AND ($4::text = '' OR EXISTS (
			SELECT 1 FROM concert_performer cp
			JOIN performer p ON p.id = cp.performer_id
			WHERE cp.concert_id = c.id
			  AND (p.name ILIKE '%' || $4 || '%' OR p.role ILIKE '%' || $4 || '%')))
		  AND ($5::text = '' OR EXISTS (
			SELECT 1 FROM concert_piece cq
			JOIN piece q ON q.id = cq.piece_id
			WHERE cq.concert_id = c.id
			  AND (q.title ILIKE '%' || $5 || '%' OR q.composer ILIKE '%' || $5 || '%')))
		ORDER BY c.date, c.id;
	`
	rows, err := s.pool.Query(ctx, query,
		filter.From, filter.To, filter.VenueID, filter.Performer, filter.Repertoire)
	if err != nil {
		return nil, fmt.Errorf("failed to list concerts: %w", err)
	}
	defer rows.Close()

	var (
		concerts []concert.Concert
		ids      []int64
	)
	for rows.Next() {
		var c concert.Concert
		if err := rows.Scan(&c.ID, &c.Title, &c.Date, &c.VenueID, &c.ExternalURL, &c.City, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan concert row: %w", err)
		}
		c.Performers = []concert.Performer{}
		c.Pieces = []concert.Piece{}
		concerts = append(concerts, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list concerts: %w", err)
	}
	if len(concerts) == 0 {
		return concerts, nil
	}

	index := make(map[int64]int, len(concerts))
	for i, c := range concerts {
		index[c.ID] = i
	}
	if err := s.attachPerformers(ctx, ids, concerts, index); err != nil {
		return nil, err
	}
	if err := s.attachPieces(ctx, ids, concerts, index); err != nil {
		return nil, err
	}
	return concerts, nil
}

func (s *Store) attachPerformers(ctx context.Context, ids []int64, concerts []concert.Concert, index map[int64]int) error {
	query := `
		SELECT cp.concert_id, p.id, p.name, p.role
		FROM concert_performer cp
		JOIN performer p ON p.id = cp.performer_id
		WHERE cp.concert_id = ANY($1)
		ORDER BY cp.concert_id, p.id;
	`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to list performers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			concertID int64
			p         concert.Performer
		)
		if err := rows.Scan(&concertID, &p.ID, &p.Name, &p.Role); err != nil {
			return fmt.Errorf("failed to scan performer row: %w", err)
		}
		if i, ok := index[concertID]; ok {
			concerts[i].Performers = append(concerts[i].Performers, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list performers: %w", err)
	}
	return nil
}

func (s *Store) attachPieces(ctx context.Context, ids []int64, concerts []concert.Concert, index map[int64]int) error {
	query := `
		SELECT cq.concert_id, q.id, q.title, q.composer
		FROM concert_piece cq
		JOIN piece q ON q.id = cq.piece_id
		WHERE cq.concert_id = ANY($1)
		ORDER BY cq.concert_id, q.id;
	`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to list pieces: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			concertID int64
			p         concert.Piece
		)
		if err := rows.Scan(&concertID, &p.ID, &p.Title, &p.Composer); err != nil {
			return fmt.Errorf("failed to scan piece row: %w", err)
		}
		if i, ok := index[concertID]; ok {
			concerts[i].Pieces = append(concerts[i].Pieces, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list pieces: %w", err)
	}
	return nil
}
