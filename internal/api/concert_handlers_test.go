package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

func seedConcert(t *testing.T, env *testEnv, venueID int64, title string, date time.Time, performer, composer string) {
	t.Helper()
	err := env.store.WithinTx(context.Background(), func(tx store.ConcertTx) error {
		ctx := context.Background()
		id, err := tx.CreateConcert(ctx, concert.Concert{
			Title:       title,
			Date:        date,
			VenueID:     venueID,
			ExternalURL: fmt.Sprintf("https://hall.example/%s", title),
		})
		if err != nil {
			return err
		}
		performerID, err := tx.FindOrCreatePerformer(ctx, performer, "Conductor")
		if err != nil {
			return err
		}
		if err := tx.LinkPerformer(ctx, id, performerID); err != nil {
			return err
		}
		pieceID, err := tx.FindOrCreatePiece(ctx, "Symphony No. 9", composer)
		if err != nil {
			return err
		}
		return tx.LinkPiece(ctx, id, pieceID)
	})
	require.NoError(t, err)
}

func listTitles(t *testing.T, env *testEnv, query string) []string {
	t.Helper()
	rec := env.do(http.MethodGet, "/api/concerts"+query, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	concerts := decode[struct {
		Concerts []concert.Concert `json:"concerts"`
	}](t, rec).Concerts
	titles := make([]string, 0, len(concerts))
	for _, c := range concerts {
		titles = append(titles, c.Title)
	}
	return titles
}

func TestListConcertsFilters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	hall := env.addVenue(t, "Hall", "https://hall.example")
	other := env.addVenue(t, "Other", "https://other.example")
	seedConcert(t, env, hall.ID, "Winter Gala", time.Date(2025, 12, 20, 19, 30, 0, 0, time.UTC), "Jan Kowalski", "Beethoven")
	seedConcert(t, env, hall.ID, "Spring Night", time.Date(2026, 3, 15, 19, 30, 0, 0, time.UTC), "Anna Nowak", "Dvořák")
	seedConcert(t, env, other.ID, "Summer Serenade", time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC), "Jan Kowalski", "Mozart")

	require.Equal(t, []string{"Winter Gala", "Spring Night", "Summer Serenade"}, listTitles(t, env, ""))
	require.Equal(t, []string{"Winter Gala"}, listTitles(t, env, "?date_to=2025-12-20"))
	require.Equal(t, []string{"Spring Night", "Summer Serenade"}, listTitles(t, env, "?date_from=2026-01-01"))
	require.Equal(t, []string{"Summer Serenade"}, listTitles(t, env, fmt.Sprintf("?venue_id=%d", other.ID)))
	require.Equal(t, []string{"Winter Gala", "Summer Serenade"}, listTitles(t, env, "?performer=kowalski"))
	require.Equal(t, []string{"Winter Gala", "Spring Night", "Summer Serenade"}, listTitles(t, env, "?performer=conductor"))
	require.Equal(t, []string{"Spring Night"}, listTitles(t, env, "?repertoire=dvo"))
	require.Empty(t, listTitles(t, env, "?repertoire=brahms"))
}

func TestListConcertsRejectsBadFilters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Options{})
	for _, query := range []string{"?date_from=20.12.2025", "?date_to=tomorrow", "?venue_id=x"} {
		rec := env.do(http.MethodGet, "/api/concerts"+query, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}
