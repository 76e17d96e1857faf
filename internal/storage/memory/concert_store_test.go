package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/store"
)

func seedConcert(t *testing.T, s *ConcertStore, venueID int64, url, title string, date time.Time, performer, composer string) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	err := s.WithinTx(ctx, func(tx store.ConcertTx) error {
		var err error
		id, err = tx.CreateConcert(ctx, concert.Concert{Title: title, Date: date, VenueID: venueID, ExternalURL: url})
		if err != nil {
			return err
		}
		pid, err := tx.FindOrCreatePerformer(ctx, performer, "conductor")
		if err != nil {
			return err
		}
		if err := tx.LinkPerformer(ctx, id, pid); err != nil {
			return err
		}
		qid, err := tx.FindOrCreatePiece(ctx, "Work", composer)
		if err != nil {
			return err
		}
		return tx.LinkPiece(ctx, id, qid)
	})
	require.NoError(t, err)
	return id
}

func TestVenueLifecycle(t *testing.T) {
	t.Parallel()

	s := NewConcertStore()
	ctx := context.Background()
	v, err := s.CreateVenue(ctx, concert.Venue{Name: "Civic Hall", URL: "https://civic.example", ScraperType: "generic"})
	require.NoError(t, err)
	require.Equal(t, int64(1), v.ID)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkScraped(ctx, v.ID, at))
	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, at, *got.LastScraped)

	require.ErrorIs(t, s.MarkScraped(ctx, 99, at), store.ErrNotFound)
	_, err = s.GetVenue(ctx, 99)
	require.ErrorIs(t, err, store.ErrNotFound)

	seedConcert(t, s, v.ID, "https://civic.example/gala", "Winter Gala", at, "Jane Doe", "Beethoven")
	require.NoError(t, s.DeleteVenue(ctx, v.ID))
	concerts, err := s.ListConcerts(ctx, store.ConcertFilter{})
	require.NoError(t, err)
	require.Empty(t, concerts)
	require.ErrorIs(t, s.DeleteVenue(ctx, v.ID), store.ErrNotFound)
}

func TestWithinTxRestoresSnapshotOnError(t *testing.T) {
	t.Parallel()

	s := NewConcertStore()
	ctx := context.Background()
	v, err := s.CreateVenue(ctx, concert.Venue{Name: "Civic Hall", URL: "https://civic.example"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(tx store.ConcertTx) error {
		if _, err := tx.CreateConcert(ctx, concert.Concert{Title: "Gala", VenueID: v.ID, ExternalURL: "u"}); err != nil {
			return err
		}
		if _, err := tx.FindOrCreatePerformer(ctx, "Jane Doe", "conductor"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	concerts, err := s.ListConcerts(ctx, store.ConcertFilter{})
	require.NoError(t, err)
	require.Empty(t, concerts)
	require.Empty(t, s.st.performers)

	require.Panics(t, func() {
		_ = s.WithinTx(ctx, func(tx store.ConcertTx) error {
			_, _ = tx.CreateConcert(ctx, concert.Concert{Title: "Gala", VenueID: v.ID, ExternalURL: "u"})
			panic("strategy bug")
		})
	})
	require.Empty(t, s.st.concerts)
}

func TestAssociationsAreSets(t *testing.T) {
	t.Parallel()

	s := NewConcertStore()
	ctx := context.Background()
	v, err := s.CreateVenue(ctx, concert.Venue{Name: "Civic Hall", URL: "https://civic.example"})
	require.NoError(t, err)
	date := time.Date(2025, 12, 25, 19, 30, 0, 0, time.UTC)
	id := seedConcert(t, s, v.ID, "https://civic.example/gala", "Winter Gala", date, "Jane Doe", "Beethoven")

	err = s.WithinTx(ctx, func(tx store.ConcertTx) error {
		found, ok, err := tx.FindConcertByURL(ctx, v.ID, "https://civic.example/gala")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, id, found.ID)
		pid, err := tx.FindOrCreatePerformer(ctx, "Jane Doe", "conductor")
		require.NoError(t, err)
		require.NoError(t, tx.LinkPerformer(ctx, id, pid))
		return tx.LinkPerformer(ctx, id, pid)
	})
	require.NoError(t, err)

	concerts, err := s.ListConcerts(ctx, store.ConcertFilter{})
	require.NoError(t, err)
	require.Len(t, concerts, 1)
	require.Len(t, concerts[0].Performers, 1)
	require.Len(t, s.st.performers, 1)
}

func TestUpdateConcertKeepsCityWhenNil(t *testing.T) {
	t.Parallel()

	s := NewConcertStore()
	ctx := context.Background()
	v, err := s.CreateVenue(ctx, concert.Venue{Name: "Filharmonia", URL: "https://filharmonia.pl"})
	require.NoError(t, err)
	city := "Warsaw"
	err = s.WithinTx(ctx, func(tx store.ConcertTx) error {
		id, err := tx.CreateConcert(ctx, concert.Concert{Title: "Recital", VenueID: v.ID, ExternalURL: "u", City: &city})
		if err != nil {
			return err
		}
		return tx.UpdateConcert(ctx, concert.Concert{ID: id, Title: "Recital skrzypcowy"})
	})
	require.NoError(t, err)

	concerts, err := s.ListConcerts(ctx, store.ConcertFilter{})
	require.NoError(t, err)
	require.Equal(t, "Recital skrzypcowy", concerts[0].Title)
	require.Equal(t, "Warsaw", *concerts[0].City)
}

func TestListConcertsFilters(t *testing.T) {
	t.Parallel()

	s := NewConcertStore()
	ctx := context.Background()
	a, err := s.CreateVenue(ctx, concert.Venue{Name: "Civic Hall", URL: "https://civic.example"})
	require.NoError(t, err)
	b, err := s.CreateVenue(ctx, concert.Venue{Name: "Filharmonia", URL: "https://filharmonia.pl"})
	require.NoError(t, err)

	dec := time.Date(2025, 12, 25, 19, 30, 0, 0, time.UTC)
	nov := time.Date(2025, 11, 2, 20, 0, 0, 0, time.UTC)
	seedConcert(t, s, a.ID, "https://civic.example/gala", "Winter Gala", dec, "Jane Doe", "Beethoven")
	seedConcert(t, s, b.ID, "https://filharmonia.pl/1", "Chopin", nov, "Jan Kowalski", "Fryderyk Chopin")

	from := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		filter store.ConcertFilter
		want   []string
	}{
		{name: "all ordered by date", want: []string{"Chopin", "Winter Gala"}},
		{name: "date range", filter: store.ConcertFilter{From: &from, To: &to}, want: []string{"Winter Gala"}},
		{name: "venue", filter: store.ConcertFilter{VenueID: b.ID}, want: []string{"Chopin"}},
		{name: "performer name", filter: store.ConcertFilter{Performer: "KOWAL"}, want: []string{"Chopin"}},
		{name: "performer role", filter: store.ConcertFilter{Performer: "conduct"}, want: []string{"Chopin", "Winter Gala"}},
		{name: "repertoire composer", filter: store.ConcertFilter{Repertoire: "beethoven"}, want: []string{"Winter Gala"}},
		{name: "no match", filter: store.ConcertFilter{Repertoire: "mahler"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := s.ListConcerts(ctx, tt.filter)
			require.NoError(t, err)
			titles := []string{}
			for _, c := range got {
				titles = append(titles, c.Title)
			}
			require.Equal(t, tt.want, titles)
		})
	}
}

func TestRunHistory(t *testing.T) {
	t.Parallel()

	s := NewConcertStore()
	ctx := context.Background()
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := uuid.Must(uuid.NewV7())
	second := uuid.Must(uuid.NewV7())

	require.NoError(t, s.StartRun(ctx, first, 1, started))
	require.NoError(t, s.StartRun(ctx, second, 1, started.Add(time.Hour)))
	msg := "fetch failed"
	require.NoError(t, s.CompleteRun(ctx, first, started.Add(time.Minute), store.RunError, 0, &msg))
	require.ErrorIs(t, s.CompleteRun(ctx, uuid.Nil, started, store.RunCompleted, 0, nil), store.ErrNotFound)

	runs, err := s.ListRuns(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, second, runs[0].ID)
	require.Equal(t, store.RunRunning, runs[0].Status)
	require.Equal(t, store.RunError, runs[1].Status)
	require.Equal(t, "fetch failed", *runs[1].Error)

	runs, err = s.ListRuns(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}
