package filharmonia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/dates"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// siteFetcher serves bodies by URL and fails for anything else.
type siteFetcher struct {
	pages map[string]string
	reqs  []concert.FetchRequest
}

func (f *siteFetcher) Fetch(_ context.Context, req concert.FetchRequest) (concert.Page, error) {
	f.reqs = append(f.reqs, req)
	body, ok := f.pages[req.URL]
	if !ok {
		return concert.Page{}, fmt.Errorf("%w: %s: status 404", concert.ErrFetchFailed, req.URL)
	}
	return concert.Page{URL: req.URL, StatusCode: 200, Body: []byte(body)}, nil
}

const listingURL = "https://filharmonia.pl/repertuar"

const listingPage = `<html><body>
<article class="item item-calendar">
  <div class="event-date"><div class="inner">30.10</div></div>
  <div class="day-time"><div class="day">czwartek</div><div class="time">19:30</div></div>
  <div>Sala Koncertowa</div>
  <div class="event-title">Koncert symfoniczny</div>
  <div class="event-meta-categories">Orkiestra</div>
  <div class="event-meta-info">Chopin – Koncert fortepianowy e-moll</div>
  <a class="event-link" href="/repertuar/koncert-1">Szczegóły</a>
</article>
<article class="item item-calendar">
  <div class="event-date"><div class="inner">15.03</div></div>
  <div class="event-title">Recital</div>
  <div class="event-meta-info">Anna Nowak na skrzypcach. W programie: sonaty Brahmsa.</div>
</article>
</body></html>`

const detailPage = `<html><body>
<h1 class="title-in-sidebar">Koncert symfoniczny: Chopin i Szymanowski</h1>
<div class="event-date">31.10</div>
<div class="day-time">piątek / <span class="time">20:00</span></div>
<div class="performers-wrapper"><p>Jan Kowalski – dyrygent</p><p>Maria Wiśniewska</p><p>fortepian</p></div>
<div class="event-meta-composer"><p>Fryderyk Chopin – Koncert fortepianowy e-moll op. 11</p><p>Karol Szymanowski – Symfonia nr 4</p></div>
</body></html>`

var june2025 = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newStrategy(f concert.Fetcher, cfg Config) *Strategy {
	return New(f, dates.New(fixedClock{now: june2025}), cfg, nil)
}

func TestScrapeMergesDetailPage(t *testing.T) {
	t.Parallel()

	f := &siteFetcher{pages: map[string]string{
		listingURL: listingPage,
		"https://filharmonia.pl/repertuar/koncert-1": detailPage,
	}}
	got, err := newStrategy(f, Config{}).Scrape(context.Background(), concert.Venue{ID: 7, URL: listingURL}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	require.Equal(t, "Koncert symfoniczny: Chopin i Szymanowski", first.Title)
	require.Equal(t, time.Date(2025, time.October, 31, 20, 0, 0, 0, time.UTC), first.Date)
	require.Equal(t, "https://filharmonia.pl/repertuar/koncert-1", first.ExternalURL)
	require.Equal(t, "Warsaw", first.City)
	require.Equal(t, []concert.Performer{
		{Name: "Jan Kowalski", Role: "conductor"},
		{Name: "Maria Wiśniewska", Role: "piano"},
	}, first.Performers)
	require.Equal(t, []concert.Piece{
		{Title: "Koncert fortepianowy e-moll op. 11", Composer: "Chopin"},
		{Title: "Symfonia nr 4", Composer: "Szymanowski"},
	}, first.Pieces)

	second := got[1]
	require.Equal(t, "Recital", second.Title)
	require.Equal(t, time.Date(2026, time.March, 15, 19, 30, 0, 0, time.UTC), second.Date)
	require.Empty(t, second.ExternalURL)
	require.Equal(t, []concert.Performer{{Name: "Anna Nowak", Role: "violin"}}, second.Performers)
	require.Equal(t, []concert.Piece{{Title: "sonaty Brahmsa", Composer: "W programie"}}, second.Pieces)

	require.Len(t, f.reqs, 2)
	require.True(t, f.reqs[0].AllowHeadless)
	require.False(t, f.reqs[1].AllowHeadless)
}

func TestScrapeKeepsListingWhenDetailFails(t *testing.T) {
	t.Parallel()

	f := &siteFetcher{pages: map[string]string{listingURL: listingPage}}
	got, err := newStrategy(f, Config{}).Scrape(context.Background(), concert.Venue{URL: listingURL}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "Koncert symfoniczny (Orkiestra)", got[0].Title)
	require.Equal(t, time.Date(2025, time.October, 30, 19, 30, 0, 0, time.UTC), got[0].Date)
	require.Equal(t, []concert.Piece{{Title: "Koncert fortepianowy e-moll", Composer: "Chopin"}}, got[0].Pieces)
	require.Equal(t, []concert.Performer{{Name: "Orkiestra Filharmonii Narodowej", Role: "orchestra"}}, got[0].Performers)
}

func TestScrapeListingFetchFailure(t *testing.T) {
	t.Parallel()

	got, err := newStrategy(&siteFetcher{}, Config{}).Scrape(context.Background(), concert.Venue{URL: listingURL}, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, concert.ErrFetchFailed))
	require.Empty(t, got)
}

func TestScrapeSymphonicLayout(t *testing.T) {
	t.Parallel()

	page := `<html><body><div class="calendar-main">
<div class="row"><div class="event-title">Koncert symfoniczny w listopadzie</div><span>12.11</span></div>
</div></body></html>`
	url := "https://filharmonia.pl/repertuar/koncert-symfoniczny"

	got, err := newStrategy(&siteFetcher{pages: map[string]string{url: page}}, Config{Symphonic: true}).
		Scrape(context.Background(), concert.Venue{URL: url}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Koncert symfoniczny w listopadzie", got[0].Title)
	require.Equal(t, time.Date(2025, time.November, 12, 19, 30, 0, 0, time.UTC), got[0].Date)

	got, err = newStrategy(&siteFetcher{pages: map[string]string{url: page}}, Config{}).
		Scrape(context.Background(), concert.Venue{URL: url}, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestScrapeCapsEntriesAndTitles(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Bardzo długi tytuł ", 10)
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 40; i++ {
		fmt.Fprintf(&b, `<article class="item-calendar"><div class="event-title">%s</div></article>`, long)
	}
	b.WriteString("</body></html>")

	got, err := newStrategy(&siteFetcher{pages: map[string]string{listingURL: b.String()}}, Config{}).
		Scrape(context.Background(), concert.Venue{URL: listingURL}, nil)
	require.NoError(t, err)
	require.Len(t, got, 30)
	require.Len(t, []rune(got[0].Title), 100)
	require.True(t, strings.HasSuffix(got[0].Title, "..."))
}

func TestExtractPerformers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		text  string
		want  []concert.Performer
	}{
		{
			name: "empty text falls back to the orchestra",
			want: []concert.Performer{{Name: "Orkiestra Filharmonii Narodowej", Role: "orchestra"}},
		},
		{
			name:  "role before name",
			lines: []string{"dyrygent: Jan Kowalski", "sopran – Ewa Nowak"},
			want: []concert.Performer{
				{Name: "Jan Kowalski", Role: "conductor"},
				{Name: "Ewa Nowak", Role: "soprano"},
			},
		},
		{
			name: "name then instrument",
			text: "Piotr Zieliński fortepian",
			want: []concert.Performer{{Name: "Piotr Zieliński", Role: "piano"}},
		},
		{
			name: "camel case duo",
			text: "Koncert zagra FudalaRot Duo.",
			want: []concert.Performer{{Name: "FudalaRot Duo", Role: "ensemble"}},
		},
		{
			name: "known ensemble",
			text: "Gra Sinfonia Varsovia",
			want: []concert.Performer{{Name: "Sinfonia Varsovia", Role: "ensemble"}},
		},
		{
			name: "capitalized pairs skip venue nouns",
			text: "Sala Kameralna gości Tomasz Lis",
			want: []concert.Performer{{Name: "Tomasz Lis", Role: "performer"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, extractPerformers(tc.lines, tc.text))
		})
	}
}

func TestExtractProgram(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		repertoire []string
		text       string
		want       []concert.Piece
	}{
		{
			name: "empty",
			want: []concert.Piece{{Title: "Repertuar do potwierdzenia", Composer: "W programie"}},
		},
		{
			name: "composer separator title",
			text: "Wieczór z muzyką. Beethoven: Symfonia nr 5, Mozart",
			want: []concert.Piece{
				{Title: "Utwór", Composer: "Mozart"},
				{Title: "Symfonia nr 5", Composer: "Beethoven"},
			},
		},
		{
			name: "form with genitive composer",
			text: "Wieczór: sonaty Brahmsa i mazurki Chopina",
			want: []concert.Piece{
				{Title: "Sonaty", Composer: "Brahms"},
				{Title: "Mazurki", Composer: "Chopin"},
			},
		},
		{
			name: "polish spelling maps to canonical composer",
			text: "Czajkowski – Dziadek do orzechów",
			want: []concert.Piece{{Title: "Dziadek do orzechów", Composer: "Tchaikovsky"}},
		},
		{
			name: "first sentence as description",
			text: "Wyjątkowy wieczór z muzyką kameralną. Bilety w kasie.",
			want: []concert.Piece{{Title: "Wyjątkowy wieczór z muzyką kameralną", Composer: "W programie"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, extractProgram(tc.repertoire, tc.text))
		})
	}
}

func TestTranslateRole(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"Dyrygent":    "conductor",
		"skrzypcach":  "violin",
		"wiolonczelę": "cello",
		"recytator":   "narrator",
	} {
		got, ok := translateRole(in)
		require.True(t, ok, in)
		require.Equal(t, want, got)
	}
	_, ok := translateRole("scenie")
	require.False(t, ok)
}

func TestParseDetailPrefersInnerDate(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>
<div class="event-date"><span class="weekday">piątek</span><div class="inner">31.10</div></div>
</body></html>`))
	require.NoError(t, err)
	require.Equal(t, "31.10", parseDetail(doc).dateText)

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(`<div class="event-date">31.10</div>`))
	require.NoError(t, err)
	require.Equal(t, "31.10", parseDetail(doc).dateText)
}
