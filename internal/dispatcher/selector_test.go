package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/dates"
	"github.com/JakeFAU/concert-crawler/internal/strategy/filharmonia"
	"github.com/JakeFAU/concert-crawler/internal/strategy/generic"
)

type stubClock struct{}

func (stubClock) Now() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }

func TestSelectorSelect(t *testing.T) {
	t.Parallel()

	s := NewSelector(generic.Config{}, filharmonia.Config{}, Deps{Dates: dates.New(stubClock{})})

	tests := []struct {
		name      string
		venue     concert.Venue
		want      string
		symphonic bool
	}{
		{name: "domain beats tag", venue: concert.Venue{URL: "https://FILHARMONIA.pl/repertuar", ScraperType: "generic"}, want: filharmonia.Name},
		{name: "symphonic sub page", venue: concert.Venue{URL: "https://filharmonia.pl/repertuar/koncert-symfoniczny"}, want: filharmonia.Name, symphonic: true},
		{name: "tag", venue: concert.Venue{URL: "https://other.example", ScraperType: "filharmonia_narodowa"}, want: filharmonia.Name},
		{name: "classical alias", venue: concert.Venue{URL: "https://hall.example", ScraperType: "classical"}, want: generic.Name},
		{name: "unknown tag", venue: concert.Venue{URL: "https://hall.example", ScraperType: "opera_house"}, want: generic.Name},
		{name: "empty tag", venue: concert.Venue{URL: "https://hall.example"}, want: generic.Name},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := s.Select(tc.venue)
			require.Equal(t, tc.want, got.Name())
			if f, ok := got.(*filharmonia.Strategy); ok {
				require.Equal(t, tc.symphonic, f.Symphonic())
			}
		})
	}
}
