package dispatcher

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/strategy/generic"
)

// ErrInvalidVenue is returned when a venue lacks a name or a usable URL.
var ErrInvalidVenue = errors.New("invalid venue")

const symphonicSuffix = " - Symphonic Concerts"

// PrepareVenue normalizes operator input for a new venue. A URL without a
// scheme gets https, and the filharmonia.pl symphonic listing is named so it
// can be told apart from the main calendar.
func PrepareVenue(name, rawURL, scraperType string) (concert.Venue, error) {
	name = strings.TrimSpace(name)
	rawURL = strings.TrimSpace(rawURL)
	if name == "" || rawURL == "" {
		return concert.Venue{}, fmt.Errorf("name and url are required: %w", ErrInvalidVenue)
	}
	if !strings.HasPrefix(strings.ToLower(rawURL), "http") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return concert.Venue{}, fmt.Errorf("url %q: %w", rawURL, ErrInvalidVenue)
	}
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, "filharmonia.pl") && IsSymphonic(lower) &&
		!strings.Contains(strings.ToLower(name), "symphonic") {
		name += symphonicSuffix
	}
	scraperType = strings.ToLower(strings.TrimSpace(scraperType))
	if scraperType == "" {
		scraperType = generic.Name
	}
	return concert.Venue{Name: name, URL: rawURL, ScraperType: scraperType}, nil
}
