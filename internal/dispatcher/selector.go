package dispatcher

import (
	"strings"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/strategy/filharmonia"
	"github.com/JakeFAU/concert-crawler/internal/strategy/generic"
)

// Builder constructs the strategy for a venue.
type Builder func(venue concert.Venue) concert.Strategy

// domainRule routes venues whose URL contains domain to a dedicated strategy.
type domainRule struct {
	domain string
	build  Builder
}

// Selector picks the extraction strategy for a venue. Known domains win over
// the venue's configured tag, and unknown tags fall back to the generic
// strategy.
type Selector struct {
	domains  []domainRule
	tags     map[string]Builder
	fallback Builder
}

// SymphonicPath marks the symphonic-only listing of filharmonia.pl.
const SymphonicPath = "koncert-symfoniczny"

// NewSelector wires the built-in strategies.
func NewSelector(genericCfg generic.Config, filharmoniaCfg filharmonia.Config, deps Deps) *Selector {
	buildGeneric := func(concert.Venue) concert.Strategy {
		return generic.New(deps.Fetcher, deps.Reader, deps.Dates, genericCfg, deps.Logger)
	}
	buildFilharmonia := func(venue concert.Venue) concert.Strategy {
		cfg := filharmoniaCfg
		cfg.Symphonic = IsSymphonic(venue.URL)
		return filharmonia.New(deps.Fetcher, deps.Dates, cfg, deps.Logger)
	}
	return &Selector{
		domains: []domainRule{
			{domain: "filharmonia.pl", build: buildFilharmonia},
		},
		tags: map[string]Builder{
			generic.Name:     buildGeneric,
			"classical":      buildGeneric,
			filharmonia.Name: buildFilharmonia,
		},
		fallback: buildGeneric,
	}
}

// Select returns the strategy for venue.
func (s *Selector) Select(venue concert.Venue) concert.Strategy {
	url := strings.ToLower(venue.URL)
	for _, rule := range s.domains {
		if strings.Contains(url, rule.domain) {
			return rule.build(venue)
		}
	}
	if build, ok := s.tags[strings.ToLower(strings.TrimSpace(venue.ScraperType))]; ok {
		return build(venue)
	}
	return s.fallback(venue)
}

// IsSymphonic reports whether url is the symphonic concerts listing.
func IsSymphonic(url string) bool {
	return strings.Contains(strings.ToLower(url), SymphonicPath)
}
