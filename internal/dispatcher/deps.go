package dispatcher

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/dates"
	"github.com/JakeFAU/concert-crawler/internal/strategy/generic"
)

// Deps are shared by every strategy the Selector builds.
type Deps struct {
	Fetcher concert.Fetcher
	Reader  generic.TextExtractor
	Dates   *dates.Normalizer
	Logger  *zap.Logger
}
