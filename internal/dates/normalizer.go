// Package dates turns the date and time fragments found on venue pages into
// concrete timestamps.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/logging"
)

var (
	// day.month with an optional year, or year-month-day.
	numericPattern = regexp.MustCompile(`(?:^|\D)(\d{1,4})([./-])(\d{1,2})(?:[./-](\d{2,4}))?(?:\D|$)`)
	dayMonthWord   = regexp.MustCompile(`(\d{1,2})\.?\s+(\p{L}+)\.?(?:,?\s+(\d{4}))?`)
	monthWordDay   = regexp.MustCompile(`(\p{L}+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4}))?`)
	monthWordYear  = regexp.MustCompile(`(\p{L}+)\s+(\d{4})`)
	// clockPattern accepts "19:30" and "19.30".
	clockPattern = regexp.MustCompile(`(?:^|\D)([01]?\d|2[0-3])\s*[:.]\s*([0-5]\d)(?:\D|$)`)
	// colonClock is used on date text, where "12.25" is a date, not a time.
	colonClock = regexp.MustCompile(`(?:^|\D)([01]?\d|2[0-3]):([0-5]\d)(?:\D|$)`)
	dateJunk   = regexp.MustCompile(`[^\p{L}\p{N}\s/.,:\-]`)
)

var mondayLayouts = []string{
	"2 January 2006 15:04",
	"2 January 2006",
	"Monday, 2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

var mondayLocales = []monday.Locale{monday.LocalePlPL, monday.LocaleEnUS}

// civil is a calendar date with an optional wall clock.
type civil struct {
	year   int
	month  time.Month
	day    int
	hour   int
	minute int
	timed  bool
}

// Normalizer resolves date and time fragments against an injected clock.
type Normalizer struct {
	clock  concert.Clock
	loc    *time.Location
	hour   int
	minute int
	logger *zap.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLocation sets the venue timezone used for "today" and the results.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithDefaultTime sets the time of day applied when none is given.
func WithDefaultTime(hour, minute int) Option {
	return func(n *Normalizer) {
		n.hour, n.minute = hour, minute
	}
}

// WithLogger sets the logger used for unparseable date warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logging.OrNop(logger)
	}
}

// New builds a Normalizer. Defaults are UTC and 19:30.
func New(clock concert.Clock, opts ...Option) *Normalizer {
	n := &Normalizer{
		clock:  clock,
		loc:    time.UTC,
		hour:   19,
		minute: 30,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize parses dateText and merges timeText into it. The bool reports
// whether a real date was found; on false the result is the current time.
func (n *Normalizer) Normalize(dateText, timeText string) (time.Time, bool) {
	now := n.clock.Now().In(n.loc)
	text := strings.TrimSpace(dateJunk.ReplaceAllString(dateText, " "))

	c, ok := n.parse(text, now)
	if !ok {
		if text != "" {
			n.logger.Warn("unparseable date, using now", zap.String("date_text", dateText))
		}
		return now, false
	}
	if h, m, found := ParseClock(timeText); found {
		c.hour, c.minute, c.timed = h, m, true
	} else if !c.timed {
		if h, m, found := matchClock(colonClock, text); found {
			c.hour, c.minute, c.timed = h, m, true
		}
	}
	if !c.timed {
		c.hour, c.minute = n.hour, n.minute
	}
	return time.Date(c.year, c.month, c.day, c.hour, c.minute, 0, 0, n.loc), true
}

// ParseClock extracts a 24-hour HH:MM or HH.MM from s.
func ParseClock(s string) (hour, minute int, ok bool) {
	return matchClock(clockPattern, s)
}

func matchClock(re *regexp.Regexp, s string) (int, int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h, mm, true
}

func (n *Normalizer) parse(text string, now time.Time) (civil, bool) {
	if text == "" {
		return civil{}, false
	}
	if c, ok := numericDate(text, now); ok {
		return c, true
	}
	if c, ok := n.mondayDate(text); ok {
		return c, true
	}
	if c, ok := namedMonthDate(text, now); ok {
		return c, true
	}
	n.logger.Debug("falling back to fuzzy date parse", zap.String("date_text", text))
	return n.fuzzyDate(text)
}

// numericDate tries every numeric match in text and returns the first valid
// date, so a leading "19.30" clock does not hide the date after it.
func numericDate(text string, now time.Time) (civil, bool) {
	for off := 0; off < len(text); {
		loc := numericPattern.FindStringSubmatchIndex(text[off:])
		if loc == nil {
			break
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = text[off+loc[2*i] : off+loc[2*i+1]]
			}
		}
		if c, ok := numericMatch(m, now); ok {
			return c, true
		}
		// Resume after the first number so the separator cannot start a match
		// in the middle of it.
		off += loc[3]
	}
	return civil{}, false
}

func numericMatch(m []string, now time.Time) (civil, bool) {
	a, _ := strconv.Atoi(m[1])
	sep := m[2]
	b, _ := strconv.Atoi(m[3])

	switch {
	case len(m[1]) == 4:
		if m[4] == "" {
			return civil{}, false
		}
		d, _ := strconv.Atoi(m[4])
		return validCivil(a, time.Month(b), d)
	case m[4] != "":
		year, _ := strconv.Atoi(m[4])
		if len(m[4]) == 2 {
			year += 2000
		}
		if c, ok := validCivil(year, time.Month(b), a); ok {
			return c, true
		}
		return validCivil(year, time.Month(a), b)
	case sep == "-":
		return civil{}, false
	default:
		return rollForward(now, time.Month(b), a)
	}
}

func (n *Normalizer) mondayDate(text string) (civil, bool) {
	for _, locale := range mondayLocales {
		for _, layout := range mondayLayouts {
			t, err := monday.ParseInLocation(layout, text, n.loc, locale)
			if err != nil {
				continue
			}
			return civil{
				year: t.Year(), month: t.Month(), day: t.Day(),
				hour: t.Hour(), minute: t.Minute(), timed: strings.Contains(layout, "15:04"),
			}, true
		}
	}
	return civil{}, false
}

func namedMonthDate(text string, now time.Time) (civil, bool) {
	for _, m := range dayMonthWord.FindAllStringSubmatch(text, -1) {
		month, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		if c, ok := withOptionalYear(now, m[3], month, day); ok {
			return c, true
		}
	}
	for _, m := range monthWordDay.FindAllStringSubmatch(text, -1) {
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[2])
		if c, ok := withOptionalYear(now, m[3], month, day); ok {
			return c, true
		}
	}
	for _, m := range monthWordYear.FindAllStringSubmatch(text, -1) {
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		year, _ := strconv.Atoi(m[2])
		return validCivil(year, month, 1)
	}
	return civil{}, false
}

func (n *Normalizer) fuzzyDate(text string) (c civil, ok bool) {
	if !strings.ContainsAny(text, "0123456789") {
		return civil{}, false
	}
	defer func() {
		// dateparse has panicked on malformed input in the past.
		if r := recover(); r != nil {
			c, ok = civil{}, false
		}
	}()
	t, err := dateparse.ParseIn(text, n.loc)
	if err != nil {
		return civil{}, false
	}
	timed := t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0
	return civil{
		year: t.Year(), month: t.Month(), day: t.Day(),
		hour: t.Hour(), minute: t.Minute(), timed: timed,
	}, true
}

func withOptionalYear(now time.Time, yearText string, month time.Month, day int) (civil, bool) {
	if yearText == "" {
		return rollForward(now, month, day)
	}
	year, _ := strconv.Atoi(yearText)
	return validCivil(year, month, day)
}

// rollForward places a year-less date in the current year, or the next one
// when that calendar day has already passed. Today is not rolled.
func rollForward(now time.Time, month time.Month, day int) (civil, bool) {
	c, ok := validCivil(now.Year(), month, day)
	if !ok {
		// 29 February outside a leap year.
		return validCivil(now.Year()+1, month, day)
	}
	today := civil{year: now.Year(), month: now.Month(), day: now.Day()}
	if before(c, today) {
		c.year++
		if _, ok := validCivil(c.year, month, day); !ok {
			return civil{}, false
		}
	}
	return c, true
}

func validCivil(year int, month time.Month, day int) (civil, bool) {
	if month < time.January || month > time.December || day < 1 || year < 1900 || year > 2200 {
		return civil{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return civil{}, false
	}
	return civil{year: year, month: month, day: day}, true
}

func before(a, b civil) bool {
	if a.year != b.year {
		return a.year < b.year
	}
	if a.month != b.month {
		return a.month < b.month
	}
	return a.day < b.day
}
