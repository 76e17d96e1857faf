package filharmonia

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/extract"
)

var detailClock = regexp.MustCompile(`(\d{1,2})\s*[:.](\d{2})`)

// fetchDetail loads a concert's own page. A failed fetch or parse yields
// false and the listing values stand alone.
func (s *Strategy) fetchDetail(ctx context.Context, venueID int64, link string) (listing, bool) {
	page, err := s.fetcher.Fetch(ctx, concert.FetchRequest{URL: link, VenueID: venueID})
	if err != nil {
		return listing{}, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return listing{}, false
	}
	return parseDetail(doc), true
}

func parseDetail(doc *goquery.Document) listing {
	var d listing

	for _, sel := range []string{".title-in-sidebar", ".display-1", ".title-attr"} {
		if t := extract.Text(doc.Find(sel).First()); t != "" {
			d.title = t
			break
		}
	}
	if d.title == "" {
		heading := doc.Find("h1, h2").FilterFunction(func(_ int, h *goquery.Selection) bool {
			class, _ := h.Attr("class")
			return extract.ContainsAny(class, []string{"title", "heading", "display-1"})
		}).First()
		d.title = extract.Text(heading)
	}

	d.dateText = eventDate(doc.Selection)

	dayTime := doc.Find("div.day-time").First()
	if t := extract.Text(dayTime.Find("span.time, div.time").First()); t != "" {
		d.timeText = t
	} else if m := detailClock.FindStringSubmatch(dayTime.Text()); m != nil {
		d.timeText = m[1] + ":" + m[2]
	}

	d.room = findRoom(doc.Selection)
	d.performers = lines(doc.Find("div.performers-wrapper").First(), 0)
	d.repertoire = lines(doc.Find("div.event-meta-composer").First(), minRepertoireLine)
	d.categories = extract.Text(doc.Find("div.event-meta-categories").First())
	d.description = extract.BlockText(doc.Find("div.event-meta-info").First())
	return d
}

// lines splits the block text of sel into non-empty lines longer than minRunes runes.
func lines(sel *goquery.Selection, minRunes int) []string {
	if sel.Length() == 0 {
		return nil
	}
	var out []string
	for _, line := range strings.Split(extract.BlockText(sel), "\n") {
		line = extract.Clean(line)
		if line != "" && len([]rune(line)) > minRunes {
			out = append(out, line)
		}
	}
	return out
}

// merge overlays non-empty detail values on the listing. The title is only
// replaced by a longer one.
func merge(l, d listing) listing {
	if len([]rune(d.title)) > len([]rune(l.title)) {
		l.title = d.title
	}
	if d.dateText != "" {
		l.dateText = d.dateText
	}
	if d.timeText != "" {
		l.timeText = d.timeText
	}
	if d.room != "" {
		l.room = d.room
	}
	if d.description != "" {
		l.description = d.description
	}
	if l.categories == "" {
		l.categories = d.categories
	}
	if len([]rune(l.title)) < shortTitle && l.categories != "" && !strings.Contains(l.title, l.categories) {
		l.title += " (" + l.categories + ")"
	}
	l.performers = d.performers
	l.repertoire = d.repertoire
	return l
}
