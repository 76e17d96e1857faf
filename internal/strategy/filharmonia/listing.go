package filharmonia

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/concert-crawler/internal/extract"
)

var shortDate = regexp.MustCompile(`\d{1,2}\.\d{1,2}`)

// listing holds the fields read from one calendar entry, or from a detail page.
type listing struct {
	title       string
	dateText    string
	timeText    string
	room        string
	categories  string
	description string
	link        string
	performers  []string
	repertoire  []string
}

func articleOf(sel *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	sel.Each(func(_ int, s *goquery.Selection) {
		if a := s.Closest("article"); a.Length() > 0 {
			out = append(out, a)
		}
	})
	return extract.Unique(out)
}

func byEventDate(doc *goquery.Document) []*goquery.Selection {
	return articleOf(doc.Find("div.event-date"))
}

func byCalendarItem(doc *goquery.Document) []*goquery.Selection {
	return extract.Each(doc.Find("article.item-calendar"))
}

func byEventLink(doc *goquery.Document) []*goquery.Selection {
	return articleOf(doc.Find("a.event-link"))
}

func bySymphonicRows(doc *goquery.Document) []*goquery.Selection {
	return extract.Each(doc.Find("div.calendar-main").First().Find("div.row"))
}

// discover returns the calendar entries of a listing page in document order.
func (s *Strategy) discover(doc *goquery.Document) []*goquery.Selection {
	steps := []extract.Step{byEventDate, byCalendarItem, byEventLink}
	if s.cfg.Symphonic {
		steps = append(steps, bySymphonicRows)
	}
	return extract.FirstSuccess(doc, steps...)
}

func (s *Strategy) parseListing(item *goquery.Selection, baseURL string) listing {
	l := listing{title: defaultTitle}

	if href, ok := item.Find("a.event-link").First().Attr("href"); ok {
		href = strings.TrimSpace(href)
		if href != "" && href != "#" {
			l.link = extract.ResolveURL(baseURL, href)
		}
	}

	l.dateText = eventDate(item)
	if l.dateText == "" && s.cfg.Symphonic {
		l.dateText = shortDate.FindString(item.Text())
	}

	l.timeText = extract.Text(item.Find("div.day-time").Find("div.time, span.time").First())
	l.room = findRoom(item)

	if t := extract.Text(item.Find("div.event-title").First()); t != "" {
		l.title = t
	}
	l.categories = extract.Text(item.Find("div.event-meta-categories").First())
	if len([]rune(l.title)) < shortTitle && l.categories != "" {
		l.title += " (" + l.categories + ")"
	}
	l.description = extract.BlockText(item.Find("div.event-meta-info").First())
	return l
}

// findRoom returns the hall named in sel, preferring an element that names
// nothing else.
func findRoom(sel *goquery.Selection) string {
	for _, room := range rooms {
		exact := sel.Find("div, span, p").FilterFunction(func(_ int, el *goquery.Selection) bool {
			return extract.Text(el) == room
		})
		if exact.Length() > 0 {
			return room
		}
	}
	var found string
	sel.Find("div, span, p").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := extract.Text(el)
		for _, room := range rooms {
			if strings.Contains(text, room) && len(text) < len(room)+10 {
				found = room
				return false
			}
		}
		return true
	})
	return found
}

// eventDate reads the first div.event-date under sel, preferring its
// div.inner child over the surrounding labels.
func eventDate(sel *goquery.Selection) string {
	date := sel.Find("div.event-date").First()
	if inner := date.Find("div.inner").First(); inner.Length() > 0 {
		return extract.Text(inner)
	}
	return extract.Text(date)
}
