package extract

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Step is one candidate-block discovery rule.
type Step func(doc *goquery.Document) []*goquery.Selection

// FirstSuccess runs steps in order and returns the first non-empty result.
func FirstSuccess(doc *goquery.Document, steps ...Step) []*goquery.Selection {
	for _, step := range steps {
		if found := step(doc); len(found) > 0 {
			return found
		}
	}
	return nil
}

// Each collects the individual elements of a selection.
func Each(sel *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}

// Unique drops selections that point at a node already seen, keeping order.
func Unique(sels []*goquery.Selection) []*goquery.Selection {
	seen := make(map[*html.Node]bool, len(sels))
	out := sels[:0]
	for _, s := range sels {
		if s.Length() == 0 {
			continue
		}
		if seen[s.Nodes[0]] {
			continue
		}
		seen[s.Nodes[0]] = true
		out = append(out, s)
	}
	return out
}
