package generic

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/concert-crawler/internal/extract"
)

// datePattern finds the date-shaped fragments generic listings use. Spaces
// inside a fragment never cross a line break.
var datePattern = regexp.MustCompile(
	`\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}` +
		`|\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}` +
		`|\d{1,2}[ \t]+\p{L}+[ \t]+\d{4}` +
		`|\p{L}+[ \t]+\d{1,2}[ \t]*,?[ \t]*\d{4}`,
)

// Discover returns candidate concert blocks in document order. Class and
// heading heuristics are tried first; link and table-row blocks are appended
// when fewer than three candidates were found.
func Discover(doc *goquery.Document) []*goquery.Selection {
	blocks := extract.FirstSuccess(doc, classBlocks, headingBlocks, dateBlocks)
	if len(blocks) < supplementBelow {
		blocks = append(blocks, supplementBlocks(doc)...)
	}
	return extract.Unique(blocks)
}

func classBlocks(doc *goquery.Document) []*goquery.Selection {
	matched := doc.Find("div, article, section, li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		attrs := extract.ClassID(s)
		return attrs != "" && extract.ContainsAny(attrs, blockIncludeTerms) && !extract.ContainsAny(attrs, blockExcludeTerms)
	})
	if matched.Length() == 0 {
		return nil
	}
	dated := make(map[*html.Node]bool)
	matched.Each(func(_ int, s *goquery.Selection) {
		if datePattern.MatchString(s.Text()) {
			dated[s.Nodes[0]] = true
		}
	})
	var out []*goquery.Selection
	matched.Each(func(_ int, s *goquery.Selection) {
		// A wrapper holding several dated blocks is the listing, not a concert.
		if countDatedDescendants(s.Nodes[0], dated) >= 2 {
			return
		}
		out = append(out, s)
	})
	return out
}

func countDatedDescendants(n *html.Node, dated map[*html.Node]bool) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dated[c] {
			count++
		}
		count += countDatedDescendants(c, dated)
	}
	return count
}

func headingBlocks(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		if extract.ContainsAny(strings.ToLower(s.Text()), headingTerms) {
			if parent := s.Parent(); parent.Length() > 0 {
				out = append(out, parent)
			}
		}
	})
	return out
}

// dateBlocks returns the grandparent of every text node that looks like a date.
func dateBlocks(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "script", "style", "noscript":
			return
		}
		own := s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return c.Nodes[0].Type == html.TextNode
		}).Text()
		if datePattern.MatchString(own) {
			if parent := s.Parent(); parent.Length() > 0 {
				out = append(out, parent)
			}
		}
	})
	return out
}

func supplementBlocks(doc *goquery.Document) []*goquery.Selection {
	out := extract.Each(doc.Find("tr"))
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if extract.ContainsAny(strings.ToLower(href), linkTerms) {
			if parent := s.Parent(); parent.Length() > 0 {
				out = append(out, parent)
			}
		}
	})
	return out
}
