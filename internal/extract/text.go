// Package extract holds the markup and text helpers shared by scraping strategies.
package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRun = regexp.MustCompile(`[ \t\p{Zs}]+`)
	blankRun = regexp.MustCompile(`\s+`)
)

// blockElements break text lines when flattening markup.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// BlockText flattens a selection into text with one line per block element,
// so adjacent headings and paragraphs never run together.
func BlockText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeNode(&b, n)
	}
	return CollapseLines(b.String())
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
			return
		}
	}
	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// CollapseLines collapses horizontal whitespace, trims each line and drops
// empty lines.
func CollapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Clean collapses all whitespace, newlines included, to single spaces.
func Clean(s string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(s, " "))
}

// Text returns the cleaned single-line text of a selection.
func Text(sel *goquery.Selection) string {
	return Clean(sel.Text())
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Ellipsize cuts s to at most n runes, ending with "..." when shortened.
func Ellipsize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// ResolveURL resolves href against base. Empty or unparseable hrefs return "".
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// ClassID returns the lowercased class and id attributes of the first node.
func ClassID(sel *goquery.Selection) string {
	class, _ := sel.Attr("class")
	id, _ := sel.Attr("id")
	return strings.ToLower(strings.TrimSpace(class + " " + id))
}

// ContainsAny reports whether s contains any of words.
func ContainsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether word occurs in s at word boundaries.
func ContainsWord(s, word string) bool {
	return WordIndex(s, word) >= 0
}

// WordIndex returns the byte offset of the first whole-word occurrence of
// word in s, or -1.
func WordIndex(s, word string) int {
	if word == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(word)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return start
		}
		from = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

var titleCaser = cases.Title(language.Und)

// NameCase title-cases a name only when it was written entirely in lower case.
func NameCase(name string) string {
	if strings.ToLower(name) != name {
		return name
	}
	return titleCaser.String(name)
}

// FoldKey lowercases s, strips diacritics and collapses whitespace, so the
// same title written two ways maps to one key.
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	// ł has no decomposition.
	folded = strings.NewReplacer("ł", "l", "Ł", "L").Replace(folded)
	return strings.ToLower(Clean(folded))
}
