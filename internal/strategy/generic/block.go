package generic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/extract"
)

var (
	// blockClock only trusts colon clocks; "12.25" in a listing is a date.
	blockClock = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	// personName is two to four capitalized words on one line.
	personName = regexp.MustCompile(`\p{Lu}[\p{Ll}\p{M}'’\-]+(?:[ \t]+\p{Lu}[\p{Ll}\p{M}'’\-]+){1,3}`)

	rolePatterns     = compileRolePatterns(roles)
	composerPatterns = compileComposerPatterns(composers)
	keywordPatterns  = compileKeywordPatterns(pieceKeywords)
)

// rolePattern captures "role: Name" with the name kept on one line.
type rolePattern struct {
	role string
	re   *regexp.Regexp
}

type composerPattern struct {
	composer string
	titles   []*regexp.Regexp
	loose    *regexp.Regexp
}

func compileRolePatterns(list []string) []rolePattern {
	seen := make(map[string]bool, len(list))
	out := make([]rolePattern, 0, len(list))
	for _, role := range list {
		if seen[role] {
			continue
		}
		seen[role] = true
		out = append(out, rolePattern{
			role: role,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(role) + `[ \t]*:[ \t]*(\p{L}[\p{L}\p{M}'’\-. \t]*)`),
		})
	}
	return out
}

func compileComposerPatterns(list []string) []composerPattern {
	out := make([]composerPattern, 0, len(list))
	for _, name := range list {
		q := regexp.QuoteMeta(name)
		out = append(out, composerPattern{
			composer: name,
			titles: []*regexp.Regexp{
				regexp.MustCompile(q + `\s*:\s*([^\n,;()]+)`),
				regexp.MustCompile(q + `\s*[-–—]\s*([^\n,;()]+)`),
				regexp.MustCompile(q + `[ '"“„]+(No\.[^\n,;()]*|\p{Lu}[^\n,;()]*)`),
			},
			loose: regexp.MustCompile(`(?i)` + q + `[ \t]*:?[ \t]*([^\n,.;]+)`),
		})
	}
	return out
}

func compileKeywordPatterns(list []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(list))
	for _, kw := range list {
		out = append(out, regexp.MustCompile(
			`(?i)\b`+kw+`\b(?:\s+No\.?\s*\d+)?(?:\s+in\s+[A-G](?:[- ]?(?:flat|sharp))?(?:\s+(?:major|minor))?)?`,
		))
	}
	return out
}

// candidateFromBlock extracts one candidate from a block, or reports false
// when the block does not look like a concert.
func (s *Strategy) candidateFromBlock(block *goquery.Selection, text, baseURL string) (concert.Candidate, bool) {
	title := blockTitle(block, text)
	if !acceptableTitle(title) {
		return concert.Candidate{}, false
	}
	date, parsed := s.dates.Normalize(blockDateText(block, text), blockClock.FindString(text))

	link := ""
	if href, ok := block.Find("a[href]").First().Attr("href"); ok {
		link = extract.ResolveURL(baseURL, href)
	}
	if link == "" {
		link = baseURL
	}

	return concert.Candidate{
		Title:       title,
		Date:        date,
		DateUnknown: !parsed,
		ExternalURL: link,
		Performers:  blockPerformers(text, title),
		Pieces:      blockPieces(text),
	}, true
}

// blockTitle prefers a title-classed element, then the first heading or
// emphasis, then a snippet of the block text itself.
func blockTitle(block *goquery.Selection, text string) string {
	titled := block.Find("h1, h2, h3, h4, h5, b, strong, span, div").FilterFunction(func(_ int, el *goquery.Selection) bool {
		class, _ := el.Attr("class")
		return extract.ContainsAny(strings.ToLower(class), titleClassTerms)
	}).First()
	if titled.Length() > 0 {
		if t := extract.Text(titled); t != "" {
			return t
		}
	}
	if t := extract.Text(block.Find("h1, h2, h3, h4, h5, b, strong").First()); t != "" {
		return t
	}
	return extract.Ellipsize(extract.Clean(text), titleSnippetChars)
}

func acceptableTitle(title string) bool {
	if utf8.RuneCountInString(title) < minTitleChars {
		return false
	}
	lower := strings.ToLower(title)
	for _, bad := range titleDenylist {
		if extract.ContainsWord(lower, bad) {
			return false
		}
	}
	return true
}

// blockDateText prefers a date-shaped fragment of the block text and falls
// back to elements whose attributes mention dates.
func blockDateText(block *goquery.Selection, text string) string {
	if m := datePattern.FindString(text); m != "" {
		return m
	}
	candidates := block.Find("span, div, p, time")
	for _, indicator := range dateIndicators {
		var found string
		candidates.EachWithBreak(func(_ int, el *goquery.Selection) bool {
			for _, attr := range el.Nodes[0].Attr {
				if strings.Contains(strings.ToLower(attr.Val), indicator) {
					found = extract.Text(el)
					if found == "" {
						found = attr.Val
					}
					return false
				}
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func blockPerformers(text, title string) []concert.Performer {
	var out []concert.Performer
	for _, rp := range rolePatterns {
		for _, m := range rp.re.FindAllStringSubmatch(text, -1) {
			if name := cleanName(m[1]); validPerformer(name) {
				out = appendPerformer(out, concert.Performer{Name: extract.NameCase(name), Role: rp.role})
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	lower := strings.ToLower(text)
	for _, rp := range rolePatterns {
		idx := extract.WordIndex(lower, rp.role)
		if idx < 0 {
			continue
		}
		window := runeWindow(text, idx, roleWindow, roleWindow+len(rp.role))
		for _, name := range personName.FindAllString(window, -1) {
			if personLike(name, title) {
				out = appendPerformer(out, concert.Performer{Name: name, Role: rp.role})
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, name := range personName.FindAllString(text, -1) {
		if personLike(name, title) {
			out = appendPerformer(out, concert.Performer{Name: name, Role: defaultRole})
		}
	}
	if len(out) > 0 {
		return out
	}
	return []concert.Performer{{Name: placeholder, Role: defaultRole}}
}

func cleanName(raw string) string {
	return strings.Trim(extract.Clean(raw), " .-'’")
}

func validPerformer(name string) bool {
	if utf8.RuneCountInString(name) < minPerformerName {
		return false
	}
	lower := strings.ToLower(name)
	for _, role := range roles {
		if lower == role {
			return false
		}
	}
	return len(strings.Fields(name)) <= maxNameWords
}

// personLike rejects phrases that name places, series or composers, or that
// repeat the concert title.
func personLike(name, title string) bool {
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if nonPersonWords[word] {
			return false
		}
	}
	for _, c := range composers {
		if extract.ContainsWord(name, c) {
			return false
		}
	}
	return !strings.Contains(extract.FoldKey(title), extract.FoldKey(name))
}

func blockPieces(text string) []concert.Piece {
	var out []concert.Piece
	for _, cp := range composerPatterns {
		idx := extract.WordIndex(text, cp.composer)
		if idx < 0 {
			continue
		}
		window := runeWindow(text, idx, composerBefore, composerAfter)
		title := untitledWork
		for _, re := range cp.titles {
			if m := re.FindStringSubmatch(window); m != nil {
				if t := strings.TrimRight(extract.Clean(m[1]), ". "); utf8.RuneCountInString(t) > 2 {
					title = t
					break
				}
			}
		}
		out = appendPiece(out, concert.Piece{Title: title, Composer: cp.composer})
	}

	for _, re := range keywordPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			title := extract.Clean(text[loc[0]:loc[1]])
			composer := composerBefore50(text, loc[0])
			if composer == "" {
				if hasPieceTitle(out, title) {
					continue
				}
				composer = unknownComposer
			}
			out = appendPiece(out, concert.Piece{Title: title, Composer: composer})
		}
	}
	if len(out) == 0 {
		return []concert.Piece{{Title: placeholder, Composer: placeholder}}
	}
	return out
}

// composerBefore50 returns the composer named shortly before offset, if any.
func composerBefore50(text string, offset int) string {
	start := offset
	for i := 0; i < keywordLookback && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	preceding := text[start:offset]
	for _, c := range composers {
		if extract.ContainsWord(preceding, c) {
			return c
		}
	}
	return ""
}

// runeWindow returns the text from before runes ahead of byte offset idx to
// after runes past it.
func runeWindow(text string, idx, before, after int) string {
	start := idx
	for i := 0; i < before && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := idx
	for i := 0; i < after && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}

func hasPieceTitle(pieces []concert.Piece, title string) bool {
	key := extract.FoldKey(title)
	for _, p := range pieces {
		if extract.FoldKey(p.Title) == key {
			return true
		}
	}
	return false
}

func appendPiece(pieces []concert.Piece, p concert.Piece) []concert.Piece {
	for _, existing := range pieces {
		if existing.Title == p.Title && existing.Composer == p.Composer {
			return pieces
		}
	}
	return append(pieces, p)
}

func appendPerformer(performers []concert.Performer, p concert.Performer) []concert.Performer {
	for _, existing := range performers {
		if existing.Name == p.Name && existing.Role == p.Role {
			return performers
		}
	}
	return append(performers, p)
}
