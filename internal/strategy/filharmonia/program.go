package filharmonia

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/extract"
)

var (
	programBlurb     = regexp.MustCompile(`(?i)(?:w\s+repertuarze|wykonują|w\s+programie|program)\s*:?\s+([^.]*)`)
	instrumentPhrase = regexp.MustCompile(`([^.]*)\s+(?:na|dla)\s+(?:fortepian|skrzypce|wiolonczelę|altówkę|flet)`)
	repertoireText   = regexp.MustCompile(`repertuar[:\s]+([^.]*)`)
	repertoireLine   = regexp.MustCompile(`^(.+?)\s*(?:[–—:]|\s-\s)\s*(.+)$`)

	composerTitles = compileComposerTitles()
	formPatterns   = compileFormPatterns()
)

func compileComposerTitles() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(composerOrder))
	for _, c := range composerOrder {
		out[c] = regexp.MustCompile(regexp.QuoteMeta(c) + `[\s:\-–—]+([^\n.,;(\[]*)`)
	}
	return out
}

func compileFormPatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(formStems))
	for _, stem := range formStems {
		out[stem] = regexp.MustCompile(`(?i:\b(` + stem + `\p{L}*))\s+(\p{Lu}\p{Ll}+)`)
	}
	return out
}

// extractProgram reads pieces from the repertoire lines of a detail page and
// the description. Each rule runs only while nothing has been found, except
// the instrument phrase rule which always adds. A musical form followed by a
// composer in the genitive ("sonaty Brahmsa") is tried before bare composer
// names, which would otherwise match the stem of the inflected name.
func extractProgram(repertoire []string, text string) []concert.Piece {
	var out []concert.Piece
	add := func(title, composer string) {
		title = extract.Ellipsize(extract.Clean(title), maxPieceTitle)
		if title == "" {
			return
		}
		for _, p := range out {
			if p.Title == title && p.Composer == composer {
				return
			}
		}
		out = append(out, concert.Piece{Title: title, Composer: composer})
	}

	var loose []string
	for _, line := range repertoire {
		if title, composer, ok := repertoireEntry(line); ok {
			add(title, composer)
			continue
		}
		loose = append(loose, line)
	}
	flat := extract.Clean(strings.Join(append(loose, text), " "))
	if flat == "" && len(out) == 0 {
		return []concert.Piece{{Title: programPending, Composer: programComposer}}
	}

	if len(out) == 0 {
		if m := programBlurb.FindStringSubmatch(flat); m != nil && utf8.RuneCountInString(strings.TrimSpace(m[1])) > 5 {
			add(m[1], programComposer)
		}
	}

	if len(out) == 0 {
		for _, stem := range formStems {
			for _, m := range formPatterns[stem].FindAllStringSubmatch(flat, -1) {
				if canonical, ok := composerFromGenitive(m[2]); ok {
					add(capitalize(m[1]), canonical)
				}
			}
		}
	}

	if len(out) == 0 {
		for _, c := range composerOrder {
			if !strings.Contains(flat, c) {
				continue
			}
			title := untitledWork
			if m := composerTitles[c].FindStringSubmatch(flat); m != nil && strings.TrimSpace(m[1]) != "" {
				title = m[1]
			}
			add(title, composers[c])
		}
	}

	lower := strings.ToLower(flat)
	for _, m := range instrumentPhrase.FindAllString(lower, -1) {
		phrase := strings.TrimSpace(m)
		if utf8.RuneCountInString(phrase) > 10 && !hasTitle(out, phrase) {
			add(phrase, phraseComposer)
		}
	}

	if len(out) == 0 && strings.Contains(lower, "repertuar") {
		if m := repertoireText.FindStringSubmatch(lower); m != nil && strings.TrimSpace(m[1]) != "" {
			add(capitalize(strings.TrimSpace(m[1])), programComposer)
		}
	}

	if len(out) == 0 {
		if utf8.RuneCountInString(flat) > 10 {
			first := strings.TrimSpace(strings.SplitN(flat, ".", 2)[0])
			add(extract.Ellipsize(first, maxDescription), programComposer)
		}
	}
	if len(out) == 0 {
		out = append(out, concert.Piece{Title: programPending, Composer: programComposer})
	}
	return out
}

// repertoireEntry parses "Composer – Title" lines naming a known composer.
func repertoireEntry(line string) (string, string, bool) {
	m := repertoireLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	for _, c := range composerOrder {
		if strings.Contains(m[1], c) {
			return m[2], composers[c], true
		}
	}
	return "", "", false
}

// composerFromGenitive resolves "Chopina" or "Szymanowskiego" to a composer.
func composerFromGenitive(word string) (string, bool) {
	if c, ok := composers[word]; ok {
		return c, true
	}
	for _, suffix := range []string{"ego", "a"} {
		if c, ok := composers[strings.TrimSuffix(word, suffix)]; ok && strings.HasSuffix(word, suffix) {
			return c, true
		}
	}
	return "", false
}

func hasTitle(pieces []concert.Piece, title string) bool {
	for _, p := range pieces {
		if p.Title == title {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
