package filharmonia

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/extract"
)

// name is two or more capitalized words on one line.
const name = `\p{Lu}\p{Ll}+(?:[ \t]+\p{Lu}[\p{Ll}\-]+)+`

var (
	ensembleBeforeW  = regexp.MustCompile(`(` + name + `)[ \t]+w[ \t]+`)
	nameOnInstrument = regexp.MustCompile(`(` + name + `)[ \t]+na[ \t]+(\p{L}+)`)
	namedGroup       = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:[ \t]+\p{Lu}[\p{Ll}\-]+)*[ \t]+(?:Duo|Trio|Quartet|Kwartet)\b`)
	camelDuo         = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:\p{Lu}\p{Ll}+)+[ \t]*Duo\b`)
	nameInstrument   = regexp.MustCompile(`(` + name + `)[ \t]+(fortepian|skrzypce|wiolonczela|altówka|flet)\b`)
	capitalizedPair  = regexp.MustCompile(`\p{Lu}\p{Ll}+[ \t]+\p{Lu}[\p{Ll}\-]+`)
	lineSeparator    = regexp.MustCompile(`\s*(?:[–—:,]|\s-\s)\s*`)
)

// translateRole maps a Polish or English role word to its English role.
func translateRole(word string) (string, bool) {
	role, ok := roleNames[strings.ToLower(strings.Trim(word, " .,;:"))]
	return role, ok
}

// extractPerformers reads performers from the performer lines of a detail
// page and the free-text description.
func extractPerformers(lines []string, text string) []concert.Performer {
	var out []concert.Performer
	add := func(n, role string) {
		n = extract.Clean(n)
		if n == "" {
			return
		}
		for _, p := range out {
			if p.Name == n && p.Role == role {
				return
			}
		}
		out = append(out, concert.Performer{Name: n, Role: role})
	}

	for i, line := range lines {
		if n, role, ok := performerLine(line); ok {
			add(n, role)
			continue
		}
		// A name on its own line followed by its role on the next.
		if role, ok := translateRole(line); ok && i > 0 && isName(lines[i-1]) {
			add(lines[i-1], role)
		}
	}

	if m := ensembleBeforeW.FindStringSubmatch(text); m != nil {
		add(m[1], "ensemble")
	}
	for _, m := range nameOnInstrument.FindAllStringSubmatch(text, -1) {
		if role, ok := translateRole(m[2]); ok {
			add(m[1], role)
		}
	}
	for _, m := range camelDuo.FindAllString(text, -1) {
		add(m, "ensemble")
	}
	for _, m := range namedGroup.FindAllString(text, -1) {
		if !containedIn(out, m) {
			add(m, "ensemble")
		}
	}
	for _, m := range nameInstrument.FindAllStringSubmatch(text, -1) {
		role, _ := translateRole(m[2])
		add(m[1], role)
	}
	for _, ensemble := range knownEnsembles {
		if strings.Contains(text, ensemble) {
			add(ensemble, "ensemble")
			break
		}
	}

	if len(out) == 0 {
		for _, pair := range capitalizedPair.FindAllString(text, -1) {
			if !venueNouns[pair] {
				add(pair, "performer")
			}
		}
	}
	if len(out) == 0 {
		out = append(out, concert.Performer{Name: defaultOrchestra, Role: "orchestra"})
	}
	return out
}

// performerLine parses "Name – role", "role: Name" or "Name role".
func performerLine(line string) (string, string, bool) {
	if parts := lineSeparator.Split(line, 2); len(parts) == 2 {
		left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if role, ok := translateRole(right); ok && isName(left) {
			return left, role, true
		}
		if role, ok := translateRole(left); ok && isName(right) {
			return right, role, true
		}
		return "", "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", "", false
	}
	if role, ok := translateRole(fields[len(fields)-1]); ok {
		rest := strings.Join(fields[:len(fields)-1], " ")
		if isName(rest) {
			return rest, role, true
		}
	}
	return "", "", false
}

func isName(s string) bool {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return false
	}
	for _, f := range fields {
		r, _ := utf8.DecodeRuneInString(f)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func containedIn(performers []concert.Performer, n string) bool {
	for _, p := range performers {
		if strings.Contains(p.Name, n) || strings.Contains(n, p.Name) {
			return true
		}
	}
	return false
}
