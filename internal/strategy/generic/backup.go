package generic

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/extract"
)

var (
	backupDate      = regexp.MustCompile(`\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}|\d{1,2}\s+[A-Za-z]+\s+\d{4}|[A-Za-z]+\s+\d{1,2}\s*,?\s*\d{4}`)
	backupTitleLine = regexp.MustCompile(`^\s*([^\n.]+)`)
)

// backup scans the readable text of the page for dates and builds one
// candidate from the text around each. It runs only when no block matched.
func (s *Strategy) backup(page concert.Page, baseURL string) []concert.Candidate {
	if s.reader == nil {
		return nil
	}
	text, err := s.reader.Text(page.Body, baseURL)
	if err != nil {
		s.logger.Debug("readability failed", zap.Error(err))
		return nil
	}

	var out []concert.Candidate
	seen := make(map[string]bool)
	for _, loc := range backupDate.FindAllStringIndex(text, -1) {
		if len(out) >= s.cfg.BlockCap {
			break
		}
		window := runeWindow(text, loc[0], backupBefore, backupAfter)
		date, parsed := s.dates.Normalize(text[loc[0]:loc[1]], "")

		title := defaultBackupTitle
		if m := backupTitleLine.FindStringSubmatch(window); m != nil {
			if t := extract.Clean(m[1]); t != "" {
				title = t
			}
		}
		key := extract.FoldKey(title) + "|" + date.Format("2006-01-02T15:04")
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, concert.Candidate{
			Title:       title,
			Date:        date,
			DateUnknown: !parsed,
			ExternalURL: baseURL,
			Performers:  backupPerformers(window),
			Pieces:      backupPieces(window),
		})
	}
	return out
}

func backupPerformers(window string) []concert.Performer {
	var out []concert.Performer
	for _, rp := range rolePatterns {
		for _, m := range rp.re.FindAllStringSubmatch(window, -1) {
			name := cleanName(m[1])
			if validPerformer(name) && !isComposer(name) {
				out = appendPerformer(out, concert.Performer{Name: extract.NameCase(name), Role: rp.role})
			}
		}
	}
	if len(out) == 0 {
		return []concert.Performer{{Name: placeholder, Role: defaultRole}}
	}
	return out
}

func backupPieces(window string) []concert.Piece {
	var out []concert.Piece
	for _, cp := range composerPatterns {
		m := cp.loose.FindStringSubmatch(window)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		if title == "" {
			title = placeholder
		}
		out = appendPiece(out, concert.Piece{Title: title, Composer: cp.composer})
	}
	if len(out) == 0 {
		return []concert.Piece{{Title: placeholder, Composer: placeholder}}
	}
	return out
}

func isComposer(name string) bool {
	for _, c := range composers {
		if extract.ContainsWord(name, c) {
			return true
		}
	}
	return false
}
