// Package detector decides when a listing page needs a headless render.
package detector

import (
	"bytes"
	"strings"

	"github.com/JakeFAU/concert-crawler/internal/concert"
)

// Heuristic promotes pages that look like empty client-rendered shells.
type Heuristic struct {
	BodyLengthThreshold int
	// ScriptPercent is the share of the document covered by <script> tags
	// at or above which a short page is promoted.
	ScriptPercent int
}

// NewHeuristic creates a new detector. Zero values select the defaults.
func NewHeuristic(bodyThreshold, scriptPercent int) *Heuristic {
	if bodyThreshold <= 0 {
		bodyThreshold = 2048
	}
	if scriptPercent <= 0 || scriptPercent > 100 {
		scriptPercent = 25
	}
	return &Heuristic{BodyLengthThreshold: bodyThreshold, ScriptPercent: scriptPercent}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"__nuxt\""),
	[]byte("id=\"root\"></div>"),
	[]byte("id=\"app\"></div>"),
	[]byte("data-reactroot"),
	[]byte("ng-version="),
}

// calendarMarkers indicate server-rendered listing markup; their presence
// vetoes a promotion triggered by SPA markers.
var calendarMarkers = [][]byte{
	[]byte("event-date"),
	[]byte("item-calendar"),
	[]byte("concert-item"),
	[]byte("<time"),
}

// ShouldPromote decides whether a headless fetch is required.
func (h *Heuristic) ShouldPromote(resp concert.Page) bool {
	if resp.StatusCode != 200 {
		return false
	}
	body := resp.Body
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range calendarMarkers {
		if bytes.Contains(lower, marker) {
			return false
		}
	}
	if len(body) < h.BodyLengthThreshold && scriptCoverage(string(lower)) >= h.ScriptPercent {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(lower, bytes.ToLower(marker)) {
			return true
		}
	}
	return false
}

// scriptCoverage returns the percentage of lower covered by script elements.
func scriptCoverage(lower string) int {
	total := len(lower)
	if total == 0 {
		return 0
	}
	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	covered := 0
	pos := 0
	for {
		rel := strings.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel
		end := strings.Index(lower[start:], closeTag)
		if end == -1 {
			// Unterminated script; count the rest.
			covered += total - start
			break
		}
		next := start + end + len(closeTag)
		covered += next - start
		pos = next
	}
	return covered * 100 / total
}
