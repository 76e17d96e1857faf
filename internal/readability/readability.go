// Package readability reduces a fetched page to its main readable text.
package readability

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Extractor wraps go-readability.
type Extractor struct {
	// MaxChars caps the returned text; zero means unlimited.
	MaxChars int
}

// New returns an Extractor.
func New(maxChars int) *Extractor {
	return &Extractor{MaxChars: maxChars}
}

// Text returns the main text content of html, with line breaks preserved.
func (e *Extractor) Text(html []byte, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(html), parsed)
	if err != nil {
		return "", fmt.Errorf("extract readable text: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if e.MaxChars > 0 {
		if runes := []rune(text); len(runes) > e.MaxChars {
			text = string(runes[:e.MaxChars])
		}
	}
	return text, nil
}
