package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ExtractDescription scans every description strategy and keeps the
// longest text found. When nothing matches, the fallback strategies are
// tried in order and the first non-empty text wins.
func (s *Scraper) ExtractDescription(doc *goquery.Document) string {
	var best string
	bestLen := 0
	for _, el := range s.collect(doc, "description", s.strategies.Description) {
		text := strings.TrimSpace(el.Text())
		if n := utf8.RuneCountInString(text); n > bestLen {
			best, bestLen = text, n
		}
	}
	if best != "" {
		return best
	}

	for _, st := range s.strategies.DescriptionFallback {
		if text := strings.TrimSpace(s.query(doc, "description", st).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
