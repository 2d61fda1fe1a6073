package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractTitle returns the text of the first element matched by the
// highest-priority title strategy that yields non-empty text. Only the
// first match of each strategy is considered.
func (s *Scraper) ExtractTitle(doc *goquery.Document) string {
	for _, st := range s.strategies.Title {
		if text := strings.TrimSpace(s.query(doc, "title", st).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
