package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ExtractBulletPoints gathers list item texts across the bullet strategies.
// Items at or above the length limit are treated as noise. Scanning stops
// after the strategy that fills the cap.
func (s *Scraper) ExtractBulletPoints(doc *goquery.Document) []string {
	limit := s.strategies.MaxBullets
	maxLen := s.strategies.MaxBulletLength

	bullets := []string{}
	for _, st := range s.strategies.Bullets {
		s.query(doc, "bulletPoints", st).Each(func(_ int, el *goquery.Selection) {
			text := strings.TrimSpace(el.Text())
			if text == "" || utf8.RuneCountInString(text) >= maxLen || contains(bullets, text) {
				return
			}
			bullets = append(bullets, text)
		})
		if len(bullets) >= limit {
			break
		}
	}

	if len(bullets) > limit {
		bullets = bullets[:limit]
	}
	return bullets
}
