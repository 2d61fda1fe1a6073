package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExtractCertifications matches the certification vocabulary against the
// lower-cased text of a bounded element list: certification containers
// first, then the leading generic text elements. The vocabulary keyword
// itself is recorded, in vocabulary order.
func (s *Scraper) ExtractCertifications(doc *goquery.Document) []string {
	rule := s.strategies.Certifications

	els := s.collect(doc, "certifications", rule.Specific)
	general := s.collect(doc, "certifications", rule.General)
	if rule.GeneralLimit > 0 && len(general) > rule.GeneralLimit {
		general = general[:rule.GeneralLimit]
	}
	els = append(els, general...)
	if rule.ElementLimit > 0 && len(els) > rule.ElementLimit {
		els = els[:rule.ElementLimit]
	}

	texts := make([]string, len(els))
	for i, el := range els {
		texts[i] = el.Text()
	}

	lower := cases.Lower(language.Und)
	haystack := lower.String(strings.Join(texts, " "))

	found := []string{}
	for _, kw := range rule.Vocabulary {
		if strings.Contains(haystack, lower.String(kw)) && !contains(found, kw) {
			found = append(found, kw)
		}
	}

	if rule.MaxResults > 0 && len(found) > rule.MaxResults {
		found = found[:rule.MaxResults]
	}
	return found
}
