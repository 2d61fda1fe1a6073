package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractIngredients returns ingredient snippets joined by a space.
func (s *Scraper) ExtractIngredients(doc *goquery.Document) string {
	return s.extractKeyword(doc, "ingredients", s.strategies.Ingredients, nil)
}

// ExtractMaterials returns material snippets, followed by any
// data-material attribute values, joined by a space.
func (s *Scraper) ExtractMaterials(doc *goquery.Document) string {
	return s.extractKeyword(doc, "materials", s.strategies.Materials, s.materialAttrs)
}

// ExtractPackaging returns packaging snippets from the document body.
func (s *Scraper) ExtractPackaging(doc *goquery.Document) string {
	return s.extractKeyword(doc, "packaging", s.strategies.Packaging, nil)
}

// ExtractSustainability returns the sentences that mention a
// sustainability keyword.
func (s *Scraper) ExtractSustainability(doc *goquery.Document) string {
	return s.extractKeyword(doc, "sustainability", s.strategies.Sustainability, nil)
}

// extractKeyword runs rule over the prioritized element list. For each
// keyword the elements are scanned in order until one yields a new hit.
// extra, when set, may append further hits before joining.
func (s *Scraper) extractKeyword(doc *goquery.Document, field string, rule KeywordRule,
	extra func(*goquery.Document, []string) []string) string {

	texts := s.searchTexts(doc, field, rule)
	hits := []string{}

	for _, kw := range rule.Keywords {
		if rule.MaxHits > 0 && len(hits) >= rule.MaxHits {
			break
		}
		for _, text := range texts {
			if text == "" {
				continue
			}
			if rule.Sentence {
				sentence, ok := FindSentence(text, kw)
				if !ok {
					continue
				}
				if !contains(hits, sentence) {
					hits = append(hits, sentence)
				}
				break
			}
			snippet, ok := FindSnippet(text, kw, rule.MinLen, rule.MaxLen)
			if !ok {
				continue
			}
			if rule.AllowDuplicates || !contains(hits, snippet) {
				hits = append(hits, snippet)
				break
			}
		}
	}

	if extra != nil {
		hits = extra(doc, hits)
	}

	return truncate(strings.Join(hits, " "), rule.MaxChars)
}

// searchTexts returns the text content of every element rule scans, in
// scan order, with the body last.
func (s *Scraper) searchTexts(doc *goquery.Document, field string, rule KeywordRule) []string {
	els := s.collect(doc, field, rule.Elements)
	if rule.IncludeBody {
		if body := doc.Find("body").First(); body.Length() > 0 {
			els = append(els, body)
		}
	}
	if rule.ElementLimit > 0 && len(els) > rule.ElementLimit {
		els = els[:rule.ElementLimit]
	}

	texts := make([]string, len(els))
	for i, el := range els {
		texts[i] = el.Text()
	}
	return texts
}

// materialAttrs appends data-material/data-materials attribute values from
// a bounded number of elements.
func (s *Scraper) materialAttrs(doc *goquery.Document, hits []string) []string {
	els := s.query(doc, "materials", s.strategies.MaterialAttrEl)
	n := els.Length()
	if s.strategies.MaxAttrEls > 0 && n > s.strategies.MaxAttrEls {
		n = s.strategies.MaxAttrEls
	}
	for i := 0; i < n; i++ {
		el := els.Eq(i)
		var value string
		for _, attr := range s.strategies.MaterialAttrs {
			if v, ok := el.Attr(attr); ok && v != "" {
				value = v
				break
			}
		}
		if value != "" && !contains(hits, value) {
			hits = append(hits, value)
		}
	}
	return hits
}
