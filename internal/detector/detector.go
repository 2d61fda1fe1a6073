// Package detector decides whether a document looks like a product page
// and watches a changing document until it does.
package detector

import (
	"log/slog"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// GenericSelector is the fallback selector: any top-level heading.
const GenericSelector = "h1"

// DefaultSelectors returns the ordered structural selectors. Product-schema
// selectors come first and the generic heading selector is always last.
func DefaultSelectors() []string {
	return []string{
		`.product-title`,
		`.product-name`,
		`.product-description`,
		`[data-product-id]`,
		`.product-info`,
		`#product-details`,
		`h1[itemprop="name"]`,
		`[itemtype*="Product"]`,
		GenericSelector,
	}
}

// Detector runs the selectors against a document. It is safe for concurrent use.
type Detector struct {
	selectors []string
	logger    *slog.Logger

	mu       sync.RWMutex
	compiled map[string]compiledSelector
}

type compiledSelector struct {
	sel cascadia.Selector
	err error
}

// Option configures a Detector.
type Option func(*Detector)

// WithSelectors replaces the selector list.
func WithSelectors(selectors []string) Option {
	return func(d *Detector) { d.selectors = selectors }
}

// New creates a Detector.
func New(logger *slog.Logger, opts ...Option) *Detector {
	d := &Detector{
		selectors: DefaultSelectors(),
		logger:    logger.With("component", "detector"),
		compiled:  make(map[string]compiledSelector),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Selectors returns the selector list in evaluation order.
func (d *Detector) Selectors() []string {
	out := make([]string, len(d.selectors))
	copy(out, d.selectors)
	return out
}

// IsLikelyProductPage reports whether any selector matches doc.
func (d *Detector) IsLikelyProductPage(doc *goquery.Document) bool {
	ok, _ := d.Evaluate(doc)
	return ok
}

// Evaluate runs the selectors in order and returns the first one that
// matches. A selector that does not compile is a non-match.
func (d *Detector) Evaluate(doc *goquery.Document) (bool, string) {
	if doc == nil {
		return false, ""
	}
	for _, selector := range d.selectors {
		sel, err := d.compile(selector)
		if err != nil {
			d.logger.Debug("selector skipped", "error", &types.ParseError{Field: "selector", Selector: selector, Err: err})
			continue
		}
		if doc.FindMatcher(sel).Length() > 0 {
			return true, selector
		}
	}
	return false, ""
}

func (d *Detector) compile(selector string) (cascadia.Selector, error) {
	d.mu.RLock()
	c, ok := d.compiled[selector]
	d.mu.RUnlock()
	if ok {
		return c.sel, c.err
	}

	sel, err := cascadia.Compile(selector)
	d.mu.Lock()
	d.compiled[selector] = compiledSelector{sel: sel, err: err}
	d.mu.Unlock()
	return sel, err
}
