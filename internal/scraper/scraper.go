package scraper

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// Scraper pulls a RawProductRecord out of a product page and flattens it
// into cleaned text. It holds no per-page state and is safe for
// concurrent use.
type Scraper struct {
	strategies Strategies
	normalizer *Normalizer
	logger     *slog.Logger

	mu        sync.RWMutex
	selectors map[string]compiledSelector
}

type compiledSelector struct {
	sel cascadia.Selector
	err error
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithStrategies replaces the default priority lists.
func WithStrategies(s Strategies) Option {
	return func(sc *Scraper) { sc.strategies = s }
}

// New creates a Scraper with caps taken from cfg.
func New(cfg config.ScraperConfig, logger *slog.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		strategies: DefaultStrategies(),
		logger:     logger.With("component", "scraper"),
		selectors:  make(map[string]compiledSelector),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.strategies = s.strategies.withCaps(
		cfg.MaxBullets, cfg.MaxBulletLength, cfg.MaxCertifications,
		cfg.MaxIngredientsLength, cfg.MaxMaterialsLength, cfg.MaxSustainLength,
	)
	s.normalizer = NewNormalizer(cfg.MaxCleanedLength, s.logger)
	return s
}

// Strategies returns the priority lists in effect.
func (s *Scraper) Strategies() Strategies {
	return s.strategies
}

// Scrape extracts from a fetched page.
func (s *Scraper) Scrape(page *types.Page) (*types.ScrapeResult, error) {
	if page == nil || len(page.Body) == 0 {
		return nil, types.ErrPageNotReady
	}
	doc, err := page.Document()
	if err != nil {
		return nil, &types.ParseError{Field: "document", Err: err}
	}
	return s.Aggregate(doc, page.EffectiveURL())
}

// Aggregate runs every field extractor over doc and composes the cleaned
// text. When no text could be extracted the result is still returned,
// together with types.ErrNoProductInfo.
func (s *Scraper) Aggregate(doc *goquery.Document, pageURL string) (*types.ScrapeResult, error) {
	if doc == nil || doc.Find("body").Length() == 0 {
		return nil, types.ErrPageNotReady
	}

	rec := types.RawProductRecord{
		Title:          s.ExtractTitle(doc),
		Description:    s.ExtractDescription(doc),
		BulletPoints:   s.ExtractBulletPoints(doc),
		Ingredients:    s.ExtractIngredients(doc),
		Materials:      s.ExtractMaterials(doc),
		Packaging:      s.ExtractPackaging(doc),
		Certifications: s.ExtractCertifications(doc),
		Sustainability: s.ExtractSustainability(doc),
		URL:            pageURL,
	}

	result := &types.ScrapeResult{
		Raw:         rec,
		CleanedText: s.normalizer.Normalize(Compose(rec)),
	}

	s.logger.Debug("product extracted",
		"url", pageURL,
		"title", rec.Title,
		"bullets", len(rec.BulletPoints),
		"certifications", len(rec.Certifications),
		"cleaned_len", utf8.RuneCountInString(result.CleanedText),
	)

	if result.CleanedText == "" {
		return result, types.ErrNoProductInfo
	}
	return result, nil
}

// Compose renders the non-empty fields of rec as labeled parts separated
// by blank lines.
func Compose(rec types.RawProductRecord) string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("Title", rec.Title)
	add("Description", rec.Description)
	if len(rec.BulletPoints) > 0 {
		add("Features", strings.Join(rec.BulletPoints, "; "))
	}
	add("Ingredients", rec.Ingredients)
	add("Materials", rec.Materials)
	add("Packaging", rec.Packaging)
	if len(rec.Certifications) > 0 {
		add("Certifications found", strings.Join(rec.Certifications, ", "))
	}
	add("Sustainability notes", rec.Sustainability)

	return strings.Join(parts, "\n\n")
}

// query evaluates one strategy against doc. A strategy that fails to
// compile matches nothing.
func (s *Scraper) query(doc *goquery.Document, field string, st Strategy) *goquery.Selection {
	switch st.Kind {
	case KindXPath:
		if len(doc.Nodes) == 0 {
			return doc.Selection.Slice(0, 0)
		}
		nodes, err := htmlquery.QueryAll(doc.Nodes[0], st.Expr)
		if err != nil {
			s.skip(field, st, err)
			return doc.Selection.Slice(0, 0)
		}
		return doc.FindNodes(elements(nodes)...)
	default:
		sel, err := s.compile(st.Expr)
		if err != nil {
			s.skip(field, st, err)
			return doc.Selection.Slice(0, 0)
		}
		return doc.FindMatcher(sel)
	}
}

// elements drops text and attribute hits; only elements carry extractable
// content for the field extractors.
func elements(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out
}

// compile returns a cached cascadia selector.
func (s *Scraper) compile(expr string) (cascadia.Selector, error) {
	s.mu.RLock()
	c, ok := s.selectors[expr]
	s.mu.RUnlock()
	if ok {
		return c.sel, c.err
	}

	sel, err := cascadia.Compile(expr)
	s.mu.Lock()
	s.selectors[expr] = compiledSelector{sel: sel, err: err}
	s.mu.Unlock()
	return sel, err
}

func (s *Scraper) skip(field string, st Strategy, err error) {
	perr := &types.ParseError{Field: field, Selector: st.Expr, Err: err}
	s.logger.Debug("strategy skipped", "error", perr)
}

// collect evaluates strategies in order and returns every matched element,
// in strategy order then document order. Elements matched by more than one
// strategy appear more than once.
func (s *Scraper) collect(doc *goquery.Document, field string, strategies []Strategy) []*goquery.Selection {
	var out []*goquery.Selection
	for _, st := range strategies {
		s.query(doc, field, st).Each(func(_ int, el *goquery.Selection) {
			out = append(out, el)
		})
	}
	return out
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
