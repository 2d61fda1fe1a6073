package scraper

// StrategyKind identifies the query language of a Strategy.
type StrategyKind string

const (
	KindCSS   StrategyKind = "css"
	KindXPath StrategyKind = "xpath"
)

// Strategy is one candidate query in a prioritized list.
type Strategy struct {
	Kind StrategyKind
	Expr string
}

// CSS returns a CSS selector strategy.
func CSS(expr string) Strategy { return Strategy{Kind: KindCSS, Expr: expr} }

// XPath returns an XPath strategy.
func XPath(expr string) Strategy { return Strategy{Kind: KindXPath, Expr: expr} }

// KeywordRule drives a keyword-anchored extractor. Elements are scanned in
// order, followed by the document body when IncludeBody is set.
type KeywordRule struct {
	Keywords []string
	Elements []Strategy

	IncludeBody bool

	// ElementLimit truncates the scanned element list (0 = no limit).
	ElementLimit int

	// MinLen and MaxLen bound the text window after the keyword.
	MinLen, MaxLen int

	// Sentence switches from window matching to whole-sentence matching.
	Sentence bool

	// MaxHits stops collection once reached (0 = no limit).
	MaxHits int

	// MaxChars truncates the joined result (0 = no limit).
	MaxChars int

	AllowDuplicates bool
}

// CertificationRule drives the certification vocabulary scan.
type CertificationRule struct {
	Vocabulary   []string
	Specific     []Strategy
	General      []Strategy
	GeneralLimit int
	ElementLimit int
	MaxResults   int
}

// Strategies is the full, ordered extraction configuration.
type Strategies struct {
	Title               []Strategy
	Description         []Strategy
	DescriptionFallback []Strategy
	Bullets             []Strategy
	MaxBullets          int
	MaxBulletLength     int

	Ingredients    KeywordRule
	Materials      KeywordRule
	MaterialAttrs  []string
	MaterialAttrEl Strategy
	MaxAttrEls     int
	Packaging      KeywordRule
	Sustainability KeywordRule
	Certifications CertificationRule
}

// DefaultStrategies returns the stock priority lists.
func DefaultStrategies() Strategies {
	return Strategies{
		Title: []Strategy{
			CSS(`h1[itemprop="name"]`),
			CSS(`h1.product-title`),
			CSS(`h1.product-name`),
			CSS(`h1#product-title`),
			CSS(`[data-product-title]`),
			CSS(`h1`),
		},
		Description: []Strategy{
			CSS(`[itemprop="description"]`),
			CSS(`.product-description`),
			CSS(`#product-description`),
			CSS(`[data-product-description]`),
			CSS(`.product-details`),
			CSS(`#product-details`),
		},
		DescriptionFallback: []Strategy{
			XPath(`(//h1)[1]/following-sibling::*[1][self::p]`),
		},
		Bullets: []Strategy{
			CSS(`ul.product-features li`),
			CSS(`ul.features li`),
			CSS(`ul.bullets li`),
			CSS(`[data-features] li`),
			CSS(`.product-specs li`),
			CSS(`ul li`),
		},
		MaxBullets:      10,
		MaxBulletLength: 200,

		Ingredients: KeywordRule{
			Keywords: []string{"ingredients", "ingredientes", "components", "componentes", "contains"},
			Elements: []Strategy{
				CSS(`[itemprop="ingredients"]`),
				CSS(`.ingredients, #ingredients, [data-ingredients]`),
			},
			IncludeBody: true,
			MinLen:      50,
			MaxLen:      500,
			MaxHits:     3,
			MaxChars:    500,
		},
		Materials: KeywordRule{
			Keywords: []string{"material", "materials", "made of", "fabricado", "materiales"},
			Elements: []Strategy{
				CSS(`[itemprop="material"]`),
				CSS(`.materials, #materials, [data-material], [data-materials]`),
			},
			IncludeBody: true,
			MinLen:      20,
			MaxLen:      300,
			MaxHits:     5,
			MaxChars:    500,
		},
		MaterialAttrs:  []string{"data-material", "data-materials"},
		MaterialAttrEl: CSS(`[data-material], [data-materials]`),
		MaxAttrEls:     10,
		Packaging: KeywordRule{
			Keywords:        []string{"packaging", "empaque", "embalaje", "package", "wrapping"},
			IncludeBody:     true,
			MinLen:          20,
			MaxLen:          300,
			AllowDuplicates: true,
		},
		Sustainability: KeywordRule{
			Keywords: []string{
				"sustainable", "sostenible", "eco-friendly", "ecológico",
				"green", "verde", "environment", "medio ambiente",
			},
			Elements: []Strategy{
				CSS(`.sustainability, #sustainability, [data-sustainability]`),
				CSS(`p, .description, .product-info`),
			},
			IncludeBody:  true,
			ElementLimit: 30,
			Sentence:     true,
			MaxHits:      3,
			MaxChars:     300,
		},
		Certifications: CertificationRule{
			Vocabulary: []string{
				"organic", "orgánico",
				"fair trade", "comercio justo",
				"fsc", "forest stewardship",
				"leed", "energy star",
				"usda organic", "eu organic",
				"carbon neutral", "carbono neutral",
				"b-corp", "b corp",
				"cradle to cradle", "c2c",
				"greenguard", "eco-label",
				"recycled", "reciclado",
				"biodegradable",
			},
			Specific:     []Strategy{CSS(`.certifications, #certifications, [data-certifications]`)},
			General:      []Strategy{CSS(`p, div, span, li`)},
			GeneralLimit: 30,
			ElementLimit: 50,
			MaxResults:   10,
		},
	}
}

// withCaps applies configured caps on top of s. Caps only ever shrink.
func (s Strategies) withCaps(maxBullets, maxBulletLen, maxCerts, maxIngredients, maxMaterials, maxSustain int) Strategies {
	s.MaxBullets = shrink(s.MaxBullets, maxBullets)
	s.MaxBulletLength = shrink(s.MaxBulletLength, maxBulletLen)
	s.Certifications.MaxResults = shrink(s.Certifications.MaxResults, maxCerts)
	s.Ingredients.MaxChars = shrink(s.Ingredients.MaxChars, maxIngredients)
	s.Materials.MaxChars = shrink(s.Materials.MaxChars, maxMaterials)
	s.Sustainability.MaxChars = shrink(s.Sustainability.MaxChars, maxSustain)
	return s
}

func shrink(cur, limit int) int {
	if limit > 0 && (cur == 0 || limit < cur) {
		return limit
	}
	return cur
}
