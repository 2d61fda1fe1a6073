package scraper

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/IshaanNene/EcoCheck/internal/config"
)

// TruncationMarker is appended to cleaned text that hit the length cap.
const TruncationMarker = "..."

// Stage transforms text in a Normalizer chain.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Apply returns the transformed text.
	Apply(text string) string
}

// Normalizer chains text stages together.
type Normalizer struct {
	stages []Stage
	logger *slog.Logger
}

// NewNormalizer creates the cleaned-text chain: strip tags, strip
// script/style blocks, collapse whitespace, truncate to maxLen characters.
func NewNormalizer(maxLen int, logger *slog.Logger) *Normalizer {
	if maxLen <= 0 {
		maxLen = config.MaxCleanedLength
	}
	n := &Normalizer{logger: logger.With("component", "normalizer")}
	n.Use(NewStripTagsStage())
	n.Use(NewStripBlocksStage())
	n.Use(&CollapseWhitespaceStage{})
	n.Use(&TruncateStage{Max: maxLen, Marker: TruncationMarker})
	return n
}

// Use adds a stage to the end of the chain.
func (n *Normalizer) Use(st Stage) {
	n.stages = append(n.stages, st)
	n.logger.Debug("stage added", "name", st.Name(), "position", len(n.stages))
}

// Normalize runs text through every stage in order.
func (n *Normalizer) Normalize(text string) string {
	for _, st := range n.stages {
		text = st.Apply(text)
	}
	return text
}

// Len returns the number of stages in the chain.
func (n *Normalizer) Len() int {
	return len(n.stages)
}

var defaultNormalizer = NewNormalizer(config.MaxCleanedLength, slog.New(slog.DiscardHandler))

// CleanText applies the default cleaned-text chain.
func CleanText(text string) string {
	return defaultNormalizer.Normalize(text)
}

// --- Stages ---

// StripTagsStage removes anything that looks like a markup tag.
type StripTagsStage struct {
	re *regexp.Regexp
}

func NewStripTagsStage() *StripTagsStage {
	return &StripTagsStage{re: regexp.MustCompile(`<[^>]*>`)}
}

func (s *StripTagsStage) Name() string { return "strip_tags" }

func (s *StripTagsStage) Apply(text string) string {
	return s.re.ReplaceAllString(text, "")
}

// StripBlocksStage removes script and style blocks with their content.
type StripBlocksStage struct {
	script *regexp.Regexp
	style  *regexp.Regexp
}

func NewStripBlocksStage() *StripBlocksStage {
	return &StripBlocksStage{
		script: regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		style:  regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
	}
}

func (s *StripBlocksStage) Name() string { return "strip_blocks" }

func (s *StripBlocksStage) Apply(text string) string {
	text = s.script.ReplaceAllString(text, "")
	return s.style.ReplaceAllString(text, "")
}

// CollapseWhitespaceStage folds whitespace runs into one space and trims.
type CollapseWhitespaceStage struct{}

func (s *CollapseWhitespaceStage) Name() string { return "collapse_whitespace" }

func (s *CollapseWhitespaceStage) Apply(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// TruncateStage cuts text longer than Max characters and appends Marker.
type TruncateStage struct {
	Max    int
	Marker string
}

func (s *TruncateStage) Name() string { return "truncate" }

func (s *TruncateStage) Apply(text string) string {
	cut := truncate(text, s.Max)
	if cut == text {
		return text
	}
	return cut + s.Marker
}
