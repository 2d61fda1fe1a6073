// Package report validates analysis results and turns them into display
// values.
package report

import (
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// MaxSummaryLength is the longest summary shown before clipping.
const MaxSummaryLength = 500

// NoSummary is shown when the analysis has no summary.
const NoSummary = "No summary available."

// NoCertifications is shown for an empty certification list.
const NoCertifications = "No certifications found"

var labelStyles = map[string]types.LabelStyle{
	types.LabelEcoFriendly: {
		Display: types.LabelEcoFriendly,
		Class:   "eco-friendly",
		Color:   "#10b981",
	},
	types.LabelModerate: {
		Display: types.LabelModerate,
		Class:   "moderate",
		Color:   "#f59e0b",
	},
	types.LabelNotEcoFriendly: {
		Display: types.LabelNotEcoFriendly,
		Class:   "not-eco-friendly",
		Color:   "#ef4444",
	},
}

// Validate checks the structure of a decoded analysis: a truthy label, a
// numeric confidence and an object explanation. Neither the confidence
// range nor the label vocabulary is checked.
func Validate(raw map[string]any) bool {
	if raw == nil {
		return false
	}
	if !truthy(raw["label"]) {
		return false
	}
	if !isNumber(raw["confidence"]) {
		return false
	}
	_, ok := raw["explanation"].(map[string]any)
	return ok
}

// ValidateJSON decodes data and validates it.
func ValidateJSON(data []byte) bool {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return false
	}
	return Validate(raw)
}

// ValidateResult is Validate for an already typed result.
func ValidateResult(r *types.AnalysisResult) bool {
	return r != nil && r.Label != "" && !math.IsNaN(r.Confidence)
}

// FormatLabel returns the display style for label. Unknown labels get the
// Moderate style.
func FormatLabel(label string) types.LabelStyle {
	if style, ok := labelStyles[label]; ok {
		return style
	}
	return labelStyles[types.LabelModerate]
}

// FormatConfidence rounds half up to an integer and appends a percent sign.
func FormatConfidence(confidence float64) string {
	switch {
	case math.IsNaN(confidence):
		return "NaN%"
	case math.IsInf(confidence, 1):
		return "Infinity%"
	case math.IsInf(confidence, -1):
		return "-Infinity%"
	}
	rounded := math.Floor(confidence + 0.5)
	if rounded == 0 {
		rounded = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(rounded, 'f', 0, 64) + "%"
}

// FormatBreakdown projects an explanation onto the six fixed display rows.
func FormatBreakdown(e types.Explanation) []types.BreakdownItem {
	certs := e.CertificationsFound
	if certs == nil {
		certs = []string{}
	}
	return []types.BreakdownItem{
		{Title: "Carbon Footprint", Key: "carbon_footprint", Value: orNotAvailable(e.CarbonFootprint), Icon: "🌍"},
		{Title: "Recyclability", Key: "recyclability", Value: orNotAvailable(e.Recyclability), Icon: "♻️"},
		{Title: "Toxicity", Key: "toxicity", Value: orNotAvailable(e.Toxicity), Icon: "⚠️"},
		{Title: "Durability", Key: "durability", Value: orNotAvailable(e.Durability), Icon: "⏳"},
		{Title: "Certifications", Key: "certifications", Values: certs, Icon: "✅", IsList: true},
		{Title: "Greenwashing Risk", Key: "greenwashing_risk", Value: orNotAvailable(e.GreenwashingRisk), Icon: "🔍"},
	}
}

// FormatSummary clips a summary for display.
func FormatSummary(summary string) string {
	if summary == "" {
		return NoSummary
	}
	if utf8.RuneCountInString(summary) > MaxSummaryLength {
		return string([]rune(summary)[:MaxSummaryLength]) + "..."
	}
	return summary
}

func orNotAvailable(s string) string {
	if s == "" {
		return types.NotAvailable
	}
	return s
}

// truthy follows JSON-value truthiness: null, false, 0, NaN and "" are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, json.Number:
		return true
	default:
		return false
	}
}
