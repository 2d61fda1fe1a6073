package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// DefaultConfidence is used when the model omits a confidence.
const DefaultConfidence = 50

// AnalysisErrorText fills every explanation field of DefaultErrorResult.
const AnalysisErrorText = "Analysis error"

var (
	fenceJSONRe = regexp.MustCompile("```json\\n?")
	fenceRe     = regexp.MustCompile("```\\n?")
	objectRe    = regexp.MustCompile(`(?s)\{.*\}`)
)

// DefaultErrorResult is returned in place of a reply that cannot be used.
func DefaultErrorResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		Label:      types.LabelModerate,
		Confidence: 0,
		Summary:    "Error analyzing product",
		Explanation: types.Explanation{
			CarbonFootprint:     AnalysisErrorText,
			Recyclability:       AnalysisErrorText,
			Toxicity:            AnalysisErrorText,
			Durability:          AnalysisErrorText,
			CertificationsFound: []string{},
			GreenwashingRisk:    AnalysisErrorText,
		},
	}
}

// ParseResponse extracts an AnalysisResult from model output that may be
// wrapped in markdown fences or surrounded by prose. Missing fields get
// defaults. Output without a label or explanation yields
// DefaultErrorResult.
func ParseResponse(text string) *types.AnalysisResult {
	result, err := parseResponse(text)
	if err != nil {
		return DefaultErrorResult()
	}
	return result
}

func parseResponse(text string) (*types.AnalysisResult, error) {
	jsonText := strings.TrimSpace(text)
	jsonText = fenceJSONRe.ReplaceAllString(jsonText, "")
	jsonText = fenceRe.ReplaceAllString(jsonText, "")
	if m := objectRe.FindString(jsonText); m != "" {
		jsonText = m
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	label, _ := parsed["label"].(string)
	if label == "" || !truthy(parsed["explanation"]) {
		return nil, errors.New("analysis has invalid structure")
	}

	confidence := float64(DefaultConfidence)
	if f, ok := parsed["confidence"].(float64); ok && f != 0 {
		confidence = f
	}

	expl, _ := parsed["explanation"].(map[string]any)
	return &types.AnalysisResult{
		Label:      label,
		Confidence: confidence,
		Summary:    stringOr(parsed["summary"], ""),
		Explanation: types.Explanation{
			CarbonFootprint:     stringOr(expl["carbon_footprint"], types.NotAvailable),
			Recyclability:       stringOr(expl["recyclability"], types.NotAvailable),
			Toxicity:            stringOr(expl["toxicity"], types.NotAvailable),
			Durability:          stringOr(expl["durability"], types.NotAvailable),
			CertificationsFound: stringList(expl["certifications_found"]),
			GreenwashingRisk:    stringOr(expl["greenwashing_risk"], types.NotAvailable),
		},
	}, nil
}

// stringOr returns v as text when it is truthy, otherwise fallback.
func stringOr(v any, fallback string) string {
	if !truthy(v) {
		return fallback
	}
	switch x := v.(type) {
	case string:
		return x
	case float64, bool:
		return fmt.Sprint(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fallback
		}
		return string(b)
	}
}

// stringList keeps an array value, rendering non-string entries as text.
// Anything that is not an array becomes an empty list.
func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case nil:
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}
