package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

func fullExplanation() types.Explanation {
	return types.Explanation{
		CarbonFootprint:     "Low: bamboo grows fast",
		Recyclability:       "Compostable handle",
		Toxicity:            "No known toxins",
		Durability:          "Three months of use",
		CertificationsFound: []string{"FSC", "Vegan"},
		GreenwashingRisk:    "Low",
	}
}

func TestFormatLabel(t *testing.T) {
	tests := []struct {
		label string
		class string
		color string
	}{
		{"Eco-Friendly", "eco-friendly", "#10b981"},
		{"Moderate", "moderate", "#f59e0b"},
		{"Not Eco-Friendly", "not-eco-friendly", "#ef4444"},
	}
	for _, tt := range tests {
		got := FormatLabel(tt.label)
		if got.Class != tt.class || got.Color != tt.color || got.Display != tt.label {
			t.Errorf("FormatLabel(%q) = %+v", tt.label, got)
		}
	}
}

func TestFormatLabelFallback(t *testing.T) {
	want := FormatLabel("Moderate")
	for _, label := range []string{"garbage", "", "eco-friendly", "ECO-FRIENDLY"} {
		if got := FormatLabel(label); got != want {
			t.Errorf("FormatLabel(%q) = %+v, want Moderate style", label, got)
		}
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{87, "87%"},
		{0, "0%"},
		{49.5, "50%"},
		{49.4, "49%"},
		{-0.4, "0%"},
		{-2.5, "-2%"},
		{100.2, "100%"},
		{math.NaN(), "NaN%"},
	}
	for _, tt := range tests {
		if got := FormatConfidence(tt.in); got != tt.want {
			t.Errorf("FormatConfidence(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBreakdownOrder(t *testing.T) {
	e := fullExplanation()
	items := FormatBreakdown(e)
	if len(items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(items))
	}

	keys := []string{"carbon_footprint", "recyclability", "toxicity", "durability", "certifications", "greenwashing_risk"}
	values := []string{e.CarbonFootprint, e.Recyclability, e.Toxicity, e.Durability, "", e.GreenwashingRisk}
	for i, item := range items {
		if item.Key != keys[i] {
			t.Errorf("item %d: expected key %q, got %q", i, keys[i], item.Key)
		}
		if item.IsList {
			if item.Key != "certifications" {
				t.Errorf("only certifications should be a list, got %q", item.Key)
			}
			if len(item.Values) != 2 || item.Values[0] != "FSC" || item.Values[1] != "Vegan" {
				t.Errorf("unexpected certifications %v", item.Values)
			}
			continue
		}
		if item.Value != values[i] {
			t.Errorf("item %d: expected %q, got %q", i, values[i], item.Value)
		}
	}
}

func TestFormatBreakdownFallback(t *testing.T) {
	items := FormatBreakdown(types.Explanation{})
	for _, item := range items {
		if item.IsList {
			if item.Values == nil || len(item.Values) != 0 {
				t.Errorf("expected empty certification list, got %v", item.Values)
			}
			continue
		}
		if item.Value != types.NotAvailable {
			t.Errorf("%s: expected fallback, got %q", item.Key, item.Value)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{"valid", `{"label":"Eco-Friendly","confidence":87,"explanation":{}}`, true},
		{"unknown label still valid", `{"label":"Sparkly","confidence":500,"explanation":{"x":1}}`, true},
		{"missing label", `{"confidence":87,"explanation":{}}`, false},
		{"empty label", `{"label":"","confidence":87,"explanation":{}}`, false},
		{"string confidence", `{"label":"Moderate","confidence":"87","explanation":{}}`, false},
		{"null explanation", `{"label":"Moderate","confidence":1,"explanation":null}`, false},
		{"string explanation", `{"label":"Moderate","confidence":1,"explanation":"x"}`, false},
		{"not an object", `[1,2]`, false},
		{"broken json", `{"label":`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateJSON([]byte(tt.json)); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidateIdempotent(t *testing.T) {
	raw := map[string]any{"label": "Moderate", "confidence": 50.0, "explanation": map[string]any{}}
	first := Validate(raw)
	for i := 0; i < 3; i++ {
		if Validate(raw) != first {
			t.Fatal("Validate is not idempotent")
		}
	}
	if Validate(nil) {
		t.Error("nil map should be invalid")
	}
}

func TestValidateResult(t *testing.T) {
	if ValidateResult(nil) {
		t.Error("nil result should be invalid")
	}
	if ValidateResult(&types.AnalysisResult{}) {
		t.Error("empty label should be invalid")
	}
	if !ValidateResult(&types.AnalysisResult{Label: "Eco-Friendly", Confidence: 87}) {
		t.Error("expected valid result")
	}
}

func TestFormatSummary(t *testing.T) {
	if got := FormatSummary(""); got != NoSummary {
		t.Errorf("expected placeholder, got %q", got)
	}
	if got := FormatSummary("short"); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	long := strings.Repeat("ü", 600)
	got := FormatSummary(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 503 {
		t.Errorf("expected 500 characters plus marker, got %d", len([]rune(got)))
	}
}

func TestEcoFriendlyScenario(t *testing.T) {
	r := &types.AnalysisResult{
		Label:       "Eco-Friendly",
		Confidence:  87,
		Summary:     "A compostable toothbrush.",
		Explanation: fullExplanation(),
	}
	if !ValidateResult(r) {
		t.Fatal("expected valid result")
	}
	if FormatLabel(r.Label).Class != "eco-friendly" {
		t.Error("expected eco-friendly class")
	}
	if FormatConfidence(r.Confidence) != "87%" {
		t.Error("expected 87%")
	}
}

func TestRenderText(t *testing.T) {
	r := &types.AnalysisResult{
		Label:       "Eco-Friendly",
		Confidence:  87,
		Explanation: types.Explanation{Toxicity: "None"},
	}

	var buf bytes.Buffer
	if err := RenderText(&buf, r, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Eco-Friendly", "Confidence: 87%", NoSummary, "Toxicity", "None", NoCertifications, "Not available"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderText(&buf, r, false); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Breakdown") {
		t.Error("breakdown should be hidden")
	}

	buf.Reset()
	_ = RenderText(&buf, &types.AnalysisResult{}, false)
	if !strings.Contains(buf.String(), "invalid format") {
		t.Errorf("expected invalid format message, got %q", buf.String())
	}
}
