package types

import (
	"strings"
	"testing"
)

func TestPayloadSizeKeepsHTMLCharacters(t *testing.T) {
	res := &ScrapeResult{
		Raw:         RawProductRecord{Description: "Bath & Body <Care>"},
		CleanedText: "Description: Bath & Body <Care>",
	}
	size, err := res.PayloadSize()
	if err != nil {
		t.Fatalf("PayloadSize: %v", err)
	}

	b, _ := EncodeJSON(res)
	if strings.Contains(string(b), `\u0026`) || strings.Contains(string(b), `\u003c`) {
		t.Errorf("HTML characters were escaped: %s", b)
	}
	if size != len(b) {
		t.Errorf("size = %d, encoded length = %d", size, len(b))
	}
	if strings.HasSuffix(string(b), "\n") {
		t.Error("encoding should not end with a newline")
	}
	if !strings.Contains(string(b), `"bulletPoints":[]`) {
		t.Errorf("empty lists should encode as []: %s", b)
	}
}

func TestEncodeJSONExplanation(t *testing.T) {
	b, err := EncodeJSON(&AnalysisResult{Label: LabelModerate, Summary: "Tips & tricks"})
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if !strings.Contains(string(b), `"summary":"Tips & tricks"`) || !strings.Contains(string(b), `"certifications_found":[]`) {
		t.Errorf("unexpected encoding %s", b)
	}
}
