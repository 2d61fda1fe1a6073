package scraper

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags", "<b>Title</b>: Mug", "Title: Mug"},
		{"whitespace", "Title: Mug\n\nDescription:   big \t mug  ", "Title: Mug Description: big mug"},
		{"empty", "   \n ", ""},
		{"exact cap untouched", strings.Repeat("a", 5000), strings.Repeat("a", 5000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCleanTextTruncates(t *testing.T) {
	got := CleanText(strings.Repeat("é", 6000))
	if n := utf8.RuneCountInString(got); n != 5003 {
		t.Errorf("expected 5003 characters, got %d", n)
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Error("expected truncation marker")
	}
}

func TestStripBlocksStage(t *testing.T) {
	st := NewStripBlocksStage()
	got := st.Apply("a<script type=\"x\">var a = 1;\n</script>b<STYLE>p{}</STYLE>c")
	if got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}
}

func TestNormalizerChain(t *testing.T) {
	n := NewNormalizer(10, testLogger)
	if n.Len() != 4 {
		t.Errorf("expected 4 stages, got %d", n.Len())
	}
	if got := n.Normalize("<i>hello</i>   wonderful world"); got != "hello wond..." {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCompose(t *testing.T) {
	rec := types.RawProductRecord{
		Title:          "Mug",
		BulletPoints:   []string{"Handmade", "Dishwasher safe"},
		Certifications: []string{"fsc", "organic"},
	}
	got := Compose(rec)
	want := "Title: Mug\n\nFeatures: Handmade; Dishwasher safe\n\nCertifications found: fsc, organic"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
