package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// RenderText writes a terminal view of r. The breakdown rows are included
// when showBreakdown is set.
func RenderText(w io.Writer, r *types.AnalysisResult, showBreakdown bool) error {
	if !ValidateResult(r) {
		_, err := fmt.Fprintln(w, "❌ "+types.UserMessage(types.ErrInvalidAnalysis))
		return err
	}

	style := FormatLabel(r.Label)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s\n", labelIcon(style.Class), style.Display)
	fmt.Fprintf(&b, "   Confidence: %s\n", FormatConfidence(r.Confidence))
	fmt.Fprintf(&b, "\n%s\n", FormatSummary(r.Summary))

	if showBreakdown {
		b.WriteString("\nBreakdown:\n")
		for _, item := range FormatBreakdown(r.Explanation) {
			fmt.Fprintf(&b, "  %s %s\n", item.Icon, item.Title)
			if item.IsList {
				if len(item.Values) == 0 {
					fmt.Fprintf(&b, "     %s\n", NoCertifications)
					continue
				}
				for _, v := range item.Values {
					fmt.Fprintf(&b, "     • %s\n", v)
				}
				continue
			}
			fmt.Fprintf(&b, "     %s\n", item.Value)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func labelIcon(class string) string {
	switch class {
	case "eco-friendly":
		return "🟢"
	case "not-eco-friendly":
		return "🔴"
	default:
		return "🟡"
	}
}
