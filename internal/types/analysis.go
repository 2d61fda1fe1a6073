package types

import "time"

// Known analysis labels.
const (
	LabelEcoFriendly    = "Eco-Friendly"
	LabelModerate       = "Moderate"
	LabelNotEcoFriendly = "Not Eco-Friendly"
)

// NotAvailable is the fallback for any missing explanation field.
const NotAvailable = "Not available"

// Explanation is the per-category reasoning behind an analysis label.
type Explanation struct {
	CarbonFootprint     string   `json:"carbon_footprint"`
	Recyclability       string   `json:"recyclability"`
	Toxicity            string   `json:"toxicity"`
	Durability          string   `json:"durability"`
	CertificationsFound []string `json:"certifications_found"`
	GreenwashingRisk    string   `json:"greenwashing_risk"`
}

// MarshalJSON keeps an empty certification list as [] rather than null.
func (e Explanation) MarshalJSON() ([]byte, error) {
	type alias Explanation
	a := alias(e)
	if a.CertificationsFound == nil {
		a.CertificationsFound = []string{}
	}
	return EncodeJSON(a)
}

// AnalysisResult is the structured assessment returned by the analysis
// provider. Label is free text from the remote side.
type AnalysisResult struct {
	Label       string      `json:"label"`
	Confidence  float64     `json:"confidence"`
	Summary     string      `json:"summary"`
	Explanation Explanation `json:"explanation"`

	// Timestamp is the unix millisecond time the result was displayed,
	// used for the freshness check when it is loaded back.
	Timestamp int64 `json:"_timestamp,omitempty"`
}

// Stamp records t as the result's timestamp.
func (a *AnalysisResult) Stamp(t time.Time) {
	a.Timestamp = t.UnixMilli()
}

// Age returns how long ago the result was stamped. Unstamped results
// are infinitely old.
func (a *AnalysisResult) Age(now time.Time) time.Duration {
	if a.Timestamp == 0 {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(time.UnixMilli(a.Timestamp))
}

// LabelStyle is the display form of a label.
type LabelStyle struct {
	Display string `json:"display"`
	Class   string `json:"class"`
	Color   string `json:"color"`
}

// BreakdownItem is one row of the explanation breakdown. Scalar rows use
// Value; the certifications row sets IsList and uses Values.
type BreakdownItem struct {
	Title  string   `json:"title"`
	Key    string   `json:"key"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	Icon   string   `json:"icon"`
	IsList bool     `json:"isList,omitempty"`
}
