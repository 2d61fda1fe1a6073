package types

// RawProductRecord holds the signals pulled out of a product page.
// Every string is trimmed and every cap is applied by the extractor
// that produced it.
type RawProductRecord struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	BulletPoints   []string `json:"bulletPoints"`
	Ingredients    string   `json:"ingredients"`
	Materials      string   `json:"materials"`
	Packaging      string   `json:"packaging"`
	Certifications []string `json:"certifications"`
	Sustainability string   `json:"sustainability"`
	URL            string   `json:"url"`
}

// MarshalJSON keeps empty lists as [] rather than null.
func (r RawProductRecord) MarshalJSON() ([]byte, error) {
	type alias RawProductRecord
	a := alias(r)
	if a.BulletPoints == nil {
		a.BulletPoints = []string{}
	}
	if a.Certifications == nil {
		a.Certifications = []string{}
	}
	return EncodeJSON(a)
}

// ScrapeResult pairs the raw record with the flattened text sent for analysis.
type ScrapeResult struct {
	Raw         RawProductRecord `json:"raw"`
	CleanedText string           `json:"cleanedText"`
}

// PayloadSize returns the size in bytes of the JSON encoding of the result.
// HTML characters are not escaped.
func (s *ScrapeResult) PayloadSize() (int, error) {
	b, err := EncodeJSON(s)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
