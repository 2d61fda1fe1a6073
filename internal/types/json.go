package types

import (
	"bytes"
	"encoding/json"
)

// EncodeJSON encodes v like json.Marshal but leaves &, < and > as they
// are, so the encoded length is the length of the text itself.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
