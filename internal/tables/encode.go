package tables

import (
	"bytes"
	"encoding/json"
)

// MarshalDocument encodes v as two-space indented JSON without HTML
// escaping, the on-disk form of every structured artifact.
func MarshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
