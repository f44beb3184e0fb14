// Package tables holds the structured-document model used for registry
// extracts and the pure transformations applied to it: envelope
// normalization, legacy section coercion, header cleanup, continuation-row
// merging and OCR coverage reconciliation.
package tables

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Row is one table row. Keyed rows remember their field names in order so
// they serialize back as objects; positional rows have nil Keys.
type Row struct {
	Keys  []string
	Cells []string
}

// NewRow builds a positional row.
func NewRow(cells ...string) Row {
	return Row{Cells: cells}
}

// Keyed reports whether the row serializes as an object.
func (r Row) Keyed() bool {
	return r.Keys != nil
}

// Get returns the cell at i, or "" when out of range.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Field returns the value of a named field on a keyed row.
func (r Row) Field(key string) string {
	for i, k := range r.Keys {
		if k == key {
			return r.Get(i)
		}
	}
	return ""
}

// Clone returns a deep copy.
func (r Row) Clone() Row {
	out := Row{Cells: append([]string(nil), r.Cells...)}
	if r.Keys != nil {
		out.Keys = append([]string{}, r.Keys...)
	}
	return out
}

// Blank reports whether every cell is whitespace.
func (r Row) Blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Value converts the row back to a JSON-compatible value.
func (r Row) Value() any {
	if r.Keyed() {
		m := make(map[string]any, len(r.Keys))
		for i, k := range r.Keys {
			m[k] = r.Get(i)
		}
		return m
	}
	out := make([]any, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c
	}
	return out
}

// MarshalJSON writes keyed rows as objects in field order and positional rows as arrays.
func (r Row) MarshalJSON() ([]byte, error) {
	if !r.Keyed() {
		cells := r.Cells
		if cells == nil {
			cells = []string{}
		}
		return json.Marshal(cells)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.Get(i))
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an array of cells or an object of fields, keeping field order.
func (r *Row) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = Row{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*r = Row{Cells: make([]string, len(items))}
		for i, it := range items {
			r.Cells[i] = CellString(it)
		}
		return nil
	case '{':
		keys, vals, err := decodeOrderedObject(trimmed)
		if err != nil {
			return err
		}
		*r = Row{Keys: keys, Cells: make([]string, len(vals))}
		for i, raw := range vals {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			r.Cells[i] = CellString(v)
		}
		return nil
	default:
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*r = Row{Cells: []string{CellString(v)}}
		return nil
	}
}

func decodeOrderedObject(data []byte) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	keys := []string{}
	var vals []json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		vals = append(vals, raw)
	}
	return keys, vals, nil
}

// RowFromValue converts a decoded JSON row. A keyed row carries every
// preferred field, blank when absent, followed by its remaining keys sorted.
func RowFromValue(v any, preferred []string) Row {
	switch t := v.(type) {
	case []any:
		row := Row{Cells: make([]string, len(t))}
		for i, it := range t {
			row.Cells[i] = CellString(it)
		}
		return row
	case []string:
		return Row{Cells: append([]string(nil), t...)}
	case map[string]any:
		keys := orderKeys(t, preferred)
		row := Row{Keys: keys, Cells: make([]string, len(keys))}
		for i, k := range keys {
			row.Cells[i] = CellString(t[k])
		}
		return row
	case nil:
		return Row{}
	default:
		return Row{Cells: []string{CellString(t)}}
	}
}

func orderKeys(m map[string]any, preferred []string) []string {
	keys := make([]string, 0, len(preferred)+len(m))
	seen := make(map[string]bool, len(preferred)+len(m))
	for _, k := range preferred {
		if !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// AlignTo returns r with its cells laid out in the field order of base.
// Fields r has that base lacks are appended after base's fields.
func (r Row) AlignTo(base []string) Row {
	if !r.Keyed() {
		return r
	}
	out := Row{Keys: append([]string{}, base...), Cells: make([]string, len(base))}
	pos := make(map[string]int, len(base))
	for i, k := range base {
		pos[k] = i
	}
	for i, k := range r.Keys {
		j, ok := pos[k]
		if !ok {
			j = len(out.Keys)
			pos[k] = j
			out.Keys = append(out.Keys, k)
			out.Cells = append(out.Cells, "")
		}
		out.Cells[j] = r.Get(i)
	}
	return out
}

// CellString renders a decoded JSON cell value as text. Objects contribute
// their "text" field; lists are newline-joined.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case map[string]any:
		return CellString(t["text"])
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if s := CellString(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(t)
	}
}
