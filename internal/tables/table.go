package tables

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrNotObject is returned when a structured document is not a JSON object
// (or a non-empty list of objects).
var ErrNotObject = errors.New("structured document is not an object")

// Table is one headed table of a registry extract.
type Table struct {
	Header  string   `json:"header"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Width is the number of columns the table renders with.
func (t Table) Width() int {
	w := len(t.Columns)
	for _, r := range t.Rows {
		if len(r.Cells) > w {
			w = len(r.Cells)
		}
	}
	return w
}

// Registry is the normalized structured form of a real-estate registry extract.
type Registry struct {
	DocumentType            string   `json:"documentType"`
	TypeOfRegistration      string   `json:"typeOfRegistration"`
	SerialNumber            string   `json:"serialNumber"`
	Address                 string   `json:"address"`
	CompetentRegistryOffice string   `json:"competentRegistryOffice"`
	DateOfIssue             string   `json:"dateOfIssue"`
	Tables                  []Table  `json:"tables"`
	Remarks                 []string `json:"remarks,omitempty"`
}

// DecodeRegistry parses structured JSON into a Registry, applying envelope
// normalization, legacy coercion and header cleanup. Missing fields decode
// to zero values.
func DecodeRegistry(data []byte) (*Registry, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse structured json: %w", err)
	}
	return RegistryFromValue(v)
}

// RegistryFromValue is DecodeRegistry for an already-decoded value.
func RegistryFromValue(v any) (*Registry, error) {
	doc, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	doc = CoerceLegacy(doc)

	reg := &Registry{
		DocumentType:            String(doc, "documentType"),
		TypeOfRegistration:      String(doc, "typeOfRegistration"),
		SerialNumber:            String(doc, "serialNumber"),
		Address:                 String(doc, "address"),
		CompetentRegistryOffice: String(doc, "competentRegistryOffice"),
		DateOfIssue:             String(doc, "dateOfIssue"),
		Remarks:                 Strings(doc, "remarks"),
	}
	for _, tv := range List(doc, "tables") {
		tm, ok := tv.(map[string]any)
		if !ok {
			continue
		}
		reg.Tables = append(reg.Tables, TableFromValue(tm, nil))
	}
	for i := range reg.Tables {
		reg.Tables[i].Header = NormalizeHeader(reg.Tables[i].Header)
	}
	return reg, nil
}

// TableFromValue converts a decoded table object. preferred orders keyed row fields.
func TableFromValue(m map[string]any, preferred []string) Table {
	t := Table{
		Header:  String(m, "header"),
		Columns: Strings(m, "columns"),
	}
	rows := List(m, "rows")
	if preferred == nil {
		preferred = knownFields(rows)
	}
	if preferred == nil {
		preferred = unionFields(rows)
	}
	for _, rv := range rows {
		t.Rows = append(t.Rows, RowFromValue(rv, preferred))
	}
	return t
}

// knownFields recognizes keyed rows of the legacy sections so their fields
// keep the identifying order after a map decode.
func knownFields(rows []any) []string {
	for _, rv := range rows {
		m, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := m["descriptionNo"]; ok {
			return PartOfTitleFields
		}
		if _, ok := m["registeredOwner"]; ok {
			return OwnerFields
		}
	}
	return nil
}

// unionFields collects the keys of every keyed row, sorted, so rows that
// leave out a field still line up column for column.
func unionFields(rows []any) []string {
	seen := map[string]bool{}
	var keys []string
	for _, rv := range rows {
		m, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Value converts the table back to a JSON-compatible value.
func (t Table) Value() map[string]any {
	cols := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c
	}
	rows := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Value()
	}
	return map[string]any{
		"header":  t.Header,
		"columns": cols,
		"rows":    rows,
	}
}

// String returns m[key] as text, or "" when absent.
func String(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return CellString(m[key])
}

// Map returns m[key] when it is an object, or an empty object.
func Map(m map[string]any, key string) map[string]any {
	if m != nil {
		if v, ok := m[key].(map[string]any); ok {
			return v
		}
	}
	return map[string]any{}
}

// List returns m[key] when it is a list, or nil.
func List(m map[string]any, key string) []any {
	if m != nil {
		if v, ok := m[key].([]any); ok {
			return v
		}
	}
	return nil
}

// Strings returns m[key] as a list of texts. A scalar becomes a one-item list.
func Strings(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, it := range v {
			out = append(out, CellString(it))
		}
		return out
	default:
		if s := CellString(v); s != "" {
			return []string{s}
		}
		return nil
	}
}
