package tables

import (
	"strings"
)

// Kind tags a row as a new entry or as the continuation of the row before it.
type Kind int

const (
	KindEntry Kind = iota
	KindContinuation
)

func (k Kind) String() string {
	if k == KindContinuation {
		return "continuation"
	}
	return "entry"
}

// Classified pairs a row with its kind.
type Classified struct {
	Row  Row
	Kind Kind
}

// identityWidth is the number of leading cells that identify a row.
func identityWidth(r Row) int {
	return (len(r.Cells) + 1) / 2
}

// IsContinuation reports whether every identifying cell of r is blank.
// Rows with fewer than two cells never continue.
func IsContinuation(r Row) bool {
	if len(r.Cells) < 2 {
		return false
	}
	for _, c := range r.Cells[:identityWidth(r)] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sameID(prev, r Row) bool {
	a := strings.TrimSpace(prev.Get(0))
	return a != "" && a == strings.TrimSpace(r.Get(0))
}

// Classify tags each row. The first row is always an entry. With byID set,
// a row repeating the previous row's first cell also continues it.
func Classify(rows []Row, byID bool) []Classified {
	out := make([]Classified, len(rows))
	for i, r := range rows {
		out[i] = Classified{Row: r, Kind: KindEntry}
		if i == 0 {
			continue
		}
		if IsContinuation(r) || (byID && sameID(rows[i-1], r)) {
			out[i].Kind = KindContinuation
		}
	}
	return out
}

// MergeRows folds continuation rows into the preceding entry: identifying
// cells fill blanks on the entry, other non-blank cells are appended on a new
// line. Applying it twice gives the same result as applying it once.
func MergeRows(rows []Row, byID bool) []Row {
	if len(rows) == 0 {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		r = r.Clone()
		if len(out) == 0 {
			out = append(out, r)
			continue
		}
		prev := &out[len(out)-1]
		if prev.Keyed() && r.Keyed() {
			r = r.AlignTo(prev.Keys)
		}
		cont := IsContinuation(r) || (byID && sameID(*prev, r))
		if !cont {
			out = append(out, r)
			continue
		}
		absorb(prev, r)
	}
	return out
}

func absorb(prev *Row, r Row) {
	if len(r.Cells) > len(prev.Cells) {
		for j := len(prev.Cells); j < len(r.Cells); j++ {
			prev.Cells = append(prev.Cells, "")
			if prev.Keyed() && j < len(r.Keys) {
				prev.Keys = append(prev.Keys, r.Keys[j])
			}
		}
	}
	w := identityWidth(*prev)
	for j, c := range r.Cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		cur := strings.TrimSpace(prev.Cells[j])
		switch {
		case cur == "":
			prev.Cells[j] = c
		case j < w:
			// identifying cells are kept from the entry
		case cur == c:
		default:
			prev.Cells[j] = prev.Cells[j] + "\n" + c
		}
	}
}

// mergesByID reports whether same-identifier rows merge in this table. This
// holds for the title section, keyed by its description number.
func mergesByID(t Table) bool {
	if strings.Contains(strings.ReplaceAll(t.Header, " ", ""), "표제부") {
		return true
	}
	if len(t.Columns) > 0 && strings.ReplaceAll(t.Columns[0], " ", "") == "표시번호" {
		return true
	}
	for _, r := range t.Rows {
		if r.Keyed() && len(r.Keys) > 0 {
			return r.Keys[0] == "descriptionNo"
		}
	}
	return false
}

// MergeContinuations returns a copy of t with continuation rows merged.
func (t Table) MergeContinuations() Table {
	t.Rows = MergeRows(t.Rows, mergesByID(t))
	return t
}

// MergeDocument applies continuation merging to the legacy partOfTitle
// section and to every entry of "tables" in a decoded document. The input
// is not modified.
func MergeDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	if sec, ok := doc["partOfTitle"].(map[string]any); ok {
		t := TableFromValue(sec, PartOfTitleFields)
		rows := MergeRows(t.Rows, true)
		merged := make(map[string]any, len(sec))
		for k, v := range sec {
			merged[k] = v
		}
		merged["rows"] = rowValues(rows)
		out["partOfTitle"] = merged
	}

	if list, ok := doc["tables"].([]any); ok {
		tables := make([]any, len(list))
		for i, tv := range list {
			tm, ok := tv.(map[string]any)
			if !ok {
				tables[i] = tv
				continue
			}
			t := TableFromValue(tm, nil).MergeContinuations()
			merged := make(map[string]any, len(tm))
			for k, v := range tm {
				merged[k] = v
			}
			merged["rows"] = rowValues(t.Rows)
			tables[i] = merged
		}
		out["tables"] = tables
	}
	return out
}

func rowValues(rows []Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r.Value()
	}
	return out
}

// MergeContinuations merges continuation rows in every table of reg.
func (r *Registry) MergeContinuations() {
	for i := range r.Tables {
		r.Tables[i] = r.Tables[i].MergeContinuations()
	}
}
