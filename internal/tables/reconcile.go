package tables

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kdocs/docuflow/internal/ocr"
)

// RecoveredHeader names the table created when OCR body cells exist but the
// document has no tables at all.
const RecoveredHeader = "OCR"

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// corpus returns the whitespace-free text of every row cell of reg.
func corpus(tables []Table) string {
	var b strings.Builder
	for _, t := range tables {
		for _, r := range t.Rows {
			for _, c := range r.Cells {
				b.WriteString(compact(c))
				b.WriteByte(0)
			}
		}
	}
	return b.String()
}

// Covered reports whether text appears in some row of tables, ignoring whitespace.
func Covered(tables []Table, text string) bool {
	needle := compact(text)
	if needle == "" {
		return true
	}
	return strings.Contains(corpus(tables), needle)
}

// Reconcile checks every OCR body cell against the rows of reg and appends
// a recovered row for each OCR row whose cells are missing. The target is
// the table at the same index, or the last table. It returns the number of
// cells recovered.
func Reconcile(reg *Registry, ocrTables []ocr.TableSummary) int {
	if reg == nil || len(ocrTables) == 0 {
		return 0
	}
	text := corpus(reg.Tables)
	recovered := 0

	for ti, ot := range ocrTables {
		missing := map[int][]ocr.CellSummary{}
		for _, c := range ocr.BodyCells(ot.Cells) {
			needle := compact(c.Content())
			if needle == "" || strings.Contains(text, needle) {
				continue
			}
			missing[c.RowIndex] = append(missing[c.RowIndex], c)
		}
		if len(missing) == 0 {
			continue
		}

		if len(reg.Tables) == 0 {
			reg.Tables = append(reg.Tables, headedTable(ot))
		}
		target := ti
		if target >= len(reg.Tables) {
			target = len(reg.Tables) - 1
		}
		t := &reg.Tables[target]
		width := t.Width()
		_, ocrCols := ocr.Extent(ot.Cells)
		if width == 0 {
			width = ocrCols
		}

		rowIdx := make([]int, 0, len(missing))
		for r := range missing {
			rowIdx = append(rowIdx, r)
		}
		sort.Ints(rowIdx)
		for _, r := range rowIdx {
			cells := missing[r]
			sort.Slice(cells, func(i, j int) bool { return cells[i].ColumnIndex < cells[j].ColumnIndex })
			row := Row{Cells: make([]string, width)}
			for _, c := range cells {
				col := c.ColumnIndex
				if ocrCols > 0 && ocrCols != width {
					col = c.ColumnIndex * width / ocrCols
				}
				if col >= width {
					col = width - 1
				}
				content := strings.TrimSpace(c.Content())
				if row.Cells[col] == "" {
					row.Cells[col] = content
				} else {
					row.Cells[col] += "\n" + content
				}
				recovered++
			}
			t.Rows = append(t.Rows, row)
		}
		text = corpus(reg.Tables)
	}
	return recovered
}

// headedTable builds an empty table whose header and columns come from the
// OCR header rows.
func headedTable(ot ocr.TableSummary) Table {
	t := Table{Header: RecoveredHeader}
	var title []string
	cols := map[int]string{}
	for _, c := range ot.Cells {
		content := strings.TrimSpace(c.Content())
		if content == "" {
			continue
		}
		switch c.RowIndex {
		case 0:
			title = append(title, content)
		case 1:
			cols[c.ColumnIndex] = content
		}
	}
	if len(title) > 0 {
		t.Header = NormalizeHeader(strings.Join(title, " "))
	}
	idx := make([]int, 0, len(cols))
	for i := range cols {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		t.Columns = append(t.Columns, cols[i])
	}
	return t
}

// ReconcileDocument runs Reconcile over a decoded structured document
// without changing its shape: legacy partOfTitle/owner sections and the
// entries of "tables" receive their recovered rows in place, and a table
// built from OCR is appended to "tables" when the document had none.
// Recovered rows on keyed tables take the keys of the table's first keyed row.
func ReconcileDocument(doc map[string]any, ocrTables []ocr.TableSummary) (map[string]any, int) {
	if doc == nil {
		return nil, 0
	}
	type slot struct {
		legacy string
		index  int
	}

	reg := &Registry{}
	var slots []slot
	for _, s := range legacySections {
		if sec, ok := doc[s.key].(map[string]any); ok {
			reg.Tables = append(reg.Tables, TableFromValue(sec, s.fields))
			slots = append(slots, slot{legacy: s.key})
		}
	}
	list, _ := doc["tables"].([]any)
	for i, tv := range list {
		if tm, ok := tv.(map[string]any); ok {
			reg.Tables = append(reg.Tables, TableFromValue(tm, nil))
			slots = append(slots, slot{index: i})
		}
	}

	existing := len(reg.Tables)
	n := Reconcile(reg, ocrTables)
	if n == 0 {
		return doc, 0
	}

	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	newList := append([]any(nil), list...)
	for i, t := range reg.Tables {
		t = keyRecovered(t)
		if i >= existing {
			newList = append(newList, t.Value())
			continue
		}
		s := slots[i]
		var orig map[string]any
		if s.legacy != "" {
			orig = doc[s.legacy].(map[string]any)
		} else {
			orig = list[s.index].(map[string]any)
		}
		m := make(map[string]any, len(orig))
		for k, v := range orig {
			m[k] = v
		}
		m["rows"] = rowValues(t.Rows)
		if s.legacy != "" {
			out[s.legacy] = m
		} else {
			newList[s.index] = m
		}
	}
	if len(newList) > 0 {
		out["tables"] = newList
	}
	return out, n
}

func keyRecovered(t Table) Table {
	var keys []string
	for _, r := range t.Rows {
		if r.Keyed() {
			keys = r.Keys
			break
		}
	}
	if len(keys) == 0 {
		return t
	}
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		if r.Keyed() {
			rows[i] = r
			continue
		}
		cells := append([]string(nil), r.Cells...)
		for len(cells) < len(keys) {
			cells = append(cells, "")
		}
		if len(cells) > len(keys) {
			extra := strings.Join(cells[len(keys)-1:], "\n")
			cells = append(cells[:len(keys)-1], strings.TrimSpace(extra))
		}
		rows[i] = Row{Keys: append([]string{}, keys...), Cells: cells}
	}
	t.Rows = rows
	return t
}
