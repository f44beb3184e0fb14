package docx

import (
	"strconv"
	"strings"
)

// TableGrid is the bordered table style shipped in styles.xml.
const TableGrid = "TableGrid"

// Cell is one grid position of a Table.
type Cell struct {
	Paragraphs []Paragraph
	Width      int // dxa; 0 falls back to the table column width

	span    int // columns covered when this cell starts a merge
	vMerge  string
	covered bool // hidden by a horizontal merge to its left
}

// SetText replaces the cell content with one paragraph of text.
func (c *Cell) SetText(text string, size float64, bold bool, align Align) {
	c.Paragraphs = []Paragraph{{
		Runs:  []Run{{Text: text, Size: size, Bold: bold}},
		Align: align,
	}}
}

// Text returns the cell text with paragraphs joined by newlines.
func (c *Cell) Text() string {
	parts := make([]string, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n")
}

// Table is a fixed grid of cells with optional merges.
type Table struct {
	Style  string
	Widths []int // per column, dxa

	rows [][]*Cell
}

// NewTable creates a rows x cols grid in the TableGrid style.
func NewTable(rows, cols int) *Table {
	if cols < 1 {
		cols = 1
	}
	t := &Table{Style: TableGrid, rows: make([][]*Cell, rows)}
	for r := range t.rows {
		t.rows[r] = make([]*Cell, cols)
		for c := range t.rows[r] {
			t.rows[r][c] = &Cell{}
		}
	}
	return t
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return len(t.rows) }

// Cols returns the number of grid columns.
func (t *Table) Cols() int {
	if len(t.rows) == 0 {
		return 0
	}
	return len(t.rows[0])
}

// Cell returns the cell at r, c.
func (t *Table) Cell(r, c int) *Cell {
	return t.rows[r][c]
}

// Merge joins the rectangle from (r1, c1) to (r2, c2) inclusive and returns
// its top-left cell. Out-of-range corners are clamped.
func (t *Table) Merge(r1, c1, r2, c2 int) *Cell {
	r2 = min(r2, t.Rows()-1)
	c2 = min(c2, t.Cols()-1)
	if r2 < r1 {
		r2 = r1
	}
	if c2 < c1 {
		c2 = c1
	}
	for r := r1; r <= r2; r++ {
		origin := t.rows[r][c1]
		origin.span = c2 - c1 + 1
		switch {
		case r2 == r1:
			origin.vMerge = ""
		case r == r1:
			origin.vMerge = "restart"
		default:
			origin.vMerge = "continue"
		}
		for c := c1 + 1; c <= c2; c++ {
			t.rows[r][c].covered = true
		}
	}
	return t.rows[r1][c1]
}

// Covered reports whether the cell at r, c is hidden by a merge.
func (t *Table) Covered(r, c int) bool {
	cell := t.rows[r][c]
	return cell.covered || cell.vMerge == "continue"
}

func (t *Table) write(b *strings.Builder) {
	b.WriteString("<w:tbl><w:tblPr>")
	if t.Style != "" {
		b.WriteString(`<w:tblStyle w:val="` + escape(t.Style) + `"/>`)
	}
	b.WriteString(`<w:tblW w:w="0" w:type="auto"/><w:tblLook w:val="04A0"/></w:tblPr>`)

	b.WriteString("<w:tblGrid>")
	for c := 0; c < t.Cols(); c++ {
		b.WriteString(`<w:gridCol w:w="` + strconv.Itoa(t.colWidth(c)) + `"/>`)
	}
	b.WriteString("</w:tblGrid>")

	for _, row := range t.rows {
		b.WriteString("<w:tr>")
		for c, cell := range row {
			if cell.covered {
				continue
			}
			span := max(cell.span, 1)
			width := cell.Width
			if width == 0 {
				for i := c; i < c+span && i < len(row); i++ {
					width += t.colWidth(i)
				}
			}
			b.WriteString("<w:tc><w:tcPr>")
			b.WriteString(`<w:tcW w:w="` + strconv.Itoa(width) + `" w:type="dxa"/>`)
			if span > 1 {
				b.WriteString(`<w:gridSpan w:val="` + strconv.Itoa(span) + `"/>`)
			}
			switch cell.vMerge {
			case "restart":
				b.WriteString(`<w:vMerge w:val="restart"/>`)
			case "continue":
				b.WriteString(`<w:vMerge/>`)
			}
			b.WriteString("</w:tcPr>")
			if len(cell.Paragraphs) == 0 || cell.vMerge == "continue" {
				b.WriteString("<w:p/>")
			} else {
				for _, p := range cell.Paragraphs {
					writeParagraph(b, p)
				}
			}
			b.WriteString("</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
}

// colWidth returns the configured width or an even share of 9746 dxa.
func (t *Table) colWidth(c int) int {
	if c < len(t.Widths) && t.Widths[c] > 0 {
		return t.Widths[c]
	}
	if n := t.Cols(); n > 0 {
		return 9746 / n
	}
	return 9746
}
