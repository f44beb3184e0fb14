package ocr

import (
	"encoding/json"
	"strings"
)

// headerRows is the number of leading grid rows treated as table headers:
// row 0 is the merged title, row 1 holds column labels.
const headerRows = 2

// Summary is the compact, model-facing view of one processed page entry.
type Summary struct {
	OriginalImage string `json:"original_image"`
	BinaryImage   string `json:"binary_image"`
	Pages         []Page `json:"pages"`
}

// Page holds the tables and free text recognized on one image.
type Page struct {
	Name      string         `json:"name"`
	PageIndex *int           `json:"pageIndex"`
	Tables    []TableSummary `json:"tables"`
	FreeText  []string       `json:"freeText"`
}

// TableSummary is a flat list of cells; there is no grid container.
type TableSummary struct {
	Cells []CellSummary `json:"cells"`
}

// CellSummary is a resolved cell. RawWords is every token in the cell joined
// by spaces, used as a fallback when Text lost content.
type CellSummary struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	RowSpan     int    `json:"rowSpan"`
	ColumnSpan  int    `json:"columnSpan"`
	Text        string `json:"text"`
	RawWords    string `json:"rawWords"`
}

// IsHeader reports whether the cell sits in the title or column-label rows.
func (c CellSummary) IsHeader() bool {
	return c.RowIndex < headerRows
}

// Content returns Text, or RawWords when Text is blank.
func (c CellSummary) Content() string {
	if strings.TrimSpace(c.Text) != "" {
		return c.Text
	}
	return c.RawWords
}

func span(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// joinWords joins non-blank trimmed tokens with single spaces.
func joinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.InferText); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// CellText reconstructs the text of a cell as a reader sees it. Lines resolve
// in priority order: explicit line text, then the line's words joined, then
// the cell's root-level words joined, then the empty string. Blank lines are
// kept so vertical layout survives.
func CellText(c Cell) string {
	lines := make([]string, 0, len(c.CellTextLines))
	for _, line := range c.CellTextLines {
		if line.Text != nil {
			lines = append(lines, *line.Text)
			continue
		}
		lines = append(lines, joinWords(line.CellWords))
	}
	if len(lines) == 0 {
		return joinWords(c.CellWords)
	}
	return strings.Join(lines, "\n")
}

// RawWords returns every token in the cell, root words first, ignoring line structure.
func RawWords(c Cell) string {
	words := make([]Word, 0, len(c.CellWords))
	words = append(words, c.CellWords...)
	for _, line := range c.CellTextLines {
		words = append(words, line.CellWords...)
	}
	return joinWords(words)
}

// SummarizeCell resolves one vendor cell.
func SummarizeCell(c Cell) CellSummary {
	return CellSummary{
		RowIndex:    c.RowIndex,
		ColumnIndex: c.ColumnIndex,
		RowSpan:     span(c.RowSpan),
		ColumnSpan:  span(c.ColumnSpan),
		Text:        CellText(c),
		RawWords:    RawWords(c),
	}
}

// SummarizeImage flattens one image's tables and collects its free text.
func SummarizeImage(img Image) Page {
	page := Page{
		Name:     img.Name,
		Tables:   make([]TableSummary, 0, len(img.Tables)),
		FreeText: []string{},
	}
	if img.ConvertedImageInfo != nil {
		page.PageIndex = img.ConvertedImageInfo.PageIndex
	}

	for _, t := range img.Tables {
		ts := TableSummary{Cells: make([]CellSummary, 0, len(t.Cells))}
		for _, c := range t.Cells {
			ts.Cells = append(ts.Cells, SummarizeCell(c))
		}
		page.Tables = append(page.Tables, ts)
	}

	for _, group := range [][]Field{img.Fields, img.Lines} {
		for _, f := range group {
			if t := strings.TrimSpace(f.InferText); t != "" {
				page.FreeText = append(page.FreeText, t)
			}
		}
	}
	return page
}

// Summarize reduces a whole vendor reply to pages.
func Summarize(resp *Response) []Page {
	if resp == nil {
		return []Page{}
	}
	pages := make([]Page, 0, len(resp.Images))
	for _, img := range resp.Images {
		pages = append(pages, SummarizeImage(img))
	}
	return pages
}

// SummarizeEntry summarizes a persisted page entry. An entry with a missing or
// undecodable OCR result yields no pages rather than an error.
func SummarizeEntry(e Entry) Summary {
	s := Summary{
		OriginalImage: e.OriginalImage,
		BinaryImage:   e.BinaryImage,
		Pages:         []Page{},
	}
	if len(e.OCRResult) == 0 {
		return s
	}
	var resp Response
	if err := json.Unmarshal(e.OCRResult, &resp); err != nil {
		return s
	}
	s.Pages = Summarize(&resp)
	return s
}

// SummarizeEntries summarizes entries in order.
func SummarizeEntries(entries []Entry) []Summary {
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		out = append(out, SummarizeEntry(e))
	}
	return out
}

// Extent derives the grid size of a table from cell coordinates and spans.
func Extent(cells []CellSummary) (rows, cols int) {
	for _, c := range cells {
		if r := c.RowIndex + span(c.RowSpan); r > rows {
			rows = r
		}
		if col := c.ColumnIndex + span(c.ColumnSpan); col > cols {
			cols = col
		}
	}
	return rows, cols
}

// BodyCells returns the cells below the header rows.
func BodyCells(cells []CellSummary) []CellSummary {
	body := make([]CellSummary, 0, len(cells))
	for _, c := range cells {
		if !c.IsHeader() {
			body = append(body, c)
		}
	}
	return body
}

// Tables returns every table across all summaries in page order.
func Tables(summaries []Summary) []TableSummary {
	var out []TableSummary
	for _, s := range summaries {
		for _, p := range s.Pages {
			out = append(out, p.Tables...)
		}
	}
	return out
}
