// Package docx writes minimal WordprocessingML documents and fills
// {{key}} placeholders in existing ones.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Align is a paragraph justification value.
type Align string

const (
	AlignDefault Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
)

// Run is a span of text sharing one format. Newlines become line breaks.
type Run struct {
	Text      string
	Size      float64 // points; 0 inherits
	Bold      bool
	Italic    bool
	Underline bool
}

// Paragraph is a block of runs.
type Paragraph struct {
	Runs  []Run
	Align Align

	// Spacing in points. Nil leaves the style default.
	SpaceBefore *float64
	SpaceAfter  *float64

	// LineSpacing is a multiple of single spacing; 0 leaves the default.
	LineSpacing float64
}

// Text returns the concatenated run text.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Pt returns a pointer to a spacing value.
func Pt(v float64) *float64 { return &v }

// Document is an ordered body of paragraphs and tables.
type Document struct {
	body []any
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// AddParagraph appends p.
func (d *Document) AddParagraph(p Paragraph) {
	d.body = append(d.body, p)
}

// AddText appends a single-run paragraph.
func (d *Document) AddText(text string, size float64, bold bool, align Align) {
	d.AddParagraph(Paragraph{
		Runs:  []Run{{Text: text, Size: size, Bold: bold}},
		Align: align,
	})
}

// AddSpacer appends an empty paragraph.
func (d *Document) AddSpacer() {
	d.AddParagraph(Paragraph{})
}

// AddTable appends t.
func (d *Document) AddTable(t *Table) {
	d.body = append(d.body, t)
}

// Paragraphs returns the top-level paragraphs in order.
func (d *Document) Paragraphs() []Paragraph {
	var out []Paragraph
	for _, b := range d.body {
		if p, ok := b.(Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the tables in order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.body {
		if t, ok := b.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// Bytes encodes the document as a .docx package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the .docx package to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", d.documentXML()},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return cw.n, fmt.Errorf("failed to create %s: %w", p.name, err)
		}
		if _, err := io.WriteString(f, p.body); err != nil {
			return cw.n, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish docx: %w", err)
	}
	return cw.n, nil
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (d *Document) documentXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `"><w:body>`)
	for _, blk := range d.body {
		switch v := blk.(type) {
		case Paragraph:
			writeParagraph(&b, v)
		case *Table:
			v.write(&b)
		}
	}
	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>`)
	b.WriteString(`<w:pgMar w:top="1440" w:right="1080" w:bottom="1440" w:left="1080" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, p Paragraph) {
	b.WriteString("<w:p>")
	var ppr strings.Builder
	if p.SpaceBefore != nil || p.SpaceAfter != nil || p.LineSpacing > 0 {
		ppr.WriteString("<w:spacing")
		if p.SpaceBefore != nil {
			ppr.WriteString(` w:before="` + twips(*p.SpaceBefore) + `"`)
		}
		if p.SpaceAfter != nil {
			ppr.WriteString(` w:after="` + twips(*p.SpaceAfter) + `"`)
		}
		if p.LineSpacing > 0 {
			ppr.WriteString(` w:line="` + strconv.Itoa(int(p.LineSpacing*240)) + `" w:lineRule="auto"`)
		}
		ppr.WriteString("/>")
	}
	if p.Align != AlignDefault {
		ppr.WriteString(`<w:jc w:val="` + string(p.Align) + `"/>`)
	}
	if ppr.Len() > 0 {
		b.WriteString("<w:pPr>" + ppr.String() + "</w:pPr>")
	}
	for _, r := range p.Runs {
		writeRun(b, r)
	}
	b.WriteString("</w:p>")
}

func writeRun(b *strings.Builder, r Run) {
	var rpr strings.Builder
	if r.Bold {
		rpr.WriteString("<w:b/>")
	}
	if r.Italic {
		rpr.WriteString("<w:i/>")
	}
	if r.Underline {
		rpr.WriteString(`<w:u w:val="single"/>`)
	}
	if r.Size > 0 {
		hp := strconv.Itoa(int(r.Size * 2))
		rpr.WriteString(`<w:sz w:val="` + hp + `"/><w:szCs w:val="` + hp + `"/>`)
	}
	b.WriteString("<w:r>")
	if rpr.Len() > 0 {
		b.WriteString("<w:rPr>" + rpr.String() + "</w:rPr>")
	}
	b.WriteString(runText(r.Text))
	b.WriteString("</w:r>")
}

// runText encodes text as w:t elements separated by breaks and tabs.
func runText(text string) string {
	var b strings.Builder
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				b.WriteString("<w:tab/>")
			}
			if seg == "" {
				continue
			}
			b.WriteString(`<w:t xml:space="preserve">`)
			b.WriteString(escape(seg))
			b.WriteString("</w:t>")
		}
	}
	return b.String()
}

func twips(pt float64) string {
	return strconv.Itoa(int(pt * 20))
}
