package assemble

import (
	"fmt"
	"strings"

	"github.com/kdocs/docuflow/internal/docx"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/ocr"
	"github.com/kdocs/docuflow/internal/tables"
)

const (
	headingSize = 16
	metaSize    = 11
	titleSize   = 12
	cellSize    = 10
	notesSize   = 9
)

// PrepareRegistry normalizes a structured registry document, appends OCR
// cells the document lost, and merges continuation rows.
func PrepareRegistry(v any, ocrTables []ocr.TableSummary) (*tables.Registry, int, error) {
	reg, err := tables.RegistryFromValue(v)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read registry document: %w", err)
	}
	recovered := 0
	if len(ocrTables) > 0 {
		recovered = tables.Reconcile(reg, ocrTables)
	}
	reg.MergeContinuations()
	return reg, recovered, nil
}

// RenderRegistry lays out a prepared registry.
func RenderRegistry(reg *tables.Registry, lang doctype.Language) *docx.Document {
	labels := registryLabels[lang]
	doc := docx.New()

	doc.AddText(reg.DocumentType, headingSize, true, docx.AlignCenter)
	doc.AddText("- "+reg.TypeOfRegistration+" -", headingSize, true, docx.AlignCenter)
	doc.AddText(labels.SerialNumber+" "+reg.SerialNumber, metaSize, false, docx.AlignRight)
	doc.AddText("["+reg.TypeOfRegistration+"] "+reg.Address, metaSize, false, docx.AlignLeft)

	for _, t := range reg.Tables {
		doc.AddTable(registryTable(t))
		doc.AddSpacer()
	}

	doc.AddText("-- "+labels.NothingFollows+" --", 0, false, docx.AlignCenter)
	doc.AddText(labels.RegistryOffice+" "+reg.CompetentRegistryOffice, 0, false, docx.AlignRight)

	if len(reg.Remarks) > 0 {
		doc.AddText(strings.Join(reg.Remarks, "\n"), notesSize, false, docx.AlignDefault)
	} else {
		for _, note := range labels.Notes {
			doc.AddText(note, notesSize, false, docx.AlignDefault)
		}
	}

	doc.AddText(labels.DateOfIssue+" : "+reg.DateOfIssue, 0, false, docx.AlignDefault)
	return doc
}

// registryTable renders an optional merged title row, the column header
// row, then one row per data row. The grid is wide enough for the widest
// row so no cell is dropped.
func registryTable(t tables.Table) *docx.Table {
	cols := max(1, t.Width())
	titled := strings.TrimSpace(t.Header) != ""
	first := 0
	if titled {
		first = 1
	}

	out := docx.NewTable(first+1+len(t.Rows), cols)
	if titled {
		out.Merge(0, 0, 0, cols-1).SetText(t.Header, titleSize, true, docx.AlignDefault)
	}
	for c := 0; c < cols; c++ {
		var label string
		if c < len(t.Columns) {
			label = t.Columns[c]
		}
		out.Cell(first, c).SetText(label, cellSize, false, docx.AlignDefault)
	}
	for i, r := range t.Rows {
		for c := 0; c < cols; c++ {
			out.Cell(first+1+i, c).SetText(r.Get(c), cellSize, false, docx.AlignDefault)
		}
	}
	return out
}
