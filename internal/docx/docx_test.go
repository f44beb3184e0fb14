package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return string(body)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestDocumentWrite(t *testing.T) {
	doc := New()
	doc.AddText("Certificate", 16, true, AlignCenter)
	doc.AddParagraph(Paragraph{
		Runs:        []Run{{Text: "a & b\nsecond"}},
		Align:       AlignRight,
		SpaceAfter:  Pt(0),
		LineSpacing: 1,
	})

	tbl := NewTable(3, 3)
	tbl.Widths = []int{1000, 2000, 3000}
	tbl.Merge(0, 0, 0, 2).SetText("Title", 12, true, AlignDefault)
	tbl.Merge(1, 1, 2, 1).SetText("tall", 10, false, AlignDefault)
	tbl.Cell(1, 0).SetText("x", 10, false, AlignCenter)
	doc.AddTable(tbl)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	body := readPart(t, data, "word/document.xml")

	for _, want := range []string{
		`<w:jc w:val="center"/>`,
		`<w:sz w:val="32"/>`,
		`<w:b/>`,
		`a &amp; b</w:t><w:br/>`,
		`<w:spacing w:after="0" w:line="240" w:lineRule="auto"/>`,
		`<w:tblStyle w:val="TableGrid"/>`,
		`<w:gridCol w:w="2000"/>`,
		`<w:gridSpan w:val="3"/>`,
		`<w:tcW w:w="6000" w:type="dxa"/>`,
		`<w:vMerge w:val="restart"/>`,
		`<w:vMerge/>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("document.xml missing %s", want)
		}
	}
	if got := strings.Count(body, "<w:tr>"); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}
	// The merged title row holds a single cell.
	firstRow := body[strings.Index(body, "<w:tr>"):strings.Index(body, "</w:tr>")]
	if got := strings.Count(firstRow, "<w:tc>"); got != 1 {
		t.Errorf("title row cells = %d, want 1", got)
	}
	if !strings.Contains(readPart(t, data, "word/styles.xml"), `w:styleId="TableGrid"`) {
		t.Error("styles.xml missing TableGrid")
	}

	if !tbl.Covered(0, 1) || !tbl.Covered(2, 1) || tbl.Covered(1, 1) {
		t.Error("Covered does not reflect merges")
	}
	if len(doc.Tables()) != 1 || len(doc.Paragraphs()) != 2 {
		t.Error("body accessors")
	}
}

const templateBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Name: {{na</w:t></w:r><w:r><w:rPr><w:i/></w:rPr><w:t>me}}</w:t></w:r><w:r><w:drawing><wp:inline>logo</wp:inline></w:drawing></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">No placeholder here</w:t></w:r></w:p>
<w:p><w:r><w:t>{{university}} / {{missing}}</w:t></w:r></w:p>
</w:body></w:document>`

const templateHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:p><w:r><w:t>No. {{certificateNumber}}</w:t></w:r></w:p></w:hdr>`

func buildTemplate(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", templateBody},
		{"word/header1.xml", templateHeader},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(f, p.body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTemplateFill(t *testing.T) {
	tpl, err := ReadTemplate(buildTemplate(t))
	if err != nil {
		t.Fatalf("ReadTemplate failed: %v", err)
	}

	got := tpl.Placeholders()
	want := []string{"name", "university", "missing", "certificateNumber"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("placeholders = %v, want %v", got, want)
	}

	if err := tpl.Fill(map[string]string{
		"name":              "Hong <Gil-dong>",
		"university":        "Seoul National University",
		"certificateNumber": "2024-0001",
		"unused":            "x",
	}); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.docx")
	if err := tpl.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := readPart(t, data, "word/document.xml")

	if !strings.Contains(body, "<w:drawing><wp:inline>logo</wp:inline></w:drawing>") {
		t.Error("drawing run was not preserved")
	}
	if !strings.Contains(body, `<w:rPr><w:b/><w:sz w:val="28"/></w:rPr>`) {
		t.Error("first run formatting was lost")
	}
	if !strings.Contains(readPart(t, data, "word/header1.xml"), "No. 2024-0001") {
		t.Error("header not filled")
	}

	reopened, err := OpenTemplate(path)
	if err != nil {
		t.Fatalf("OpenTemplate failed: %v", err)
	}
	text := reopened.Text()
	for _, want := range []string{"Name: Hong <Gil-dong>", "No placeholder here", "Seoul National University / {missing}"} {
		if !strings.Contains(text, want) {
			t.Errorf("Text() = %q, missing %q", text, want)
		}
	}
}

func TestTemplateFillNothing(t *testing.T) {
	tpl, err := ReadTemplate(buildTemplate(t))
	if err != nil {
		t.Fatalf("ReadTemplate failed: %v", err)
	}
	if err := tpl.Fill(map[string]string{"other": "x"}); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if !strings.Contains(tpl.Text(), "Name: {name}") {
		t.Errorf("Text() = %q", tpl.Text())
	}
}

func TestReadTemplateRejectsNonDocx(t *testing.T) {
	if _, err := ReadTemplate([]byte("not a zip")); err == nil {
		t.Error("expected error")
	}
}
