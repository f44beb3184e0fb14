package structure

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/ocr"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/tables"
)

func textCell(row, col int, text string) ocr.Cell {
	return ocr.Cell{
		RowIndex:    row,
		ColumnIndex: col,
		RowSpan:     1,
		ColumnSpan:  1,
		CellTextLines: []ocr.TextLine{
			{CellWords: []ocr.Word{{InferText: text}}},
		},
	}
}

func registryEntry(t *testing.T) ocr.Entry {
	t.Helper()
	resp := ocr.Response{
		Version: "V2",
		Images: []ocr.Image{{
			Name: "page1",
			Tables: []ocr.Table{{Cells: []ocr.Cell{
				textCell(0, 0, "【갑구】"),
				textCell(1, 0, "순위번호"), textCell(1, 1, "등기목적"),
				textCell(2, 0, "1"), textCell(2, 1, "소유권보존"),
				textCell(3, 0, "2"), textCell(3, 1, "소유권이전"),
			}}},
			Lines: []ocr.Field{{InferText: "등기사항전부증명서"}},
		}},
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return ocr.Entry{OriginalImage: "page1.png", BinaryImage: "page1_binary.png", OCRResult: raw}
}

func TestFromOCR(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "```json\n" + `{
  "documentType": "등기사항전부증명서",
  "tables": [
    {"header": "【갑 구】", "columns": ["순위번호", "등기목적"], "rows": [["1", "소유권보존"]]}
  ]
}` + "\n```"

	agent := New(Config{LLM: mock, Model: "gpt-4o"})
	entry := registryEntry(t)
	res, err := agent.FromOCR(context.Background(), []ocr.Entry{entry}, doctype.Registry)
	if err != nil {
		t.Fatalf("FromOCR failed: %v", err)
	}
	if res.Sentinel {
		t.Fatalf("unexpected sentinel: %v", res.Document)
	}
	if res.Recovered != 2 {
		t.Errorf("recovered = %d, want 2", res.Recovered)
	}
	if res.Validation != "" {
		t.Errorf("unexpected validation error: %s", res.Validation)
	}

	reg, err := tables.RegistryFromValue(res.Document)
	if err != nil {
		t.Fatalf("RegistryFromValue: %v", err)
	}
	ocrTables := ocr.Tables(ocr.SummarizeEntries([]ocr.Entry{entry}))
	for _, c := range ocr.BodyCells(ocrTables[0].Cells) {
		if !tables.Covered(reg.Tables, c.Content()) {
			t.Errorf("OCR cell %q missing from structured output", c.Content())
		}
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", req.Temperature)
	}
	if req.Model != "gpt-4o" {
		t.Errorf("model = %q", req.Model)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(req.Messages[1].Content), &payload); err != nil {
		t.Fatalf("user message is not JSON: %v", err)
	}
	if _, ok := payload["ocr_summary"]; !ok {
		t.Error("payload missing ocr_summary")
	}
	if _, ok := payload["instruction"]; !ok {
		t.Error("payload missing instruction")
	}

	out, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(string(out), "소유권이전") {
		t.Errorf("encoded document missing recovered cell: %s", out)
	}
}

func TestFromOCRMergesContinuations(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = `{
  "documentType": "등기사항전부증명서",
  "partOfTitle": {
    "header": "표제부",
    "rows": [
      {"descriptionNo": "1", "acceptance": "2011년4월23일", "location": "서울", "buildingDetails": "철근콘크리트조", "causeOfRegistrationAndOtherInformation": "신축"},
      {"descriptionNo": "", "acceptance": "", "location": "", "buildingDetails": "2층 100㎡", "causeOfRegistrationAndOtherInformation": ""}
    ]
  }
}`
	agent := New(Config{LLM: mock})
	res, err := agent.FromOCR(context.Background(), nil, doctype.Registry)
	if err != nil {
		t.Fatalf("FromOCR failed: %v", err)
	}
	rows := res.Document["partOfTitle"].(map[string]any)["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if got := rows[0].(map[string]any)["buildingDetails"]; got != "철근콘크리트조\n2층 100㎡" {
		t.Errorf("buildingDetails = %q", got)
	}
}

func TestFromOCRSentinel(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "죄송합니다. 문서를 읽을 수 없습니다."

	agent := New(Config{LLM: mock})
	res, err := agent.FromOCR(context.Background(), nil, doctype.Registry)
	if err != nil {
		t.Fatalf("parse failure should not be an error: %v", err)
	}
	if !res.Sentinel || !IsSentinel(res.Document) {
		t.Fatalf("expected sentinel, got %v", res.Document)
	}
	if res.Document[RawKey] != mock.ResponseText {
		t.Errorf("raw = %v", res.Document[RawKey])
	}
	if res.Document[NoteKey] != parseFailureNote {
		t.Errorf("note = %v", res.Document[NoteKey])
	}
}

func TestFromOCRUpstreamError(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ShouldFail = true

	agent := New(Config{LLM: mock})
	if _, err := agent.FromOCR(context.Background(), nil, doctype.Registry); err == nil {
		t.Fatal("expected upstream error")
	}
}

func TestFromImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page1_binary.png")
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("family", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseText = `{"documentType": "가족관계증명서", "registrant": {"fullName": "홍길동"}, "familyMembers": []}`

		res, err := New(Config{LLM: mock}).FromImages(context.Background(), []string{path}, doctype.FamilyRelationship)
		if err != nil {
			t.Fatalf("FromImages failed: %v", err)
		}
		if res.Validation != "" {
			t.Errorf("unexpected validation error: %s", res.Validation)
		}
		req := mock.Requests()[0]
		if len(req.Messages) != 2 || len(req.Messages[1].Images) != 1 {
			t.Fatalf("expected one image on the user message, got %+v", req.Messages)
		}
		if req.Messages[1].Images[0].MIMEType != "image/png" {
			t.Errorf("mime = %q", req.Messages[1].Images[0].MIMEType)
		}
	})

	t.Run("schema problems are reported, not fatal", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseText = `{"documentType": "가족관계증명서"}`

		res, err := New(Config{LLM: mock}).FromImages(context.Background(), []string{path}, doctype.FamilyRelationship)
		if err != nil {
			t.Fatalf("FromImages failed: %v", err)
		}
		if res.Validation == "" {
			t.Fatal("expected validation error for missing registrant")
		}
		if res.Document[ValidationKey] != res.Validation {
			t.Errorf("document should carry %s", ValidationKey)
		}
	})

	t.Run("no images", func(t *testing.T) {
		if _, err := New(Config{LLM: providers.NewMockClient()}).FromImages(context.Background(), nil, doctype.Enrollment); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestUnsupportedType(t *testing.T) {
	agent := New(Config{LLM: providers.NewMockClient()})
	_, err := agent.FromOCR(context.Background(), nil, doctype.Type("주민등록등본"))
	if !errors.Is(err, doctype.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestSchemasCompile(t *testing.T) {
	for _, typ := range []doctype.Type{doctype.Registry, doctype.FamilyRelationship, doctype.Enrollment} {
		if _, err := Schema(typ); err != nil {
			t.Errorf("%s: %v", typ.Slug(), err)
		}
		if _, ok := prompts[typ]; !ok {
			t.Errorf("%s: no prompt", typ.Slug())
		}
	}
}
