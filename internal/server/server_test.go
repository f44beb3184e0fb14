package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kdocs/docuflow/internal/config"
	"github.com/kdocs/docuflow/internal/home"
	"github.com/kdocs/docuflow/internal/ocr"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/server/endpoints"
	"github.com/kdocs/docuflow/internal/svcctx"
)

type testServer struct {
	srv  *Server
	http *httptest.Server
	home *home.Dir
	llm  *providers.MockClient
	ocr  *providers.MockOCRProvider
}

func newTestServer(t *testing.T, mgr *config.Manager) *testServer {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := &testServer{
		home: h,
		llm:  providers.NewMockClient(),
		ocr:  providers.NewMockOCRProvider(nil),
	}
	ts.ocr.Handler = registryOCR
	ts.srv, err = New(Config{
		ConfigManager: mgr,
		Home:          h,
		Components:    Components{LLM: ts.llm, OCR: ts.ocr},
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts.http = httptest.NewServer(ts.srv.Handler())
	t.Cleanup(ts.http.Close)
	return ts
}

func (ts *testServer) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.http.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) image(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(ts.home.Path(), "inputs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{Y: 20})
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func registryOCR(images []providers.OCRImage) ([]byte, error) {
	cell := func(row, col int, text string) ocr.Cell {
		return ocr.Cell{
			RowIndex: row, ColumnIndex: col, RowSpan: 1, ColumnSpan: 1,
			CellTextLines: []ocr.TextLine{{CellWords: []ocr.Word{{InferText: text}}}},
		}
	}
	return json.Marshal(ocr.Response{
		Version: "V2",
		Images: []ocr.Image{{
			Name: filepath.Base(images[0].Path),
			Tables: []ocr.Table{{Cells: []ocr.Cell{
				cell(0, 0, "【갑구】"),
				cell(1, 0, "순위번호"), cell(1, 1, "등기목적"),
				cell(2, 0, "1"), cell(2, 1, "소유권보존"),
			}}},
		}},
	})
}

const registryJSON = `{"tables": [{"header": "【갑구】", "columns": ["순위번호", "등기목적"], "rows": [["1", "소유권보존"]]}]}`

func decodeError(t *testing.T, resp *http.Response) endpoints.ErrorResponse {
	t.Helper()
	var e endpoints.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return e
}

func TestHealthAndStatus(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.http.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var health endpoints.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		t.Errorf("health = %d %q", resp.StatusCode, health.Status)
	}

	resp, err = http.Get(ts.http.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var status endpoints.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Providers.Model != "gpt-4o" || status.Providers.TranslateModel != "gpt-4o" {
		t.Errorf("models = %+v", status.Providers)
	}
	if !status.Providers.LLMConfigured {
		t.Error("expected LLM configured from OPENAI_API_KEY")
	}
	if status.Storage.Outputs != ts.home.OutputsPath() {
		t.Errorf("outputs = %q, want %q", status.Storage.Outputs, ts.home.OutputsPath())
	}
}

func TestStructureEndpoint(t *testing.T) {
	t.Run("json mode", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.llm.ResponseText = registryJSON

		resp := ts.post(t, "/binarize-and-ocr-multi", endpoints.StructureRequest{
			ImagePaths: []string{ts.image(t, "deed.png")},
			DocType:    "부동산등기부등본",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
		}
		var res struct {
			SessionID string         `json:"session_id"`
			OCRPath   string         `json:"ocr_path"`
			JSONPath  string         `json:"json_path"`
			Result    map[string]any `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(ts.home.OutputsPath(), res.SessionID, "deed__"+res.SessionID+"_gpt_structured_result.json")
		if res.JSONPath != want {
			t.Errorf("json_path = %q, want %q", res.JSONPath, want)
		}
		if _, err := os.Stat(res.OCRPath); err != nil {
			t.Errorf("ocr results missing: %v", err)
		}
		if _, ok := res.Result["tables"]; !ok {
			t.Errorf("result missing tables: %v", res.Result)
		}
	})

	t.Run("zip mode", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.llm.ResponseText = registryJSON

		resp := ts.post(t, "/binarize-and-ocr-multi", endpoints.StructureRequest{
			ImagePaths: []string{ts.image(t, "deed.png")},
			DocType:    "registry",
			Mode:       "zip",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
			t.Errorf("content type = %q", ct)
		}
		id := resp.Header.Get("X-Session-ID")
		if !strings.Contains(resp.Header.Get("Content-Disposition"), "deed__"+id+"_ocr_and_gpt_results.zip") {
			t.Errorf("disposition = %q", resp.Header.Get("Content-Disposition"))
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("invalid zip: %v", err)
		}
		if len(zr.File) != 2 {
			t.Errorf("zip entries = %d, want 2", len(zr.File))
		}
	})

	t.Run("family uses images", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.llm.ResponseText = `{"documentType": "가족관계증명서", "registrant": {"category": "본인", "fullName": "홍길동"}}`

		resp := ts.post(t, "/binarize-and-ocr-multi", endpoints.StructureRequest{
			ImagePaths: []string{ts.image(t, "family.png")},
			DocType:    "가족관계증명서",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ts.ocr.RequestCount() != 0 {
			t.Errorf("OCR requests = %d, want 0", ts.ocr.RequestCount())
		}
	})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"invalid body", "not an object", http.StatusBadRequest},
		{"no images", endpoints.StructureRequest{DocType: "registry"}, http.StatusBadRequest},
		{"unsupported type", endpoints.StructureRequest{ImagePaths: []string{"a.png"}, DocType: "passport"}, http.StatusBadRequest},
		{"unknown mode", endpoints.StructureRequest{ImagePaths: []string{"a.png"}, DocType: "registry", Mode: "tar"}, http.StatusBadRequest},
		{"missing image", endpoints.StructureRequest{ImagePaths: []string{"/nonexistent/a.png"}, DocType: "registry"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			resp := ts.post(t, "/binarize-and-ocr-multi", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if e := decodeError(t, resp); e.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestStructureUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.ocr.ShouldFail = true

	resp := ts.post(t, "/binarize-and-ocr-multi", endpoints.StructureRequest{
		ImagePaths: []string{ts.image(t, "deed.png")},
		DocType:    "registry",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	e := decodeError(t, resp)
	if !strings.Contains(e.Error, "mock OCR provider configured to fail") {
		t.Errorf("error = %q", e.Error)
	}
	if strings.Count(e.Trace, "\n") < 1 {
		t.Errorf("trace should carry the wrapped chain, got %q", e.Trace)
	}
}

func TestTranslateEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.llm.Handler = func(req *providers.ChatRequest) (string, error) {
		var items []string
		if err := json.Unmarshal([]byte(req.Messages[len(req.Messages)-1].Content), &items); err != nil {
			return "", err
		}
		for i := range items {
			items[i] = "EN:" + items[i]
		}
		data, err := json.Marshal(items)
		return string(data), err
	}

	dir := filepath.Join(ts.home.OutputsPath(), "seed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "scan__seed_gpt_structured_result.json")
	if err := os.WriteFile(src, []byte(`{"name": "홍길동", "rank": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("translates", func(t *testing.T) {
		resp := ts.post(t, "/translate", endpoints.TranslateRequest{JSONPath: src, Lang: "영어"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
		}
		var res struct {
			Lang     string         `json:"lang"`
			JSONPath string         `json:"json_path"`
			Result   map[string]any `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatal(err)
		}
		if res.Result["name"] != "EN:홍길동" {
			t.Errorf("name = %v", res.Result["name"])
		}
		if res.Result["rank"] != float64(1) {
			t.Errorf("rank = %v, want untouched number", res.Result["rank"])
		}
		if !strings.HasSuffix(res.JSONPath, "_gpt_translate_result.json") {
			t.Errorf("json_path = %q", res.JSONPath)
		}
	})

	tests := []struct {
		name string
		body endpoints.TranslateRequest
		want int
	}{
		{"missing path", endpoints.TranslateRequest{Lang: "en"}, http.StatusBadRequest},
		{"outside roots", endpoints.TranslateRequest{JSONPath: "/etc/passwd", Lang: "en"}, http.StatusBadRequest},
		{"not found", endpoints.TranslateRequest{JSONPath: filepath.Join(dir, "missing.json"), Lang: "en"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.post(t, "/translate", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestGenerateEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("inline family", func(t *testing.T) {
		resp := ts.post(t, "/generate-doc", endpoints.GenerateRequest{
			DocType: "family",
			Lang:    "en",
			JSON:    json.RawMessage(`{"registrant": {"category": "Self", "fullName": "Hong Gil-dong"}, "familyMembers": []}`),
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
		}
		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "wordprocessingml") {
			t.Errorf("content type = %q", ct)
		}
		id := resp.Header.Get("X-Session-ID")
		if id == "" {
			t.Fatal("missing X-Session-ID")
		}
		if !strings.Contains(resp.Header.Get("Content-Disposition"), "family__"+id+"_translated.docx") {
			t.Errorf("disposition = %q", resp.Header.Get("Content-Disposition"))
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
			t.Errorf("body is not a docx package: %v", err)
		}
	})

	tests := []struct {
		name string
		body endpoints.GenerateRequest
		want int
	}{
		{"unsupported type", endpoints.GenerateRequest{DocType: "passport", JSON: json.RawMessage(`{}`)}, http.StatusBadRequest},
		{"unknown format", endpoints.GenerateRequest{DocType: "registry", Format: "pdf", JSON: json.RawMessage(`{}`)}, http.StatusBadRequest},
		{"xlsx for family", endpoints.GenerateRequest{DocType: "family", Format: "xlsx", JSON: json.RawMessage(`{}`)}, http.StatusBadRequest},
		{"no source", endpoints.GenerateRequest{DocType: "family"}, http.StatusBadRequest},
		{"outside roots", endpoints.GenerateRequest{DocType: "family", JSONPath: "/etc/hosts"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.post(t, "/generate-doc", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestOutputEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	dir := filepath.Join(ts.home.OutputsPath(), "abc")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x.json"), []byte(`{"ok": true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/outputs/abc/x.json", http.StatusOK},
		{"/outputs/abc/missing.json", http.StatusNotFound},
		{"/outputs/other/x.json", http.StatusNotFound},
		{"/outputs/abc/sub", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.http.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want == http.StatusOK && resp.Header.Get("Content-Type") != "application/json" {
				t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestRequireInit(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.srv.services.Store(&svcctx.Services{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	resp := ts.post(t, "/translate", endpoints.TranslateRequest{JSONPath: "x.json"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	health, err := http.Get(ts.http.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200 without a pipeline", health.StatusCode)
	}
}

func TestReloadSwapsServices(t *testing.T) {
	ts := newTestServer(t, nil)
	before := ts.srv.Services()

	cfg := config.DefaultConfig()
	cfg.Storage.OutputsDir = filepath.Join(t.TempDir(), "elsewhere")
	ts.srv.reload(cfg)

	after := ts.srv.Services()
	if after == before {
		t.Fatal("services not swapped")
	}
	if after.Home.OutputsPath() != cfg.Storage.OutputsDir {
		t.Errorf("outputs = %q", after.Home.OutputsPath())
	}
	if before.Home.OutputsPath() != ts.home.OutputsPath() {
		t.Errorf("previous snapshot modified: %q", before.Home.OutputsPath())
	}
}

func TestSessionsReleased(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("storage:\n  keep_sessions: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mgr, err := config.NewManager(cfgPath, "")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ts := newTestServer(t, mgr)
	ts.llm.ResponseText = `{"registrant": {"category": "본인", "fullName": "홍길동"}}`

	resp := ts.post(t, "/binarize-and-ocr-multi", endpoints.StructureRequest{
		ImagePaths: []string{ts.image(t, "family.png")},
		DocType:    "family",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var res struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(ts.home.OutputsPath(), res.SessionID)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session directory %s not removed", dir)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.llm.ResponseText = registryJSON

	resp := ts.post(t, "/binarize-and-ocr-multi", endpoints.StructureRequest{
		ImagePaths: []string{ts.image(t, "deed.png")},
		DocType:    "registry",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("structure status = %d", resp.StatusCode)
	}

	mresp, err := http.Get(ts.http.URL + "/metrics?recent=true")
	if err != nil {
		t.Fatal(err)
	}
	defer mresp.Body.Close()
	var m endpoints.MetricsResponse
	if err := json.NewDecoder(mresp.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m.Total.Count != 2 {
		t.Errorf("total calls = %d, want 2 (one OCR, one structure)", m.Total.Count)
	}
	for _, stage := range []string{"ocr", "structure"} {
		if s, ok := m.Stages[stage]; !ok || s.SuccessCount != 1 {
			t.Errorf("stage %s = %+v", stage, s)
		}
	}
	if len(m.Recent) != 2 {
		t.Errorf("recent = %d", len(m.Recent))
	}

	bad, err := http.Get(ts.http.URL + "/metrics?since=yesterday")
	if err != nil {
		t.Fatal(err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad since status = %d", bad.StatusCode)
	}
}
