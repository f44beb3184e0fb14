package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const clovaReply = `{"version":"V2","requestId":"r-1","timestamp":1,"images":[{"uid":"u","name":"page1","inferResult":"SUCCESS","tables":[{"cells":[{"rowIndex":2,"columnIndex":0,"cellTextLines":[{"cellWords":[{"inferText":"소유권"},{"inferText":"보존"}]}]}]}]}]}`

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("png-bytes-"+name), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestClovaOCRClient_ProcessImages(t *testing.T) {
	t.Run("multipart request and persisted response", func(t *testing.T) {
		var msg clovaMessage
		var files []string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if got := r.Header.Get("X-OCR-SECRET"); got != "secret" {
				t.Errorf("unexpected secret header: %q", got)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse multipart: %v", err)
			}
			if err := json.Unmarshal([]byte(r.FormValue("message")), &msg); err != nil {
				t.Fatalf("decode message: %v", err)
			}
			for _, fh := range r.MultipartForm.File["file"] {
				f, err := fh.Open()
				if err != nil {
					t.Fatalf("open part: %v", err)
				}
				data, _ := io.ReadAll(f)
				f.Close()
				files = append(files, string(data))
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(clovaReply))
		}))
		defer server.Close()

		dir := t.TempDir()
		img1 := writeImage(t, dir, "a_binary.png")
		img2 := writeImage(t, dir, "b_binary.jpeg")
		dest := filepath.Join(dir, "out", "a_ocr.json")

		client := NewClovaOCRClient(ClovaOCRConfig{InvokeURL: server.URL, Secret: "secret"})
		result, err := client.ProcessImages(context.Background(), []OCRImage{{Path: img1}, {Path: img2}}, dest)
		if err != nil {
			t.Fatalf("ProcessImages() error = %v", err)
		}

		if msg.Version != "V2" || !msg.EnableTableDetection || msg.RequestID == "" || msg.Timestamp == 0 {
			t.Errorf("unexpected message: %+v", msg)
		}
		if len(msg.Images) != 2 || msg.Images[0].Format != "png" || msg.Images[1].Format != "jpg" {
			t.Errorf("unexpected images: %+v", msg.Images)
		}
		if msg.Images[0].Name != "a_binary" {
			t.Errorf("unexpected image name: %q", msg.Images[0].Name)
		}
		if len(files) != 2 || files[0] != "png-bytes-a_binary.png" {
			t.Errorf("unexpected file parts: %v", files)
		}
		if result.RequestID != msg.RequestID {
			t.Errorf("RequestID = %q, want %q", result.RequestID, msg.RequestID)
		}
		if len(result.Response.Images) != 1 || len(result.Response.Images[0].Tables) != 1 {
			t.Fatalf("unexpected parsed response: %+v", result.Response)
		}

		saved, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("read persisted response: %v", err)
		}
		var roundTrip map[string]any
		if err := json.Unmarshal(saved, &roundTrip); err != nil {
			t.Fatalf("persisted response is not JSON: %v", err)
		}
		if roundTrip["requestId"] != "r-1" {
			t.Errorf("persisted requestId = %v", roundTrip["requestId"])
		}
	})

	t.Run("non-2xx carries the body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"0011","message":"Request invalid"}`))
		}))
		defer server.Close()

		dir := t.TempDir()
		dest := filepath.Join(dir, "ocr.json")
		client := NewClovaOCRClient(ClovaOCRConfig{InvokeURL: server.URL, Secret: "secret"})
		_, err := client.ProcessImages(context.Background(), []OCRImage{{Path: writeImage(t, dir, "x.png")}}, dest)
		var statusErr *OCRStatusError
		if !errorsAs(err, &statusErr) {
			t.Fatalf("expected OCRStatusError, got %T: %v", err, err)
		}
		if statusErr.StatusCode != http.StatusBadRequest || statusErr.Body == "" {
			t.Errorf("unexpected status error: %+v", statusErr)
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("failed response should not be persisted")
		}
	})

	t.Run("missing image file", func(t *testing.T) {
		client := NewClovaOCRClient(ClovaOCRConfig{InvokeURL: "http://127.0.0.1:0", Secret: "s"})
		if _, err := client.ProcessImages(context.Background(), []OCRImage{{Path: "/does/not/exist.png"}}, ""); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("no images", func(t *testing.T) {
		client := NewClovaOCRClient(ClovaOCRConfig{InvokeURL: "http://127.0.0.1:0"})
		if _, err := client.ProcessImages(context.Background(), nil, ""); err == nil {
			t.Fatal("expected error for empty image list")
		}
	})
}
