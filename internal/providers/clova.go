package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kdocs/docuflow/internal/ocr"
)

const (
	ClovaOCRName    = "clova"
	ClovaOCRVersion = "V2"
	clovaSecretHdr  = "X-OCR-SECRET"
)

// ClovaOCRConfig holds configuration for the CLOVA OCR client.
type ClovaOCRConfig struct {
	InvokeURL  string
	Secret     string
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// ClovaOCRClient implements OCRProvider against a CLOVA general OCR
// endpoint with table detection enabled.
type ClovaOCRClient struct {
	invokeURL string
	secret    string
	client    *http.Client
	now       func() time.Time
}

// NewClovaOCRClient creates a new CLOVA OCR client.
func NewClovaOCRClient(cfg ClovaOCRConfig) *ClovaOCRClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &ClovaOCRClient{
		invokeURL: cfg.InvokeURL,
		secret:    cfg.Secret,
		client:    httpClient,
		now:       time.Now,
	}
}

// Name returns the provider identifier.
func (c *ClovaOCRClient) Name() string {
	return ClovaOCRName
}

type clovaImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

type clovaMessage struct {
	Images               []clovaImage `json:"images"`
	RequestID            string       `json:"requestId"`
	Version              string       `json:"version"`
	EnableTableDetection bool         `json:"enableTableDetection"`
	Timestamp            int64        `json:"timestamp"`
}

// ProcessImages submits all images in a single multipart request and
// writes the response JSON to dest.
func (c *ClovaOCRClient) ProcessImages(ctx context.Context, images []OCRImage, dest string) (*OCRResult, error) {
	start := time.Now()
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to recognize")
	}
	if c.invokeURL == "" {
		return nil, fmt.Errorf("OCR invoke URL is not configured")
	}

	msg := clovaMessage{
		RequestID:            uuid.NewString(),
		Version:              ClovaOCRVersion,
		EnableTableDetection: true,
		Timestamp:            c.now().UnixMilli(),
	}
	for _, img := range images {
		msg.Images = append(msg.Images, clovaImage{
			Format: imageFormat(img),
			Name:   imageName(img),
		})
	}

	body, contentType, err := c.buildBody(msg, images)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invokeURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(clovaSecretHdr, c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &OCRStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	parsed, err := ocr.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OCR response: %w", err)
	}

	if dest != "" {
		if err := writeIndentedJSON(dest, raw); err != nil {
			return nil, err
		}
	}

	return &OCRResult{
		Raw:           raw,
		Response:      parsed,
		Path:          dest,
		RequestID:     msg.RequestID,
		ExecutionTime: time.Since(start),
	}, nil
}

func (c *ClovaOCRClient) buildBody(msg clovaMessage, images []OCRImage) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal OCR message: %w", err)
	}
	if err := w.WriteField("message", string(msgJSON)); err != nil {
		return nil, "", fmt.Errorf("failed to write OCR message: %w", err)
	}

	for _, img := range images {
		data, err := os.ReadFile(img.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read image %s: %w", img.Path, err)
		}
		part, err := w.CreateFormFile("file", filepath.Base(img.Path))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("failed to write file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func imageFormat(img OCRImage) string {
	if img.Format != "" {
		return img.Format
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(img.Path), "."))
	switch ext {
	case "":
		return "png"
	case "jpeg":
		return "jpg"
	default:
		return ext
	}
}

func imageName(img OCRImage) string {
	if img.Name != "" {
		return img.Name
	}
	base := filepath.Base(img.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeIndentedJSON re-indents raw JSON and writes it to path.
func writeIndentedJSON(path string, raw []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format OCR response: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create OCR output directory: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write OCR response: %w", err)
	}
	return nil
}

var _ OCRProvider = (*ClovaOCRClient)(nil)
