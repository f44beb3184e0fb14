package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kdocs/docuflow/internal/ocr"
)

// LLMClient is the interface for chat completion requests.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// OCRProvider sends images to a table-aware OCR service.
type OCRProvider interface {
	// Name returns the provider identifier (e.g., "clova").
	Name() string

	// ProcessImages submits all images in one request and persists the raw
	// response to dest.
	ProcessImages(ctx context.Context, images []OCRImage, dest string) (*OCRResult, error)
}

// Image is an inline image attached to a chat message.
type Image struct {
	Data     []byte
	MIMEType string // defaults to image/png
}

// Message represents a chat message.
type Message struct {
	Role    string  `json:"role"` // "system", "user", "assistant"
	Content string  `json:"content"`
	Images  []Image `json:"-"` // For vision models (base64 encoded in request)
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OCRImage is one local image submitted to the OCR service.
type OCRImage struct {
	Path   string
	Name   string // defaults to the file base name
	Format string // defaults to the file extension
}

// OCRResult is the response from an OCR provider.
type OCRResult struct {
	Raw      json.RawMessage `json:"-"`
	Response *ocr.Response   `json:"response"`
	Path     string          `json:"path"`

	RequestID     string        `json:"request_id"`
	ExecutionTime time.Duration `json:"execution_time"`
}
