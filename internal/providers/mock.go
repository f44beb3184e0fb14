package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kdocs/docuflow/internal/ocr"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing. Handler, when set, decides each
// reply; otherwise Responses are returned in order and ResponseText after
// they run out.
type MockClient struct {
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	Err          error
	ResponseText string
	Responses    []string
	Handler      func(req *ChatRequest) (string, error)

	mu           sync.Mutex
	requests     []*ChatRequest
	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
	}

	fail := func(err error) (*ChatResult, error) {
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if c.Err != nil {
		return fail(c.Err)
	}
	if c.ShouldFail {
		return fail(fmt.Errorf("mock client configured to fail"))
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return fail(fmt.Errorf("mock client failed after %d requests", c.FailAfter))
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}

	content := c.ResponseText
	switch {
	case c.Handler != nil:
		text, err := c.Handler(req)
		if err != nil {
			return fail(err)
		}
		content = text
	case int(count) <= len(c.Responses):
		content = c.Responses[count-1]
	}

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}
	result.Success = true
	result.Content = content
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Requests returns the requests received so far.
func (c *MockClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ChatRequest(nil), c.requests...)
}

// Reset resets the request counter and history.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.requests = nil
	c.mu.Unlock()
}

var _ LLMClient = (*MockClient)(nil)

// MockOCRProvider is an OCRProvider for testing. It returns Raw (or the
// result of Handler) and persists it like the real client.
type MockOCRProvider struct {
	ProviderName string
	ShouldFail   bool
	Raw          []byte
	Handler      func(images []OCRImage) ([]byte, error)

	requestCount atomic.Int64
}

// NewMockOCRProvider creates a new mock OCR provider.
func NewMockOCRProvider(raw []byte) *MockOCRProvider {
	return &MockOCRProvider{
		ProviderName: "mock-ocr",
		Raw:          raw,
	}
}

// Name returns the provider identifier.
func (p *MockOCRProvider) Name() string {
	return p.ProviderName
}

// ProcessImages returns the scripted response.
func (p *MockOCRProvider) ProcessImages(ctx context.Context, images []OCRImage, dest string) (*OCRResult, error) {
	start := time.Now()
	count := p.requestCount.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.ShouldFail {
		return nil, &OCRStatusError{StatusCode: 500, Body: "mock OCR provider configured to fail"}
	}

	raw := p.Raw
	if p.Handler != nil {
		var err error
		if raw, err = p.Handler(images); err != nil {
			return nil, err
		}
	}
	parsed, err := ocr.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OCR response: %w", err)
	}
	if dest != "" {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(dest, raw, 0o644); err != nil {
			return nil, err
		}
	}
	return &OCRResult{
		Raw:           raw,
		Response:      parsed,
		Path:          dest,
		RequestID:     fmt.Sprintf("mock-ocr-%d", count),
		ExecutionTime: time.Since(start),
	}, nil
}

// RequestCount returns the number of requests made.
func (p *MockOCRProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

var _ OCRProvider = (*MockOCRProvider)(nil)
