package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/kdocs/docuflow/internal/providers"
)

// InstrumentLLM wraps client so every Chat call is recorded under stage.
func InstrumentLLM(client providers.LLMClient, rec *Recorder, stage string) providers.LLMClient {
	if client == nil || rec == nil {
		return client
	}
	return &llmClient{next: client, rec: rec, stage: stage}
}

type llmClient struct {
	next  providers.LLMClient
	rec   *Recorder
	stage string
}

func (c *llmClient) Name() string { return c.next.Name() }

func (c *llmClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	start := time.Now()
	res, err := c.next.Chat(ctx, req)

	m := Metric{
		Stage:            c.stage,
		Provider:         c.next.Name(),
		Model:            req.Model,
		ExecutionSeconds: time.Since(start).Seconds(),
		Success:          err == nil,
		ErrorType:        ErrorType(err),
	}
	if res != nil {
		if res.ModelUsed != "" {
			m.Model = res.ModelUsed
		}
		m.PromptTokens = res.PromptTokens
		m.CompletionTokens = res.CompletionTokens
		m.TotalTokens = res.TotalTokens
	}
	c.rec.Record(m)
	return res, err
}

// InstrumentOCR wraps provider so every ProcessImages call is recorded.
func InstrumentOCR(provider providers.OCRProvider, rec *Recorder) providers.OCRProvider {
	if provider == nil || rec == nil {
		return provider
	}
	return &ocrProvider{next: provider, rec: rec}
}

type ocrProvider struct {
	next providers.OCRProvider
	rec  *Recorder
}

func (p *ocrProvider) Name() string { return p.next.Name() }

func (p *ocrProvider) ProcessImages(ctx context.Context, images []providers.OCRImage, dest string) (*providers.OCRResult, error) {
	start := time.Now()
	res, err := p.next.ProcessImages(ctx, images, dest)
	p.rec.Record(Metric{
		Stage:            StageOCR,
		Provider:         p.next.Name(),
		ExecutionSeconds: time.Since(start).Seconds(),
		Success:          err == nil,
		ErrorType:        ErrorType(err),
	})
	return res, err
}

// ErrorType classifies err for aggregation. Nil is "".
func ErrorType(err error) string {
	if err == nil {
		return ""
	}
	var (
		ocrErr *providers.OCRStatusError
		apiErr *providers.APIError
	)
	switch {
	case providers.IsQuotaError(err):
		return "quota"
	case errors.As(err, &ocrErr):
		return "ocr_status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &apiErr):
		return "api"
	}
	if _, ok := providers.IsRateLimitError(err); ok {
		return "rate_limit"
	}
	return "other"
}
