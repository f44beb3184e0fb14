// Package metrics provides usage tracking for LLM and OCR calls.
package metrics

import "time"

// Stages attributed to calls.
const (
	StageOCR       = "ocr"
	StageStructure = "structure"
	StageTranslate = "translate"
)

// Metric is a single recorded LLM or OCR call.
type Metric struct {
	// Attribution
	Stage    string `json:"stage"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Tokens (LLM calls only)
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	ExecutionSeconds float64 `json:"execution_seconds"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows List and Summary. Empty fields match everything.
type Filter struct {
	Stage    string
	Provider string
	Since    time.Time
}

func (f Filter) matches(m Metric) bool {
	if f.Stage != "" && m.Stage != f.Stage {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if !f.Since.IsZero() && m.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}
