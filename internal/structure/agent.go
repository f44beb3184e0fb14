// Package structure turns OCR summaries or scanned images into the fixed
// per-type structured JSON using a single LLM call.
package structure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/ocr"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/tables"
)

// Sentinel keys carried by a document whose model output could not be parsed.
const (
	RawKey        = "_raw"
	NoteKey       = "_note"
	ValidationKey = "_validation"

	parseFailureNote = "JSON 파싱 실패. 원문 그대로 반환."
)

// Config configures an Agent.
type Config struct {
	LLM    providers.LLMClient
	Model  string // uses the client default if empty
	Logger *slog.Logger
}

// Agent structures documents with an LLM.
type Agent struct {
	llm    providers.LLMClient
	model  string
	logger *slog.Logger
}

// Result is the outcome of one structuring call.
type Result struct {
	Document map[string]any

	// Sentinel is set when the reply was not JSON; Document then holds the
	// raw text under RawKey.
	Sentinel bool

	// Recovered counts OCR body cells appended because the model dropped them.
	Recovered int

	// Validation holds the schema error, if any. It never fails the call.
	Validation string

	Chat *providers.ChatResult
}

// JSON encodes the document for persistence.
func (r *Result) JSON() ([]byte, error) {
	return tables.MarshalDocument(r.Document)
}

// New creates an Agent.
func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		llm:    cfg.LLM,
		model:  cfg.Model,
		logger: logger,
	}
}

// IsSentinel reports whether doc is the parse-failure placeholder.
func IsSentinel(doc map[string]any) bool {
	_, raw := doc[RawKey]
	_, note := doc[NoteKey]
	return raw && note
}

func sentinel(content string) map[string]any {
	return map[string]any{
		RawKey:  content,
		NoteKey: parseFailureNote,
	}
}

type ocrPayload struct {
	Instruction string        `json:"instruction"`
	OCRSummary  []ocr.Summary `json:"ocr_summary"`
}

// FromOCR structures a document from persisted OCR page entries. The
// continuation merge and OCR coverage reconciliation run on the reply.
func (a *Agent) FromOCR(ctx context.Context, entries []ocr.Entry, t doctype.Type) (*Result, error) {
	p, ok := prompts[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", doctype.ErrUnsupported, t)
	}

	summaries := ocr.SummarizeEntries(entries)
	payload, err := json.Marshal(ocrPayload{
		Instruction: p.example + ocrRules,
		OCRSummary:  summaries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode OCR summary: %w", err)
	}

	req := &providers.ChatRequest{
		Model:       a.model,
		Temperature: 0,
		Messages: []providers.Message{
			{Role: "system", Content: p.system},
			{Role: "user", Content: string(payload)},
		},
	}
	return a.run(ctx, t, req, ocr.Tables(summaries))
}

// FromImages structures a document by sending the images themselves.
func (a *Agent) FromImages(ctx context.Context, paths []string, t doctype.Type) (*Result, error) {
	p, ok := prompts[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", doctype.ErrUnsupported, t)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images to structure")
	}

	images := make([]providers.Image, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		images = append(images, providers.Image{
			Data:     data,
			MIMEType: mimeType(path),
		})
	}

	req := &providers.ChatRequest{
		Model:       a.model,
		Temperature: 0,
		Messages: []providers.Message{
			{Role: "system", Content: p.system},
			{Role: "user", Content: p.example + imageRules, Images: images},
		},
	}
	return a.run(ctx, t, req, nil)
}

func mimeType(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "image/png"
}

func (a *Agent) run(ctx context.Context, t doctype.Type, req *providers.ChatRequest, ocrTables []ocr.TableSummary) (*Result, error) {
	if a.llm == nil {
		return nil, fmt.Errorf("no LLM client configured")
	}

	start := time.Now()
	chat, err := a.llm.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to structure %s: %w", t.Slug(), err)
	}
	a.logger.Info("structured document",
		"doc_type", t.Slug(),
		"model", chat.ModelUsed,
		"prompt_tokens", chat.PromptTokens,
		"completion_tokens", chat.CompletionTokens,
		"elapsed", time.Since(start))

	res := a.postProcess(t, chat.Content, ocrTables)
	res.Chat = chat
	return res, nil
}

func (a *Agent) postProcess(t doctype.Type, content string, ocrTables []ocr.TableSummary) *Result {
	parsed, err := providers.ParseStructuredJSON(content)
	if err != nil {
		a.logger.Warn("model reply is not JSON", "doc_type", t.Slug(), "error", err)
		return &Result{Document: sentinel(content), Sentinel: true}
	}

	var v any
	if err := json.Unmarshal(parsed, &v); err != nil {
		return &Result{Document: sentinel(content), Sentinel: true}
	}
	doc, err := tables.Normalize(v)
	if err != nil {
		a.logger.Warn("model reply is not an object", "doc_type", t.Slug(), "error", err)
		return &Result{Document: sentinel(content), Sentinel: true}
	}

	res := &Result{}
	if t == doctype.Registry {
		doc = tables.MergeDocument(doc)
		if len(ocrTables) > 0 {
			doc, res.Recovered = tables.ReconcileDocument(doc, ocrTables)
			if res.Recovered > 0 {
				a.logger.Info("recovered OCR cells missing from model output",
					"doc_type", t.Slug(), "cells", res.Recovered)
			}
		}
	}

	if verr := a.validate(t, doc); verr != nil {
		res.Validation = verr.Error()
		doc[ValidationKey] = res.Validation
		a.logger.Warn("structured output failed validation", "doc_type", t.Slug(), "error", verr)
	}
	res.Document = doc
	return res
}

func (a *Agent) validate(t doctype.Type, doc map[string]any) error {
	schema, err := Schema(t)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document for validation: %w", err)
	}
	return providers.ValidateStructuredJSON(schema, raw)
}
