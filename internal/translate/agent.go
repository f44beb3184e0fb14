// Package translate translates the string values of a structured JSON
// document while leaving its shape, keys, dates and identifiers untouched.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/tables"
)

// Config configures an Agent. Zero values take the defaults.
type Config struct {
	LLM           providers.LLMClient
	Model         string
	MaxBatchChars int

	MaxAttempts  uint          // default 5
	InitialDelay time.Duration // default 2s
	MaxDelay     time.Duration // default 20s

	Logger *slog.Logger
}

// Agent translates documents with an LLM.
type Agent struct {
	llm          providers.LLMClient
	model        string
	maxChars     int
	maxAttempts  uint
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       *slog.Logger
}

// Stats summarizes one translation.
type Stats struct {
	Leaves       int `json:"leaves"`
	Translatable int `json:"translatable"`
	Batches      int `json:"batches"`
	Fallbacks    int `json:"fallbacks"`
	Kept         int `json:"kept"`
}

// New creates an Agent.
func New(cfg Config) *Agent {
	a := &Agent{
		llm:          cfg.LLM,
		model:        cfg.Model,
		maxChars:     cfg.MaxBatchChars,
		maxAttempts:  cfg.MaxAttempts,
		initialDelay: cfg.InitialDelay,
		maxDelay:     cfg.MaxDelay,
		logger:       cfg.Logger,
	}
	if a.maxChars <= 0 {
		a.maxChars = DefaultMaxBatchChars
	}
	if a.maxAttempts == 0 {
		a.maxAttempts = 5
	}
	if a.initialDelay <= 0 {
		a.initialDelay = 2 * time.Second
	}
	if a.maxDelay <= 0 {
		a.maxDelay = 20 * time.Second
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// TranslateFile reads a structured JSON file and translates it.
func (a *Agent) TranslateFile(ctx context.Context, path string, lang doctype.Language) (any, *Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return a.Translate(ctx, doc, lang)
}

// Translate returns a translated copy of doc. Individual strings that fail
// to translate keep their original value; only a quota error or a cancelled
// context fails the call.
func (a *Agent) Translate(ctx context.Context, doc any, lang doctype.Language) (any, *Stats, error) {
	if a.llm == nil {
		return nil, nil, fmt.Errorf("no LLM client configured")
	}
	start := time.Now()
	out := clone(doc)
	leaves := Leaves(out)
	stats := &Stats{Leaves: len(leaves)}

	var (
		paths  []Path
		values []string
	)
	for _, l := range leaves {
		if Translatable(l.Value) {
			paths = append(paths, l.Path)
			values = append(values, l.Value)
		}
	}
	stats.Translatable = len(values)

	batches := Batches(values, a.maxChars)
	stats.Batches = len(batches)
	for _, batch := range batches {
		items := make([]string, len(batch))
		for i, idx := range batch {
			items[i] = values[idx]
		}

		translated, err := a.translateBatch(ctx, items, lang)
		if err != nil {
			if fatal(err) {
				return nil, stats, err
			}
			stats.Fallbacks++
			a.logger.Warn("batch translation failed, translating items one by one",
				"items", len(items), "error", err)
			translated, err = a.translateEach(ctx, items, lang, stats)
			if err != nil {
				return nil, stats, err
			}
		}

		for i, idx := range batch {
			if len(paths[idx]) == 0 {
				// the document is a bare string
				out = translated[i]
				continue
			}
			Set(out, paths[idx], translated[i])
		}
	}

	a.logger.Info("translated document",
		"lang", lang.Code(),
		"leaves", stats.Leaves,
		"translatable", stats.Translatable,
		"batches", stats.Batches,
		"fallbacks", stats.Fallbacks,
		"elapsed", time.Since(start))
	return out, stats, nil
}

// Encode writes a translated document the way structured documents are stored.
func Encode(doc any) ([]byte, error) {
	return tables.MarshalDocument(doc)
}

func fatal(err error) bool {
	return providers.IsQuotaError(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (a *Agent) translateEach(ctx context.Context, items []string, lang doctype.Language, stats *Stats) ([]string, error) {
	out := make([]string, len(items))
	for i, s := range items {
		got, err := a.translateBatch(ctx, []string{s}, lang)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			stats.Kept++
			out[i] = s
			continue
		}
		out[i] = got[0]
	}
	return out, nil
}

func (a *Agent) translateBatch(ctx context.Context, items []string, lang doctype.Language) ([]string, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	req := &providers.ChatRequest{
		Model: a.model,
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt(lang)},
			{Role: "user", Content: string(payload)},
		},
	}

	var content string
	err = retry.Do(
		func() error {
			res, err := a.llm.Chat(ctx, req)
			if err != nil {
				if providers.IsQuotaError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			content = res.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(a.maxAttempts),
		retry.Delay(a.initialDelay),
		retry.MaxDelay(a.maxDelay),
		retry.DelayType(retryDelay),
		retry.RetryIf(providers.IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			a.logger.Warn("retrying translation request", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to translate batch: %w", err)
	}
	return parseReply(content, len(items))
}

// retryDelay honors a server-provided Retry-After and otherwise backs off
// exponentially from the configured delay.
func retryDelay(n uint, err error, config *retry.Config) time.Duration {
	if rl, ok := providers.IsRateLimitError(err); ok && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func parseReply(content string, want int) ([]string, error) {
	raw, err := providers.ParseStructuredJSON(content)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("translation reply is not a string array: %w", err)
	}
	if len(out) != want {
		return nil, fmt.Errorf("translation reply has %d items, want %d", len(out), want)
	}
	return out, nil
}

func systemPrompt(lang doctype.Language) string {
	return fmt.Sprintf(`당신은 공증문서 번역가입니다.
입력은 문자열로 이루어진 JSON 배열입니다. 각 문자열을 %s로 번역하세요.
- 입력과 같은 순서, 같은 개수의 JSON 문자열 배열만 출력하세요.
- 값만 번역하고 JSON 외의 불필요한 텍스트는 제거하세요.
- 괄호 안의 한자 본관 표기(예: 金海)는 절대 바꾸지 말고 그대로 두세요.
- 숫자, 날짜, 등록번호는 바꾸지 마세요.`, lang.String())
}
