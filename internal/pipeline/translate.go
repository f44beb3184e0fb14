package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/translate"
)

// TranslateRequest asks for a structured JSON file to be translated.
type TranslateRequest struct {
	JSONPath string
	Lang     doctype.Language
}

// TranslateResult is the translated document and where it was saved.
type TranslateResult struct {
	SessionID string           `json:"session_id"`
	Lang      string           `json:"lang"`
	JSONPath  string           `json:"json_path"`
	Result    any              `json:"result"`
	Stats     *translate.Stats `json:"stats"`
}

// Summary lists the session, the translated JSON and the leaf counts.
func (r *TranslateResult) Summary() [][2]string {
	out := [][2]string{
		{"session", r.SessionID},
		{"lang", r.Lang},
		{"json", r.JSONPath},
	}
	if s := r.Stats; s != nil {
		out = append(out,
			[2]string{"leaves", fmt.Sprintf("%d (%d translatable)", s.Leaves, s.Translatable)},
			[2]string{"batches", fmt.Sprintf("%d (%d fallbacks)", s.Batches, s.Fallbacks)},
		)
	}
	return out
}

// Translate translates every translatable string of the document at
// req.JSONPath and saves the result in a new session.
func (p *Pipeline) Translate(ctx context.Context, req TranslateRequest) (*TranslateResult, error) {
	if req.JSONPath == "" {
		return nil, fmt.Errorf("%w: json_path", ErrMissingPath)
	}
	if p.translator == nil {
		return nil, fmt.Errorf("translation agent is not configured")
	}
	src, err := p.resolve(req.JSONPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc, stats, err := p.translator.TranslateFile(ctx, src, req.Lang)
	if err != nil {
		p.logger.Error("translation failed", "json_path", src, "lang", req.Lang.Code(), "error", err)
		return nil, fmt.Errorf("failed to translate %s: %w", req.JSONPath, err)
	}

	sess, err := p.newSession(p.outputsDir)
	if err != nil {
		return nil, err
	}
	data, err := translate.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translation: %w", err)
	}
	dest := sess.path(BaseName(src), suffixTranslated)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write translation: %w", err)
	}

	p.logger.Info("translation completed",
		"session_id", sess.ID,
		"lang", req.Lang.Code(),
		"translatable", stats.Translatable,
		"batches", stats.Batches,
		"fallbacks", stats.Fallbacks,
		"elapsed", time.Since(start))
	return &TranslateResult{
		SessionID: sess.ID,
		Lang:      req.Lang.Code(),
		JSONPath:  dest,
		Result:    doc,
		Stats:     stats,
	}, nil
}
