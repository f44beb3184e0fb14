package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kdocs/docuflow/internal/assemble"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/ocr"
)

// GenerateRequest asks for a final document. Exactly one of JSONPath and
// Document is used; Document wins when both are set.
type GenerateRequest struct {
	DocType  doctype.Type
	Lang     doctype.Language
	JSONPath string
	Document json.RawMessage
	// OCRPath optionally points at the registry OCR results to reconcile.
	OCRPath string
	Format  assemble.Format
}

// GenerateResult is a generated file.
type GenerateResult struct {
	SessionID   string          `json:"session_id"`
	Path        string          `json:"path"`
	Filename    string          `json:"filename"`
	Format      assemble.Format `json:"format"`
	ContentType string          `json:"content_type"`
	Recovered   int             `json:"recovered_cells,omitempty"`
	Data        []byte          `json:"-"`
}

// Generate renders the document and writes it under the generated
// directory. Nothing is written when the render fails.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if !req.DocType.Valid() {
		return nil, fmt.Errorf("%w: %q", doctype.ErrUnsupported, string(req.DocType))
	}
	inline := len(bytes.TrimSpace(req.Document)) > 0 && !bytes.Equal(bytes.TrimSpace(req.Document), []byte("null"))
	if !inline && req.JSONPath == "" {
		return nil, fmt.Errorf("%w: json_path or json", ErrMissingPath)
	}
	if req.Format == "" {
		req.Format = assemble.FormatDOCX
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		doc  any
		base string
		err  error
	)
	if inline {
		if doc, err = decodeDocument(req.Document); err != nil {
			return nil, fmt.Errorf("%w: document is not valid JSON: %v", ErrInvalidRequest, err)
		}
		base = req.DocType.Slug()
		if req.JSONPath != "" {
			base = BaseName(req.JSONPath)
		}
	} else {
		src, err := p.resolve(req.JSONPath)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", req.JSONPath, err)
		}
		if doc, err = decodeDocument(data); err != nil {
			return nil, fmt.Errorf("%w: %s is not valid JSON: %v", ErrInvalidRequest, req.JSONPath, err)
		}
		base = BaseName(src)
	}

	var ocrTables []ocr.TableSummary
	if req.OCRPath != "" && req.DocType.NeedsOCR() {
		src, err := p.resolve(req.OCRPath)
		if err != nil {
			return nil, err
		}
		if ocrTables, err = LoadOCRTables(src); err != nil {
			return nil, err
		}
	}

	out, err := p.assembler.Generate(assemble.Request{
		Type:      req.DocType,
		Lang:      req.Lang,
		Document:  doc,
		OCRTables: ocrTables,
		Format:    req.Format,
	})
	if err != nil {
		p.logger.Error("document generation failed", "doc_type", req.DocType.Slug(), "error", err)
		return nil, err
	}

	sess, err := p.newSession(p.generatedDir)
	if err != nil {
		return nil, err
	}
	if inline {
		if err := os.WriteFile(sess.path(base, suffixEdited), req.Document, 0o644); err != nil {
			return nil, fmt.Errorf("failed to persist edited document: %w", err)
		}
	}
	filename := ArtifactName(base, sess.ID, suffixDocument+"."+string(out.Format))
	dest := filepath.Join(sess.Dir, filename)
	if err := os.WriteFile(dest, out.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	p.logger.Info("document generated",
		"session_id", sess.ID,
		"doc_type", req.DocType.Slug(),
		"lang", req.Lang.Code(),
		"file", filename,
		"elapsed", time.Since(start))
	return &GenerateResult{
		SessionID:   sess.ID,
		Path:        dest,
		Filename:    filename,
		Format:      out.Format,
		ContentType: out.Format.ContentType(),
		Recovered:   out.Recovered,
		Data:        out.Data,
	}, nil
}

func decodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadOCRTables reads OCR tables from either a merged page-entry file or a
// single vendor reply.
func LoadOCRTables(path string) ([]ocr.TableSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR results: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []ocr.Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: OCR results are not valid: %v", ErrInvalidRequest, err)
		}
		return ocr.Tables(ocr.SummarizeEntries(entries)), nil
	}
	resp, err := ocr.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: OCR results are not valid: %v", ErrInvalidRequest, err)
	}
	return ocr.Tables([]ocr.Summary{{Pages: ocr.Summarize(resp)}}), nil
}
