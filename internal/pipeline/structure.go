package pipeline

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/ocr"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/structure"
)

// Mode selects what a structure request returns.
type Mode string

const (
	// ModeJSON returns path references plus the inline result.
	ModeJSON Mode = "json"
	// ModeZip additionally bundles the OCR results and structured JSON.
	ModeZip Mode = "zip"
)

// StructureRequest asks for images to be structured into JSON.
type StructureRequest struct {
	Images  []string
	DocType doctype.Type
	Mode    Mode
}

// StructureResult describes the artifacts of a structure request.
type StructureResult struct {
	SessionID string         `json:"session_id"`
	DocType   string         `json:"doc_type"`
	Pages     []ocr.Entry    `json:"pages"`
	OCRPath   string         `json:"ocr_path,omitempty"`
	JSONPath  string         `json:"json_path"`
	ZipPath   string         `json:"zip_path,omitempty"`
	Result    map[string]any `json:"result"`

	ParseFailed bool   `json:"parse_failed,omitempty"`
	Recovered   int    `json:"recovered_cells,omitempty"`
	Validation  string `json:"validation,omitempty"`
}

// Summary lists the session, each page's artifacts and the structured JSON.
func (r *StructureResult) Summary() [][2]string {
	out := [][2]string{
		{"session", r.SessionID},
		{"doc_type", r.DocType},
	}
	for i, p := range r.Pages {
		label := fmt.Sprintf("page %d", i+1)
		out = append(out,
			[2]string{label, p.OriginalImage},
			[2]string{"  binary", p.BinaryImage},
			[2]string{"  ocr", p.OCRJSONFile},
		)
	}
	out = append(out,
		[2]string{"ocr", r.OCRPath},
		[2]string{"json", r.JSONPath},
		[2]string{"zip", r.ZipPath},
	)
	if r.ParseFailed {
		out = append(out, [2]string{"warning", "structured output could not be parsed"})
	}
	if r.Recovered > 0 {
		out = append(out, [2]string{"recovered", fmt.Sprintf("%d cells", r.Recovered)})
	}
	return append(out, [2]string{"validation", r.Validation})
}

// Structure downloads and binarizes each image, then structures the
// document. Registry documents go through OCR first; other types are sent
// to the model as images.
func (p *Pipeline) Structure(ctx context.Context, req StructureRequest) (*StructureResult, error) {
	if len(req.Images) == 0 {
		return nil, ErrNoImages
	}
	if !req.DocType.Valid() {
		return nil, fmt.Errorf("%w: %q", doctype.ErrUnsupported, string(req.DocType))
	}
	switch req.Mode {
	case "":
		req.Mode = ModeJSON
	case ModeJSON, ModeZip:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}
	if p.structurer == nil {
		return nil, fmt.Errorf("structuring agent is not configured")
	}
	if req.DocType.NeedsOCR() && p.ocr == nil {
		return nil, fmt.Errorf("OCR provider is not configured")
	}

	start := time.Now()
	sess, err := p.newSession(p.outputsDir)
	if err != nil {
		return nil, err
	}
	logger := p.logger.With("session_id", sess.ID, "doc_type", req.DocType.Slug())
	logger.Info("structure started", "images", len(req.Images), "mode", string(req.Mode))

	var (
		entries []ocr.Entry
		base    string
		seen    = map[string]int{}
	)
	for _, ref := range req.Images {
		base = BaseName(ref)
		seen[base]++
		imageBase := base
		if n := seen[base]; n > 1 {
			imageBase = fmt.Sprintf("%s_%d", base, n)
		}
		pageStart := time.Now()
		pages, err := p.normalizer.Prepare(ctx, ref, sess.Dir)
		if err != nil {
			logger.Error("image preparation failed", "image", ref, "error", err)
			return nil, fmt.Errorf("failed to prepare %s: %w", ref, err)
		}
		for i, page := range pages {
			entry := ocr.Entry{OriginalImage: page.Original, BinaryImage: page.Binary}
			if req.DocType.NeedsOCR() {
				pageBase := imageBase
				if len(pages) > 1 {
					pageBase = fmt.Sprintf("%s_p%d", imageBase, i+1)
				}
				dest := sess.path(pageBase, suffixPageOCR)
				res, err := p.ocr.ProcessImages(ctx, []providers.OCRImage{{Path: page.Binary}}, dest)
				if err != nil {
					logger.Error("OCR failed", "image", page.Binary, "error", err)
					return nil, fmt.Errorf("failed to recognize %s: %w", page.Binary, err)
				}
				entry.OCRJSONFile = dest
				entry.OCRResult = res.Raw
			}
			entries = append(entries, entry)
		}
		logger.Debug("image processed", "image", ref, "pages", len(pages), "elapsed", time.Since(pageStart))
	}

	out := &StructureResult{
		SessionID: sess.ID,
		DocType:   string(req.DocType),
		Pages:     entries,
	}

	var res *structure.Result
	if req.DocType.NeedsOCR() {
		out.OCRPath = sess.path(base, suffixOCRResults)
		if err := writeJSON(out.OCRPath, entries); err != nil {
			return nil, err
		}
		res, err = p.structurer.FromOCR(ctx, entries, req.DocType)
	} else {
		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			paths = append(paths, e.BinaryImage)
		}
		res, err = p.structurer.FromImages(ctx, paths, req.DocType)
	}
	if err != nil {
		logger.Error("structuring failed", "error", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("failed to structure document: %w", err)
	}

	data, err := res.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode structured result: %w", err)
	}
	out.JSONPath = sess.path(base, suffixStructured)
	if err := os.WriteFile(out.JSONPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write structured result: %w", err)
	}
	out.Result = res.Document
	out.ParseFailed = res.Sentinel
	out.Recovered = res.Recovered
	out.Validation = res.Validation

	if req.Mode == ModeZip {
		out.ZipPath = sess.path(base, suffixBundle)
		files := []string{out.JSONPath}
		if out.OCRPath != "" {
			files = []string{out.OCRPath, out.JSONPath}
		}
		if err := writeZip(out.ZipPath, files); err != nil {
			return nil, err
		}
	}

	logger.Info("structure completed",
		"pages", len(entries),
		"parse_failed", res.Sentinel,
		"recovered_cells", res.Recovered,
		"elapsed", time.Since(start))
	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeZip(dest string, files []string) (err error) {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	for _, path := range files {
		if err := addToZip(zw, path); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish bundle: %w", err)
	}
	return nil
}

func addToZip(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to add %s to bundle: %w", path, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to add %s to bundle: %w", path, err)
	}
	return nil
}
