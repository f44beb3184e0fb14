// Package assemble renders structured documents into Word documents and,
// for registry extracts, spreadsheets.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/ocr"
)

// Format is an output file format.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for unknown formats and for xlsx on
// documents without tables.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat reads a request format; empty means docx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "docx":
		return FormatDOCX, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Config configures an Assembler.
type Config struct {
	// TemplatesDir holds optional enrollment/<lang>.docx templates.
	TemplatesDir string
	Logger       *slog.Logger
}

// Assembler renders documents.
type Assembler struct {
	templatesDir string
	logger       *slog.Logger
}

// New creates an Assembler.
func New(cfg Config) *Assembler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{templatesDir: cfg.TemplatesDir, logger: logger}
}

// Request describes one render.
type Request struct {
	Type     doctype.Type
	Lang     doctype.Language
	Document any

	// OCRTables, when set for a registry, are reconciled into the document
	// before rendering.
	OCRTables []ocr.TableSummary

	Format Format
}

// Output is a rendered file.
type Output struct {
	Data      []byte
	Format    Format
	Recovered int
}

// Generate renders req. Nothing is written to disk.
func (a *Assembler) Generate(req Request) (*Output, error) {
	if req.Format == "" {
		req.Format = FormatDOCX
	}
	start := time.Now()

	var (
		out *Output
		err error
	)
	switch req.Type {
	case doctype.Registry:
		out, err = a.registry(req)
	case doctype.FamilyRelationship:
		out, err = a.family(req)
	case doctype.Enrollment:
		out, err = a.enrollment(req)
	default:
		return nil, fmt.Errorf("%w: %q", doctype.ErrUnsupported, string(req.Type))
	}
	if err != nil {
		return nil, err
	}

	a.logger.Info("generated document",
		"doc_type", req.Type.Slug(),
		"lang", req.Lang.Code(),
		"format", string(out.Format),
		"bytes", len(out.Data),
		"elapsed", time.Since(start))
	return out, nil
}

func (a *Assembler) registry(req Request) (*Output, error) {
	reg, recovered, err := PrepareRegistry(req.Document, req.OCRTables)
	if err != nil {
		return nil, err
	}
	if recovered > 0 {
		a.logger.Info("recovered OCR cells while rendering", "cells", recovered)
	}

	var buf bytes.Buffer
	switch req.Format {
	case FormatDOCX:
		if _, err := RenderRegistry(reg, req.Lang).WriteTo(&buf); err != nil {
			return nil, err
		}
	case FormatXLSX:
		wb, err := RegistryWorkbook(reg)
		if err != nil {
			return nil, err
		}
		defer wb.Close()
		if _, err := wb.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to write workbook: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}
	return &Output{Data: buf.Bytes(), Format: req.Format, Recovered: recovered}, nil
}

func (a *Assembler) family(req Request) (*Output, error) {
	if req.Format != FormatDOCX {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, req.Format, req.Type.Slug())
	}
	doc, err := RenderFamily(req.Document, req.Lang)
	if err != nil {
		return nil, err
	}
	data, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	return &Output{Data: data, Format: FormatDOCX}, nil
}

func (a *Assembler) enrollment(req Request) (*Output, error) {
	if req.Format != FormatDOCX {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, req.Format, req.Type.Slug())
	}
	tpl, err := RenderEnrollment(req.Document, req.Lang, a.templatesDir)
	if err != nil {
		return nil, err
	}
	data, err := tpl.Bytes()
	if err != nil {
		return nil, err
	}
	return &Output{Data: data, Format: FormatDOCX}, nil
}
