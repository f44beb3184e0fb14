// Package pipeline runs the per-request document flows: structure scanned
// images, translate structured JSON, and generate the final document.
//
// Each request gets a fresh session directory named by a UUID. Work inside a
// request is sequential; the filesystem is the only shared state.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kdocs/docuflow/internal/assemble"
	"github.com/kdocs/docuflow/internal/imaging"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/structure"
	"github.com/kdocs/docuflow/internal/translate"
)

var (
	// ErrNoImages is returned when a structure request carries no images.
	ErrNoImages = errors.New("no images provided")
	// ErrMissingPath is returned when a request lacks a required JSON path.
	ErrMissingPath = errors.New("missing required path")
	// ErrInvalidRequest covers other malformed request fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned when a referenced artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrOutsideRoot is returned for paths that escape the storage roots.
	ErrOutsideRoot = errors.New("path outside storage roots")
)

// Artifact name suffixes. Every artifact is named {base}__{session}{suffix}.
const (
	suffixPageOCR    = "_result.json"
	suffixOCRResults = "_ocr_results.json"
	suffixStructured = "_gpt_structured_result.json"
	suffixBundle     = "_ocr_and_gpt_results.zip"
	suffixTranslated = "_gpt_translate_result.json"
	suffixEdited     = "_edited.json"
	suffixDocument   = "_translated"
)

// Config wires the pipeline's components.
type Config struct {
	Normalizer *imaging.Normalizer
	OCR        providers.OCRProvider
	Structurer *structure.Agent
	Translator *translate.Agent
	Assembler  *assemble.Assembler

	// OutputsDir holds per-session intermediate JSON.
	OutputsDir string
	// GeneratedDir holds per-session generated documents.
	GeneratedDir string
	// KeepSessions disables Release.
	KeepSessions bool

	Logger *slog.Logger
	// NewID generates session ids. Defaults to uuid.NewString.
	NewID func() string
}

// Pipeline orchestrates one request at a time per call. It is safe for
// concurrent use because requests never share a session directory.
type Pipeline struct {
	normalizer *imaging.Normalizer
	ocr        providers.OCRProvider
	structurer *structure.Agent
	translator *translate.Agent
	assembler  *assemble.Assembler

	outputsDir   string
	generatedDir string
	keepSessions bool

	logger *slog.Logger
	newID  func() string
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = imaging.NewNormalizer(nil, 0, logger)
	}
	assembler := cfg.Assembler
	if assembler == nil {
		assembler = assemble.New(assemble.Config{Logger: logger})
	}
	return &Pipeline{
		normalizer:   normalizer,
		ocr:          cfg.OCR,
		structurer:   cfg.Structurer,
		translator:   cfg.Translator,
		assembler:    assembler,
		outputsDir:   cfg.OutputsDir,
		generatedDir: cfg.GeneratedDir,
		keepSessions: cfg.KeepSessions,
		logger:       logger,
		newID:        newID,
	}
}

// Session is a per-request working directory.
type Session struct {
	ID  string
	Dir string
}

func (s *Session) path(base, suffix string) string {
	return filepath.Join(s.Dir, ArtifactName(base, s.ID, suffix))
}

func (p *Pipeline) newSession(root string) (*Session, error) {
	id := p.newID()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &Session{ID: id, Dir: dir}, nil
}

// Release removes a session's directories in the background unless sessions
// are kept. Call it after the response has been written.
func (p *Pipeline) Release(sessionID string) {
	if p.keepSessions || !validSegment(sessionID) {
		return
	}
	go func() {
		for _, root := range []string{p.outputsDir, p.generatedDir} {
			if root == "" {
				continue
			}
			dir := filepath.Join(root, sessionID)
			if err := os.RemoveAll(dir); err != nil {
				p.logger.Warn("failed to remove session directory", "session_id", sessionID, "dir", dir, "error", err)
			}
		}
		p.logger.Debug("released session", "session_id", sessionID)
	}()
}

// ArtifactName builds {base}__{session}{suffix}.
func ArtifactName(base, sessionID, suffix string) string {
	return base + "__" + sessionID + suffix
}

// BaseName derives the artifact base from an image reference or artifact
// path: the file name up to its first dot, then up to its first "__".
func BaseName(ref string) string {
	name := ref
	if i := strings.IndexAny(name, "?#"); i >= 0 && (imaging.IsHTTPURL(ref) || imaging.IsS3URL(ref)) {
		name = name[:i]
	}
	name = filepath.Base(filepath.FromSlash(name))
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "__"); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == string(filepath.Separator) {
		return "document"
	}
	return name
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
