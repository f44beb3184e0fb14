package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the docuflow home directory.
	DefaultDirName = ".docuflow"

	// OutputsDirName holds per-session intermediate JSON.
	OutputsDirName = "outputs"

	// GeneratedDirName holds per-session generated documents.
	GeneratedDirName = "generated"

	// TemplatesDirName holds document templates.
	TemplatesDirName = "templates"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the docuflow home directory structure.
type Dir struct {
	path string

	outputs   string
	generated string
	templates string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.docuflow).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// WithStorage returns a copy of d using the configured storage directories.
// Empty values keep the home-relative defaults.
func (d *Dir) WithStorage(outputs, generated, templates string) *Dir {
	return &Dir{
		path:      d.path,
		outputs:   outputs,
		generated: generated,
		templates: templates,
	}
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// OutputsPath returns the outputs root.
func (d *Dir) OutputsPath() string {
	if d.outputs != "" {
		return d.outputs
	}
	return filepath.Join(d.path, OutputsDirName)
}

// GeneratedPath returns the generated documents root.
func (d *Dir) GeneratedPath() string {
	if d.generated != "" {
		return d.generated
	}
	return filepath.Join(d.path, GeneratedDirName)
}

// TemplatesPath returns the templates root.
func (d *Dir) TemplatesPath() string {
	if d.templates != "" {
		return d.templates
	}
	return filepath.Join(d.path, TemplatesDirName)
}

// SessionDir returns one outputs session directory.
func (d *Dir) SessionDir(sessionID string) string {
	return filepath.Join(d.OutputsPath(), sessionID)
}

// EnsureExists creates the home directory and the storage roots.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.path, d.OutputsPath(), d.GeneratedPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
