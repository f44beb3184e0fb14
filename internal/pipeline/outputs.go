package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output returns the path of a file stored in an outputs session. Both
// segments must be plain names.
func (p *Pipeline) Output(sessionID, filename string) (string, error) {
	if !validSegment(sessionID) || !validSegment(filename) {
		return "", fmt.Errorf("%w: %s/%s", ErrOutsideRoot, sessionID, filename)
	}
	path := filepath.Join(p.outputsDir, sessionID, filename)
	if !within(p.outputsDir, path) {
		return "", fmt.Errorf("%w: %s/%s", ErrOutsideRoot, sessionID, filename)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s/%s", ErrNotFound, sessionID, filename)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, sessionID, filename)
	}
	return path, nil
}

// resolve checks that path names an existing file inside the outputs or
// generated roots and returns its absolute form.
func (p *Pipeline) resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	inside := false
	for _, root := range []string{p.outputsDir, p.generatedDir} {
		if root != "" && within(root, abs) {
			inside = true
			break
		}
	}
	if !inside {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return abs, nil
}

func within(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
