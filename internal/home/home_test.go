package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-docuflow")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-docuflow" {
			t.Errorf("expected path /tmp/test-docuflow, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-docuflow")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-docuflow/config.yaml"},
		{"OutputsPath", dir.OutputsPath(), "/tmp/test-docuflow/outputs"},
		{"GeneratedPath", dir.GeneratedPath(), "/tmp/test-docuflow/generated"},
		{"TemplatesPath", dir.TemplatesPath(), "/tmp/test-docuflow/templates"},
		{"SessionDir", dir.SessionDir("abc"), "/tmp/test-docuflow/outputs/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_WithStorage(t *testing.T) {
	base, _ := New("/tmp/test-docuflow")
	dir := base.WithStorage("/srv/outputs", "", "/srv/templates")

	if base.OutputsPath() != "/tmp/test-docuflow/outputs" {
		t.Errorf("base modified: %s", base.OutputsPath())
	}

	if dir.OutputsPath() != "/srv/outputs" {
		t.Errorf("outputs = %s", dir.OutputsPath())
	}
	if dir.GeneratedPath() != "/tmp/test-docuflow/generated" {
		t.Errorf("generated = %s, want home default", dir.GeneratedPath())
	}
	if dir.TemplatesPath() != "/srv/templates" {
		t.Errorf("templates = %s", dir.TemplatesPath())
	}
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	docDir := filepath.Join(tmpDir, "docuflow-test")

	dir, err := New(docDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("expected directory to not exist initially")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("failed to ensure exists: %v", err)
	}

	if !dir.Exists() {
		t.Error("expected directory to exist after EnsureExists")
	}
	for _, p := range []string{dir.OutputsPath(), dir.GeneratedPath()} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if dir.ConfigExists() {
		t.Error("expected no config file")
	}
}
