package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kdocs/docuflow/internal/assemble"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/imaging"
	"github.com/kdocs/docuflow/internal/pipeline"
	"github.com/kdocs/docuflow/internal/providers"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no images", pipeline.ErrNoImages, http.StatusBadRequest},
		{"missing path", fmt.Errorf("%w: json_path", pipeline.ErrMissingPath), http.StatusBadRequest},
		{"outside root", fmt.Errorf("%w: /etc", pipeline.ErrOutsideRoot), http.StatusBadRequest},
		{"unsupported type", fmt.Errorf("%w: %q", doctype.ErrUnsupported, "passport"), http.StatusBadRequest},
		{"unsupported format", fmt.Errorf("%w: pdf", assemble.ErrUnsupportedFormat), http.StatusBadRequest},
		{"decode", fmt.Errorf("failed to prepare a.png: %w", imaging.ErrDecode), http.StatusBadRequest},
		{"artifact missing", fmt.Errorf("%w: x.json", pipeline.ErrNotFound), http.StatusNotFound},
		{"image missing", fmt.Errorf("failed to prepare a.png: %w", imaging.ErrNotFound), http.StatusNotFound},
		{"upstream", fmt.Errorf("failed to recognize: %w", &providers.OCRStatusError{StatusCode: 502}), http.StatusInternalServerError},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTrace(t *testing.T) {
	root := errors.New("connection reset")
	err := fmt.Errorf("failed to structure document: %w", fmt.Errorf("chat failed: %w", root))

	want := "failed to structure document: chat failed: connection reset\n" +
		"chat failed: connection reset\n" +
		"connection reset"
	if got := trace(err); got != want {
		t.Errorf("trace =\n%s\nwant\n%s", got, want)
	}
}
