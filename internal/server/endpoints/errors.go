package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kdocs/docuflow/internal/assemble"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/imaging"
	"github.com/kdocs/docuflow/internal/pipeline"
	"github.com/kdocs/docuflow/internal/svcctx"
)

var clientErrors = []error{
	pipeline.ErrNoImages,
	pipeline.ErrMissingPath,
	pipeline.ErrInvalidRequest,
	pipeline.ErrOutsideRoot,
	doctype.ErrUnsupported,
	assemble.ErrUnsupportedFormat,
	imaging.ErrDecode,
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, pipeline.ErrNotFound) || errors.Is(err, imaging.ErrNotFound) {
		return http.StatusNotFound
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// trace renders the wrapped error chain, outermost first.
func trace(err error) string {
	var parts []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// writeFailure writes err with its mapped status. Server errors are logged
// and carry the error chain.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		writeError(w, status, err.Error())
		return
	}
	svcctx.LoggerFrom(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Trace: trace(err)})
}
