package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/internal/providers"
	"github.com/kdocs/docuflow/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Providers ProvidersStatus `json:"providers"`
	Storage   StorageStatus   `json:"storage"`
}

// ProvidersStatus shows the configured OCR and LLM backends.
type ProvidersStatus struct {
	OCR            string `json:"ocr"`
	OCRConfigured  bool   `json:"ocr_configured"`
	LLM            string `json:"llm"`
	LLMConfigured  bool   `json:"llm_configured"`
	Model          string `json:"model"`
	TranslateModel string `json:"translate_model"`
}

// StorageStatus shows where artifacts are written.
type StorageStatus struct {
	Outputs      string `json:"outputs"`
	Generated    string `json:"generated"`
	Templates    string `json:"templates"`
	KeepSessions bool   `json:"keep_sessions"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Server status
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Server: "running",
	}

	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil {
		resp.Providers = ProvidersStatus{
			OCR:            providers.ClovaOCRName,
			OCRConfigured:  cfg.OCRInvokeURL() != "" && cfg.OCRSecret() != "",
			LLM:            providers.OpenAIName,
			LLMConfigured:  cfg.LLMAPIKey() != "",
			Model:          cfg.LLM.Model,
			TranslateModel: cfg.TranslationModel(),
		}
		resp.Storage.KeepSessions = cfg.Storage.KeepSessions
	}
	if h := svcctx.HomeFrom(r.Context()); h != nil {
		resp.Storage.Outputs = h.OutputsPath()
		resp.Storage.Generated = h.GeneratedPath()
		resp.Storage.Templates = h.TemplatesPath()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response. Trace carries the wrapped
// error chain for server errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Trace string `json:"trace,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
