package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/pipeline"
	"github.com/kdocs/docuflow/internal/svcctx"
)

// TranslateRequest is the request body for POST /translate.
type TranslateRequest struct {
	JSONPath string `json:"json_path"`
	Lang     string `json:"lang"`
}

// TranslateEndpoint handles POST /translate.
type TranslateEndpoint struct{}

func (e *TranslateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/translate", e.handler
}

func (e *TranslateEndpoint) RequiresInit() bool { return true }

func (e *TranslateEndpoint) Group() string { return api.GroupDocuments }

// handler godoc
//
//	@Summary		Translate structured JSON
//	@Description	Translates every translatable string value. Unknown languages fall back to English.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TranslateRequest	true	"Structured JSON path and target language"
//	@Success		200		{object}	pipeline.TranslateResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/translate [post]
func (e *TranslateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.JSONPath == "" {
		writeError(w, http.StatusBadRequest, "json_path is required")
		return
	}

	p := svcctx.PipelineFrom(r.Context())
	res, err := p.Translate(r.Context(), pipeline.TranslateRequest{
		JSONPath: req.JSONPath,
		Lang:     doctype.ParseLanguage(req.Lang),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	defer p.Release(res.SessionID)

	writeJSON(w, http.StatusOK, res)
}

func (e *TranslateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		lang       string
		outputFile string
	)
	cmd := &cobra.Command{
		Use:   "translate <json_path>",
		Short: "Translate a structured JSON file on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp pipeline.TranslateResult
			body := TranslateRequest{JSONPath: args[0], Lang: lang}
			if err := client.Post(cmd.Context(), "/translate", body, &resp); err != nil {
				return err
			}
			if outputFile != "" {
				return api.OutputToFile(&resp, outputFile)
			}
			return api.Output(&resp)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", doctype.English.Code(), "Target language")
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write the response to a file")
	return cmd
}
