package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/internal/assemble"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/pipeline"
	"github.com/kdocs/docuflow/internal/svcctx"
)

// GenerateRequest is the request body for POST /generate-doc.
type GenerateRequest struct {
	DocType  string `json:"doc_type"`
	Lang     string `json:"lang"`
	JSONPath string `json:"json_path,omitempty"`
	// JSON is an inline edited document. It takes precedence over JSONPath.
	JSON    json.RawMessage `json:"json,omitempty" swaggertype:"object"`
	OCRPath string          `json:"ocr_path,omitempty"`
	// Format is "docx" (default) or "xlsx" for registry documents.
	Format string `json:"format,omitempty"`
}

// GenerateEndpoint handles POST /generate-doc.
type GenerateEndpoint struct{}

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/generate-doc", e.handler
}

func (e *GenerateEndpoint) RequiresInit() bool { return true }

func (e *GenerateEndpoint) Group() string { return api.GroupDocuments }

// handler godoc
//
//	@Summary		Generate the translated document
//	@Description	Renders structured JSON into the per-language template and returns the file.
//	@Description	Registry requests may pass ocr_path so cells missing from the JSON are restored.
//	@Tags			documents
//	@Accept			json
//	@Produce		application/vnd.openxmlformats-officedocument.wordprocessingml.document
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			request	body		GenerateRequest	true	"Document source and target language"
//	@Success		200		{file}		file
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/generate-doc [post]
func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := doctype.ParseType(req.DocType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := assemble.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := svcctx.PipelineFrom(r.Context())
	res, err := p.Generate(r.Context(), pipeline.GenerateRequest{
		DocType:  t,
		Lang:     doctype.ParseLanguage(req.Lang),
		JSONPath: req.JSONPath,
		Document: req.JSON,
		OCRPath:  req.OCRPath,
		Format:   format,
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	defer p.Release(res.SessionID)

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Session-ID", res.SessionID)
	if res.Recovered > 0 {
		w.Header().Set("X-Recovered-Cells", strconv.Itoa(res.Recovered))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		docType    string
		lang       string
		jsonPath   string
		editedFile string
		ocrPath    string
		format     string
		outputFile string
	)
	cmd := &cobra.Command{
		Use:   "generate-doc",
		Short: "Generate a translated document",
		Long: `Render structured JSON into the document template for the target language.

--json names a JSON file on the server. --edited reads a local JSON file and
sends it inline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFile == "" {
				return fmt.Errorf("--file is required")
			}
			body := GenerateRequest{
				DocType:  docType,
				Lang:     lang,
				JSONPath: jsonPath,
				OCRPath:  ocrPath,
				Format:   format,
			}
			if editedFile != "" {
				data, err := os.ReadFile(editedFile)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", editedFile, err)
				}
				if !json.Valid(bytes.TrimSpace(data)) {
					return fmt.Errorf("%s is not valid JSON", editedFile)
				}
				body.JSON = data
			}

			client := api.NewClient(getServerURL())
			data, _, err := client.Download(cmd.Context(), "/generate-doc", body)
			if err != nil {
				return err
			}
			return api.SaveDownload(cmd.OutOrStdout(), outputFile, data)
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", string(doctype.Registry), "Document type")
	cmd.Flags().StringVarP(&lang, "lang", "l", doctype.English.Code(), "Target language")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Structured JSON path on the server")
	cmd.Flags().StringVar(&editedFile, "edited", "", "Local edited JSON file sent inline")
	cmd.Flags().StringVar(&ocrPath, "ocr", "", "OCR results path on the server (registry only)")
	cmd.Flags().StringVar(&format, "format", string(assemble.FormatDOCX), "Output format: docx or xlsx")
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Output file")
	return cmd
}
