package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/pipeline"
	"github.com/kdocs/docuflow/internal/svcctx"
)

// StructureRequest is the request body for POST /binarize-and-ocr-multi.
type StructureRequest struct {
	ImagePaths []string `json:"image_paths"`
	DocType    string   `json:"doc_type"`
	// Mode is "json" (default) or "zip".
	Mode string `json:"mode,omitempty"`
}

// StructureEndpoint handles POST /binarize-and-ocr-multi.
type StructureEndpoint struct{}

func (e *StructureEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/binarize-and-ocr-multi", e.handler
}

func (e *StructureEndpoint) RequiresInit() bool { return true }

func (e *StructureEndpoint) Group() string { return api.GroupDocuments }

// handler godoc
//
//	@Summary		Binarize, OCR and structure scanned pages
//	@Description	Registry documents are OCRed and structured from the table geometry.
//	@Description	Other document types are structured directly from the binarized images.
//	@Tags			documents
//	@Accept			json
//	@Produce		json,application/zip
//	@Param			request	body		StructureRequest	true	"Images and document type"
//	@Success		200		{object}	pipeline.StructureResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/binarize-and-ocr-multi [post]
func (e *StructureEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req StructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ImagePaths) == 0 {
		writeError(w, http.StatusBadRequest, pipeline.ErrNoImages.Error())
		return
	}
	t, err := doctype.ParseType(req.DocType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := svcctx.PipelineFrom(r.Context())
	res, err := p.Structure(r.Context(), pipeline.StructureRequest{
		Images:  req.ImagePaths,
		DocType: t,
		Mode:    pipeline.Mode(req.Mode),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	defer p.Release(res.SessionID)

	if res.ZipPath != "" {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(res.ZipPath)))
		w.Header().Set("X-Session-ID", res.SessionID)
		http.ServeFile(w, r, res.ZipPath)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (e *StructureEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		docType    string
		mode       string
		outputFile string
	)
	cmd := &cobra.Command{
		Use:   "structure <image>...",
		Short: "Structure scanned document images",
		Long: `Binarize each image, OCR it when the document type needs it, and
structure the document into JSON.

Images may be local paths on the server, http(s) URLs or s3:// URLs.
With --mode zip the OCR results and structured JSON are saved as a zip.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			body := StructureRequest{ImagePaths: args, DocType: docType, Mode: mode}

			if mode == string(pipeline.ModeZip) {
				if outputFile == "" {
					return fmt.Errorf("--file is required with --mode zip")
				}
				data, _, err := client.Download(cmd.Context(), "/binarize-and-ocr-multi", body)
				if err != nil {
					return err
				}
				return api.SaveDownload(cmd.OutOrStdout(), outputFile, data)
			}

			var resp pipeline.StructureResult
			if err := client.Post(cmd.Context(), "/binarize-and-ocr-multi", body, &resp); err != nil {
				return err
			}
			if outputFile != "" {
				return api.OutputToFile(&resp, outputFile)
			}
			return api.Output(&resp)
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", string(doctype.Registry), "Document type")
	cmd.Flags().StringVar(&mode, "mode", string(pipeline.ModeJSON), "Response mode: json or zip")
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write the response to a file")
	return cmd
}
