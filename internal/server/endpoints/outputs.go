package endpoints

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/internal/svcctx"
)

// OutputEndpoint handles GET /outputs/{session}/{filename}.
type OutputEndpoint struct{}

func (e *OutputEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/outputs/{session}/{filename}", e.handler
}

func (e *OutputEndpoint) RequiresInit() bool { return true }

func (e *OutputEndpoint) Group() string { return api.GroupDocuments }

// handler godoc
//
//	@Summary	Fetch a session artifact
//	@Tags		documents
//	@Produce	json
//	@Param		session		path		string	true	"Session ID"
//	@Param		filename	path		string	true	"Artifact file name"
//	@Success	200			{file}		file
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/outputs/{session}/{filename} [get]
func (e *OutputEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	path, err := svcctx.PipelineFrom(r.Context()).Output(r.PathValue("session"), r.PathValue("filename"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		w.Header().Set("Content-Type", "application/json")
	}
	http.ServeFile(w, r, path)
}

func (e *OutputEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "output <session> <filename>",
		Short: "Fetch an artifact from an outputs session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, _, err := client.Download(cmd.Context(), "/outputs/"+args[0]+"/"+args[1], nil)
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return api.SaveDownload(cmd.OutOrStdout(), outputFile, data)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write the artifact to a file")
	return cmd
}
