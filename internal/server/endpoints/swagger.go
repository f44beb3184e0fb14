package endpoints

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/version"
)

// DefaultSwaggerSpecPath is where swag writes the generated spec.
const DefaultSwaggerSpecPath = "docs/swagger/swagger.json"

// SwaggerEndpoint serves the OpenAPI spec generated from the handler
// annotations. Without a generated spec it serves a route index built from
// Routes.
type SwaggerEndpoint struct {
	// SpecPath is the path to swagger.json. Empty means GetSwaggerSpecPath.
	SpecPath string
	Routes   []api.Route
}

func (e *SwaggerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger.json", e.handler
}

func (e *SwaggerEndpoint) RequiresInit() bool { return false }

func (e *SwaggerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	specPath := e.SpecPath
	if specPath == "" {
		specPath = GetSwaggerSpecPath()
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	data, err := os.ReadFile(specPath)
	if err != nil {
		if len(e.Routes) == 0 {
			writeError(w, http.StatusNotFound, "swagger.json not found; run swag init -d cmd/docuflow,internal/server/endpoints -o docs/swagger")
			return
		}
		writeJSON(w, http.StatusOK, routeIndex(e.Routes))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// routeIndex is a minimal swagger 2.0 document listing each route under its
// group tag. Routes that need the pipeline can answer 503.
func routeIndex(routes []api.Route) map[string]any {
	paths := map[string]any{}
	for _, rt := range routes {
		ops, _ := paths[rt.Path].(map[string]any)
		if ops == nil {
			ops = map[string]any{}
			paths[rt.Path] = ops
		}
		responses := map[string]any{"200": map[string]any{"description": "OK"}}
		if rt.RequiresInit {
			responses["503"] = map[string]any{"description": "Server not initialized"}
		}
		ops[strings.ToLower(rt.Method)] = map[string]any{
			"tags":      []string{rt.Group},
			"responses": responses,
		}
	}
	return map[string]any{
		"swagger": "2.0",
		"info": map[string]any{
			"title":   "docuflow API",
			"version": version.GitRelease,
		},
		"tags": []map[string]string{
			{"name": api.GroupDocuments, "description": "Structure, translate and generate documents"},
			{"name": api.GroupServer, "description": "Health, status and metrics"},
		},
		"paths": paths,
	}
}

func (e *SwaggerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "swagger",
		Short: "Fetch the OpenAPI spec from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			var spec map[string]any
			if err := client.Get(cmd.Context(), "/swagger.json", &spec); err != nil {
				return err
			}
			if outputFile != "" {
				return api.OutputToFile(spec, outputFile)
			}
			return api.Output(spec)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write the spec to a file")
	return cmd
}

// SwaggerUIEndpoint serves Swagger UI for the document endpoints.
type SwaggerUIEndpoint struct{}

func (e *SwaggerUIEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger", e.handler
}

func (e *SwaggerUIEndpoint) RequiresInit() bool { return false }

const swaggerUIPage = `<!DOCTYPE html>
<html>
<head>
  <title>docuflow API</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`

func (e *SwaggerUIEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(swaggerUIPage))
}

// Command is nil; the UI is only useful in a browser.
func (e *SwaggerUIEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

// GetSwaggerSpecPath looks for swagger.json next to the executable, then in
// the working directory.
func GetSwaggerSpecPath() string {
	if exe, err := os.Executable(); err == nil {
		specPath := filepath.Join(filepath.Dir(exe), DefaultSwaggerSpecPath)
		if _, err := os.Stat(specPath); err == nil {
			return specPath
		}
	}
	return DefaultSwaggerSpecPath
}
