package api

import (
	"net/http"
	"sort"

	"github.com/spf13/cobra"
)

// Help groups for `docuflow api`.
const (
	GroupDocuments = "documents"
	GroupServer    = "server"
)

// Grouped is implemented by endpoints that belong to a group other than
// GroupServer. The group doubles as the route's tag.
type Grouped interface {
	Group() string
}

// GroupOf returns the group of ep.
func GroupOf(ep Endpoint) string {
	if g, ok := ep.(Grouped); ok && g.Group() != "" {
		return g.Group()
	}
	return GroupServer
}

// Route describes one registered route.
type Route struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	Group        string `json:"group"`
	RequiresInit bool   `json:"requires_init"`
}

// RoutesOf lists the routes of eps, documents first, then by path.
func RoutesOf(eps []Endpoint) []Route {
	out := make([]Route, 0, len(eps))
	for _, ep := range eps {
		method, path, _ := ep.Route()
		out = append(out, Route{
			Method:       method,
			Path:         path,
			Group:        GroupOf(ep),
			RequiresInit: ep.RequiresInit(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Group == GroupDocuments, out[j].Group == GroupDocuments
		if di != dj {
			return di
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that need the document pipeline.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns the `api` command with one subcommand per endpoint,
// split into document and server groups.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running docuflow server via HTTP.

These commands require a running server (docuflow serve).
Use --server to specify a custom server URL.

Examples:
  docuflow api structure --type registry a.png b.png        # OCR and structure a registry extract
  docuflow api structure -o summary --type family scan.png  # Print only the session and artifact paths
  docuflow api translate --lang en <json_path>              # Translate structured JSON
  docuflow api generate-doc --type family --lang ja --json <path> -f out.docx
  docuflow api output <session> result.json -f result.json  # Fetch an artifact
  docuflow api health                                       # Check server health`,
	}
	apiCmd.AddGroup(
		&cobra.Group{ID: GroupDocuments, Title: "Document commands:"},
		&cobra.Group{ID: GroupServer, Title: "Server commands:"},
	)

	for _, ep := range r.endpoints {
		if cmd := ep.Command(getServerURL); cmd != nil {
			cmd.GroupID = GroupOf(ep)
			apiCmd.AddCommand(cmd)
		}
	}

	return apiCmd
}
