package endpoints

import (
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/internal/metrics"
	"github.com/kdocs/docuflow/internal/svcctx"
)

// MetricsResponse summarizes recorded LLM and OCR calls.
type MetricsResponse struct {
	Since  time.Time                   `json:"since"`
	Total  *metrics.Summary            `json:"total"`
	Stages map[string]*metrics.Summary `json:"stages"`
	Recent []metrics.Metric            `json:"recent,omitempty"`
}

// MetricsEndpoint handles GET /metrics.
type MetricsEndpoint struct{}

func (e *MetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics", e.handler
}

func (e *MetricsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Call metrics
//	@Description	Counts, tokens and latency of LLM and OCR calls since the server started.
//	@Tags			health
//	@Produce		json
//	@Param			since	query		string	false	"RFC3339 lower bound"
//	@Param			recent	query		bool	false	"Include the most recent calls"
//	@Success		200		{object}	MetricsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/metrics [get]
func (e *MetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not available")
		return
	}

	since := rec.Started()
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}

	resp := MetricsResponse{
		Since:  since,
		Total:  rec.Summary(metrics.Filter{Since: since}),
		Stages: rec.StageBreakdown(since),
	}
	if r.URL.Query().Get("recent") == "true" {
		resp.Recent = rec.List(metrics.Filter{Since: since}, 50)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *MetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		since  string
		recent bool
	)
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show LLM and OCR call metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			q := url.Values{}
			if since != "" {
				q.Set("since", since)
			}
			if recent {
				q.Set("recent", "true")
			}
			path := "/metrics"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			var resp MetricsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "RFC3339 lower bound")
	cmd.Flags().BoolVar(&recent, "recent", false, "Include the most recent calls")
	return cmd
}
