package metrics

import (
	"sort"
	"time"
)

// Summary aggregates the metrics matching a filter.
type Summary struct {
	Count        int     `json:"count"`
	SuccessCount int     `json:"success_count"`
	ErrorCount   int     `json:"error_count"`
	TotalTokens  int     `json:"total_tokens"`
	AvgTokens    float64 `json:"avg_tokens"`

	TotalSeconds float64 `json:"total_seconds"`
	LatencyAvg   float64 `json:"latency_avg"`
	LatencyP50   float64 `json:"latency_p50"`
	LatencyP95   float64 `json:"latency_p95"`
	LatencyMax   float64 `json:"latency_max"`

	// Errors counts failures by error type.
	Errors map[string]int `json:"errors,omitempty"`
}

// Summary returns aggregate statistics for metrics matching f.
func (r *Recorder) Summary(f Filter) *Summary {
	return summarize(r.List(f, 0))
}

// StageBreakdown returns a summary per stage.
func (r *Recorder) StageBreakdown(since time.Time) map[string]*Summary {
	byStage := make(map[string][]Metric)
	for _, m := range r.List(Filter{Since: since}, 0) {
		byStage[m.Stage] = append(byStage[m.Stage], m)
	}
	out := make(map[string]*Summary, len(byStage))
	for stage, ms := range byStage {
		out[stage] = summarize(ms)
	}
	return out
}

func summarize(metrics []Metric) *Summary {
	s := &Summary{Count: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	latencies := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		s.TotalTokens += m.TotalTokens
		s.TotalSeconds += m.ExecutionSeconds
		latencies = append(latencies, m.ExecutionSeconds)
		if m.Success {
			s.SuccessCount++
			continue
		}
		s.ErrorCount++
		if s.Errors == nil {
			s.Errors = make(map[string]int)
		}
		s.Errors[m.ErrorType]++
	}

	sort.Float64s(latencies)
	s.AvgTokens = float64(s.TotalTokens) / float64(s.Count)
	s.LatencyAvg = s.TotalSeconds / float64(s.Count)
	s.LatencyP50 = percentile(latencies, 50)
	s.LatencyP95 = percentile(latencies, 95)
	s.LatencyMax = latencies[len(latencies)-1]
	return s
}

// percentile uses nearest rank on sorted values.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p*len(sorted)+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
