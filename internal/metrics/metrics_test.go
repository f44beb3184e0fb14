package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kdocs/docuflow/internal/providers"
)

func TestRecorder_Eviction(t *testing.T) {
	rec := NewRecorder(3)
	for i := 1; i <= 5; i++ {
		rec.Record(Metric{Stage: StageOCR, ExecutionSeconds: float64(i), Success: true})
	}

	got := rec.List(Filter{}, 0)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []float64{3, 4, 5} {
		if got[i].ExecutionSeconds != want {
			t.Errorf("metric %d = %v, want %v", i, got[i].ExecutionSeconds, want)
		}
	}

	if last := rec.List(Filter{}, 1); len(last) != 1 || last[0].ExecutionSeconds != 5 {
		t.Errorf("limit 1 = %+v", last)
	}
}

func TestRecorder_Filter(t *testing.T) {
	rec := NewRecorder(0)
	old := time.Now().Add(-time.Hour)
	rec.Record(Metric{Stage: StageStructure, Provider: "openai", CreatedAt: old})
	rec.Record(Metric{Stage: StageTranslate, Provider: "openai"})
	rec.Record(Metric{Stage: StageOCR, Provider: "clova"})

	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"all", Filter{}, 3},
		{"stage", Filter{Stage: StageTranslate}, 1},
		{"provider", Filter{Provider: "openai"}, 2},
		{"since", Filter{Since: time.Now().Add(-time.Minute)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(rec.List(tt.f, 0)); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	rec := NewRecorder(0)
	for i := 1; i <= 4; i++ {
		rec.Record(Metric{Stage: StageTranslate, TotalTokens: 100, ExecutionSeconds: float64(i), Success: true})
	}
	rec.Record(Metric{Stage: StageTranslate, ExecutionSeconds: 10, ErrorType: "rate_limit"})
	rec.Record(Metric{Stage: StageOCR, ExecutionSeconds: 1, Success: true})

	s := rec.Summary(Filter{Stage: StageTranslate})
	if s.Count != 5 || s.SuccessCount != 4 || s.ErrorCount != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.TotalTokens != 400 || s.AvgTokens != 80 {
		t.Errorf("tokens = %d avg %v", s.TotalTokens, s.AvgTokens)
	}
	if s.LatencyP50 != 3 || s.LatencyMax != 10 {
		t.Errorf("latency p50 = %v max = %v", s.LatencyP50, s.LatencyMax)
	}
	if s.Errors["rate_limit"] != 1 {
		t.Errorf("errors = %v", s.Errors)
	}

	breakdown := rec.StageBreakdown(time.Time{})
	if len(breakdown) != 2 || breakdown[StageOCR].Count != 1 {
		t.Errorf("breakdown = %+v", breakdown)
	}
	if empty := NewRecorder(0).Summary(Filter{}); empty.Count != 0 || empty.LatencyMax != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestInstrumentLLM(t *testing.T) {
	rec := NewRecorder(0)
	mock := providers.NewMockClient()
	client := InstrumentLLM(mock, rec, StageStructure)

	if client.Name() != providers.MockClientName {
		t.Errorf("name = %q", client.Name())
	}
	if _, err := client.Chat(context.Background(), &providers.ChatRequest{Model: "gpt-4o"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	mock.Err = &providers.RateLimitError{Message: "slow down", StatusCode: 429}
	if _, err := client.Chat(context.Background(), &providers.ChatRequest{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error")
	}

	got := rec.List(Filter{Stage: StageStructure}, 0)
	if len(got) != 2 {
		t.Fatalf("recorded %d, want 2", len(got))
	}
	if !got[0].Success || got[0].Model != "gpt-4o" || got[0].Provider != providers.MockClientName {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Success || got[1].ErrorType != "rate_limit" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestInstrumentOCR(t *testing.T) {
	rec := NewRecorder(0)
	mock := providers.NewMockOCRProvider(nil)
	mock.ShouldFail = true

	if _, err := InstrumentOCR(mock, rec).ProcessImages(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error")
	}
	got := rec.List(Filter{Stage: StageOCR}, 0)
	if len(got) != 1 || got[0].ErrorType != "ocr_status" {
		t.Errorf("recorded = %+v", got)
	}

	if InstrumentOCR(nil, rec) != nil {
		t.Error("nil provider should stay nil")
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&providers.QuotaError{Message: "no credit"}, "quota"},
		{fmt.Errorf("wrapped: %w", &providers.RateLimitError{Message: "429"}), "rate_limit"},
		{&providers.APIError{Provider: "openai", StatusCode: 500}, "api"},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), "timeout"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
