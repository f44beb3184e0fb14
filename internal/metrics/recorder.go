package metrics

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the number of metrics kept in memory.
const DefaultCapacity = 10000

// Recorder keeps the most recent metrics in memory. It outlives config
// reloads so totals cover the whole process.
type Recorder struct {
	mu       sync.Mutex
	metrics  []Metric
	next     int
	full     bool
	capacity int
	started  time.Time
}

// NewRecorder creates a recorder holding up to capacity metrics.
// capacity <= 0 uses DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		metrics:  make([]Metric, 0, capacity),
		capacity: capacity,
		started:  time.Now(),
	}
}

// Record stores m, evicting the oldest metric when full.
func (r *Recorder) Record(m Metric) {
	if r == nil {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		r.metrics = append(r.metrics, m)
		if len(r.metrics) == r.capacity {
			r.full = true
		}
		return
	}
	r.metrics[r.next] = m
	r.next = (r.next + 1) % r.capacity
}

// List returns matching metrics, oldest first. limit <= 0 returns all.
func (r *Recorder) List(f Filter, limit int) []Metric {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	ordered := make([]Metric, 0, len(r.metrics))
	ordered = append(ordered, r.metrics[r.next:]...)
	ordered = append(ordered, r.metrics[:r.next]...)
	r.mu.Unlock()

	var out []Metric
	for _, m := range ordered {
		if f.matches(m) {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Started is when the recorder was created.
func (r *Recorder) Started() time.Time {
	return r.started
}
