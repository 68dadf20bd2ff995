package observability

import (
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	synthesis    *CounterVec
	synthLatency *HistogramVec
	pageOutcomes *CounterVec
	quality      *HistogramVec
	combinations *CounterVec
	selections   *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("pc_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"pc_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("pc_api_inflight_requests", "In-flight API requests."),
		synthesis:   NewCounterVec("pc_synthesis_attempts_total", "Text synthesis attempts by status.", []string{"status"}),
		synthLatency: NewHistogramVec(
			"pc_synthesis_duration_seconds",
			"Text synthesis latency in seconds.",
			[]string{"status"},
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		pageOutcomes: NewCounterVec("pc_pages_total", "Page generation outcomes.", []string{"status"}),
		quality: NewHistogramVec(
			"pc_page_quality_score",
			"Quality score of generated pages.",
			nil,
			[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		),
		combinations: NewCounterVec("pc_potential_pages_total", "Potential pages enumerated, by truncation.", []string{"truncated"}),
		selections:   NewCounterVec("pc_rotation_selections_total", "Rotation selections by strategy.", []string{"strategy"}),
	}
}

// Init installs the process-wide metrics. Disabled metrics leave Current nil;
// every method is nil-safe.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() { instance = NewMetrics() })
	return instance
}

func Current() *Metrics { return instance }

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveSynthesis(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.synthesis.Inc(status)
	m.synthLatency.Observe(dur.Seconds(), status)
}

func (m *Metrics) ObservePage(status string, quality float64) {
	if m == nil {
		return
	}
	m.pageOutcomes.Inc(status)
	if status == "succeeded" {
		m.quality.Observe(quality)
	}
}

func (m *Metrics) AddCombinations(n int, truncated bool) {
	if m == nil {
		return
	}
	m.combinations.Add(float64(n), strconv.FormatBool(truncated))
}

func (m *Metrics) IncSelection(strategy string) {
	if m != nil {
		m.selections.Inc(strategy)
	}
}

// PageCount returns how many pages ended with status.
func (m *Metrics) PageCount(status string) float64 {
	if m == nil {
		return 0
	}
	return m.pageOutcomes.Value(status)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	type writer interface{ WritePrometheus(io.Writer) error }
	for _, c := range []writer{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.synthesis, m.synthLatency,
		m.pageOutcomes, m.quality,
		m.combinations, m.selections,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}
