package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Metrics holds all application counters. It is an injected, explicitly
// scoped component: construct one in main and pass it down, no package
// level singleton.
type Metrics struct {
	mu sync.RWMutex

	// Prediction metrics
	PredictionsTotal           int64
	PercentileEstimatesTotal   int64
	PredictionInputErrorsTotal int64
	AuditWriteErrorsTotal      int64

	// Defaults substituted by the accessor when aggregate data is missing,
	// keyed by signal name (backlog, percentiles, weekly_rate, ...)
	defaultsSubstituted map[string]int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations (seconds)

	startTime time.Time
}

// New creates a fresh metrics registry
func New() *Metrics {
	return &Metrics{
		defaultsSubstituted:  make(map[string]int64),
		httpRequestsTotal:    make(map[string]map[int]int64),
		httpRequestDurations: make(map[string][]float64),
		startTime:            time.Now(),
	}
}

// RecordPrediction increments the served-predictions counter
func (m *Metrics) RecordPrediction() {
	m.mu.Lock()
	m.PredictionsTotal++
	m.mu.Unlock()
}

// RecordPercentileEstimate increments the percentile-only estimate counter
func (m *Metrics) RecordPercentileEstimate() {
	m.mu.Lock()
	m.PercentileEstimatesTotal++
	m.mu.Unlock()
}

// RecordInputError increments the rejected-input counter
func (m *Metrics) RecordInputError() {
	m.mu.Lock()
	m.PredictionInputErrorsTotal++
	m.mu.Unlock()
}

// RecordAuditWriteError increments the audit-trail persistence error counter
func (m *Metrics) RecordAuditWriteError() {
	m.mu.Lock()
	m.AuditWriteErrorsTotal++
	m.mu.Unlock()
}

// RecordDefaultSubstituted notes that a missing aggregate signal was
// replaced by its documented default
func (m *Metrics) RecordDefaultSubstituted(signal string) {
	m.mu.Lock()
	m.defaultsSubstituted[signal]++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// DefaultsSubstituted returns the substitution count for a signal
func (m *Metrics) DefaultsSubstituted(signal string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultsSubstituted[signal]
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		fmt.Fprintf(w, "permtrack_uptime_seconds %d\n", int64(time.Since(m.startTime).Seconds()))
		fmt.Fprintf(w, "permtrack_predictions_total %d\n", m.PredictionsTotal)
		fmt.Fprintf(w, "permtrack_percentile_estimates_total %d\n", m.PercentileEstimatesTotal)
		fmt.Fprintf(w, "permtrack_prediction_input_errors_total %d\n", m.PredictionInputErrorsTotal)
		fmt.Fprintf(w, "permtrack_audit_write_errors_total %d\n", m.AuditWriteErrorsTotal)

		signals := make([]string, 0, len(m.defaultsSubstituted))
		for signal := range m.defaultsSubstituted {
			signals = append(signals, signal)
		}
		sort.Strings(signals)
		for _, signal := range signals {
			fmt.Fprintf(w, "permtrack_defaults_substituted_total{signal=%q} %d\n", signal, m.defaultsSubstituted[signal])
		}

		endpoints := make([]string, 0, len(m.httpRequestsTotal))
		for endpoint := range m.httpRequestsTotal {
			endpoints = append(endpoints, endpoint)
		}
		sort.Strings(endpoints)
		for _, endpoint := range endpoints {
			for status, count := range m.httpRequestsTotal[endpoint] {
				fmt.Fprintf(w, "permtrack_http_requests_total{endpoint=%q,status=\"%d\"} %d\n", endpoint, status, count)
			}
		}
	}
}
