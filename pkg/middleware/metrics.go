package middleware

import (
	"net/http"
	"time"
)

// HTTPRecorder is the sink for per-request metrics
type HTTPRecorder interface {
	RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration)
}

// Metrics records endpoint, status and duration for every request
func Metrics(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			recorder.RecordHTTPRequest(r.URL.Path, rec.status, time.Since(start))
		})
	}
}
