package router

import (
	"net/http"

	"github.com/afikmenashe/activityfeed/internal/svcmetrics"
)

// corsMiddleware applies permissive CORS headers to all requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Id, Last-Event-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code for
// metrics, also forwarding Flush so SSE handlers downstream still see an
// http.Flusher.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// metricsMiddleware is a no-op passthrough when collector is nil; otherwise
// it counts every request (and, separately, every 5xx response), skipping
// the health and self-metrics endpoints to avoid recursion.
func metricsMiddleware(collector *svcmetrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if collector == nil || r.URL.Path == "/health" || r.URL.Path == "/api/metrics/self" {
				next.ServeHTTP(w, r)
				return
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			collector.RecordHTTPRequest()
			if wrapped.statusCode >= 500 {
				collector.RecordHTTPServerError()
			}
		})
	}
}
