// Package router wires the HTTP mux for the activity/notification API: a
// Router wrapping http.ServeMux, CORS and metrics middleware, and a
// NewServer constructor.
package router

import (
	"net/http"
	"time"

	"github.com/afikmenashe/activityfeed/internal/handlers"
)

// Router wraps the HTTP mux and applies middleware.
type Router struct {
	mux      *http.ServeMux
	handlers *handlers.Handlers
}

// New creates a Router with all routes configured.
func New(h *handlers.Handlers) *Router {
	r := &Router{mux: http.NewServeMux(), handlers: h}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/events", r.handlers.CreateEvent)
	r.mux.HandleFunc("/api/feed", r.handlers.GetFeed)
	r.mux.HandleFunc("/api/notifications", r.handlers.GetNotifications)
	r.mux.HandleFunc("/api/notifications/stream", r.handlers.StreamNotifications)
	r.mux.HandleFunc("/api/top", r.handlers.GetTop)
	r.mux.HandleFunc("/api/metrics/self", r.handlers.GetSelfMetrics)

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Handler returns the fully wrapped HTTP handler.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(metricsMiddleware(r.handlers.GetMetricsCollector())(r.mux))
}

// NewServer builds an *http.Server bound to port with SSE-friendly
// timeouts.
func NewServer(port string, h *handlers.Handlers) *http.Server {
	rt := New(h)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      rt.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE connections are long-lived; no write deadline.
		IdleTimeout:  60 * time.Second,
	}
}
