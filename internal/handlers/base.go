// Package handlers provides the HTTP handlers for the activity/notification
// API: a Handlers struct wrapping dependencies, one file per concern,
// shared validation/error-writing helpers.
package handlers

import (
	"net/http"

	"github.com/afikmenashe/activityfeed/internal/analytics"
	"github.com/afikmenashe/activityfeed/internal/broker"
	"github.com/afikmenashe/activityfeed/internal/feed"
	"github.com/afikmenashe/activityfeed/internal/ingest"
	"github.com/afikmenashe/activityfeed/internal/notifications"
	"github.com/afikmenashe/activityfeed/internal/store"
	"github.com/afikmenashe/activityfeed/internal/svcmetrics"
)

// Handlers wraps the dependencies every HTTP handler needs.
type Handlers struct {
	Ingest        *ingest.Coordinator
	Feed          *feed.Reader
	Notifications *notifications.Reader
	Broker        *broker.Broker
	Analytics     *analytics.Registry
	Store         store.Store
	Metrics       *svcmetrics.Collector
	MetricsReader *svcmetrics.Reader
}

// New builds a Handlers instance.
func New(
	ing *ingest.Coordinator,
	fr *feed.Reader,
	nr *notifications.Reader,
	b *broker.Broker,
	reg *analytics.Registry,
	s store.Store,
	metrics *svcmetrics.Collector,
	metricsReader *svcmetrics.Reader,
) *Handlers {
	return &Handlers{
		Ingest:        ing,
		Feed:          fr,
		Notifications: nr,
		Broker:        b,
		Analytics:     reg,
		Store:         s,
		Metrics:       metrics,
		MetricsReader: metricsReader,
	}
}

// GetMetricsCollector returns the collector for middleware use.
func (h *Handlers) GetMetricsCollector() *svcmetrics.Collector {
	return h.Metrics
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
