package handlers

import (
	"net/http"

	"github.com/afikmenashe/activityfeed/internal/apperr"
)

// GetSelfMetrics handles GET /api/metrics/self, reading this service's own
// last-reported counters back from Redis (see internal/svcmetrics).
func (h *Handlers) GetSelfMetrics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if h.MetricsReader == nil {
		writeError(w, apperr.New(apperr.StoreError, "metrics reporting is disabled"), "get_self_metrics")
		return
	}

	snap, err := h.MetricsReader.Read(r.Context())
	if err != nil {
		writeError(w, apperr.Wrap(apperr.StoreError, "metrics unavailable", err), "get_self_metrics.read")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
