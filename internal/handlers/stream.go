package handlers

import (
	"net/http"
	"strconv"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/sse"
)

// StreamNotifications handles GET /api/notifications/stream, the
// per-connection SSE entrypoint.
func (h *Handlers) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	callerID, err := assertedUserID(r)
	if err != nil {
		writeError(w, err, "stream_notifications.auth")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperr.New(apperr.StoreError, "streaming unsupported"), "stream_notifications.flusher")
		return
	}

	lastEventID := int64(0)
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		if parsed, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			lastEventID = parsed
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if h.Metrics != nil {
		h.Metrics.RecordSSEOpen()
		defer h.Metrics.RecordSSEClose()
	}

	_ = sse.Stream(r.Context(), w, flusher, h.Broker, h.Store, sse.Params{
		UserID:        callerID,
		LastEventID:   lastEventID,
		QueueCap:      200,
		BackfillLimit: 200,
	})
}
