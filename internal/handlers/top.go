package handlers

import (
	"net/http"
	"strconv"

	"github.com/afikmenashe/activityfeed/internal/analytics"
	"github.com/afikmenashe/activityfeed/internal/apperr"
)

type topResponse struct {
	Items [][2]interface{} `json:"items"`
}

// GetTop handles GET /api/top: the sliding-window analytics read path.
func (h *Handlers) GetTop(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	window := analytics.WindowTag(q.Get("window"))
	dimension := analytics.Dimension(q.Get("by"))

	k := 10
	if raw := q.Get("k"); raw != "" {
		parsed, perr := strconv.Atoi(raw)
		if perr != nil || parsed <= 0 {
			writeError(w, apperr.New(apperr.InvalidArgument, "k must be a positive integer"), "get_top.parse")
			return
		}
		k = parsed
	}

	counts, err := h.Analytics.Top(window, dimension, k)
	if err != nil {
		writeError(w, err, "get_top.query")
		return
	}

	items := make([][2]interface{}, len(counts))
	for i, c := range counts {
		items[i] = [2]interface{}{c.Key, c.Count}
	}
	writeJSON(w, http.StatusOK, topResponse{Items: items})
}
