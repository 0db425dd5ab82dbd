package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/afikmenashe/activityfeed/internal/apperr"
)

// writeError translates an apperr.Code into the matching HTTP status and
// writes a plain-text body.
func writeError(w http.ResponseWriter, err error, op string) {
	if err == nil {
		return
	}

	code := apperr.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperr.Unauthenticated:
		status = http.StatusUnauthorized
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.InvalidArgument:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.StoreError:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		slog.Error("handler error", "op", op, "error", err)
	} else {
		slog.Warn("handler rejected request", "op", op, "code", code, "error", err)
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
