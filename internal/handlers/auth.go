package handlers

import (
	"net/http"
	"strconv"

	"github.com/afikmenashe/activityfeed/internal/apperr"
)

// assertedUserID extracts the caller's asserted user id from a header-based
// auth shim: http.Header.Get already case-folds X-User-Id / X-User-ID /
// X-USER-ID to one canonical lookup, and a bare user_id header is accepted
// as a fallback for clients that can't set custom X- headers.
func assertedUserID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-Id")
	if raw == "" {
		raw = r.Header.Get("user_id")
	}
	if raw == "" {
		return 0, apperr.New(apperr.Unauthenticated, "missing user identity header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.Unauthenticated, "invalid user identity header")
	}
	return id, nil
}
