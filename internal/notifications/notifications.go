// Package notifications implements the Notification Reader: an id-based
// incremental query against Notification joined to Event.
package notifications

import (
	"context"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/store"
)

const (
	defaultLimit = 100
	maxLimit     = 200
)

// Reader serves notification pages for a single user.
type Reader struct {
	Store store.Store
}

// New builds a Reader over s.
func New(s store.Store) *Reader {
	return &Reader{Store: s}
}

// Page is one page of notification results, with the monotonic cursor to
// pass as `since` on the next call.
type Page struct {
	Items     []store.NotificationEntry
	NextSince int64
}

// Read returns one page of userID's notifications with id > since. callerID
// must equal userID or Read returns apperr.Forbidden.
func (r *Reader) Read(ctx context.Context, callerID, userID, since int64, limit int) (Page, error) {
	if callerID != userID {
		return Page{}, apperr.New(apperr.Forbidden, "cannot read another user's notifications")
	}
	if since < 0 {
		return Page{}, apperr.New(apperr.InvalidArgument, "since must be >= 0")
	}

	limit = clampLimit(limit)

	entries, err := r.Store.ListNotifications(ctx, userID, since, limit)
	if err != nil {
		return Page{}, err
	}

	nextSince := since
	if len(entries) > 0 {
		nextSince = entries[len(entries)-1].Notification.ID
	}

	return Page{Items: entries, NextSince: nextSince}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
