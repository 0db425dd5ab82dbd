// Package feed implements the Feed Reader: a thin, authorization-checked
// wrapper around store.Store.ListFeed that encodes and decodes opaque
// keyset cursors.
package feed

import (
	"context"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/cursor"
	"github.com/afikmenashe/activityfeed/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Reader serves feed pages for a single user, enforcing page-size bounds
// and an ownership check.
type Reader struct {
	Store store.Store
}

// New builds a Reader over s.
func New(s store.Store) *Reader {
	return &Reader{Store: s}
}

// Page is one page of feed results.
type Page struct {
	Items      []store.FeedEntry
	NextCursor string
}

// Read returns one page of userID's feed. callerID must equal userID or
// Read returns apperr.Forbidden.
func (r *Reader) Read(ctx context.Context, callerID, userID int64, cursorToken string, limit int) (Page, error) {
	if callerID != userID {
		return Page{}, apperr.New(apperr.Forbidden, "cannot read another user's feed")
	}

	limit = clampLimit(limit)

	var fc *store.FeedCursor
	if cursorToken != "" {
		createdAt, feedItemID, err := cursor.Decode(cursorToken)
		if err != nil {
			return Page{}, err
		}
		fc = &store.FeedCursor{CreatedAt: createdAt, FeedItemID: feedItemID}
	}

	entries, err := r.Store.ListFeed(ctx, userID, fc, limit)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: entries}
	if len(entries) == limit {
		last := entries[len(entries)-1]
		page.NextCursor = cursor.Encode(last.Item.CreatedAt, last.Item.ID)
	}
	return page, nil
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
