// Package cursor implements the opaque keyset pagination token used by the
// Feed Reader. The token is a URL-safe base64 encoding of a compact JSON
// object; it is not authenticated, only a convenience pointer.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/afikmenashe/activityfeed/internal/apperr"
)

type payload struct {
	CreatedAt  string `json:"created_at"`
	FeedItemID int64  `json:"feed_item_id"`
}

// Encode builds an opaque cursor from the last row of a feed page.
func Encode(createdAt time.Time, feedItemID int64) string {
	p := payload{
		CreatedAt:  createdAt.UTC().Format(time.RFC3339Nano),
		FeedItemID: feedItemID,
	}
	raw, _ := json.Marshal(p)
	encoded := base64.URLEncoding.EncodeToString(raw)
	return stripPadding(encoded)
}

// Decode parses a cursor produced by Encode, tolerating missing base64
// padding. Any malformed input, missing field, non-positive id, or
// unparseable timestamp yields an InvalidArgument error.
func Decode(token string) (time.Time, int64, error) {
	if token == "" {
		return time.Time{}, 0, apperr.New(apperr.InvalidArgument, "invalid cursor: empty")
	}

	raw, err := base64.URLEncoding.DecodeString(repad(token))
	if err != nil {
		return time.Time{}, 0, apperr.Wrap(apperr.InvalidArgument, "invalid cursor: not base64", err)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return time.Time{}, 0, apperr.Wrap(apperr.InvalidArgument, "invalid cursor: not JSON", err)
	}

	if p.CreatedAt == "" || p.FeedItemID == 0 {
		return time.Time{}, 0, apperr.New(apperr.InvalidArgument, "invalid cursor: missing field")
	}
	if p.FeedItemID <= 0 {
		return time.Time{}, 0, apperr.New(apperr.InvalidArgument, "invalid cursor: non-positive id")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		createdAt, err = time.Parse(time.RFC3339, p.CreatedAt)
		if err != nil {
			return time.Time{}, 0, apperr.Wrap(apperr.InvalidArgument, "invalid cursor: bad timestamp", err)
		}
	}

	return createdAt, p.FeedItemID, nil
}

func stripPadding(s string) string {
	for len(s) > 0 && s[len(s)-1] == '=' {
		s = s[:len(s)-1]
	}
	return s
}

func repad(s string) string {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return s
}
