package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/store"
)

type feedItemView struct {
	EventID    int64  `json:"event_id"`
	ActorID    int64  `json:"actor_id"`
	Verb       string `json:"verb"`
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
	CreatedAt  string `json:"created_at"`
}

type feedResponse struct {
	Items      []feedItemView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// GetFeed handles GET /api/feed: the Feed Reader's HTTP entrypoint.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	callerID, err := assertedUserID(r)
	if err != nil {
		writeError(w, err, "get_feed.auth")
		return
	}

	q := r.URL.Query()
	userID := callerID
	if raw := q.Get("user_id"); raw != "" {
		parsed, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, apperr.New(apperr.InvalidArgument, "invalid user_id"), "get_feed.parse")
			return
		}
		userID = parsed
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if parsed, perr := strconv.Atoi(raw); perr == nil {
			limit = parsed
		}
	}

	page, err := h.Feed.Read(r.Context(), callerID, userID, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, err, "get_feed.read")
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordFeedRead()
	}

	resp := feedResponse{Items: make([]feedItemView, len(page.Items)), NextCursor: page.NextCursor}
	for i, entry := range page.Items {
		resp.Items[i] = toFeedItemView(entry.Event)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toFeedItemView(ev store.Event) feedItemView {
	return feedItemView{
		EventID:    ev.ID,
		ActorID:    ev.ActorID,
		Verb:       ev.Verb,
		ObjectType: ev.ObjectType,
		ObjectID:   ev.ObjectID,
		CreatedAt:  ev.CreatedAt.Format(time.RFC3339Nano),
	}
}
