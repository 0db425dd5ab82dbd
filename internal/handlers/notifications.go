package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/store"
)

type notificationView struct {
	NotificationID int64        `json:"notification_id"`
	CreatedAt      string       `json:"created_at"`
	ReadAt         *string      `json:"read_at,omitempty"`
	DeliveredAt    *string      `json:"delivered_at,omitempty"`
	Event          feedItemView `json:"event"`
}

type notificationsResponse struct {
	Items     []notificationView `json:"items"`
	NextSince int64               `json:"next_since"`
}

// GetNotifications handles GET /api/notifications: the Notification
// Reader's HTTP entrypoint.
func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	callerID, err := assertedUserID(r)
	if err != nil {
		writeError(w, err, "get_notifications.auth")
		return
	}

	q := r.URL.Query()
	userID := callerID
	if raw := q.Get("user_id"); raw != "" {
		parsed, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, apperr.New(apperr.InvalidArgument, "invalid user_id"), "get_notifications.parse")
			return
		}
		userID = parsed
	}

	var since int64
	if raw := q.Get("since"); raw != "" {
		parsed, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, apperr.New(apperr.InvalidArgument, "invalid since"), "get_notifications.parse")
			return
		}
		since = parsed
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if parsed, perr := strconv.Atoi(raw); perr == nil {
			limit = parsed
		}
	}

	page, err := h.Notifications.Read(r.Context(), callerID, userID, since, limit)
	if err != nil {
		writeError(w, err, "get_notifications.read")
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordNotificationRead()
	}

	items := make([]notificationView, len(page.Items))
	for i, entry := range page.Items {
		items[i] = toNotificationView(entry)
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Items: items, NextSince: page.NextSince})
}

func toNotificationView(e store.NotificationEntry) notificationView {
	v := notificationView{
		NotificationID: e.Notification.ID,
		CreatedAt:      e.Notification.CreatedAt.Format(time.RFC3339Nano),
		Event:          toFeedItemView(e.Event),
	}
	if e.Notification.ReadAt != nil {
		s := e.Notification.ReadAt.Format(time.RFC3339Nano)
		v.ReadAt = &s
	}
	if e.Notification.DeliveredAt != nil {
		s := e.Notification.DeliveredAt.Format(time.RFC3339Nano)
		v.DeliveredAt = &s
	}
	return v
}
