// Package sse implements the per-connection backfill-then-live streaming
// loop: on connect, replay missed notifications up to a limit, then drain
// live publishes from the broker until the client disconnects. Each
// message is framed as an id: line carrying the notification id, an event:
// line, and a single-line compact-JSON data: line.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/afikmenashe/activityfeed/internal/broker"
	"github.com/afikmenashe/activityfeed/internal/store"
)

// NotificationPayload is the JSON shape streamed for each notification.
type NotificationPayload struct {
	NotificationID int64      `json:"notification_id"`
	UserID         int64      `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
	DeliveredAt    *time.Time `json:"delivered_at"`
	Event          EventView  `json:"event"`
}

// EventView is the Event portion of a streamed notification.
type EventView struct {
	EventID    int64     `json:"event_id"`
	ActorID    int64     `json:"actor_id"`
	Verb       string    `json:"verb"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func fromEntry(e store.NotificationEntry) NotificationPayload {
	return NotificationPayload{
		NotificationID: e.Notification.ID,
		UserID:         e.Notification.UserID,
		CreatedAt:      e.Notification.CreatedAt,
		ReadAt:         e.Notification.ReadAt,
		DeliveredAt:    e.Notification.DeliveredAt,
		Event: EventView{
			EventID:    e.Event.ID,
			ActorID:    e.Event.ActorID,
			Verb:       e.Event.Verb,
			ObjectType: e.Event.ObjectType,
			ObjectID:   e.Event.ObjectID,
			CreatedAt:  e.Event.CreatedAt,
		},
	}
}

// Flusher is the subset of http.Flusher the streamer needs; kept as its own
// interface so the writer path can be exercised with a plain io.Writer in
// tests.
type Flusher interface {
	Flush()
}

// Params configures one streaming connection.
type Params struct {
	UserID        int64
	LastEventID   int64
	QueueCap      int
	KeepAlive     time.Duration
	BackfillLimit int
}

// NotificationLister is the read-side dependency the streamer needs for
// backfill; store.Store satisfies it.
type NotificationLister interface {
	ListNotifications(ctx context.Context, userID int64, since int64, limit int) ([]store.NotificationEntry, error)
}

// Stream subscribes to the broker, emits a retry hint, backfills missed
// notifications from the store, then drains the broker queue until ctx is
// cancelled, emitting keep-alive comments on idle timeout. It always
// unsubscribes on exit, including on a write error.
func Stream(ctx context.Context, w io.Writer, flusher Flusher, b *broker.Broker, lister NotificationLister, p Params) error {
	h := b.Subscribe(p.UserID, p.QueueCap)
	defer b.Unsubscribe(h)

	if _, err := io.WriteString(w, "retry: 3000\n\n"); err != nil {
		return err
	}
	flusher.Flush()

	if p.LastEventID > 0 {
		entries, err := lister.ListNotifications(ctx, p.UserID, p.LastEventID, p.BackfillLimit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := writeEvent(w, fromEntry(e), e.Notification.ID); err != nil {
				return err
			}
		}
		flusher.Flush()
	}

	keepAlive := p.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}

	for {
		timer := time.NewTimer(keepAlive)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case msg, ok := <-h.Queue():
			timer.Stop()
			if !ok {
				return nil
			}
			payload, id := messageID(msg)
			if err := writeEvent(w, payload, id); err != nil {
				return err
			}
			flusher.Flush()
		case <-timer.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}

// messageID extracts the notification id used for the SSE id: line from
// whatever the broker handed us (always a NotificationPayload in this
// service, but kept generic so the broker package stays decoupled from
// sse's payload type).
func messageID(msg broker.Message) (interface{}, int64) {
	if n, ok := msg.(NotificationPayload); ok {
		return n, n.NotificationID
	}
	return msg, 0
}

func writeEvent(w io.Writer, payload interface{}, id int64) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: notification\ndata: %s\n\n", id, data)
	return err
}
