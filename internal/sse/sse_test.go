package sse

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/afikmenashe/activityfeed/internal/broker"
	"github.com/afikmenashe/activityfeed/internal/store"
)

type nopFlusher struct{}

func (nopFlusher) Flush() {}

type fakeLister struct {
	entries []store.NotificationEntry
}

func (f *fakeLister) ListNotifications(ctx context.Context, userID int64, since int64, limit int) ([]store.NotificationEntry, error) {
	var out []store.NotificationEntry
	for _, e := range f.entries {
		if e.Notification.UserID == userID && e.Notification.ID > since {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func TestStream_BackfillThenLive(t *testing.T) {
	b := broker.New()
	lister := &fakeLister{entries: []store.NotificationEntry{
		{Notification: store.Notification{ID: 2, UserID: 2}, Event: store.Event{ID: 100, ObjectID: "p1"}},
		{Notification: store.Notification{ID: 3, UserID: 2}, Event: store.Event{ID: 101, ObjectID: "p2"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer

	done := make(chan error, 1)
	go func() {
		done <- Stream(ctx, &buf, nopFlusher{}, b, lister, Params{
			UserID:        2,
			LastEventID:   1,
			QueueCap:      10,
			KeepAlive:     50 * time.Millisecond,
			BackfillLimit: 10,
		})
	}()

	// Let backfill happen, then publish a live message, then cancel.
	time.Sleep(20 * time.Millisecond)
	b.Publish(2, NotificationPayload{NotificationID: 4, UserID: 2})
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	out := buf.String()
	if !strings.HasPrefix(out, "retry: 3000\n\n") {
		t.Fatalf("expected retry hint first, got %q", out)
	}
	if !strings.Contains(out, "id: 2\n") || !strings.Contains(out, "id: 3\n") {
		t.Fatalf("expected backfilled notifications 2 and 3, got %q", out)
	}
	if !strings.Contains(out, "id: 4\n") {
		t.Fatalf("expected live notification 4, got %q", out)
	}
}

func TestStream_KeepAliveOnIdle(t *testing.T) {
	b := broker.New()
	lister := &fakeLister{}

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer

	done := make(chan error, 1)
	go func() {
		done <- Stream(ctx, &buf, nopFlusher{}, b, lister, Params{
			UserID:    1,
			QueueCap:  10,
			KeepAlive: 10 * time.Millisecond,
		})
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(buf.String(), ": keep-alive\n\n") {
		t.Fatalf("expected at least one keep-alive comment, got %q", buf.String())
	}
}

func TestStream_UnsubscribesOnExit(t *testing.T) {
	b := broker.New()
	lister := &fakeLister{}

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer

	done := make(chan error, 1)
	go func() {
		done <- Stream(ctx, &buf, nopFlusher{}, b, lister, Params{UserID: 5, QueueCap: 10, KeepAlive: 5 * time.Millisecond})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	if b.AnySubscribers([]int64{5}) {
		t.Fatal("expected subscriber to be removed after stream exit")
	}
}
