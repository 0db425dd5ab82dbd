package notifications

import (
	"context"
	"testing"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/store"
)

type fakeStore struct {
	store.Store
	entries []store.NotificationEntry
	gotSinc int64
	gotLim  int
}

func (f *fakeStore) ListNotifications(ctx context.Context, userID int64, since int64, limit int) ([]store.NotificationEntry, error) {
	f.gotSinc = since
	f.gotLim = limit
	var out []store.NotificationEntry
	for _, e := range f.entries {
		if e.Notification.ID > since {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func makeEntries(n int) []store.NotificationEntry {
	out := make([]store.NotificationEntry, n)
	for i := 0; i < n; i++ {
		out[i] = store.NotificationEntry{Notification: store.Notification{ID: int64(i + 1), UserID: 1}}
	}
	return out
}

func TestReader_Read_ForbidsOtherUsers(t *testing.T) {
	r := New(&fakeStore{})
	_, err := r.Read(context.Background(), 1, 2, 0, 10)
	if apperr.CodeOf(err) != apperr.Forbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestReader_Read_DefaultAndMaxLimit(t *testing.T) {
	fs := &fakeStore{entries: makeEntries(5)}
	r := New(fs)

	if _, err := r.Read(context.Background(), 1, 1, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.gotLim != defaultLimit {
		t.Fatalf("expected default limit %d, got %d", defaultLimit, fs.gotLim)
	}

	if _, err := r.Read(context.Background(), 1, 1, 0, 10000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.gotLim != maxLimit {
		t.Fatalf("expected clamped limit %d, got %d", maxLimit, fs.gotLim)
	}
}

func TestReader_Read_NextSinceAdvancesToLastID(t *testing.T) {
	fs := &fakeStore{entries: makeEntries(3)}
	r := New(fs)

	page, err := r.Read(context.Background(), 1, 1, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextSince != 3 {
		t.Fatalf("expected next_since 3, got %d", page.NextSince)
	}
}

func TestReader_Read_NextSinceUnchangedWhenEmpty(t *testing.T) {
	fs := &fakeStore{}
	r := New(fs)

	page, err := r.Read(context.Background(), 1, 1, 7, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextSince != 7 {
		t.Fatalf("expected next_since to remain 7, got %d", page.NextSince)
	}
}

func TestReader_Read_RejectsNegativeSince(t *testing.T) {
	r := New(&fakeStore{})
	_, err := r.Read(context.Background(), 1, 1, -1, 10)
	if apperr.CodeOf(err) != apperr.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
