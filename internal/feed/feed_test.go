package feed

import (
	"context"
	"testing"
	"time"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/cursor"
	"github.com/afikmenashe/activityfeed/internal/store"
)

type fakeStore struct {
	store.Store
	entries []store.FeedEntry
	gotUser int64
	gotCur  *store.FeedCursor
	gotLim  int
}

func (f *fakeStore) ListFeed(ctx context.Context, userID int64, c *store.FeedCursor, limit int) ([]store.FeedEntry, error) {
	f.gotUser = userID
	f.gotCur = c
	f.gotLim = limit
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func makeEntries(n int) []store.FeedEntry {
	out := make([]store.FeedEntry, n)
	base := time.Unix(1000, 0)
	for i := 0; i < n; i++ {
		out[i] = store.FeedEntry{
			Item:  store.FeedItem{ID: int64(n - i), UserID: 1, CreatedAt: base},
			Event: store.Event{ID: int64(n - i)},
		}
	}
	return out
}

func TestReader_Read_ForbidsOtherUsers(t *testing.T) {
	r := New(&fakeStore{})
	_, err := r.Read(context.Background(), 1, 2, "", 10)
	if apperr.CodeOf(err) != apperr.Forbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestReader_Read_DefaultAndMaxLimit(t *testing.T) {
	fs := &fakeStore{entries: makeEntries(5)}
	r := New(fs)

	if _, err := r.Read(context.Background(), 1, 1, "", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.gotLim != defaultLimit {
		t.Fatalf("expected default limit %d, got %d", defaultLimit, fs.gotLim)
	}

	if _, err := r.Read(context.Background(), 1, 1, "", 10000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.gotLim != maxLimit {
		t.Fatalf("expected clamped limit %d, got %d", maxLimit, fs.gotLim)
	}
}

func TestReader_Read_EmitsNextCursorOnlyWhenFull(t *testing.T) {
	fs := &fakeStore{entries: makeEntries(3)}
	r := New(fs)

	page, err := r.Read(context.Background(), 1, 1, "", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor when the page is exactly full")
	}

	fs2 := &fakeStore{entries: makeEntries(2)}
	r2 := New(fs2)
	page2, err := r2.Read(context.Background(), 1, 1, "", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page2.NextCursor != "" {
		t.Fatal("expected no next cursor on a short page")
	}
}

func TestReader_Read_PassesDecodedCursorThrough(t *testing.T) {
	fs := &fakeStore{entries: makeEntries(1)}
	r := New(fs)

	token := cursor.Encode(time.Unix(2000, 0), 42)
	if _, err := r.Read(context.Background(), 1, 1, token, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.gotCur == nil || fs.gotCur.FeedItemID != 42 {
		t.Fatalf("expected decoded cursor to reach the store, got %+v", fs.gotCur)
	}
}

func TestReader_Read_RejectsMalformedCursor(t *testing.T) {
	r := New(&fakeStore{})
	_, err := r.Read(context.Background(), 1, 1, "not-a-valid-cursor!!", 10)
	if apperr.CodeOf(err) != apperr.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
