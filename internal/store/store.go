// Package store defines the transactional persistence contract the core
// activity/notification subsystems depend on, and a PostgreSQL-backed
// implementation of it. Callers program against the Store/Tx interfaces so
// the ingest coordinator and readers can be tested against a fake without a
// real database.
package store

import (
	"context"
	"time"
)

// Event is an immutable activity record.
type Event struct {
	ID         int64
	ActorID    int64
	Verb       string
	ObjectType string
	ObjectID   string
	CreatedAt  time.Time
}

// FeedItem is a recipient's materialized timeline entry referencing an Event.
type FeedItem struct {
	ID        int64
	UserID    int64
	EventID   int64
	CreatedAt time.Time
}

// Notification is a recipient's notification inbox entry referencing an
// Event.
type Notification struct {
	ID          int64
	UserID      int64
	EventID     int64
	CreatedAt   time.Time
	ReadAt      *time.Time
	DeliveredAt *time.Time
}

// IdempotencyKey is the dedup anchor for ingest.
type IdempotencyKey struct {
	ID        int64
	Key       string
	EventID   *int64
	CreatedAt time.Time
}

// FeedEntry pairs a FeedItem with the Event it points to, the unit the Feed
// Reader hands back to callers.
type FeedEntry struct {
	Item  FeedItem
	Event Event
}

// NotificationEntry pairs a Notification with the Event it points to.
type NotificationEntry struct {
	Notification Notification
	Event        Event
}

// FeedCursor is the decoded keyset pagination pointer used by ListFeed.
type FeedCursor struct {
	CreatedAt  time.Time
	FeedItemID int64
}

// Store is the transactional persistence contract consumed by the core. It
// is intentionally narrow: insert, bulk-insert-ignore-conflicts, keyset
// query, lookup-by-unique-key, and nested-transaction (savepoint) semantics.
type Store interface {
	// RunInTransaction opens a top-level transaction, invokes fn with a Tx
	// bound to it, and commits if fn returns nil or rolls back otherwise.
	// Hooks registered via Tx.OnCommit run, in registration order, only
	// after a successful commit.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// ListFeed returns up to limit FeedEntries for user_id ordered by
	// (created_at DESC, id DESC), seeking past cursor when non-nil.
	ListFeed(ctx context.Context, userID int64, cursor *FeedCursor, limit int) ([]FeedEntry, error)

	// ListNotifications returns up to limit NotificationEntries for user_id
	// with id > since, ordered ascending by id.
	ListNotifications(ctx context.Context, userID int64, since int64, limit int) ([]NotificationEntry, error)

	Close() error
}

// Tx is the set of operations available inside a Store transaction. All
// methods take the ctx passed to the enclosing RunInTransaction call (or a
// context derived from it).
type Tx interface {
	// TryInsertIdempotencyKey attempts, inside a nested savepoint, to insert
	// a new IdempotencyKey row for key. On success it returns the new row's
	// id. On a unique-constraint conflict it rolls back only the savepoint
	// (the outer transaction remains usable) and returns an *apperr.Error
	// with Code == apperr.Conflict; the caller must then call
	// LockIdempotencyKey to fetch the existing row.
	TryInsertIdempotencyKey(ctx context.Context, key string) (int64, error)

	// LockIdempotencyKey selects the existing IdempotencyKey row FOR UPDATE,
	// blocking until any concurrent writer commits or rolls back.
	LockIdempotencyKey(ctx context.Context, key string) (*IdempotencyKey, error)

	// BindIdempotencyKey sets event_id on the row with the given id. Once set,
	// event_id is immutable; callers must only invoke this once per row.
	BindIdempotencyKey(ctx context.Context, id int64, eventID int64) error

	// InsertEvent inserts a new immutable Event row.
	InsertEvent(ctx context.Context, actorID int64, verb, objectType, objectID string, createdAt time.Time) (*Event, error)

	// InsertFeedItems bulk-inserts one FeedItem per user id, silently
	// dropping any that would violate UNIQUE(user_id, event_id).
	InsertFeedItems(ctx context.Context, userIDs []int64, eventID int64, createdAt time.Time) error

	// InsertNotifications bulk-inserts one Notification per user id,
	// silently dropping duplicates, and returns exactly the rows that were
	// newly inserted by this call (not any pre-existing rows) so the
	// caller's post-commit publish hook only notifies genuinely new
	// recipients.
	InsertNotifications(ctx context.Context, userIDs []int64, eventID int64, createdAt time.Time) ([]Notification, error)

	// OnCommit registers fn to run after the enclosing transaction commits
	// successfully. Hooks never run if the transaction rolls back.
	OnCommit(fn func())
}
