package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/afikmenashe/activityfeed/internal/apperr"
)

// Postgres is a Store backed by database/sql + lib/pq, pooled and tuned for
// a moderate-traffic HTTP service.
type Postgres struct {
	conn *sql.DB
}

// NewPostgres opens a connection pool against dsn, pings it, and returns a
// ready-to-use Store.
func NewPostgres(dsn string) (*Postgres, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")
	return &Postgres{conn: conn}, nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	if p.conn == nil {
		return nil
	}
	slog.Info("Closing database connection")
	return p.conn.Close()
}

// RunInTransaction opens a top-level *sql.Tx, runs fn against a pgTx wrapping
// it, and commits or rolls back based on fn's result. Commit hooks queued on
// the pgTx run only after a successful Commit.
func (p *Postgres) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "begin transaction", err)
	}

	pgTx := &txImpl{tx: sqlTx, savepointSeq: 0}

	if err := fn(ctx, pgTx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Error("rollback failed after handler error", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apperr.Wrap(apperr.StoreError, "commit transaction", err)
	}

	for _, hook := range pgTx.commitHooks {
		hook()
	}
	return nil
}

// ListFeed returns FeedItems for user_id, joined to Event, ordered
// (created_at DESC, id DESC), seeking past cursor with a strict
// lexicographic predicate.
func (p *Postgres) ListFeed(ctx context.Context, userID int64, cursor *FeedCursor, limit int) ([]FeedEntry, error) {
	query := `
		SELECT fi.id, fi.user_id, fi.event_id, fi.created_at,
		       e.id, e.actor_id, e.verb, e.object_type, e.object_id, e.created_at
		FROM feed_items fi
		JOIN events e ON e.id = fi.event_id
		WHERE fi.user_id = $1
	`
	args := []interface{}{userID}
	if cursor != nil {
		query += ` AND (fi.created_at < $2 OR (fi.created_at = $2 AND fi.id < $3))`
		args = append(args, cursor.CreatedAt, cursor.FeedItemID)
	}
	query += fmt.Sprintf(` ORDER BY fi.created_at DESC, fi.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "list feed", err)
	}
	defer rows.Close()

	var entries []FeedEntry
	for rows.Next() {
		var fe FeedEntry
		if err := rows.Scan(
			&fe.Item.ID, &fe.Item.UserID, &fe.Item.EventID, &fe.Item.CreatedAt,
			&fe.Event.ID, &fe.Event.ActorID, &fe.Event.Verb, &fe.Event.ObjectType, &fe.Event.ObjectID, &fe.Event.CreatedAt,
		); err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "scan feed row", err)
		}
		entries = append(entries, fe)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "iterate feed rows", err)
	}
	return entries, nil
}

// ListNotifications returns Notifications for user_id with id > since,
// ordered ascending, joined to Event.
func (p *Postgres) ListNotifications(ctx context.Context, userID int64, since int64, limit int) ([]NotificationEntry, error) {
	query := `
		SELECT n.id, n.user_id, n.event_id, n.created_at, n.read_at, n.delivered_at,
		       e.id, e.actor_id, e.verb, e.object_type, e.object_id, e.created_at
		FROM notifications n
		JOIN events e ON e.id = n.event_id
		WHERE n.user_id = $1 AND n.id > $2
		ORDER BY n.id ASC
		LIMIT $3
	`
	rows, err := p.conn.QueryContext(ctx, query, userID, since, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "list notifications", err)
	}
	defer rows.Close()

	var entries []NotificationEntry
	for rows.Next() {
		var ne NotificationEntry
		if err := rows.Scan(
			&ne.Notification.ID, &ne.Notification.UserID, &ne.Notification.EventID, &ne.Notification.CreatedAt,
			&ne.Notification.ReadAt, &ne.Notification.DeliveredAt,
			&ne.Event.ID, &ne.Event.ActorID, &ne.Event.Verb, &ne.Event.ObjectType, &ne.Event.ObjectID, &ne.Event.CreatedAt,
		); err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "scan notification row", err)
		}
		entries = append(entries, ne)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "iterate notification rows", err)
	}
	return entries, nil
}

// txImpl implements Tx over a single *sql.Tx.
type txImpl struct {
	tx           *sql.Tx
	savepointSeq int
	commitHooks  []func()
}

func (t *txImpl) OnCommit(fn func()) {
	t.commitHooks = append(t.commitHooks, fn)
}

func (t *txImpl) nextSavepoint() string {
	t.savepointSeq++
	return fmt.Sprintf("sp_%d", t.savepointSeq)
}

// TryInsertIdempotencyKey uses a nested savepoint to isolate the possible
// UNIQUE violation so the outer transaction remains usable on conflict.
func (t *txImpl) TryInsertIdempotencyKey(ctx context.Context, key string) (int64, error) {
	sp := t.nextSavepoint()
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "create savepoint", err)
	}

	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO idempotency_keys (key, created_at) VALUES ($1, NOW()) RETURNING id`,
		key,
	).Scan(&id)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
				return 0, apperr.Wrap(apperr.StoreError, "rollback savepoint after conflict", rbErr)
			}
			return 0, apperr.Wrap(apperr.Conflict, "idempotency key already exists", err)
		}
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			slog.Error("rollback savepoint failed", "error", rbErr)
		}
		return 0, apperr.Wrap(apperr.StoreError, "insert idempotency key", err)
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return 0, apperr.Wrap(apperr.StoreError, "release savepoint", err)
	}
	return id, nil
}

func (t *txImpl) LockIdempotencyKey(ctx context.Context, key string) (*IdempotencyKey, error) {
	var row IdempotencyKey
	var eventID sql.NullInt64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, key, event_id, created_at FROM idempotency_keys WHERE key = $1 FOR UPDATE`,
		key,
	).Scan(&row.ID, &row.Key, &eventID, &row.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "idempotency key not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "lock idempotency key", err)
	}
	if eventID.Valid {
		row.EventID = &eventID.Int64
	}
	return &row, nil
}

func (t *txImpl) BindIdempotencyKey(ctx context.Context, id int64, eventID int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE idempotency_keys SET event_id = $2 WHERE id = $1`,
		id, eventID,
	)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "bind idempotency key", err)
	}
	return nil
}

func (t *txImpl) InsertEvent(ctx context.Context, actorID int64, verb, objectType, objectID string, createdAt time.Time) (*Event, error) {
	var ev Event
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO events (actor_id, verb, object_type, object_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, actor_id, verb, object_type, object_id, created_at`,
		actorID, verb, objectType, objectID, createdAt,
	).Scan(&ev.ID, &ev.ActorID, &ev.Verb, &ev.ObjectType, &ev.ObjectID, &ev.CreatedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "insert event", err)
	}
	return &ev, nil
}

// InsertFeedItems bulk-inserts using unnest() over a single array parameter
// so one round trip fans out to every recipient, with ON CONFLICT DO NOTHING
// silently dropping any duplicate (user_id, event_id) pair.
func (t *txImpl) InsertFeedItems(ctx context.Context, userIDs []int64, eventID int64, createdAt time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO feed_items (user_id, event_id, created_at)
		 SELECT uid, $2, $3 FROM unnest($1::bigint[]) AS uid
		 ON CONFLICT (user_id, event_id) DO NOTHING`,
		pq.Array(userIDs), eventID, createdAt,
	)
	if err != nil {
		return apperr.Wrap(apperr.StoreError, "bulk insert feed items", err)
	}
	return nil
}

// InsertNotifications mirrors InsertFeedItems but RETURNINGs the rows that
// were actually inserted, so the ingest coordinator's post-commit publish
// hook notifies exactly the recipients that are new to this event.
func (t *txImpl) InsertNotifications(ctx context.Context, userIDs []int64, eventID int64, createdAt time.Time) ([]Notification, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := t.tx.QueryContext(ctx,
		`INSERT INTO notifications (user_id, event_id, created_at)
		 SELECT uid, $2, $3 FROM unnest($1::bigint[]) AS uid
		 ON CONFLICT (user_id, event_id) DO NOTHING
		 RETURNING id, user_id, event_id, created_at, read_at, delivered_at`,
		pq.Array(userIDs), eventID, createdAt,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "bulk insert notifications", err)
	}
	defer rows.Close()

	var inserted []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.EventID, &n.CreatedAt, &n.ReadAt, &n.DeliveredAt); err != nil {
			return nil, apperr.Wrap(apperr.StoreError, "scan inserted notification", err)
		}
		inserted = append(inserted, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.StoreError, "iterate inserted notifications", err)
	}
	return inserted, nil
}
