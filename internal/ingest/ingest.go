// Package ingest implements the Ingest Coordinator: the idempotency check,
// the atomic event-plus-fan-out write, and the post-commit broker publish,
// expressed around an explicit Store/Tx savepoint contract for isolating a
// unique-constraint conflict without poisoning the outer transaction.
package ingest

import (
	"context"
	"time"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/clock"
	"github.com/afikmenashe/activityfeed/internal/sse"
	"github.com/afikmenashe/activityfeed/internal/store"
)

const (
	maxVerbLen       = 64
	maxObjectTypeLen = 64
	maxObjectIDLen   = 128
)

// Publisher is the subset of the notification broker the coordinator needs;
// satisfied by *broker.Broker. Kept as an interface so tests can substitute
// a fake.
type Publisher interface {
	AnySubscribers(userIDs []int64) bool
	Publish(userID int64, msg interface{})
}

// Analytics is the subset of the analytics registry the coordinator needs.
type Analytics interface {
	Record(objectID, verb string, ts time.Time)
}

// Input is the validated-at-the-door request shape for Ingest.
type Input struct {
	ActorID        int64
	Verb           string
	ObjectType     string
	ObjectID       string
	TargetUserIDs  []int64
	CreatedAt      *time.Time
	IdemKey        string
	AssertedUserID int64
}

// Result is Ingest's successful outcome.
type Result struct {
	EventID int64
	Created bool
}

// Coordinator orchestrates ingest against a Store, publishing to a Publisher
// and recording into Analytics after a successful commit.
type Coordinator struct {
	Store     store.Store
	Publisher Publisher
	Analytics Analytics
	Clock     clock.Clock
}

// New builds a Coordinator. clk may be nil to use clock.Real{}.
func New(s store.Store, pub Publisher, an Analytics, clk clock.Clock) *Coordinator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Coordinator{Store: s, Publisher: pub, Analytics: an, Clock: clk}
}

// Ingest validates the input, resolves idempotent replay vs. a fresh write,
// and commits the event plus its fan-out in one transaction.
func (c *Coordinator) Ingest(ctx context.Context, in Input) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	targets := dedupe(in.TargetUserIDs)

	createdAt := in.CreatedAt
	if createdAt == nil {
		now := c.Clock.Now()
		createdAt = &now
	}

	var result Result

	err := c.Store.RunInTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var idemID int64
		haveIdem := false

		if in.IdemKey != "" {
			id, err := tx.TryInsertIdempotencyKey(ctx, in.IdemKey)
			if err != nil {
				if apperr.CodeOf(err) != apperr.Conflict {
					return err
				}
				existing, lockErr := tx.LockIdempotencyKey(ctx, in.IdemKey)
				if lockErr != nil {
					return lockErr
				}
				if existing.EventID != nil {
					// Short-circuit: replay. T commits with no writes.
					result = Result{EventID: *existing.EventID, Created: false}
					return nil
				}
				// Race: a prior attempt reserved the key but crashed before
				// binding it. Continue and bind after inserting a fresh Event
				// (see DESIGN.md's "CLARIFIED OPEN QUESTION").
				idemID = existing.ID
				haveIdem = true
			} else {
				idemID = id
				haveIdem = true
			}
		}

		ev, err := tx.InsertEvent(ctx, in.ActorID, in.Verb, in.ObjectType, in.ObjectID, *createdAt)
		if err != nil {
			return err
		}

		var insertedNotifications []store.Notification
		if len(targets) > 0 {
			if err := tx.InsertFeedItems(ctx, targets, ev.ID, *createdAt); err != nil {
				return err
			}
			insertedNotifications, err = tx.InsertNotifications(ctx, targets, ev.ID, *createdAt)
			if err != nil {
				return err
			}
		}

		if haveIdem {
			if err := tx.BindIdempotencyKey(ctx, idemID, ev.ID); err != nil {
				return err
			}
		}

		if len(insertedNotifications) > 0 {
			event := *ev
			notifications := insertedNotifications
			tx.OnCommit(func() {
				c.publish(event, notifications)
			})
		}

		if c.Analytics != nil {
			evCopy := *ev
			tx.OnCommit(func() {
				c.Analytics.Record(evCopy.ObjectID, evCopy.Verb, evCopy.CreatedAt)
			})
		}

		result = Result{EventID: ev.ID, Created: true}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// publish is the post-commit hook: skip broker work entirely when nobody
// is listening, otherwise deliver one SSE payload per newly-inserted
// notification.
func (c *Coordinator) publish(event store.Event, notifications []store.Notification) {
	if c.Publisher == nil {
		return
	}

	userIDs := make([]int64, len(notifications))
	for i, n := range notifications {
		userIDs[i] = n.UserID
	}
	if !c.Publisher.AnySubscribers(userIDs) {
		return
	}

	view := sse.EventView{
		EventID:    event.ID,
		ActorID:    event.ActorID,
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		CreatedAt:  event.CreatedAt,
	}

	for _, n := range notifications {
		payload := sse.NotificationPayload{
			NotificationID: n.ID,
			UserID:         n.UserID,
			CreatedAt:      n.CreatedAt,
			ReadAt:         n.ReadAt,
			DeliveredAt:    n.DeliveredAt,
			Event:          view,
		}
		c.Publisher.Publish(n.UserID, payload)
	}
}

func validate(in Input) error {
	if in.AssertedUserID <= 0 {
		return apperr.New(apperr.Unauthenticated, "missing or invalid asserted user id")
	}
	if in.ActorID != in.AssertedUserID {
		return apperr.New(apperr.Forbidden, "actor_id must match asserted user id")
	}
	if in.ActorID <= 0 {
		return apperr.New(apperr.InvalidArgument, "actor_id must be positive")
	}
	if in.Verb == "" || len(in.Verb) > maxVerbLen {
		return apperr.New(apperr.InvalidArgument, "verb must be 1..64 characters")
	}
	if in.ObjectType == "" || len(in.ObjectType) > maxObjectTypeLen {
		return apperr.New(apperr.InvalidArgument, "object_type must be 1..64 characters")
	}
	if in.ObjectID == "" || len(in.ObjectID) > maxObjectIDLen {
		return apperr.New(apperr.InvalidArgument, "object_id must be 1..128 characters")
	}
	for _, uid := range in.TargetUserIDs {
		if uid <= 0 {
			return apperr.New(apperr.InvalidArgument, "target_user_ids must all be positive")
		}
	}
	if in.IdemKey != "" && len(in.IdemKey) > 255 {
		return apperr.New(apperr.InvalidArgument, "idempotency key must be <= 255 characters")
	}
	return nil
}

// dedupe removes duplicate ids, preserving first-occurrence order.
func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
