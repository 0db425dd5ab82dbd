// Package seed generates deterministic, seeded activity fixtures for tests.
// It is not an operated tool: nothing here opens a database connection or
// exposes a CLI, it only hands back ingest.Input values a test can feed
// straight into a Coordinator.
package seed

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/afikmenashe/activityfeed/internal/idempotency"
	"github.com/afikmenashe/activityfeed/internal/ingest"
)

var (
	verbs       = []string{"liked", "commented", "followed", "shared", "mentioned"}
	objectTypes = []string{"post", "comment", "profile", "photo"}
)

// Generator produces ingest.Input fixtures from a seeded RNG, so a test run
// is reproducible across calls with the same seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator builds a Generator seeded with seed. The same seed always
// produces the same sequence of fixtures.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Event builds a single ingest.Input for actorID fanning out to
// targetUserIDs, with a random verb/object_type/object_id and a fresh
// idempotency key.
func (g *Generator) Event(actorID int64, targetUserIDs []int64) ingest.Input {
	return ingest.Input{
		ActorID:        actorID,
		Verb:           g.pick(verbs),
		ObjectType:     g.pick(objectTypes),
		ObjectID:       uuid.New().String(),
		TargetUserIDs:  targetUserIDs,
		IdemKey:        idempotency.NewKey(),
		AssertedUserID: actorID,
	}
}

// Events builds n independent fixtures, each actor chosen round-robin from
// actorIDs and fanned out to targetUserIDs.
func (g *Generator) Events(n int, actorIDs, targetUserIDs []int64) []ingest.Input {
	out := make([]ingest.Input, n)
	for i := 0; i < n; i++ {
		actorID := actorIDs[i%len(actorIDs)]
		out[i] = g.Event(actorID, targetUserIDs)
	}
	return out
}

// Burst builds n fixtures that all share one idempotency key, for tests that
// need to exercise concurrent/duplicate ingest of the same logical event.
func (g *Generator) Burst(n int, actorID int64, targetUserIDs []int64) []ingest.Input {
	key := idempotency.NewKey()
	out := make([]ingest.Input, n)
	for i := 0; i < n; i++ {
		out[i] = ingest.Input{
			ActorID:        actorID,
			Verb:           g.pick(verbs),
			ObjectType:     g.pick(objectTypes),
			ObjectID:       uuid.New().String(),
			TargetUserIDs:  targetUserIDs,
			IdemKey:        key,
			AssertedUserID: actorID,
		}
	}
	return out
}

// Backdated builds a fixture timestamped delta before now, for feed/top
// window tests that need events spread across time.
func (g *Generator) Backdated(actorID int64, targetUserIDs []int64, delta time.Duration) ingest.Input {
	in := g.Event(actorID, targetUserIDs)
	ts := time.Now().Add(-delta)
	in.CreatedAt = &ts
	return in
}

func (g *Generator) pick(choices []string) string {
	return choices[g.rng.Intn(len(choices))]
}
