package seed

import (
	"testing"
	"time"
)

func TestGenerator_Event(t *testing.T) {
	gen := NewGenerator(42)

	in := gen.Event(1, []int64{2, 3})

	if in.ActorID != 1 {
		t.Errorf("ActorID = %d, want 1", in.ActorID)
	}
	if in.AssertedUserID != 1 {
		t.Errorf("AssertedUserID = %d, want 1", in.AssertedUserID)
	}
	if in.Verb == "" {
		t.Error("Verb should not be empty")
	}
	if in.ObjectType == "" {
		t.Error("ObjectType should not be empty")
	}
	if in.ObjectID == "" {
		t.Error("ObjectID should not be empty")
	}
	if in.IdemKey == "" {
		t.Error("IdemKey should not be empty")
	}
	if len(in.TargetUserIDs) != 2 {
		t.Errorf("TargetUserIDs = %v, want 2 entries", in.TargetUserIDs)
	}
}

func TestGenerator_DeterministicWithSameSeed(t *testing.T) {
	a := NewGenerator(7).Event(1, []int64{2})
	b := NewGenerator(7).Event(1, []int64{2})

	if a.Verb != b.Verb || a.ObjectType != b.ObjectType {
		t.Errorf("same seed produced different picks: %+v vs %+v", a, b)
	}
}

func TestGenerator_EventsRoundRobinsActors(t *testing.T) {
	gen := NewGenerator(1)
	events := gen.Events(4, []int64{10, 20}, []int64{99})

	want := []int64{10, 20, 10, 20}
	for i, ev := range events {
		if ev.ActorID != want[i] {
			t.Errorf("events[%d].ActorID = %d, want %d", i, ev.ActorID, want[i])
		}
	}
}

func TestGenerator_BurstSharesIdemKey(t *testing.T) {
	gen := NewGenerator(3)
	events := gen.Burst(5, 1, []int64{2})

	key := events[0].IdemKey
	for i, ev := range events {
		if ev.IdemKey != key {
			t.Errorf("events[%d].IdemKey = %q, want %q (all events in a burst share a key)", i, ev.IdemKey, key)
		}
		if ev.ObjectID == "" {
			t.Errorf("events[%d].ObjectID should not be empty", i)
		}
	}
}

func TestGenerator_BackdatedSetsCreatedAtInThePast(t *testing.T) {
	gen := NewGenerator(9)
	before := time.Now().Add(-time.Hour)

	in := gen.Backdated(1, []int64{2}, 2*time.Hour)

	if in.CreatedAt == nil {
		t.Fatal("CreatedAt should be set")
	}
	if !in.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want before %v", in.CreatedAt, before)
	}
}
