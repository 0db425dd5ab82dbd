package svcmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCollector_GetSnapshotReflectsCounters(t *testing.T) {
	c := NewCollector(nil)
	c.RecordIngested()
	c.RecordIngested()
	c.RecordReplayed()
	c.RecordIngestError()
	c.RecordFeedRead()
	c.RecordNotificationRead()
	c.RecordNotificationSent()
	c.RecordSSEOpen()
	c.RecordSSEOpen()
	c.RecordSSEClose()

	snap := c.GetSnapshot()
	if snap.EventsIngested != 2 {
		t.Errorf("EventsIngested = %d, want 2", snap.EventsIngested)
	}
	if snap.EventsReplayed != 1 {
		t.Errorf("EventsReplayed = %d, want 1", snap.EventsReplayed)
	}
	if snap.IngestErrors != 1 {
		t.Errorf("IngestErrors = %d, want 1", snap.IngestErrors)
	}
	if snap.SSEConnectionsOpen != 1 {
		t.Errorf("SSEConnectionsOpen = %d, want 1", snap.SSEConnectionsOpen)
	}
}

func TestCollector_WriteAndReader_RoundTrip(t *testing.T) {
	client := newTestRedis(t)
	defer client.Close()

	c := NewCollector(client)
	c.RecordIngested()
	c.RecordIngested()
	c.RecordIngested()

	c.write(context.Background())

	r := NewReader(client)
	snap, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.EventsIngested != 3 {
		t.Fatalf("EventsIngested = %d, want 3", snap.EventsIngested)
	}
}

func TestReader_ReadWithNoMetricsYetIsError(t *testing.T) {
	client := newTestRedis(t)
	defer client.Close()

	r := NewReader(client)
	if _, err := r.Read(context.Background()); err == nil {
		t.Fatal("expected an error when no metrics have been reported")
	}
}

func TestCollector_StartReportsOnStop(t *testing.T) {
	client := newTestRedis(t)
	defer client.Close()

	c := NewCollector(client)
	c.reportInterval = time.Hour
	c.RecordIngested()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	c.Stop()

	r := NewReader(client)
	snap, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("expected a final flush on Stop, got error: %v", err)
	}
	if snap.EventsIngested != 1 {
		t.Fatalf("EventsIngested = %d, want 1", snap.EventsIngested)
	}
}
