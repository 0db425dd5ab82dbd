// Package svcmetrics reports this service's own operational counters to
// Redis on a timer and reads them back for a self-metrics endpoint. One
// Collector, one well-known key, no cross-service registry.
package svcmetrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix             = "activityfeed:metrics:"
	ttl                   = 2 * time.Minute
	defaultReportInterval = 30 * time.Second
)

// Snapshot is the JSON shape written to and read from Redis.
type Snapshot struct {
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	EventsIngested     uint64 `json:"events_ingested"`
	EventsReplayed     uint64 `json:"events_replayed"`
	IngestErrors       uint64 `json:"ingest_errors"`
	FeedReads          uint64 `json:"feed_reads"`
	NotificationReads  uint64 `json:"notification_reads"`
	SSEConnectionsOpen int64  `json:"sse_connections_open"`
	NotificationsSent  uint64 `json:"notifications_sent"`
	HTTPRequests       uint64 `json:"http_requests"`
	HTTPServerErrors   uint64 `json:"http_server_errors"`
}

// Collector accumulates atomic counters in process and periodically flushes
// a Snapshot to Redis under a single well-known key.
type Collector struct {
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	eventsIngested    atomic.Uint64
	eventsReplayed    atomic.Uint64
	ingestErrors      atomic.Uint64
	feedReads         atomic.Uint64
	notificationReads atomic.Uint64
	sseOpen           atomic.Int64
	notificationsSent atomic.Uint64
	httpRequests      atomic.Uint64
	httpServerErrors  atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector builds a Collector. redisClient may be nil, in which case
// Start is a no-op and GetSnapshot still works for an in-process caller.
func NewCollector(redisClient *redis.Client) *Collector {
	return &Collector{
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: defaultReportInterval,
		stopCh:         make(chan struct{}),
	}
}

func (c *Collector) RecordIngested()         { c.eventsIngested.Add(1) }
func (c *Collector) RecordReplayed()         { c.eventsReplayed.Add(1) }
func (c *Collector) RecordIngestError()      { c.ingestErrors.Add(1) }
func (c *Collector) RecordFeedRead()         { c.feedReads.Add(1) }
func (c *Collector) RecordNotificationRead() { c.notificationReads.Add(1) }
func (c *Collector) RecordNotificationSent() { c.notificationsSent.Add(1) }
func (c *Collector) RecordSSEOpen()          { c.sseOpen.Add(1) }
func (c *Collector) RecordSSEClose()         { c.sseOpen.Add(-1) }
func (c *Collector) RecordHTTPRequest()      { c.httpRequests.Add(1) }
func (c *Collector) RecordHTTPServerError()  { c.httpServerErrors.Add(1) }

// Start begins periodic reporting until ctx is cancelled or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	if c.redis == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.write(context.Background())
				return
			case <-c.stopCh:
				c.write(context.Background())
				return
			case <-ticker.C:
				c.write(ctx)
			}
		}
	}()
}

// Stop halts periodic reporting after a final flush.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// GetSnapshot returns the current counters without touching Redis.
func (c *Collector) GetSnapshot() Snapshot {
	return Snapshot{
		StartedAt:          c.startedAt,
		LastUpdated:        time.Now().UTC(),
		EventsIngested:     c.eventsIngested.Load(),
		EventsReplayed:     c.eventsReplayed.Load(),
		IngestErrors:       c.ingestErrors.Load(),
		FeedReads:          c.feedReads.Load(),
		NotificationReads:  c.notificationReads.Load(),
		SSEConnectionsOpen: c.sseOpen.Load(),
		NotificationsSent:  c.notificationsSent.Load(),
		HTTPRequests:       c.httpRequests.Load(),
		HTTPServerErrors:   c.httpServerErrors.Load(),
	}
}

func (c *Collector) write(ctx context.Context) {
	snap := c.GetSnapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("failed to marshal self metrics", "error", err)
		return
	}
	if err := c.redis.Set(ctx, keyPrefix+"activityfeed", data, ttl).Err(); err != nil {
		slog.Error("failed to write self metrics to redis", "error", err)
	}
}

// Reader reads the service's own metrics snapshot back from Redis, used by
// the /api/metrics/self endpoint so an operator does not need direct Redis
// access to see what the in-process Collector last reported.
type Reader struct {
	redis *redis.Client
}

func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

func (r *Reader) Read(ctx context.Context) (Snapshot, error) {
	data, err := r.redis.Get(ctx, keyPrefix+"activityfeed").Bytes()
	if err == redis.Nil {
		return Snapshot{}, fmt.Errorf("no self metrics reported yet")
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read self metrics: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal self metrics: %w", err)
	}
	return snap, nil
}

// GetEnvOrDefault returns the environment variable value or a default if
// unset.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// MaskDSN masks sensitive information in a DSN for logging.
func MaskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:20] + "***" + dsn[len(dsn)-20:]
	}
	return "***"
}

// ConnectRedis creates and validates a Redis connection.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
