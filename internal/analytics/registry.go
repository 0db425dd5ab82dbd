package analytics

import (
	"time"

	"github.com/afikmenashe/activityfeed/internal/apperr"
)

// Dimension is a thing Windows are keyed on.
type Dimension string

const (
	DimensionObjectID Dimension = "object_id"
	DimensionVerb     Dimension = "verb"
)

// WindowTag names one of the three fixed window lengths this registry
// tracks.
type WindowTag string

const (
	Window1m WindowTag = "1m"
	Window5m WindowTag = "5m"
	Window1h WindowTag = "1h"
)

var windowSeconds = map[WindowTag]int{
	Window1m: 60,
	Window5m: 300,
	Window1h: 3600,
}

// Registry holds the fixed set of six counters: {object_id, verb} x
// {1m, 5m, 1h}, all sharing the bucket width passed to NewRegistry (5 seconds
// in the default configuration), and records every ingested event into all
// six.
type Registry struct {
	byObjectID map[WindowTag]*Window
	byVerb     map[WindowTag]*Window
}

// NewRegistry builds the registry with bucketSeconds-wide buckets.
func NewRegistry(bucketSeconds int) *Registry {
	r := &Registry{
		byObjectID: make(map[WindowTag]*Window, len(windowSeconds)),
		byVerb:     make(map[WindowTag]*Window, len(windowSeconds)),
	}
	for tag, seconds := range windowSeconds {
		r.byObjectID[tag] = NewWindow(seconds, bucketSeconds)
		r.byVerb[tag] = NewWindow(seconds, bucketSeconds)
	}
	return r
}

// Record adds one occurrence of objectID and verb into each of their three
// windows.
func (r *Registry) Record(objectID, verb string, ts time.Time) {
	for _, w := range r.byObjectID {
		w.Add(objectID, ts, 1)
	}
	for _, w := range r.byVerb {
		w.Add(verb, ts, 1)
	}
}

// Top dispatches to the counter for (window, dimension) and returns its
// top-k entries. Unknown window tags or dimensions are rejected with
// NotFound.
func (r *Registry) Top(window WindowTag, dimension Dimension, k int) ([]Count, error) {
	var bucket map[WindowTag]*Window
	switch dimension {
	case DimensionObjectID:
		bucket = r.byObjectID
	case DimensionVerb:
		bucket = r.byVerb
	default:
		return nil, apperr.New(apperr.NotFound, "unknown dimension: "+string(dimension))
	}

	w, ok := bucket[window]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "unknown window: "+string(window))
	}
	return w.Top(k, time.Time{}), nil
}
