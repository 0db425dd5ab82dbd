// Package idempotency provides a client-side helper for generating
// idempotency keys. Ingest itself treats idem_key as an opaque
// caller-supplied string; this package is for callers, such as the seed
// fixtures, that need a fresh one.
package idempotency

import "github.com/google/uuid"

// NewKey returns a fresh, globally-unique idempotency key suitable for the
// Idempotency-Key header or Input.IdemKey.
func NewKey() string {
	return uuid.New().String()
}
