package cache

import (
	"context"
	"time"
)

// StoredResponse is a completed HTTP response kept for replay under an
// idempotency key.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	// Fingerprint identifies the request that produced the response.
	Fingerprint string    `json:"fingerprint"`
	StoredAt    time.Time `json:"stored_at"`
}

// IdempotencyStore keeps responses keyed by principal and idempotency key.
// Get returns (nil, nil) on a miss.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Set(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
