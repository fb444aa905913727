package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/payledger/pkg/cache"
	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/amirasaad/payledger/pkg/eventbus"
	"golang.org/x/sync/singleflight"
)

// DefaultDedupTTL is how long a handled key is remembered when no TTL is configured.
const DefaultDedupTTL = time.Hour

// KeyFunc extracts a delivery key from an event. An empty key disables
// deduplication for that event.
type KeyFunc func(events.Event) string

// Tracker remembers which delivery keys were handled successfully. Keys live
// in store and expire after ttl.
type Tracker struct {
	store    cache.IdempotencyStore
	ttl      time.Duration
	prefix   string
	inflight singleflight.Group
}

// NewTracker creates a Tracker backed by store.
func NewTracker(store cache.IdempotencyStore, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Tracker{store: store, ttl: ttl, prefix: "dedup:"}
}

// Seen reports whether key was handled. A store error counts as unseen.
func (t *Tracker) Seen(ctx context.Context, key string) bool {
	resp, err := t.store.Get(ctx, t.prefix+key)
	return err == nil && resp != nil
}

func (t *Tracker) mark(ctx context.Context, key string) error {
	return t.store.Set(ctx, t.prefix+key, &cache.StoredResponse{StoredAt: time.Now().UTC()}, t.ttl)
}

// Deduplicate wraps handler so each key is handled at most once within the
// tracker's TTL. Kafka delivers at least once; a redelivered event is skipped.
// Concurrent deliveries of one key share a single handler call and its result.
// A failed call leaves the key unmarked so a later delivery retries.
func Deduplicate(
	handler eventbus.HandlerFunc,
	tracker *Tracker,
	key KeyFunc,
	name string,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e events.Event) error {
		k := key(e)
		if k == "" {
			return handler(ctx, e)
		}
		log := logger.With("handler", name, "event_type", e.Type(), "key", k)
		if tracker.Seen(ctx, k) {
			log.Debug("Event already handled, skipping")
			return nil
		}
		_, err, _ := tracker.inflight.Do(k, func() (any, error) {
			if tracker.Seen(ctx, k) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			if err := tracker.mark(ctx, k); err != nil {
				log.Warn("Failed to record handled event", "error", err)
			}
			return nil, nil
		})
		return err
	}
}

// EventKey keys events by the record they describe.
func EventKey(e events.Event) string {
	switch ev := e.(type) {
	case *events.EntryRecorded:
		return e.Type() + ":" + ev.EntryID.String()
	case *events.RequestCreated:
		return e.Type() + ":" + ev.RequestID.String()
	case *events.RequestResolved:
		return e.Type() + ":" + ev.RequestID.String()
	default:
		return ""
	}
}
