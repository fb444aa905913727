package ledger

import (
	"sync"
	"time"
)

// Clock supplies entry and account timestamps.
type Clock interface {
	Now() time.Time
}

// monotonicClock hands out strictly increasing UTC times at microsecond
// resolution, the precision Postgres keeps for timestamptz.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	if now == nil {
		now = time.Now
	}
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
