package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/payledger/pkg/cache"
)

// MemoryCache implements IdempotencyStore using in-memory storage
type MemoryCache struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine
	go c.cleanup(5 * time.Minute)

	return c
}

// Get retrieves a stored response. Expired entries are treated as misses.
func (c *MemoryCache) Get(ctx context.Context, key string) (*cache.StoredResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil, nil
	}

	if c.now().After(entry.expiresAt) {
		return nil, nil
	}

	resp := *entry.resp
	resp.Body = append([]byte(nil), entry.resp.Body...)
	return &resp, nil
}

// Set stores a response with TTL
func (c *MemoryCache) Set(
	ctx context.Context,
	key string,
	resp *cache.StoredResponse,
	ttl time.Duration,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := *resp
	stored.Body = append([]byte(nil), resp.Body...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = &cacheEntry{
		resp:      &stored,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a response from cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, key)
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// cleanup removes expired entries from cache
func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.cache {
		if now.After(entry.expiresAt) {
			delete(c.cache, key)
		}
	}
}

type cacheEntry struct {
	resp      *cache.StoredResponse
	expiresAt time.Time
}

var _ cache.IdempotencyStore = (*MemoryCache)(nil)
