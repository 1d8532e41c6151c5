package cache

import (
	"context"
	"sync"
	"time"
)

// BearerLoader exchanges client credentials for a bearer token at the
// configured token endpoint.
type BearerLoader func(ctx context.Context) (token string, ttl time.Duration, err error)

// BearerCache holds the current bearer token plus its expiry, refreshed on
// a ≈59min cadence by a single background writer. A request path that
// observes a 401 calls Refresh itself for the single-shot
// refresh-and-retry described in spec.md §4.3/§7 (AuthExpired); a mutex
// serializes concurrent forced refreshes so only one token exchange is
// in flight at a time.
type BearerCache struct {
	load     BearerLoader
	interval time.Duration

	mu      sync.RWMutex
	token   string
	expires time.Time
}

// NewBearerCache builds a cache that refreshes on the given interval
// (default 59min per spec.md §6.4).
func NewBearerCache(load BearerLoader, interval time.Duration) *BearerCache {
	if interval <= 0 {
		interval = 59 * time.Minute
	}
	return &BearerCache{load: load, interval: interval}
}

// Token returns the current bearer token.
func (c *BearerCache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Refresh exchanges for a new token and swaps it in. Safe to call
// concurrently; callers racing on a 401 serialize on the mutex, each
// running its own exchange in turn, so only one is in flight at a time.
func (c *BearerCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ttl, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.token = token
	c.expires = time.Now().Add(ttl)
	return nil
}

// Run is the single background refresher.
func (c *BearerCache) Run(ctx context.Context) {
	_ = c.Refresh(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}
