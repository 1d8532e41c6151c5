// Package cache holds the process-wide read-mostly state described in
// spec.md §4.3/§5/§9: the PCP specialty set, the payment-method hierarchy,
// and the OAuth bearer token. Each is refreshed by a single background
// writer. The PCP set and the hierarchy are read lock-free on the request
// path; the bearer token is read under a sync.RWMutex read lock.
package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// PCPSpecialtySetLoader fetches the current PCP specialty set from its
// source of truth.
type PCPSpecialtySetLoader func(ctx context.Context) (map[string]bool, error)

// PCPSpecialtySetCache holds the cached set behind an atomic pointer so
// reads never block on the refresh writer.
type PCPSpecialtySetCache struct {
	load     PCPSpecialtySetLoader
	interval time.Duration
	value    atomic.Pointer[map[string]bool]
}

// NewPCPSpecialtySetCache builds a cache that refreshes on the given
// interval (default 24h per spec.md §6.4) using load.
func NewPCPSpecialtySetCache(load PCPSpecialtySetLoader, interval time.Duration) *PCPSpecialtySetCache {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	empty := map[string]bool{}
	c := &PCPSpecialtySetCache{load: load, interval: interval}
	c.value.Store(&empty)
	return c
}

// PCPSpecialtySet returns the most recently loaded set. Safe for
// concurrent use without locking.
func (c *PCPSpecialtySetCache) PCPSpecialtySet() map[string]bool {
	return *c.value.Load()
}

// Refresh loads the set once and swaps it in.
func (c *PCPSpecialtySetCache) Refresh(ctx context.Context) error {
	set, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.value.Store(&set)
	return nil
}

// Run is the single background refresher: an initial load, then one
// refresh per interval until ctx is cancelled.
func (c *PCPSpecialtySetCache) Run(ctx context.Context) {
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
