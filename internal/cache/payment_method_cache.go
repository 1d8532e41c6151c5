package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// PaymentMethodHierarchyLoader fetches the current payment-method
// hierarchy (claim-based -> provider-specific -> contract-standard ->
// default, spec.md §3.3) from its source of truth.
type PaymentMethodHierarchyLoader func(ctx context.Context) ([]string, error)

// PaymentMethodHierarchyCache holds the cached ordering behind an atomic
// pointer, refreshed on a ≈24h cadence by a single background writer.
type PaymentMethodHierarchyCache struct {
	load     PaymentMethodHierarchyLoader
	interval time.Duration
	value    atomic.Pointer[[]string]
}

// NewPaymentMethodHierarchyCache builds a cache that refreshes on the
// given interval (default 24h per spec.md §6.4).
func NewPaymentMethodHierarchyCache(load PaymentMethodHierarchyLoader, interval time.Duration) *PaymentMethodHierarchyCache {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	empty := []string{}
	c := &PaymentMethodHierarchyCache{load: load, interval: interval}
	c.value.Store(&empty)
	return c
}

// Hierarchy returns the most recently loaded ordering.
func (c *PaymentMethodHierarchyCache) Hierarchy() []string {
	return *c.value.Load()
}

// Refresh loads the hierarchy once and swaps it in.
func (c *PaymentMethodHierarchyCache) Refresh(ctx context.Context) error {
	h, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.value.Store(&h)
	return nil
}

// Run is the single background refresher.
func (c *PaymentMethodHierarchyCache) Run(ctx context.Context) {
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
