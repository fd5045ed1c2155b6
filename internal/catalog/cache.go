package catalog

import (
	"context"
	"log"
	"sync"
	"time"
)

// SnapshotCache keeps the last fetched product snapshot and refreshes it from
// the Source once the TTL elapses. A failed refresh never discards a valid
// snapshot: the stale copy keeps serving until the upstream recovers.
type SnapshotCache struct {
	source Source
	ttl    time.Duration

	mu        sync.Mutex
	products  []Product
	fetchedAt time.Time
	loaded    bool

	nowFunc func() time.Time
}

// NewSnapshotCache returns a cache over the given source.
func NewSnapshotCache(source Source, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		source:  source,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Products returns the current snapshot, refreshing it when stale. The
// returned slice is shared; callers must treat it as read-only (Query does).
func (c *SnapshotCache) Products(ctx context.Context) ([]Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	if c.loaded && now.Sub(c.fetchedAt) < c.ttl {
		return c.products, nil
	}

	products, err := c.source.Fetch(ctx)
	if err != nil {
		if c.loaded {
			// serve the last good snapshot rather than erroring out
			log.Printf("product feed refresh failed, serving stale snapshot: %v", err)
			return c.products, nil
		}
		return nil, err
	}

	c.products = products
	c.fetchedAt = now
	c.loaded = true
	return c.products, nil
}

// Invalidate drops the snapshot so the next read refetches.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.products = nil
}
