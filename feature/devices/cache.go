package devices

import (
	"context"
	"sync"
	"time"

	"fleet-sync/core/provider"

	"golang.org/x/sync/singleflight"
)

// cachedStatus is one live lookup kept for reuse.
type cachedStatus struct {
	snapshot  *provider.Snapshot
	fetchedAt time.Time
}

// statusCache is a read-through cache of live status lookups keyed by
// integration and external id. Concurrent misses for one key share a single
// provider call. Failed lookups are not cached.
type statusCache struct {
	mu      sync.RWMutex
	entries map[string]cachedStatus
	sf      singleflight.Group
	ttl     time.Duration
	now     func() time.Time
}

func newStatusCache(ttl time.Duration) *statusCache {
	return &statusCache{
		entries: make(map[string]cachedStatus),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *statusCache) lookup(key string) (cachedStatus, bool) {
	if c.ttl <= 0 {
		return cachedStatus{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.fetchedAt) > c.ttl {
		return cachedStatus{}, false
	}
	return entry, true
}

// get returns the cached lookup for key or runs fetch. hit reports whether the
// result came from the cache.
func (c *statusCache) get(ctx context.Context, key string, fetch func(ctx context.Context) (*provider.Snapshot, error)) (entry cachedStatus, hit bool, err error) {
	if entry, ok := c.lookup(key); ok {
		return entry, true, nil
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		if entry, ok := c.lookup(key); ok {
			return entry, nil
		}
		// Shared by every waiter, so one caller going away does not cancel the others.
		snapshot, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		entry := cachedStatus{snapshot: snapshot, fetchedAt: c.now()}
		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = entry
			c.mu.Unlock()
		}
		return entry, nil
	})

	select {
	case <-ctx.Done():
		return cachedStatus{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return cachedStatus{}, false, res.Err
		}
		return res.Val.(cachedStatus), false, nil
	}
}

func cacheKey(integrationID, externalID string) string {
	return integrationID + "/" + externalID
}
