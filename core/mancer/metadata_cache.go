package mancer

import (
	"context"
	"sync"
	"time"

	"geomancer/core/metrics"

	"golang.org/x/sync/singleflight"
)

// cachedValue is one cached metadata entry.
type cachedValue struct {
	value any
	built time.Time
}

// MetadataCache holds adapter metadata across jobs with a TTL. Concurrent
// misses for the same key are collapsed into one load. Only metadata
// goes here; geography resolutions stay per job.
type MetadataCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cachedValue
	sf      singleflight.Group
	now     func() time.Time
}

// NewMetadataCache returns a cache with the given TTL. A zero TTL disables
// caching but still collapses concurrent loads.
func NewMetadataCache(ttl time.Duration) *MetadataCache {
	return &MetadataCache{ttl: ttl, entries: make(map[string]cachedValue), now: time.Now}
}

func (c *MetadataCache) expired(v cachedValue) bool {
	if c.ttl == 0 {
		return true
	}
	return c.now().Sub(v.built) > c.ttl
}

// GetOrLoad returns the cached value for key, or calls load and stores its
// result. Errors are not cached. A nil cache always calls load.
func (c *MetadataCache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if c == nil {
		return load(ctx)
	}

	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && !c.expired(v) {
		metrics.MetadataCacheTotal.WithLabelValues("hit").Inc()
		return v.value, nil
	}
	metrics.MetadataCacheTotal.WithLabelValues("miss").Inc()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && !c.expired(v) {
			return v.value, nil
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = cachedValue{value: value, built: c.now()}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Invalidate drops one key.
func (c *MetadataCache) Invalidate(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Metadata returns the cached metadata of m, loading it on a miss.
func (c *MetadataCache) Metadata(ctx context.Context, m Mancer) (*Metadata, error) {
	v, err := c.GetOrLoad(ctx, "metadata:"+m.ID(), func(ctx context.Context) (any, error) {
		return m.Metadata(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metadata), nil
}
