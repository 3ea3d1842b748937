package storage

import (
	"github.com/maypok86/otter/v2"
	"time"
)

type ExpiryMode int

const (
	// ExpireAfterWrite - запись живет ttl с последней записи (дедупликация, кеш фолловеров).
	ExpireAfterWrite ExpiryMode = iota
	// ExpireAfterAccess - запись живет, пока к ней обращаются (скомпилированные фильтры).
	ExpireAfterAccess
)

type Cache[K comparable, V any] struct {
	outer *otter.Cache[K, V]
	ttl   time.Duration
}

func NewCache[K comparable, V any](capacity int, ttl time.Duration, mode ExpiryMode) *Cache[K, V] {
	opts := &otter.Options[K, V]{
		MaximumSize:     capacity,
		InitialCapacity: min(capacity, 1024),
	}

	if ttl > 0 {
		switch mode {
		case ExpireAfterAccess:
			opts.ExpiryCalculator = otter.ExpiryAccessing[K, V](ttl)
		default:
			opts.ExpiryCalculator = otter.ExpiryWriting[K, V](ttl)
		}
	}

	return &Cache[K, V]{
		outer: otter.Must(opts),
		ttl:   ttl,
	}
}

func (c *Cache[K, V]) Set(key K, val V) {
	c.outer.Set(key, val)
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.outer.GetIfPresent(key)
}

func (c *Cache[K, V]) ClearKey(key K) {
	c.outer.Invalidate(key)
}

func (c *Cache[K, V]) ClearAll() {
	c.outer.InvalidateAll()
}

func (c *Cache[K, V]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[K, V]) All() map[K]V {
	out := make(map[K]V)
	for k, v := range c.outer.All() {
		out[k] = v
	}
	return out
}
