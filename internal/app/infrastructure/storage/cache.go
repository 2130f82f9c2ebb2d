package storage

import (
	"time"

	"github.com/maypok86/otter/v2"
)

// Cache - обёртка над otter с TTL от момента записи.
type Cache[T any] struct {
	outer *otter.Cache[string, T]
	ttl   time.Duration
}

func NewCache[T any](capacity int, ttl time.Duration) *Cache[T] {
	opts := &otter.Options[string, T]{
		MaximumSize:     capacity,
		InitialCapacity: min(capacity, 64),
	}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryWriting[string, T](ttl)
	}

	return &Cache[T]{
		outer: otter.Must(opts),
		ttl:   ttl,
	}
}

func (c *Cache[T]) Set(key string, val T) {
	c.outer.Set(key, val)
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.outer.GetIfPresent(key)
}

func (c *Cache[T]) ClearKey(key string) {
	c.outer.Invalidate(key)
}

func (c *Cache[T]) ClearAll() {
	c.outer.InvalidateAll()
}

func (c *Cache[T]) TTL() time.Duration { return c.ttl }
