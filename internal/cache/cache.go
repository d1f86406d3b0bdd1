package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Flush drops every entry
	Flush()

	// Size returns the current number of items in the cache
	Size() int
}

// TTLCache is a typed view over one go-cache region. Entries share a
// single TTL and an internal janitor evicts expired ones, so there is
// no cleanup loop to manage.
type TTLCache[T any] struct {
	store *gocache.Cache
}

// Ensure interface conformance
var _ Cache[int] = (*TTLCache[int])(nil)

// NewTTL creates a cache whose entries expire after ttl. The janitor
// wakes every cleanupInterval.
func NewTTL[T any](ttl, cleanupInterval time.Duration) *TTLCache[T] {
	return &TTLCache[T]{store: gocache.New(ttl, cleanupInterval)}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	data, ok := v.(T)
	if !ok {
		return zero, false
	}
	return data, true
}

func (c *TTLCache[T]) Set(key string, data T) {
	c.store.Set(key, data, gocache.DefaultExpiration)
}

func (c *TTLCache[T]) Delete(key string) {
	c.store.Delete(key)
}

func (c *TTLCache[T]) Flush() {
	c.store.Flush()
}

func (c *TTLCache[T]) Size() int {
	return c.store.ItemCount()
}
