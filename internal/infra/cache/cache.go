// Package cache provides a typed in-memory TTL cache backed by go-cache.
package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Recorder receives hit/miss notifications. *observability.Metrics
// satisfies it.
type Recorder interface {
	IncrCacheHit(cache string)
	IncrCacheMiss(cache string)
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	name     string
	ttl      time.Duration
	items    *gocache.Cache
	recorder Recorder
}

// Option customizes an InMemory cache.
type Option func(*options)

type options struct {
	name     string
	recorder Recorder
}

// WithName labels the cache in hit/miss metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithRecorder reports hits and misses to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// New creates a new in-memory cache with the given TTL. Expired entries are
// purged every TTL.
func New[T any](ttl time.Duration, opts ...Option) *InMemory[T] {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	return &InMemory[T]{
		name:     o.name,
		ttl:      ttl,
		items:    gocache.New(ttl, ttl),
		recorder: o.recorder,
	}
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	if v, ok := c.items.Get(key); ok {
		value, ok := v.(T)
		if !ok {
			var expected T
			panic(fmt.Sprintf("cache %s: expected %T, found %T", c.name, expected, v))
		}
		if c.recorder != nil {
			c.recorder.IncrCacheHit(c.name)
		}
		return value, true
	}
	if c.recorder != nil {
		c.recorder.IncrCacheMiss(c.name)
	}
	var zero T
	return zero, false
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.items.Set(key, value, c.ttl)
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.items.Delete(key)
}
