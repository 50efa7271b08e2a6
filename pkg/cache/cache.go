package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Options struct {
	// Name labels metrics and logs; it does not affect behavior.
	Name       string
	TTL        time.Duration
	MaxEntries int
	// Now overrides the clock. Tests use it to step past a TTL without sleeping.
	Now func() time.Time
}

type MetricsHooks struct {
	OnHit    func(labels map[string]string)
	OnMiss   func(labels map[string]string)
	OnStore  func(labels map[string]string)
	OnExpire func(labels map[string]string)
}

type entry[V any] struct {
	value     V
	writtenAt time.Time
}

// Cache is a TTL map. Expiry is enforced on read: an entry older than the TTL
// is reported as a miss and dropped, whether or not a sweep has run.
type Cache[V any] struct {
	mu      sync.Mutex
	items   map[string]*entry[V]
	order   []string
	opts    Options
	metrics MetricsHooks
	sf      singleflight.Group
}

// Loader produces the value for a missing key. When store is false the value
// is returned to callers but not cached.
type Loader[V any] func(ctx context.Context, key string) (value V, store bool, err error)

type loadResult[V any] struct {
	val V
	err error
}

func New[V any](opts Options, hooks MetricsHooks) *Cache[V] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache[V]{
		items:   make(map[string]*entry[V]),
		order:   make([]string, 0, 128),
		opts:    opts,
		metrics: hooks,
	}
}

func (c *Cache[V]) TTL() time.Duration { return c.opts.TTL }

func (c *Cache[V]) Name() string { return c.opts.Name }

func (c *Cache[V]) expired(e *entry[V], now time.Time) bool {
	return now.Sub(e.writtenAt) > c.opts.TTL
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.opts.Now()
	c.mu.Lock()
	e, ok := c.items[key]
	if ok && c.expired(e, now) {
		delete(c.items, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		c.fire(c.metrics.OnExpire, key)
		c.fire(c.metrics.OnMiss, key)
		var zero V
		return zero, false
	}
	c.mu.Unlock()
	if !ok {
		c.fire(c.metrics.OnMiss, key)
		var zero V
		return zero, false
	}
	c.fire(c.metrics.OnHit, key)
	return e.value, true
}

// Load returns the cached value for key, or runs loader once for all
// concurrent callers asking for the same missing key.
func (c *Cache[V]) Load(ctx context.Context, key string, loader Loader[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	result, _, _ := c.sf.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return loadResult[V]{val: v}, nil
		}
		val, store, err := loader(ctx, key)
		if err == nil && store {
			c.Set(key, val)
		}
		return loadResult[V]{val: val, err: err}, nil
	})
	res := result.(loadResult[V])
	return res.val, res.err
}

func (c *Cache[V]) Set(key string, val V) {
	e := &entry[V]{value: val, writtenAt: c.opts.Now()}
	c.mu.Lock()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = e
	c.evictIfNeeded()
	c.mu.Unlock()
	c.fire(c.metrics.OnStore, key)
}

// SweepExpired physically removes every expired entry and reports how many
// were dropped.
func (c *Cache[V]) SweepExpired() int {
	now := c.opts.Now()
	c.mu.Lock()
	var dropped []string
	for k, e := range c.items {
		if c.expired(e, now) {
			delete(c.items, k)
			dropped = append(dropped, k)
		}
	}
	if len(dropped) > 0 {
		kept := c.order[:0]
		for _, k := range c.order {
			if _, ok := c.items[k]; ok {
				kept = append(kept, k)
			}
		}
		c.order = kept
	}
	c.mu.Unlock()
	for _, k := range dropped {
		c.fire(c.metrics.OnExpire, k)
	}
	return len(dropped)
}

// Len counts stored entries, including expired ones not yet swept or read.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.removeFromOrder(key)
	c.mu.Unlock()
}

func (c *Cache[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Cache[V]) evictIfNeeded() {
	if c.opts.MaxEntries <= 0 || len(c.items) <= c.opts.MaxEntries {
		return
	}
	// FIFO by first insertion
	excess := len(c.items) - c.opts.MaxEntries
	for excess > 0 && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
		excess--
	}
}

func (c *Cache[V]) fire(hook func(map[string]string), key string) {
	if hook == nil {
		return
	}
	hook(map[string]string{"cache": c.opts.Name, "key": key})
}
