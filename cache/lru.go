package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/registry"
	"github.com/hupe1980/gridcache/spatial"
	"github.com/hupe1980/gridcache/staleness"
	"github.com/hupe1980/gridcache/tick"
)

// LRU is the per-entry eviction variant of Cache, for subsystems whose
// compute path is expensive enough (structure scans, full pathfinding)
// that a post-clear cold burst would show up in the tick time. Overflow
// evicts the least recently used entry instead of clearing everything.
//
// It carries the same Config and the same registry/bus surface as Cache.
type LRU[V any] struct {
	name      string
	capacity  int
	policy    staleness.Policy
	clock     tick.Clock
	scheme    Scheme
	cellShift uint

	version *atomic.Uint64
	epoch   atomic.Uint64

	mu        sync.Mutex
	items     map[spatial.Key]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry[V any] struct {
	key       spatial.Key
	value     V
	createdAt tick.Tick
	version   uint64
}

// NewLRU creates an LRU cache from a Config. Controller and Logger are
// ignored: LRU eviction is already strictly bounded, so it neither clears
// in bulk nor consults the global budget.
func NewLRU[V any](cfg Config) *LRU[V] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Policy == nil {
		cfg.Policy = staleness.Never()
	}
	if cfg.Clock == nil {
		cfg.Clock = tick.Fixed(0)
	}

	c := &LRU[V]{
		name:      cfg.Name,
		capacity:  cfg.Capacity,
		policy:    cfg.Policy,
		clock:     cfg.Clock,
		scheme:    cfg.Scheme,
		cellShift: cfg.CellShift,
		items:     make(map[spatial.Key]*list.Element),
		evictList: list.New(),
	}

	c.version = cfg.Version
	if c.version == nil {
		c.version = &c.epoch
	}

	return c
}

// GetOrCompute returns the cached value for key if present and fresh,
// otherwise runs compute, stores the result, and returns it. A hit moves
// the entry to the front of the eviction order.
//
// Unlike Cache, compute runs under the lock: LRU is reserved for expensive
// computations where duplicate concurrent work costs more than the brief
// serialization.
func (c *LRU[V]) GetOrCompute(key spatial.Key, compute func() V) V {
	now := c.clock.Now()
	ver := c.version.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*lruEntry[V])
		if ent.version == ver && !c.policy.IsStale(ent.createdAt, ent.version, now) {
			c.hits.Add(1)
			c.evictList.MoveToFront(el)
			return ent.value
		}
		c.removeElement(el)
	}

	c.misses.Add(1)
	v := compute()

	el := c.evictList.PushFront(&lruEntry[V]{key: key, value: v, createdAt: now, version: ver})
	c.items[key] = el

	for len(c.items) > c.capacity {
		back := c.evictList.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
	}

	return v
}

// Invalidate removes the entry for key if present. No-op otherwise.
func (c *LRU[V]) Invalidate(key spatial.Key) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
	c.mu.Unlock()
}

// InvalidateIf removes every entry whose key matches the predicate.
func (c *LRU[V]) InvalidateIf(pred func(spatial.Key) bool) {
	c.mu.Lock()
	var toRemove []*list.Element
	for key, el := range c.items {
		if pred(key) {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.removeElement(el)
	}
	c.mu.Unlock()
}

// Clear drops all entries.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[spatial.Key]*list.Element)
	c.evictList.Init()
	c.mu.Unlock()
}

func (c *LRU[V]) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	delete(c.items, el.Value.(*lruEntry[V]).key)
}

// BumpEpoch invalidates every current entry in O(1).
func (c *LRU[V]) BumpEpoch() {
	c.version.Add(1)
}

// Len returns the current entry count.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Name returns the subsystem name.
func (c *LRU[V]) Name() string {
	return c.name
}

// Stats returns a diagnostic snapshot.
func (c *LRU[V]) Stats() registry.Stats {
	return registry.Stats{
		Name:     c.name,
		Len:      c.Len(),
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}

// InvalidateRegion drops every entry whose key falls inside the region.
func (c *LRU[V]) InvalidateRegion(r spatial.Region) {
	c.InvalidateIf(regionPredicate(c.scheme, c.cellShift, r))
}

// HandleEvent maps a world-mutation event onto this cache's key space and
// invalidates accordingly.
func (c *LRU[V]) HandleEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.KindBlockChanged:
		c.Invalidate(blockEventKey(c.scheme, c.cellShift, ev))
	case bus.KindChunkLoaded, bus.KindChunkUnloaded:
		c.InvalidateRegion(spatial.ChunkRegion(ev.ChunkX, ev.ChunkZ))
	case bus.KindWorldBorderChanged:
		c.Clear()
	case bus.KindEntityRemoved:
	}
}
