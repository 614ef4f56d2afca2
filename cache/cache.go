// Package cache implements the keyed spatial caches at the heart of the
// substrate.
//
// A Cache is a best-effort optimization layer, never a source of truth: a
// miss or a stale entry falls through to recomputation, and no read or
// write path can fail. Entries die three ways: explicit invalidation, a
// staleness check on the next read, or a capacity-triggered bulk clear.
//
// The default overflow policy is clear-all rather than per-entry eviction:
// at thousands of lookups per tick, LRU bookkeeping on every read costs
// more than the occasional cache-cold burst after a clear. Subsystems with
// very expensive compute paths can use LRU instead.
package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/registry"
	"github.com/hupe1980/gridcache/resource"
	"github.com/hupe1980/gridcache/spatial"
	"github.com/hupe1980/gridcache/staleness"
	"github.com/hupe1980/gridcache/tick"
)

// Scheme declares which spatial.Key family a cache is keyed by. The cache
// uses it to map invalidation events onto its own key space.
type Scheme uint8

const (
	// SchemeBlock keys entries by spatial.PackBlock.
	SchemeBlock Scheme = iota
	// SchemeChunk keys entries by spatial.PackChunk.
	SchemeChunk
	// SchemeCell keys entries by spatial.PackCell with the cache's shift.
	SchemeCell
)

// Config configures a Cache.
type Config struct {
	// Name identifies the owning subsystem in stats and logs.
	Name string

	// Capacity is the soft entry bound. Exceeding it triggers a bulk
	// clear. If 0, DefaultCapacity is used.
	Capacity int

	// Policy decides entry staleness on read. Nil means staleness.Never:
	// entries die only by explicit invalidation or clear.
	Policy staleness.Policy

	// Clock provides the current tick for entry timestamps. Nil means a
	// clock frozen at zero, which is fine for caches whose policy ignores
	// time.
	Clock tick.Clock

	// Scheme declares the cache's key family. Defaults to SchemeBlock.
	Scheme Scheme

	// CellShift is the cell granularity for SchemeCell (4 = 16-unit cells).
	CellShift uint

	// Version is an optional external invalidation version source. Entries
	// are stamped with its value at write and considered stale once it
	// moves. Nil uses the cache's own epoch, advanced by BumpEpoch.
	Version *atomic.Uint64

	// Controller is the optional process-wide entry budget. A denied
	// reservation skips caching; it never fails the lookup.
	Controller *resource.Controller

	// Logger receives throttled debug lines for bulk clears. Nil disables.
	Logger *slog.Logger
}

// DefaultCapacity is the entry bound used when Config.Capacity is zero.
const DefaultCapacity = 4096

type entry[V any] struct {
	value     V
	createdAt tick.Tick
	version   uint64
}

// Cache is a bounded map from spatial.Key to values of type V with
// pluggable staleness.
//
// Writes are linearizable under a single RWMutex; reads take the read
// lock only. Two goroutines racing on the same missing key may both run
// compute; the duplicate work is accepted in exchange for never holding
// the lock across compute.
type Cache[V any] struct {
	name      string
	capacity  int
	policy    staleness.Policy
	clock     tick.Clock
	scheme    Scheme
	cellShift uint
	rc        *resource.Controller
	logger    *slog.Logger

	// epoch is the invalidation version stamped into new entries. Bumping
	// it is an O(1) invalidation of everything written before the bump.
	// version points at epoch unless Config.Version supplied an external
	// source.
	epoch   atomic.Uint64
	version *atomic.Uint64

	mu    sync.RWMutex
	items map[spatial.Key]entry[V]

	hits   atomic.Int64
	misses atomic.Int64
	clears atomic.Int64
}

// New creates a Cache from a Config.
func New[V any](cfg Config) *Cache[V] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Policy == nil {
		cfg.Policy = staleness.Never()
	}
	if cfg.Clock == nil {
		cfg.Clock = tick.Fixed(0)
	}

	c := &Cache[V]{
		name:      cfg.Name,
		capacity:  cfg.Capacity,
		policy:    cfg.Policy,
		clock:     cfg.Clock,
		scheme:    cfg.Scheme,
		cellShift: cfg.CellShift,
		rc:        cfg.Controller,
		logger:    cfg.Logger,
		items:     make(map[spatial.Key]entry[V]),
	}

	c.version = cfg.Version
	if c.version == nil {
		c.version = &c.epoch
	}

	return c
}

// GetOrCompute returns the cached value for key if present and fresh,
// otherwise runs compute, stores the result, and returns it.
//
// compute runs outside the cache lock and must be cheap and non-blocking;
// concurrent callers may compute the same key twice.
func (c *Cache[V]) GetOrCompute(key spatial.Key, compute func() V) V {
	now := c.clock.Now()
	ver := c.version.Load()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if ok && e.version == ver && !c.policy.IsStale(e.createdAt, e.version, now) {
		c.hits.Add(1)
		return e.value
	}

	c.misses.Add(1)
	v := compute()
	c.store(key, v, now, ver)
	return v
}

// Get returns the cached value for key if present and fresh. It never
// computes.
func (c *Cache[V]) Get(key spatial.Key) (V, bool) {
	now := c.clock.Now()
	ver := c.version.Load()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if ok && e.version == ver && !c.policy.IsStale(e.createdAt, e.version, now) {
		c.hits.Add(1)
		return e.value, true
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Put stores a value for key unconditionally, replacing any existing entry.
func (c *Cache[V]) Put(key spatial.Key, v V) {
	c.store(key, v, c.clock.Now(), c.version.Load())
}

func (c *Cache[V]) store(key spatial.Key, v V, now tick.Tick, ver uint64) {
	c.mu.Lock()

	if _, exists := c.items[key]; !exists {
		if !c.rc.TryAcquireEntries(1) {
			c.mu.Unlock()
			c.logDrop(key)
			return
		}
	}

	c.items[key] = entry[V]{value: v, createdAt: now, version: ver}

	if len(c.items) > c.capacity {
		c.clearLocked()
	}
	c.mu.Unlock()
}

// Invalidate removes the entry for key if present. No-op otherwise.
func (c *Cache[V]) Invalidate(key spatial.Key) {
	c.mu.Lock()
	if _, ok := c.items[key]; ok {
		delete(c.items, key)
		c.rc.ReleaseEntries(1)
	}
	c.mu.Unlock()
}

// InvalidateIf removes every entry whose key matches the predicate.
func (c *Cache[V]) InvalidateIf(pred func(spatial.Key) bool) {
	c.mu.Lock()
	removed := int64(0)
	for k := range c.items {
		if pred(k) {
			delete(c.items, k)
			removed++
		}
	}
	c.rc.ReleaseEntries(removed)
	c.mu.Unlock()
}

// Clear drops all entries by swapping in a fresh map.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.clearLocked()
	c.mu.Unlock()
}

func (c *Cache[V]) clearLocked() {
	n := int64(len(c.items))
	c.items = make(map[spatial.Key]entry[V])
	c.rc.ReleaseEntries(n)
	c.clears.Add(1)

	if c.logger != nil && c.rc.AllowLog() {
		c.logger.Debug("cache cleared",
			"cache", c.name,
			"entries", n,
		)
	}
}

func (c *Cache[V]) logDrop(key spatial.Key) {
	if c.logger != nil && c.rc.AllowLog() {
		c.logger.Debug("entry budget exhausted, value not cached",
			"cache", c.name,
			"key", uint64(key),
		)
	}
}

// BumpEpoch invalidates every current entry in O(1) by advancing the
// version stamped into new entries. With an external Config.Version the
// external source is authoritative and BumpEpoch advances it instead.
func (c *Cache[V]) BumpEpoch() {
	c.version.Add(1)
}

// Version exposes the invalidation version source, for sharing one
// version counter across several caches.
func (c *Cache[V]) Version() *atomic.Uint64 {
	return c.version
}

// Len returns the current entry count.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Name returns the subsystem name.
func (c *Cache[V]) Name() string {
	return c.name
}

// Stats returns a diagnostic snapshot.
func (c *Cache[V]) Stats() registry.Stats {
	return registry.Stats{
		Name:     c.name,
		Len:      c.Len(),
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}

// InvalidateRegion drops every entry whose key falls inside the region,
// interpreted through the cache's key scheme.
func (c *Cache[V]) InvalidateRegion(r spatial.Region) {
	c.InvalidateIf(regionPredicate(c.scheme, c.cellShift, r))
}

// HandleEvent maps a world-mutation event onto this cache's key space and
// invalidates accordingly. Subscribe it on the bus for the kinds the
// owning subsystem cares about.
func (c *Cache[V]) HandleEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.KindBlockChanged:
		c.Invalidate(blockEventKey(c.scheme, c.cellShift, ev))
	case bus.KindChunkLoaded, bus.KindChunkUnloaded:
		c.InvalidateRegion(spatial.ChunkRegion(ev.ChunkX, ev.ChunkZ))
	case bus.KindWorldBorderChanged:
		c.Clear()
	case bus.KindEntityRemoved:
		// Spatially keyed caches hold no per-entity state.
	}
}
