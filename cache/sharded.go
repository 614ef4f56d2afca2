package cache

import (
	"hash/maphash"

	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/registry"
	"github.com/hupe1980/gridcache/spatial"
)

const numShards = 64

// Sharded distributes one logical cache across 64 independent Cache
// shards to cut lock contention when worker threads (async chunk loading,
// background pre-computation) read concurrently with the tick thread.
//
// Each shard carries its own capacity slice and clears independently, so
// an overflow in one shard never cold-starts the others.
type Sharded[V any] struct {
	name   string
	shards [numShards]*Cache[V]
	seed   maphash.Seed
}

// NewSharded creates a sharded cache. The configured capacity is divided
// evenly across shards.
func NewSharded[V any](cfg Config) *Sharded[V] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}

	shardCfg := cfg
	shardCfg.Capacity = cfg.Capacity / numShards
	if shardCfg.Capacity < 1 {
		shardCfg.Capacity = 1
	}

	s := &Sharded[V]{
		name: cfg.Name,
		seed: maphash.MakeSeed(),
	}

	for i := 0; i < numShards; i++ {
		s.shards[i] = New[V](shardCfg)
	}

	return s
}

// shard returns the shard owning a key.
func (s *Sharded[V]) shard(key spatial.Key) *Cache[V] {
	var h maphash.Hash
	h.SetSeed(s.seed)

	var buf [8]byte
	for i := range buf {
		buf[i] = byte(key >> (8 * i))
	}
	_, _ = h.Write(buf[:])

	return s.shards[h.Sum64()%numShards]
}

// GetOrCompute returns the cached value for key if present and fresh,
// otherwise computes, stores, and returns it.
func (s *Sharded[V]) GetOrCompute(key spatial.Key, compute func() V) V {
	return s.shard(key).GetOrCompute(key, compute)
}

// Get returns the cached value for key if present and fresh.
func (s *Sharded[V]) Get(key spatial.Key) (V, bool) {
	return s.shard(key).Get(key)
}

// Put stores a value for key unconditionally.
func (s *Sharded[V]) Put(key spatial.Key, v V) {
	s.shard(key).Put(key, v)
}

// Invalidate removes the entry for key if present.
func (s *Sharded[V]) Invalidate(key spatial.Key) {
	s.shard(key).Invalidate(key)
}

// InvalidateIf removes every entry matching the predicate, across all
// shards. Expensive but rare.
func (s *Sharded[V]) InvalidateIf(pred func(spatial.Key) bool) {
	for i := 0; i < numShards; i++ {
		s.shards[i].InvalidateIf(pred)
	}
}

// Clear drops all entries in every shard.
func (s *Sharded[V]) Clear() {
	for i := 0; i < numShards; i++ {
		s.shards[i].Clear()
	}
}

// Len returns the total entry count across shards.
func (s *Sharded[V]) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		total += s.shards[i].Len()
	}
	return total
}

// Name returns the subsystem name.
func (s *Sharded[V]) Name() string {
	return s.name
}

// Stats returns an aggregated diagnostic snapshot.
func (s *Sharded[V]) Stats() registry.Stats {
	agg := registry.Stats{Name: s.name}
	for i := 0; i < numShards; i++ {
		st := s.shards[i].Stats()
		agg.Len += st.Len
		agg.Capacity += st.Capacity
		agg.Hits += st.Hits
		agg.Misses += st.Misses
	}
	return agg
}

// InvalidateRegion drops every entry whose key falls inside the region.
func (s *Sharded[V]) InvalidateRegion(r spatial.Region) {
	for i := 0; i < numShards; i++ {
		s.shards[i].InvalidateRegion(r)
	}
}

// HandleEvent forwards a world-mutation event. Exact-key invalidations
// route to the owning shard; region invalidations fan out.
func (s *Sharded[V]) HandleEvent(ev bus.Event) {
	if ev.Kind == bus.KindBlockChanged {
		sh := s.shards[0]
		key := blockEventKey(sh.scheme, sh.cellShift, ev)
		s.shard(key).HandleEvent(ev)
		return
	}
	for i := 0; i < numShards; i++ {
		s.shards[i].HandleEvent(ev)
	}
}
