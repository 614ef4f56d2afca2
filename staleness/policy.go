// Package staleness decides whether a cached entry still reflects the
// authoritative world.
//
// Different subsystems need different staleness semantics: light values
// decay with world mutation, not time; path caches tolerate a short TTL;
// recipe-style caches live until an explicit change event. A Policy is a
// pure predicate over the entry's bookkeeping fields, so one generic cache
// serves all of them.
package staleness

import (
	"sync/atomic"

	"github.com/hupe1980/gridcache/tick"
)

// Policy reports whether an entry written at createdAt under invalidation
// epoch version is stale at tick now. Implementations must be cheap and
// side-effect free; IsStale runs on every cache read.
type Policy interface {
	IsStale(createdAt tick.Tick, version uint64, now tick.Tick) bool
}

// TTL returns a Policy that expires entries older than the given number of
// ticks.
func TTL(ticks uint32) Policy {
	return ttl(ticks)
}

type ttl uint32

func (p ttl) IsStale(createdAt tick.Tick, _ uint64, now tick.Tick) bool {
	return now-createdAt > tick.Tick(p)
}

// VersionGated returns a Policy that expires entries written under an older
// invalidation epoch. The current epoch is typically bumped by a bus
// subscription on mutation events.
func VersionGated(current *atomic.Uint64) Policy {
	return versionGated{current: current}
}

type versionGated struct {
	current *atomic.Uint64
}

func (p versionGated) IsStale(_ tick.Tick, version uint64, _ tick.Tick) bool {
	return version != p.current.Load()
}

// Never returns a Policy under which entries only die by explicit
// invalidation or a capacity clear.
func Never() Policy {
	return never{}
}

type never struct{}

func (never) IsStale(tick.Tick, uint64, tick.Tick) bool {
	return false
}
