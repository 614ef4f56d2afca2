// Package gridcache provides a tick-synchronous spatial caching substrate
// for voxel-world engines.
//
// A voxel engine queries derived world state (block properties, light,
// biome, paths, structure bounds) thousands of times per tick while
// mutating the world tens of times per tick. gridcache keeps those
// queries O(1) amortized with a family of keyed caches and a spatial
// entity index, all invalidated synchronously from the engine's mutation
// events so no read ever observes stale state within a tick:
//
//   - spatial:   packed 64-bit keys over block/chunk/cell coordinates
//   - staleness: pluggable per-cache staleness policies (TTL, version, never)
//   - cache:     bounded compute-on-miss caches (clear-all, LRU, sharded)
//   - index:     uniform-grid entity index with radius queries
//   - bus:       synchronous invalidation event dispatch
//   - registry:  lifecycle, bulk operations, and stats over all instances
//
// # Quick start
//
//	s := gridcache.New(
//	    gridcache.WithResources(resource.Config{MaxEntries: 1 << 20}),
//	)
//	defer s.Close()
//
//	light := gridcache.NewCache[byte](s, cache.Config{
//	    Name:   "light",
//	    Policy: staleness.TTL(20),
//	}, bus.KindBlockChanged, bus.KindChunkUnloaded)
//
//	v := light.GetOrCompute(spatial.PackBlock(x, y, z), func() byte {
//	    return computeLight(x, y, z)
//	})
//
// Each simulation step the engine advances the clock and publishes its
// mutations:
//
//	s.Ticks().Advance()
//	if err := s.Publish(bus.BlockChanged(x, y, z)); err != nil {
//	    // recursive invalidation: a wiring bug, fail fast
//	}
//
// Caches are best-effort: every failure mode short of a recursive
// invalidation degrades to recomputation, never to a wrong answer.
package gridcache

import (
	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/cache"
	"github.com/hupe1980/gridcache/index"
	"github.com/hupe1980/gridcache/registry"
	"github.com/hupe1980/gridcache/resource"
	"github.com/hupe1980/gridcache/tick"
)

// Substrate wires the bus, registry, clock and resource budget together
// and owns the lifecycle of every cache created through it. One Substrate
// per world; Close tears everything down so per-world and per-test
// instances stay independent.
type Substrate struct {
	opts options

	bus       *bus.Bus
	reg       *registry.Registry
	clock     tick.Clock
	counter   *tick.Counter // non-nil when the substrate owns the clock
	rc        *resource.Controller
	logger    *Logger
	collector MetricsCollector
}

// New creates a Substrate.
func New(optFns ...Option) *Substrate {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Substrate{
		opts:      opts,
		bus:       bus.New(opts.maxPublishDepth),
		reg:       registry.New(),
		rc:        resource.NewController(opts.resources),
		logger:    opts.logger,
		collector: opts.metricsCollector,
	}

	s.clock = opts.clock
	if s.clock == nil {
		s.counter = tick.NewCounter()
		s.clock = s.counter
	}

	return s
}

// Bus returns the invalidation bus. The integrating engine publishes its
// world mutations here.
func (s *Substrate) Bus() *bus.Bus {
	return s.bus
}

// Registry returns the cache registry, for diagnostics and bulk
// operations.
func (s *Substrate) Registry() *registry.Registry {
	return s.reg
}

// Clock returns the tick clock caches stamp entries with.
func (s *Substrate) Clock() tick.Clock {
	return s.clock
}

// Ticks returns the substrate-owned tick counter, or nil when an external
// clock was supplied with WithClock.
func (s *Substrate) Ticks() *tick.Counter {
	return s.counter
}

// Resources returns the process-wide resource controller.
func (s *Substrate) Resources() *resource.Controller {
	return s.rc
}

// Publish forwards a world-mutation event to every subscribed cache,
// synchronously. The error is non-nil only for a recursive invalidation,
// which indicates a wiring bug.
func (s *Substrate) Publish(ev bus.Event) error {
	err := s.bus.Publish(ev)
	s.collector.RecordPublish(ev.Kind, err)
	if err != nil {
		s.logger.LogPublishError(ev.Kind, err)
	}
	return err
}

// ClearAll clears every registered cache and index, for world unload.
func (s *Substrate) ClearAll() {
	n := s.reg.Len()
	s.reg.ClearAll()
	s.collector.RecordClearAll(n)
	s.logger.LogClearAll(n)
}

// Close clears and deregisters everything. The Substrate must not be used
// afterwards.
func (s *Substrate) Close() error {
	s.reg.ClearAll()
	return nil
}

// attachable is the intersection of registry.Handle and bus handling that
// the generic constructors wire up.
type attachable interface {
	registry.Handle
	HandleEvent(bus.Event)
}

func (s *Substrate) attach(h attachable, kinds []bus.Kind) {
	s.reg.Register(h)
	for _, kind := range kinds {
		// Subscribe only fails on an out-of-range kind, which is a
		// programming error worth surfacing in logs rather than panicking
		// over.
		if err := s.bus.Subscribe(kind, h.HandleEvent); err != nil {
			s.logger.LogSubscribeError(h.Name(), kind, err)
		}
	}
	s.logger.LogRegister(h.Name(), len(kinds))
}

// NewCache creates a clear-all-on-overflow cache bound to the substrate:
// it uses the substrate's clock, budget and logger, registers with the
// registry, and subscribes to the given event kinds.
func NewCache[V any](s *Substrate, cfg cache.Config, kinds ...bus.Kind) *cache.Cache[V] {
	bindConfig(s, &cfg)
	c := cache.New[V](cfg)
	s.attach(c, kinds)
	return c
}

// NewLRU creates a per-entry-eviction cache bound to the substrate, for
// subsystems with expensive compute paths.
func NewLRU[V any](s *Substrate, cfg cache.Config, kinds ...bus.Kind) *cache.LRU[V] {
	bindConfig(s, &cfg)
	c := cache.NewLRU[V](cfg)
	s.attach(c, kinds)
	return c
}

// NewSharded creates a 64-way sharded cache bound to the substrate, for
// caches read heavily from worker threads.
func NewSharded[V any](s *Substrate, cfg cache.Config, kinds ...bus.Kind) *cache.Sharded[V] {
	bindConfig(s, &cfg)
	c := cache.NewSharded[V](cfg)
	s.attach(c, kinds)
	return c
}

// NewGrid creates a spatial entity index bound to the substrate. It is
// subscribed to entity removals and chunk unloads by default; pass kinds
// to override.
func (s *Substrate) NewGrid(cfg index.Config, kinds ...bus.Kind) *index.Grid {
	g := index.New(cfg)
	if len(kinds) == 0 {
		kinds = []bus.Kind{bus.KindEntityRemoved, bus.KindChunkUnloaded}
	}
	s.attach(g, kinds)
	return g
}

func bindConfig(s *Substrate, cfg *cache.Config) {
	if cfg.Clock == nil {
		cfg.Clock = s.clock
	}
	if cfg.Controller == nil {
		cfg.Controller = s.rc
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger.Logger
	}
}
