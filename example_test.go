package gridcache_test

import (
	"fmt"

	"github.com/hupe1980/gridcache"
	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/cache"
	"github.com/hupe1980/gridcache/index"
	"github.com/hupe1980/gridcache/spatial"
	"github.com/hupe1980/gridcache/staleness"
)

func Example() {
	s := gridcache.New()
	defer s.Close()

	// A block-property cache invalidated by block mutations and chunk
	// unloads; entries also expire after 100 ticks.
	props := gridcache.NewCache[string](s, cache.Config{
		Name:   "block-props",
		Policy: staleness.TTL(100),
	}, bus.KindBlockChanged, bus.KindChunkUnloaded)

	k := spatial.PackBlock(12, 64, -9)
	v := props.GetOrCompute(k, func() string { return "opaque" })
	fmt.Println(v)

	// The engine mutates the block and publishes the change; the next
	// read recomputes.
	if err := s.Publish(bus.BlockChanged(12, 64, -9)); err != nil {
		panic(err)
	}
	v = props.GetOrCompute(k, func() string { return "transparent" })
	fmt.Println(v)

	// Output:
	// opaque
	// transparent
}

func Example_entityIndex() {
	s := gridcache.New()
	defer s.Close()

	entities := s.NewGrid(index.Config{Name: "entities"})

	entities.Insert(1, index.Pos{X: 0.5, Y: 64, Z: 0.5})
	entities.Insert(2, index.Pos{X: 3, Y: 64, Z: 4})
	entities.Insert(3, index.Pos{X: 200, Y: 64, Z: 200})

	near := entities.QueryRadius(index.Pos{X: 0, Y: 64, Z: 0}, 8)
	fmt.Println(len(near))

	// Despawns flow through the same invalidation bus as everything else.
	if err := s.Publish(bus.EntityRemoved(2)); err != nil {
		panic(err)
	}
	near = entities.QueryRadius(index.Pos{X: 0, Y: 64, Z: 0}, 8)
	fmt.Println(len(near))

	// Output:
	// 2
	// 1
}
