package index

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/internal/geom"
	"github.com/hupe1980/gridcache/spatial"
)

func sortedHandles(hs []Handle) []Handle {
	out := append([]Handle(nil), hs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestGrid_InsertAndQuery(t *testing.T) {
	g := New(Config{Name: "entities"})

	g.Insert(1, Pos{X: 8, Y: 64, Z: 8})
	g.Insert(2, Pos{X: 100, Y: 64, Z: 100})

	got := g.QueryRadius(Pos{X: 8, Y: 64, Z: 8}, 4)
	assert.Equal(t, []Handle{1}, got)

	got = g.QueryRadius(Pos{X: 8, Y: 64, Z: 8}, 0)
	assert.Equal(t, []Handle{1}, got, "zero radius finds the entity at its own position")
}

func TestGrid_QuerySpansCells(t *testing.T) {
	g := New(Config{Name: "entities", CellShift: 4})

	// Entities on both sides of a cell boundary at x=16.
	g.Insert(1, Pos{X: 15.5, Y: 0, Z: 0})
	g.Insert(2, Pos{X: 16.5, Y: 0, Z: 0})
	g.Insert(3, Pos{X: 40, Y: 0, Z: 0})

	got := sortedHandles(g.QueryRadius(Pos{X: 16, Y: 0, Z: 0}, 2))
	assert.Equal(t, []Handle{1, 2}, got)
}

func TestGrid_MoveRebuckets(t *testing.T) {
	g := New(Config{Name: "entities"})

	from := Pos{X: 1, Y: 1, Z: 1}
	to := Pos{X: 100, Y: 1, Z: 100}
	g.Insert(7, from)
	g.Move(7, from, to)

	assert.Empty(t, g.QueryRadius(from, 2), "no stale bucket at the old cell")
	assert.Equal(t, []Handle{7}, g.QueryRadius(to, 2))
	assert.Equal(t, 1, g.Len())
}

func TestGrid_MoveWithinCell(t *testing.T) {
	g := New(Config{Name: "entities", CellShift: 4})

	from := Pos{X: 1, Y: 1, Z: 1}
	to := Pos{X: 3, Y: 1, Z: 2}
	g.Insert(7, from)

	require.Equal(t, g.CellOf(from), g.CellOf(to))
	g.Move(7, from, to)

	// Query at the updated position; the stored position must have moved
	// even though no rebucketing happened.
	assert.Equal(t, []Handle{7}, g.QueryRadius(to, 0.5))
	assert.Empty(t, g.QueryRadius(from, 0.5))
}

func TestGrid_MoveUnknownInserts(t *testing.T) {
	g := New(Config{Name: "entities"})

	g.Move(9, Pos{}, Pos{X: 5, Y: 5, Z: 5})
	assert.Equal(t, []Handle{9}, g.QueryRadius(Pos{X: 5, Y: 5, Z: 5}, 1))
}

func TestGrid_RemoveIdempotent(t *testing.T) {
	g := New(Config{Name: "entities"})

	p := Pos{X: 2, Y: 2, Z: 2}
	g.Insert(1, p)
	g.Insert(2, Pos{X: 2.5, Y: 2, Z: 2})

	assert.NotPanics(t, func() {
		g.Remove(1, p)
		g.Remove(1, p)
		g.Remove(99, p)
	})

	assert.Equal(t, []Handle{2}, g.QueryRadius(p, 1), "other entries unaffected")
}

func TestGrid_DuplicateInsertSameCell(t *testing.T) {
	g := New(Config{Name: "entities"})

	p := Pos{X: 4, Y: 4, Z: 4}
	g.Insert(1, p)
	g.Insert(1, p)

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []Handle{1}, g.QueryRadius(p, 1), "no duplicate results")
}

func TestGrid_RemovedNeverAppears(t *testing.T) {
	g := New(Config{Name: "entities"})

	p := Pos{X: 10, Y: 10, Z: 10}
	g.Insert(1, p)
	g.Remove(1, p)

	assert.Empty(t, g.QueryRadius(p, 100))
	_, ok := g.Contains(1)
	assert.False(t, ok)
}

func TestGrid_InvalidateRegion(t *testing.T) {
	g := New(Config{Name: "entities"})

	g.Insert(1, Pos{X: 5, Y: 5, Z: 5})
	g.Insert(2, Pos{X: 50, Y: 5, Z: 50})

	g.InvalidateRegion(spatial.Region{MinX: 0, MinY: 0, MinZ: 0, MaxX: 15, MaxY: 255, MaxZ: 15})

	assert.Equal(t, 1, g.Len())
	_, ok := g.Contains(1)
	assert.False(t, ok)
	_, ok = g.Contains(2)
	assert.True(t, ok)
}

func TestGrid_HandleEvent(t *testing.T) {
	g := New(Config{Name: "entities"})

	g.Insert(1, Pos{X: 20, Y: 5, Z: 5})
	g.Insert(2, Pos{X: 200, Y: 5, Z: 200})

	g.HandleEvent(bus.EntityRemoved(2))
	assert.Equal(t, 1, g.Len())

	// Entity 1 sits in chunk (1, 0).
	g.HandleEvent(bus.ChunkUnloaded(1, 0))
	assert.Equal(t, 0, g.Len())
}

func TestGrid_Clear(t *testing.T) {
	g := New(Config{Name: "entities"})
	for i := Handle(0); i < 50; i++ {
		g.Insert(i, Pos{X: float64(i), Y: 0, Z: 0})
	}

	g.Clear()
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.QueryRadius(Pos{X: 25, Y: 0, Z: 0}, 1000))
}

// TestGrid_RandomMovesMatchBruteForce drives 10,000 random moves across a
// 256x256 region and checks radius queries against a linear scan over the
// final positions.
func TestGrid_RandomMovesMatchBruteForce(t *testing.T) {
	const (
		entities = 500
		moves    = 10000
		radius   = 8.0
	)

	rng := rand.New(rand.NewSource(1))
	g := New(Config{Name: "entities", CellShift: 4})

	randPos := func() Pos {
		return Pos{
			X: rng.Float64() * 256,
			Y: rng.Float64() * 64,
			Z: rng.Float64() * 256,
		}
	}

	pos := make(map[Handle]Pos, entities)
	for h := Handle(0); h < entities; h++ {
		p := randPos()
		pos[h] = p
		g.Insert(h, p)
	}

	for i := 0; i < moves; i++ {
		h := Handle(rng.Intn(entities))
		to := randPos()
		g.Move(h, pos[h], to)
		pos[h] = to
	}

	for i := 0; i < 50; i++ {
		center := randPos()

		var want []Handle
		for h, p := range pos {
			if geom.DistSq(p, center) <= radius*radius {
				want = append(want, h)
			}
		}

		got := g.QueryRadius(center, radius)
		assert.ElementsMatch(t, want, got, "query %d at %+v", i, center)
	}

	// Every live entity finds itself at radius zero, exactly once.
	for h, p := range pos {
		assert.Equal(t, []Handle{h}, g.QueryRadius(p, 0))
	}
}
