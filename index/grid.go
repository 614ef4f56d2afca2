// Package index implements a uniform-grid spatial index over moving
// entities.
//
// Entities live in exactly one cell bucket matching their last known
// position. The index never discovers removals on its own: the owning
// engine must call Remove on despawn and Move on every position change.
// Most per-tick moves stay inside a cell, and those cost zero bucket
// churn.
//
// Cell buckets are roaring bitmaps over dense uint32 handles, which keeps
// membership tests and removals cheap even in crowded cells.
package index

import (
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/internal/geom"
	"github.com/hupe1980/gridcache/registry"
	"github.com/hupe1980/gridcache/spatial"
)

// Handle is a dense entity identifier assigned by the integrating engine.
type Handle = uint32

// Pos is a world-space position. NaN coordinates are a caller
// precondition violation and are not checked here.
type Pos = geom.Vec3

// DefaultCellShift yields 16-unit cells, the chunk-section granularity.
const DefaultCellShift = 4

// Config configures a Grid.
type Config struct {
	// Name identifies the owning subsystem in stats and logs.
	Name string

	// CellShift sets the cell size to 1<<CellShift world units. If 0,
	// DefaultCellShift is used.
	CellShift uint
}

type entityState struct {
	cell spatial.Key
	pos  Pos
}

// Grid is a uniform spatial hash grid supporting insert, remove, move and
// radius queries.
type Grid struct {
	name  string
	shift uint

	mu    sync.RWMutex
	cells map[spatial.Key]*roaring.Bitmap
	where map[Handle]entityState

	queries atomic.Int64
}

// New creates an empty Grid.
func New(cfg Config) *Grid {
	if cfg.CellShift == 0 {
		cfg.CellShift = DefaultCellShift
	}
	return &Grid{
		name:  cfg.Name,
		shift: cfg.CellShift,
		cells: make(map[spatial.Key]*roaring.Bitmap),
		where: make(map[Handle]entityState),
	}
}

// CellOf returns the cell key containing a position.
func (g *Grid) CellOf(pos Pos) spatial.Key {
	return spatial.PackCell(
		geom.FloorInt32(pos.X),
		geom.FloorInt32(pos.Y),
		geom.FloorInt32(pos.Z),
		g.shift,
	)
}

// Insert adds an entity at pos. Inserting a handle already present in the
// same cell is a no-op apart from refreshing its stored position; a handle
// present in a different cell is rebucketed, equivalent to Move.
func (g *Grid) Insert(h Handle, pos Pos) {
	cell := g.CellOf(pos)

	g.mu.Lock()
	g.placeLocked(h, cell, pos)
	g.mu.Unlock()
}

// Remove deletes an entity. No-op if the handle is absent; a prior
// invalidation may already have removed it. The pos argument documents the
// caller's view but the stored cell is authoritative, so a stale pos can
// never strand a bucket entry.
func (g *Grid) Remove(h Handle, pos Pos) {
	g.mu.Lock()
	if st, ok := g.where[h]; ok {
		g.dropFromCellLocked(h, st.cell)
		delete(g.where, h)
	}
	g.mu.Unlock()
}

// Move updates an entity's position. When from and to share a cell only
// the stored position changes, which is the common case for per-tick
// movement; otherwise the entity is rebucketed. Moving an unknown handle
// inserts it at to.
func (g *Grid) Move(h Handle, from, to Pos) {
	toCell := g.CellOf(to)

	g.mu.Lock()
	st, ok := g.where[h]
	if ok && st.cell == g.CellOf(from) && st.cell == toCell {
		g.where[h] = entityState{cell: toCell, pos: to}
		g.mu.Unlock()
		return
	}
	g.placeLocked(h, toCell, to)
	g.mu.Unlock()
}

func (g *Grid) placeLocked(h Handle, cell spatial.Key, pos Pos) {
	if st, ok := g.where[h]; ok && st.cell != cell {
		g.dropFromCellLocked(h, st.cell)
	}

	bm := g.cells[cell]
	if bm == nil {
		bm = roaring.New()
		g.cells[cell] = bm
	}
	bm.Add(h)
	g.where[h] = entityState{cell: cell, pos: pos}
}

func (g *Grid) dropFromCellLocked(h Handle, cell spatial.Key) {
	bm := g.cells[cell]
	if bm == nil {
		return
	}
	bm.Remove(h)
	if bm.IsEmpty() {
		delete(g.cells, cell)
	}
}

// QueryRadius returns the handles of all entities within radius of center,
// each exactly once, in unspecified order.
func (g *Grid) QueryRadius(center Pos, radius float64) []Handle {
	g.queries.Add(1)

	if radius < 0 {
		return nil
	}
	rsq := radius * radius

	minX := geom.FloorInt32(center.X-radius) >> g.shift
	maxX := geom.FloorInt32(center.X+radius) >> g.shift
	minY := geom.FloorInt32(center.Y-radius) >> g.shift
	maxY := geom.FloorInt32(center.Y+radius) >> g.shift
	minZ := geom.FloorInt32(center.Z-radius) >> g.shift
	maxZ := geom.FloorInt32(center.Z+radius) >> g.shift

	var out []Handle

	g.mu.RLock()
	for cy := minY; cy <= maxY; cy++ {
		for cz := minZ; cz <= maxZ; cz++ {
			for cx := minX; cx <= maxX; cx++ {
				bm := g.cells[spatial.PackBlock(cx, cy, cz)]
				if bm == nil {
					continue
				}
				it := bm.Iterator()
				for it.HasNext() {
					h := it.Next()
					if geom.DistSq(g.where[h].pos, center) <= rsq {
						out = append(out, h)
					}
				}
			}
		}
	}
	g.mu.RUnlock()

	return out
}

// Contains reports whether a handle is currently indexed, and its stored
// position.
func (g *Grid) Contains(h Handle) (Pos, bool) {
	g.mu.RLock()
	st, ok := g.where[h]
	g.mu.RUnlock()
	return st.pos, ok
}

// Len returns the number of indexed entities.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.where)
}

// Name returns the subsystem name.
func (g *Grid) Name() string {
	return g.name
}

// Clear drops all entities and buckets.
func (g *Grid) Clear() {
	g.mu.Lock()
	g.cells = make(map[spatial.Key]*roaring.Bitmap)
	g.where = make(map[Handle]entityState)
	g.mu.Unlock()
}

// Stats returns a diagnostic snapshot. An index has no capacity bound;
// Hits counts radius queries served.
func (g *Grid) Stats() registry.Stats {
	return registry.Stats{
		Name: g.name,
		Len:  g.Len(),
		Hits: g.queries.Load(),
	}
}

// InvalidateRegion removes every entity whose position lies inside the
// region, for bulk world events.
func (g *Grid) InvalidateRegion(r spatial.Region) {
	g.mu.Lock()
	for h, st := range g.where {
		if r.Contains(geom.FloorInt32(st.pos.X), geom.FloorInt32(st.pos.Y), geom.FloorInt32(st.pos.Z)) {
			g.dropFromCellLocked(h, st.cell)
			delete(g.where, h)
		}
	}
	g.mu.Unlock()
}

// HandleEvent reacts to entity despawns and bulk world events published on
// the bus.
func (g *Grid) HandleEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.KindEntityRemoved:
		g.Remove(ev.Entity, Pos{})
	case bus.KindChunkUnloaded:
		g.InvalidateRegion(spatial.ChunkRegion(ev.ChunkX, ev.ChunkZ))
	case bus.KindWorldBorderChanged, bus.KindBlockChanged, bus.KindChunkLoaded:
		// Block-level mutations do not move entities.
	}
}
