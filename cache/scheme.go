package cache

import (
	"github.com/hupe1980/gridcache/bus"
	"github.com/hupe1980/gridcache/spatial"
)

// regionPredicate builds the key predicate for a region invalidation under
// the given key scheme.
func regionPredicate(scheme Scheme, cellShift uint, r spatial.Region) func(spatial.Key) bool {
	switch scheme {
	case SchemeChunk:
		return r.OverlapsChunkKey
	case SchemeCell:
		return func(k spatial.Key) bool {
			cx, cy, cz := spatial.UnpackBlock(k)
			span := int32(1)<<cellShift - 1
			return cx<<cellShift <= r.MaxX && cx<<cellShift+span >= r.MinX &&
				cy<<cellShift <= r.MaxY && cy<<cellShift+span >= r.MinY &&
				cz<<cellShift <= r.MaxZ && cz<<cellShift+span >= r.MinZ
		}
	default:
		return r.ContainsBlockKey
	}
}

// blockEventKey maps a block-changed event onto the scheme's key space.
func blockEventKey(scheme Scheme, cellShift uint, ev bus.Event) spatial.Key {
	switch scheme {
	case SchemeChunk:
		x, _, z := spatial.UnpackBlock(ev.Block)
		return spatial.PackChunk(x>>4, z>>4)
	case SchemeCell:
		x, y, z := spatial.UnpackBlock(ev.Block)
		return spatial.PackCell(x, y, z, cellShift)
	default:
		return ev.Block
	}
}
