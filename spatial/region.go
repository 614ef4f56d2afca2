package spatial

// Region is an inclusive axis-aligned block-coordinate box. It is the unit
// of bulk invalidation: "drop everything you cached about this volume".
type Region struct {
	MinX, MinY, MinZ int32
	MaxX, MaxY, MaxZ int32
}

// ChunkRegion returns the region spanning a single chunk column over the
// full build height.
func ChunkRegion(cx, cz int32) Region {
	return Region{
		MinX: cx << 4, MinY: 0, MinZ: cz << 4,
		MaxX: cx<<4 + 15, MaxY: MaxBlockY, MaxZ: cz<<4 + 15,
	}
}

// Contains reports whether the block coordinate lies inside the region.
func (r Region) Contains(x, y, z int32) bool {
	return x >= r.MinX && x <= r.MaxX &&
		y >= r.MinY && y <= r.MaxY &&
		z >= r.MinZ && z <= r.MaxZ
}

// ContainsBlockKey reports whether a block key lies inside the region.
func (r Region) ContainsBlockKey(k Key) bool {
	x, y, z := UnpackBlock(k)
	return r.Contains(x, y, z)
}

// OverlapsChunkKey reports whether a chunk key's column intersects the
// region's X/Z footprint.
func (r Region) OverlapsChunkKey(k Key) bool {
	cx, cz := UnpackChunk(k)
	return cx<<4 <= r.MaxX && cx<<4+15 >= r.MinX &&
		cz<<4 <= r.MaxZ && cz<<4+15 >= r.MinZ
}
