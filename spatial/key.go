// Package spatial provides packed 64-bit keys for voxel-world coordinates.
//
// All caches and indices in gridcache are keyed by a spatial.Key. Keys are
// value types with no ownership; they are cheap to derive at every lookup
// and must never be persisted across processes with a different bit layout.
package spatial

// Key is an opaque packed spatial coordinate.
//
// Three key families share the uint64 space but are produced by different
// pack functions; a cache instance always uses exactly one family, so the
// families never collide within a single key space.
type Key uint64

// Bit layout for block keys: X and Z carry 26 bits each (signed, covering
// the ±33,554,432 world border), Y carries 12 bits (0..4095).
const (
	blockXBits = 26
	blockYBits = 12
	blockZBits = 26

	blockXMask = (1 << blockXBits) - 1
	blockYMask = (1 << blockYBits) - 1
	blockZMask = (1 << blockZBits) - 1

	blockZShift = blockYBits
	blockXShift = blockYBits + blockZBits

	// MaxBlockXZ is the largest X/Z magnitude that packs without loss.
	MaxBlockXZ = 1 << (blockXBits - 1)
	// MaxBlockY is the largest Y that packs without loss.
	MaxBlockY = blockYMask
)

// PackBlock packs block coordinates into a Key.
//
// Inputs outside the declared domain are masked, not rejected: coordinates
// wrap at the world border exactly as the host engine's do. Within the
// domain the packing is injective.
func PackBlock(x, y, z int32) Key {
	return Key(uint64(uint32(x))&blockXMask)<<blockXShift |
		Key(uint64(uint32(z))&blockZMask)<<blockZShift |
		Key(uint64(uint32(y))&blockYMask)
}

// UnpackBlock recovers the block coordinates of a key produced by PackBlock.
// X and Z are sign-extended; Y is unsigned.
func UnpackBlock(k Key) (x, y, z int32) {
	x = int32(int64(k<<(64-blockXShift-blockXBits)) >> (64 - blockXBits))
	z = int32(int64(k<<(64-blockZShift-blockZBits)) >> (64 - blockZBits))
	y = int32(k & blockYMask)
	return x, y, z
}

// PackChunk packs a chunk column coordinate into a Key.
func PackChunk(cx, cz int32) Key {
	return Key(int64(cx)<<32 | int64(cz)&0xFFFFFFFF)
}

// UnpackChunk recovers the chunk coordinates of a key produced by PackChunk.
func UnpackChunk(k Key) (cx, cz int32) {
	return int32(int64(k) >> 32), int32(k & 0xFFFFFFFF)
}

// PackCell packs block coordinates into a coarser cell key by discarding the
// low `shift` bits of each axis. shift=4 yields 16-unit cells, the chunk
// granularity most spatial indices use.
//
// The arithmetic shift keeps negative coordinates flooring toward negative
// infinity, so cell boundaries are uniform across the origin.
func PackCell(x, y, z int32, shift uint) Key {
	return PackBlock(x>>shift, y>>shift, z>>shift)
}

// ChunkOf returns the chunk key containing a block key.
func ChunkOf(k Key) Key {
	x, _, z := UnpackBlock(k)
	return PackChunk(x>>4, z>>4)
}

// InChunk reports whether block key k lies inside chunk column (cx, cz).
func InChunk(k Key, cx, cz int32) bool {
	x, _, z := UnpackBlock(k)
	return x>>4 == cx && z>>4 == cz
}
