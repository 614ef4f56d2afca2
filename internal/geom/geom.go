// Package geom holds the small amount of float math the spatial index needs.
package geom

import "math"

// Vec3 is a world-space position.
type Vec3 struct {
	X, Y, Z float64
}

// DistSq returns the squared Euclidean distance between a and b. Radius
// filtering compares squared distances so the hot path never calls Sqrt.
func DistSq(a, b Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

// FloorInt32 floors a world coordinate to the containing block coordinate.
func FloorInt32(v float64) int32 {
	return int32(math.Floor(v))
}
