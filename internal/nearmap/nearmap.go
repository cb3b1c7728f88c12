// Package nearmap represents the out-of-scope near-range chunk renderer, of
// which the FarMap pipeline only ever consumes one thing: a bitmap of which
// map-blocks it already drew this frame, so the far renderer never
// double-draws the same geometry.
package nearmap

import "github.com/voxelfar/farmap/internal/geom"

// OccupancyView answers whether a map-block coordinate was normally
// rendered by the near renderer this frame.
type OccupancyView interface {
	IsNormallyRendered(mapBlock geom.Vec3i) bool
}

// StaticOccupancy is a plain set-backed OccupancyView, the shape
// reportNormallyRenderedBlocks actually hands to the draw scheduler each
// frame (the near renderer itself is out of scope, but something has to
// implement this interface to drive tests and the demo).
type StaticOccupancy map[geom.Vec3i]bool

func (s StaticOccupancy) IsNormallyRendered(mapBlock geom.Vec3i) bool { return s[mapBlock] }
