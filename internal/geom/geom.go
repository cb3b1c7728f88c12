// Package geom holds the small integer geometry types shared across
// the FarMap pipeline: lattice positions and axis-aligned volumes.
package geom

// Vec3i is an integer lattice position (the original's v3s16/v3s32).
type Vec3i struct {
	X, Y, Z int32
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3i) Scale(s int32) Vec3i {
	return Vec3i{v.X * s, v.Y * s, v.Z * s}
}

// FaceDistance is the Chebyshev distance used by shell/ring traversal: the
// largest component of the absolute difference, so the positions at
// distance d form the surface of a cube of edge 2d+1.
func (v Vec3i) FaceDistance(o Vec3i) int32 {
	dx, dy, dz := abs32(v.X-o.X), abs32(v.Y-o.Y), abs32(v.Z-o.Z)
	d := dx
	if dy > d {
		d = dy
	}
	if dz > d {
		d = dz
	}
	return d
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// Area is an inclusive-bounds axis-aligned integer box, mirroring the
// original's VoxelArea.
type Area struct {
	MinEdge, MaxEdge Vec3i
}

func NewArea(min, max Vec3i) Area { return Area{MinEdge: min, MaxEdge: max} }

func (a Area) Extent() Vec3i {
	return Vec3i{
		a.MaxEdge.X - a.MinEdge.X + 1,
		a.MaxEdge.Y - a.MinEdge.Y + 1,
		a.MaxEdge.Z - a.MinEdge.Z + 1,
	}
}

func (a Area) Volume() int64 {
	e := a.Extent()
	return int64(e.X) * int64(e.Y) * int64(e.Z)
}

func (a Area) Contains(p Vec3i) bool {
	return p.X >= a.MinEdge.X && p.X <= a.MaxEdge.X &&
		p.Y >= a.MinEdge.Y && p.Y <= a.MaxEdge.Y &&
		p.Z >= a.MinEdge.Z && p.Z <= a.MaxEdge.Z
}

// Index returns the flat Z-outer, Y-middle, X-inner offset of p within a,
// matching the wire format's iteration order.
func (a Area) Index(p Vec3i) int64 {
	e := a.Extent()
	lx := int64(p.X - a.MinEdge.X)
	ly := int64(p.Y - a.MinEdge.Y)
	lz := int64(p.Z - a.MinEdge.Z)
	return lz*int64(e.Y)*int64(e.X) + ly*int64(e.X) + lx
}
