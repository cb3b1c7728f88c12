package meshgen

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelfar/farmap/internal/atlas"
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
)

// direction is one of the six face normals, plus the four corner offsets
// (each component -1/+1) that trace a CCW quad when viewed from outside.
type direction struct {
	dir     geom.Vec3i
	corners [4]geom.Vec3i
}

var directions = []direction{
	{geom.Vec3i{X: 1}, [4]geom.Vec3i{{1, -1, -1}, {1, 1, -1}, {1, 1, 1}, {1, -1, 1}}},
	{geom.Vec3i{X: -1}, [4]geom.Vec3i{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
	{geom.Vec3i{Y: 1}, [4]geom.Vec3i{{-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}, {1, 1, -1}}},
	{geom.Vec3i{Y: -1}, [4]geom.Vec3i{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
	{geom.Vec3i{Z: 1}, [4]geom.Vec3i{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
	{geom.Vec3i{Z: -1}, [4]geom.Vec3i{{-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}, {1, -1, -1}}},
}

// positiveAxes is the three axes extractFaces compares a cell against, each
// producing both of its directions' faces depending on which side is more
// solid (the pseudocode's "for each axis a in {+X,+Y,+Z}").
var positiveAxes = []geom.Vec3i{{X: 1}, {Y: 1}, {Z: 1}}

// Options bundles the inputs extractFaces needs beyond the voxel buffer
// itself.
type Options struct {
	DivsPerMB      geom.Vec3i
	Defs           farnode.Definitions
	Atlas          *atlas.NodeAtlas
	ShadersEnabled bool
}

// ExtractFaces walks every cell in [genArea.MinEdge-1 .. genArea.MaxEdge]
// and, for each of the three positive axes, compares the cell's solidness
// against its neighbor across that axis: the more solid side gets a face,
// lit by the opposite cell's light. A face is only emitted when its owning
// (more solid) voxel lies inside genArea itself — cells one step outside
// genArea are read purely for visibility context, never contribute owned
// geometry, so two areas tiling the same content never emit the same face
// twice. buf must be addressed by bufArea and must extend genArea by at
// least one cell on every face.
func ExtractFaces(buf []farnode.FarNode, bufArea geom.Area, genArea geom.Area, opts Options) Mesh {
	var out Mesh
	crude := opts.DivsPerMB.X == 1

	lo := genArea.MinEdge.Sub(geom.Vec3i{X: 1, Y: 1, Z: 1})
	hi := genArea.MaxEdge

	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				p000 := geom.Vec3i{X: x, Y: y, Z: z}
				if !bufArea.Contains(p000) {
					continue
				}
				n000 := buf[bufArea.Index(p000)]
				f000 := opts.Defs.Get(n000.ID)
				s0 := f000.Solidness()

				for _, axis := range positiveAxes {
					pAdj := p000.Add(axis)
					if !bufArea.Contains(pAdj) {
						continue
					}
					nAdj := buf[bufArea.Index(pAdj)]
					fAdj := opts.Defs.Get(nAdj.ID)
					s1 := fAdj.Solidness()

					switch {
					case s0 > s1 && genArea.Contains(p000):
						appendFace(&out, n000, p000, nAdj, axis, opts, crude)
					case s0 < s1 && genArea.Contains(pAdj):
						neg := geom.Vec3i{X: -axis.X, Y: -axis.Y, Z: -axis.Z}
						appendFace(&out, nAdj, pAdj, n000, neg, opts, crude)
					}
				}
			}
		}
	}
	return out
}

func findDirection(dir geom.Vec3i) direction {
	for _, d := range directions {
		if d.dir == dir {
			return d
		}
	}
	return directions[0]
}

func appendFace(out *Mesh, owner farnode.FarNode, p geom.Vec3i, litBy farnode.FarNode, dir geom.Vec3i, opts Options, crude bool) {
	face := farnode.FaceFromNormal(dir.Y)
	cache, ok := opts.Atlas.GetNode(owner.ID, face, crude)
	if !ok {
		return // null cache entry suppresses the face
	}

	d := findDirection(dir)
	scale := mgl32.Vec3{
		float32(farblock.MapBlockSize) / float32(opts.DivsPerMB.X),
		float32(farblock.MapBlockSize) / float32(opts.DivsPerMB.Y),
		float32(farblock.MapBlockSize) / float32(opts.DivsPerMB.Z),
	}
	pf := mgl32.Vec3{
		(scale.X()*float32(p.X) + scale.X()/2 - 0.5) * farblock.BS,
		(scale.Y()*float32(p.Y) + scale.Y()/2 - 0.5) * farblock.BS,
		(scale.Z()*float32(p.Z) + scale.Z()/2 - 0.5) * farblock.BS,
	}
	normal := mgl32.Vec3{float32(dir.X), float32(dir.Y), float32(dir.Z)}

	selected := litBy
	if litBy.ID == farnode.IGNORE {
		selected = owner
	}
	day8 := farnode.DecodeLight(selected.LightDay4())
	night8 := farnode.DecodeLight(selected.LightNight4())
	color := farnode.EncodeDayNight(day8, night8)
	if !opts.ShadersEnabled {
		color = preBlend(day8, night8)
	}

	uvs := [4][2]float32{
		{cache.Coord1[0], cache.Coord1[1]},
		{cache.Coord0[0], cache.Coord1[1]},
		{cache.Coord0[0], cache.Coord0[1]},
		{cache.Coord1[0], cache.Coord0[1]},
	}

	var verts [4]Vertex
	for i := 0; i < 4; i++ {
		c := d.corners[i]
		offset := mgl32.Vec3{
			farblock.BS / 2 * float32(c.X) * scale.X(),
			farblock.BS / 2 * float32(c.Y) * scale.Y(),
			farblock.BS / 2 * float32(c.Z) * scale.Z(),
		}
		verts[i] = Vertex{
			Pos:    pf.Add(offset),
			Normal: normal,
			UV:     uvs[i],
			Color:  color,
			Alpha:  255,
		}
	}

	out.Vertices = append(out.Vertices, verts[0], verts[1], verts[2])
	out.Vertices = append(out.Vertices, verts[2], verts[3], verts[0])
}

// preBlend pre-mixes day/night light into a single value at a fixed
// full-daylight ratio (1000/1000), used when shaders are disabled and the
// GPU material can't reconstruct day/night blending itself.
func preBlend(day8, night8 uint8) uint16 {
	const ratio = 1000
	blended := (int(day8)*ratio + int(night8)*(1000-ratio)) / 1000
	return uint16(blended) | uint16(blended)<<8
}
