package meshgen

import (
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
)

var airFull = farnode.FarNode{ID: farnode.AIR, Light: 0xff}

// padded returns a buffer covering genArea expanded by one cell on every
// face, sourced from content (addressed by contentArea) where available and
// filled with full-bright AIR outside it — the "substituting AIR ... into
// cells outside the generation area" rule every LOD pass follows.
func padded(content []farnode.FarNode, contentArea, genArea geom.Area) ([]farnode.FarNode, geom.Area) {
	bufArea := geom.Area{
		MinEdge: genArea.MinEdge.Sub(geom.Vec3i{X: 1, Y: 1, Z: 1}),
		MaxEdge: genArea.MaxEdge.Add(geom.Vec3i{X: 1, Y: 1, Z: 1}),
	}
	buf := make([]farnode.FarNode, bufArea.Volume())
	for i := range buf {
		buf[i] = airFull
	}
	for z := bufArea.MinEdge.Z; z <= bufArea.MaxEdge.Z; z++ {
		for y := bufArea.MinEdge.Y; y <= bufArea.MaxEdge.Y; y++ {
			for x := bufArea.MinEdge.X; x <= bufArea.MaxEdge.X; x++ {
				p := geom.Vec3i{X: x, Y: y, Z: z}
				if contentArea.Contains(p) && len(content) > 0 {
					buf[bufArea.Index(p)] = content[contentArea.Index(p)]
				}
			}
		}
	}
	return buf, bufArea
}

// BuildFine runs extract_faces over the FarBlock's full-resolution content
// at its real divs_per_mb.
func BuildFine(content []farnode.FarNode, contentArea, effectiveArea geom.Area, divsPerMB geom.Vec3i, opts Options) Mesh {
	buf, bufArea := padded(content, contentArea, effectiveArea)
	opts.DivsPerMB = divsPerMB
	return ExtractFaces(buf, bufArea, effectiveArea, opts)
}

// BuildCrude samples one representative voxel per map-block (the first
// non-AIR, non-IGNORE voxel walking down from the top of that map-block's
// own subvolume, else IGNORE) and runs extract_faces over the resulting
// FMP^3 lattice with divs_per_mb = (1,1,1).
func BuildCrude(content []farnode.FarNode, contentArea geom.Area, divsPerMB geom.Vec3i, opts Options) Mesh {
	fmp := farblock.FarBlockMBs
	genArea := geom.Area{MaxEdge: geom.Vec3i{X: fmp - 1, Y: fmp - 1, Z: fmp - 1}}

	samples := make([]farnode.FarNode, genArea.Volume())
	for mz := int32(0); mz < fmp; mz++ {
		for my := int32(0); my < fmp; my++ {
			for mx := int32(0); mx < fmp; mx++ {
				samples[genArea.Index(geom.Vec3i{X: mx, Y: my, Z: mz})] =
					sampleMapBlock(content, contentArea, divsPerMB, mx, my, mz)
			}
		}
	}

	buf, bufArea := padded(samples, genArea, genArea)
	opts.DivsPerMB = geom.Vec3i{X: 1, Y: 1, Z: 1}
	return ExtractFaces(buf, bufArea, genArea, opts)
}

// sampleMapBlock walks the single FarNode column centered in the
// (mx,my,mz) map-block's own divs_per_mb subvolume (x and z fixed at the
// block's center, only y varies) from the top down, returning the first
// non-AIR, non-IGNORE node found, else IGNORE. This mirrors the original's
// centered-column walk exactly: a whole-plane scan would sample a
// different voxel whenever divs_per_mb > (1,1,1).
func sampleMapBlock(content []farnode.FarNode, contentArea geom.Area, divsPerMB geom.Vec3i, mx, my, mz int32) farnode.FarNode {
	if len(content) == 0 {
		return farnode.FarNode{ID: farnode.IGNORE, Light: 0xff}
	}
	x := mx*divsPerMB.X + divsPerMB.X/2
	z := mz*divsPerMB.Z + divsPerMB.Z/2
	top := my*divsPerMB.Y + divsPerMB.Y - 1
	bottom := my * divsPerMB.Y
	for y := top; y >= bottom; y-- {
		p := geom.Vec3i{X: x, Y: y, Z: z}
		if !contentArea.Contains(p) {
			continue
		}
		n := content[contentArea.Index(p)]
		if n.ID != farnode.AIR && n.ID != farnode.IGNORE {
			return n
		}
	}
	return farnode.FarNode{ID: farnode.IGNORE, Light: 0xff}
}

// SubMesh is one of the FMP^3 map-block-sized or (FMP/2)^3 2x2x2-block
// sized sub-cube meshes built for FINE_AND_SMALL. Index is the flat
// Z-outer, Y-middle, X-inner index within the FMP^3 (or half) lattice.
type SubMesh struct {
	Index int
	Mesh  Mesh
}

// BuildMapBlockSubMeshes builds one mesh per map-block sub-cube (FMP^3 of
// them), each covering exactly one map-block's worth of the fine content.
func BuildMapBlockSubMeshes(content []farnode.FarNode, contentArea geom.Area, divsPerMB geom.Vec3i, opts Options) []SubMesh {
	return buildSubCubes(content, contentArea, divsPerMB, opts, 1)
}

// BuildHalfBlockSubMeshes builds one mesh per 2x2x2-map-block sub-cube
// ((FMP/2)^3 of them).
func BuildHalfBlockSubMeshes(content []farnode.FarNode, contentArea geom.Area, divsPerMB geom.Vec3i, opts Options) []SubMesh {
	return buildSubCubes(content, contentArea, divsPerMB, opts, 2)
}

func buildSubCubes(content []farnode.FarNode, contentArea geom.Area, divsPerMB geom.Vec3i, opts Options, mbPerSide int32) []SubMesh {
	fmp := farblock.FarBlockMBs
	n := fmp / mbPerSide
	var out []SubMesh
	opts.DivsPerMB = divsPerMB
	for sz := int32(0); sz < n; sz++ {
		for sy := int32(0); sy < n; sy++ {
			for sx := int32(0); sx < n; sx++ {
				lowMB := geom.Vec3i{X: sx * mbPerSide, Y: sy * mbPerSide, Z: sz * mbPerSide}
				genArea := geom.Area{
					MinEdge: geom.Vec3i{X: lowMB.X * divsPerMB.X, Y: lowMB.Y * divsPerMB.Y, Z: lowMB.Z * divsPerMB.Z},
				}
				genArea.MaxEdge = genArea.MinEdge.Add(geom.Vec3i{
					X: mbPerSide*divsPerMB.X - 1,
					Y: mbPerSide*divsPerMB.Y - 1,
					Z: mbPerSide*divsPerMB.Z - 1,
				})
				buf, bufArea := padded(content, contentArea, genArea)
				mesh := ExtractFaces(buf, bufArea, genArea, opts)
				if !mesh.Empty() {
					idx := int(sz*n*n + sy*n + sx)
					out = append(out, SubMesh{Index: idx, Mesh: mesh})
				}
			}
		}
	}
	return out
}
