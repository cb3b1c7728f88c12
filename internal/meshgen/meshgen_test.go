package meshgen

import (
	"testing"

	"github.com/voxelfar/farmap/internal/atlas"
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
)

const stone uint16 = 1

type fakeDefs map[uint16]farnode.Features

func (d fakeDefs) Get(id uint16) farnode.Features { return d[id] }

func newTestAtlas() *atlas.NodeAtlas {
	a := atlas.NewNodeAtlas(16)
	a.AddNode(stone, "stone_top.png", "stone_bottom.png", "stone_side.png", false)
	return a
}

func countByNormal(m Mesh, normal float32, axis int) int {
	n := 0
	for i := 0; i < len(m.Vertices); i += 3 {
		v := m.Vertices[i]
		var c float32
		switch axis {
		case 0:
			c = v.Normal.X()
		case 1:
			c = v.Normal.Y()
		case 2:
			c = v.Normal.Z()
		}
		if c == normal {
			n++
		}
	}
	return n
}

func TestExtractFacesEmitsOneFaceAtSolidnessBoundary(t *testing.T) {
	defs := fakeDefs{stone: {ExplicitSolidness: 2}}
	a := newTestAtlas()

	area := geom.Area{MaxEdge: geom.Vec3i{X: 1}}
	buf := []farnode.FarNode{{ID: stone}, {ID: farnode.AIR}}

	mesh := ExtractFaces(buf, area, geom.Area{}, Options{
		DivsPerMB: geom.Vec3i{X: 1, Y: 1, Z: 1},
		Defs:      defs,
		Atlas:     a,
	})

	triangles := len(mesh.Vertices) / 3
	if triangles != 2 {
		t.Fatalf("expected 2 triangles (1 quad) at the solidness boundary, got %d", triangles)
	}
	if countByNormal(mesh, 1, 0) != 2 {
		t.Fatalf("expected both triangles to face +X, got %+v", mesh.Vertices)
	}
}

func TestExtractFacesEqualSolidnessEmitsNoFace(t *testing.T) {
	defs := fakeDefs{stone: {ExplicitSolidness: 2}}
	a := newTestAtlas()

	area := geom.Area{MaxEdge: geom.Vec3i{X: 1}}
	buf := []farnode.FarNode{{ID: stone}, {ID: stone}}

	mesh := ExtractFaces(buf, area, geom.Area{}, Options{
		DivsPerMB: geom.Vec3i{X: 1, Y: 1, Z: 1},
		Defs:      defs,
		Atlas:     a,
	})

	if !mesh.Empty() {
		t.Fatalf("expected no faces between two cells of equal solidness, got %d vertices", len(mesh.Vertices))
	}
}

func TestExtractFacesMissingAtlasEntrySuppressesFace(t *testing.T) {
	defs := fakeDefs{stone: {ExplicitSolidness: 2}}
	a := atlas.NewNodeAtlas(16) // stone never registered

	area := geom.Area{MaxEdge: geom.Vec3i{X: 1}}
	buf := []farnode.FarNode{{ID: stone}, {ID: farnode.AIR}}

	mesh := ExtractFaces(buf, area, geom.Area{}, Options{
		DivsPerMB: geom.Vec3i{X: 1, Y: 1, Z: 1},
		Defs:      defs,
		Atlas:     a,
	})

	if !mesh.Empty() {
		t.Fatalf("expected no faces when the atlas has no segment for the id, got %d vertices", len(mesh.Vertices))
	}
}

// TestBuildCrudeSolidFloorProducesOneTopQuadPerColumn covers spec scenario 2:
// a far-block whose bottom map-block layer is entirely STONE and everything
// above it is AIR produces exactly FMP*FMP upward-facing quads, one per
// column. It deliberately does not assert on side/bottom face counts: in a
// single isolated far-block (no loaded neighbors), the lattice's own
// horizontal and lower edges are boundaries too and legitimately emit
// faces there, same as the vertical one above the floor.
func TestBuildCrudeSolidFloorProducesOneTopQuadPerColumn(t *testing.T) {
	defs := fakeDefs{stone: {ExplicitSolidness: 2}}
	a := newTestAtlas()

	fmp := farblock.FarBlockMBs
	divsPerMB := geom.Vec3i{X: 1, Y: 1, Z: 1}
	contentArea := geom.Area{MaxEdge: geom.Vec3i{X: fmp - 1, Y: fmp - 1, Z: fmp - 1}}
	content := make([]farnode.FarNode, contentArea.Volume())
	for z := int32(0); z < fmp; z++ {
		for x := int32(0); x < fmp; x++ {
			content[contentArea.Index(geom.Vec3i{X: x, Y: 0, Z: z})] = farnode.FarNode{ID: stone}
		}
	}

	mesh := BuildCrude(content, contentArea, divsPerMB, Options{Defs: defs, Atlas: a})

	topTriangles := countByNormal(mesh, 1, 1)
	wantTriangles := int(fmp * fmp * 2)
	if topTriangles != wantTriangles {
		t.Fatalf("expected %d upward-facing triangles (one quad per column), got %d", wantTriangles, topTriangles)
	}
}

// TestSampleMapBlockWalksOnlyTheCenteredColumn covers the original's
// getCrudeContent column walk: with divs_per_mb > (1,1,1), a solid voxel
// off-center within the map-block's subvolume must NOT be picked up by the
// crude sample, only one sitting on the map-block's centered column.
func TestSampleMapBlockWalksOnlyTheCenteredColumn(t *testing.T) {
	divsPerMB := geom.Vec3i{X: 2, Y: 2, Z: 2}
	contentArea := geom.Area{MaxEdge: geom.Vec3i{X: 1, Y: 1, Z: 1}}
	content := make([]farnode.FarNode, contentArea.Volume())
	// Solid at a corner of the map-block's subvolume, off the centered
	// (x=mx*2+1, z=mz*2+1) column.
	content[contentArea.Index(geom.Vec3i{X: 0, Y: 0, Z: 0})] = farnode.FarNode{ID: stone}

	n := sampleMapBlock(content, contentArea, divsPerMB, 0, 0, 0)
	if n.ID != farnode.IGNORE {
		t.Fatalf("expected an off-center voxel to be invisible to the crude sample, got id %d", n.ID)
	}

	// Now place the same solid id on the centered column instead.
	content[contentArea.Index(geom.Vec3i{X: 0, Y: 0, Z: 0})] = farnode.FarNode{ID: farnode.AIR}
	content[contentArea.Index(geom.Vec3i{X: 1, Y: 0, Z: 1})] = farnode.FarNode{ID: stone}

	n = sampleMapBlock(content, contentArea, divsPerMB, 0, 0, 0)
	if n.ID != stone {
		t.Fatalf("expected the centered-column voxel to be sampled, got id %d", n.ID)
	}
}

func TestBuildFineEmptyContentProducesEmptyMesh(t *testing.T) {
	defs := fakeDefs{stone: {ExplicitSolidness: 2}}
	a := newTestAtlas()

	divsPerMB := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divsPerMB)
	content := make([]farnode.FarNode, bp.ContentArea.Volume())
	for i := range content {
		content[i] = farnode.FarNode{ID: farnode.AIR}
	}

	mesh := BuildFine(content, bp.ContentArea, bp.EffectiveArea, divsPerMB, Options{Defs: defs, Atlas: a})
	if !mesh.Empty() {
		t.Fatalf("expected an all-air farblock to mesh to nothing, got %d vertices", len(mesh.Vertices))
	}
}

func TestBuildMapBlockSubMeshesSkipsEmptySubCubes(t *testing.T) {
	defs := fakeDefs{stone: {ExplicitSolidness: 2}}
	a := newTestAtlas()

	divsPerMB := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divsPerMB)
	content := make([]farnode.FarNode, bp.ContentArea.Volume())
	for i := range content {
		content[i] = farnode.FarNode{ID: farnode.AIR}
	}
	// A single solid voxel in the first map-block only.
	content[bp.ContentArea.Index(geom.Vec3i{})] = farnode.FarNode{ID: stone}

	subs := BuildMapBlockSubMeshes(content, bp.ContentArea, divsPerMB, Options{Defs: defs, Atlas: a})
	if len(subs) != 1 {
		t.Fatalf("expected exactly 1 non-empty sub-mesh, got %d", len(subs))
	}
	if subs[0].Index != 0 {
		t.Fatalf("expected the lone sub-mesh at index 0, got %d", subs[0].Index)
	}
}
