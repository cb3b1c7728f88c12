package draw

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelfar/farmap/internal/atlas"
	"github.com/voxelfar/farmap/internal/config"
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farmap"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/gpu"
	"github.com/voxelfar/farmap/internal/meshgen"
	"github.com/voxelfar/farmap/internal/nearmap"
	"github.com/voxelfar/farmap/internal/worker"
)

const stone uint16 = 1

type fakeDefs map[uint16]farnode.Features

func (d fakeDefs) Get(id uint16) farnode.Features { return d[id] }

func newTestAtlas() *atlas.NodeAtlas {
	a := atlas.NewNodeAtlas(16)
	a.AddNode(stone, "stone_top.png", "stone_bottom.png", "stone_side.png", false)
	return a
}

type noopUploader struct{}

func (noopUploader) Upload(m meshgen.Mesh) *gpu.MeshHandle {
	return gpu.NewMeshHandle(func() {})
}

func newScheduler(t *testing.T) (*Scheduler, *farmap.Map) {
	t.Helper()
	m := farmap.New()
	w := worker.New(16)
	t.Cleanup(w.Close)
	return &Scheduler{
		Map:      m,
		Settings: config.Default(),
		Worker:   w,
		Defs:     fakeDefs{stone: {ExplicitSolidness: 2}},
		Atlas:    newTestAtlas(),
		Uploader: noopUploader{},
	}, m
}

func solidContent(divs geom.Vec3i, bp farblock.BasicParameters) []farnode.FarNode {
	content := make([]farnode.FarNode, bp.ContentArea.Volume())
	for z := int32(0); z < farblock.FarBlockMBs; z++ {
		for x := int32(0); x < farblock.FarBlockMBs; x++ {
			content[bp.ContentArea.Index(geom.Vec3i{X: x, Y: 0, Z: z})] = farnode.FarNode{ID: stone}
		}
	}
	return content
}

func TestFrameCullsBlocksBeyondFarMapRange(t *testing.T) {
	s, m := newScheduler(t)
	s.Settings.SetFarMapRange(100) // clamps to minimum, smallest cull radius

	far := geom.Vec3i{X: 1000}
	m.InsertFarBlock(far, geom.Vec3i{X: 1, Y: 1, Z: 1}, solidContent(geom.Vec3i{X: 1, Y: 1, Z: 1}, farblock.NewBasicParameters(far, geom.Vec3i{X: 1, Y: 1, Z: 1})), false)

	calls := s.Frame(mgl32.Vec3{}, nil)
	if len(calls) != 0 {
		t.Fatalf("expected a far-away block to be culled, got %d draw calls", len(calls))
	}
}

func TestFrameDemandsMeshBuildForNewContent(t *testing.T) {
	s, m := newScheduler(t)
	divs := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divs)
	m.InsertFarBlock(geom.Vec3i{}, divs, solidContent(divs, bp), false)

	s.Frame(mgl32.Vec3{}, nil)

	b, _ := m.GetBlock(geom.Vec3i{})
	if !b.GeneratingMesh {
		t.Fatalf("expected a mesh build to have been demanded for new content")
	}
}

func TestFrameWithNoOverlapDrawsNothingWithoutAMeshYet(t *testing.T) {
	s, m := newScheduler(t)
	divs := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divs)
	m.InsertFarBlock(geom.Vec3i{}, divs, solidContent(divs, bp), false)

	calls := s.Frame(mgl32.Vec3{}, nil)
	if len(calls) != 0 {
		t.Fatalf("expected no draw calls before any mesh has been built, got %d", len(calls))
	}
}

func TestRebaseUpdatesEveryBlocksCameraOffsetAndDrawOffset(t *testing.T) {
	s, m := newScheduler(t)
	divs := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divs)
	b := m.InsertFarBlock(geom.Vec3i{}, divs, solidContent(divs, bp), false)
	b.Meshes.Crude = gpu.NewMeshHandle(func() {})

	s.Rebase(geom.Vec3i{X: 100})

	if b.CurrentCameraOffset != (geom.Vec3i{X: 100}) {
		t.Fatalf("expected Rebase to update the block's current camera offset immediately, got %+v", b.CurrentCameraOffset)
	}

	calls := s.Frame(mgl32.Vec3{}, nil)
	if len(calls) != 1 {
		t.Fatalf("expected exactly one draw call, got %d", len(calls))
	}
	want := mgl32.Vec3{-100 * farblock.BS, 0, 0}
	if calls[0].Offset != want {
		t.Fatalf("expected the draw call's offset to reflect the rebase, want %v got %v", want, calls[0].Offset)
	}
}

// TestFrameDemandsFineMeshWhenCloseWithoutOverlapOrExistingFineMesh guards
// against conflating the draw-call check (does a fine mesh already exist)
// with the demand/evict decision (is the camera close enough to want one).
// A block with no overlap and only a crude mesh built so far must still
// have a FINE build demanded once the camera is within fineDist, not get
// stuck wanting CRUDE forever just because Meshes.Fine is still nil.
func TestFrameDemandsFineMeshWhenCloseWithoutOverlapOrExistingFineMesh(t *testing.T) {
	s, m := newScheduler(t)
	s.Settings.SetFineMeshDistance(1000)
	divs := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divs)
	b := m.InsertFarBlock(geom.Vec3i{}, divs, solidContent(divs, bp), false)
	b.Meshes.Crude = gpu.NewMeshHandle(func() {})

	s.Frame(mgl32.Vec3{}, nil)

	if !b.GeneratingMesh {
		t.Fatalf("expected a FINE mesh build to be demanded for a close block with only a crude mesh, got none demanded")
	}
}

func TestFrameOverlapWithoutFineAndSmallDrawsNothing(t *testing.T) {
	s, m := newScheduler(t)
	divs := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divs)
	b := m.InsertFarBlock(geom.Vec3i{}, divs, solidContent(divs, bp), false)
	b.Meshes.Crude = gpu.NewMeshHandle(func() {})

	occ := nearmap.StaticOccupancy{{X: 0, Y: 0, Z: 0}: true}
	calls := s.Frame(mgl32.Vec3{}, occ)
	if len(calls) != 0 {
		t.Fatalf("expected avoid_crude to suppress drawing while only a crude mesh exists, got %d calls", len(calls))
	}
}

// TestFrameDrawsPiecewiseAfterFineAndSmallEvenWithSparseSubMeshes covers
// spec scenario 3: once FINE_AND_SMALL has actually been built, piecewise
// draw calls must appear for non-overlapped map-blocks even when most
// sub-mesh slots are nil because their sub-cube happened to be empty —
// CurrentMeshLevel must not be gated on every slot being populated.
func TestFrameDrawsPiecewiseAfterFineAndSmallEvenWithSparseSubMeshes(t *testing.T) {
	s, m := newScheduler(t)
	divs := geom.Vec3i{X: 1, Y: 1, Z: 1}
	bp := farblock.NewBasicParameters(geom.Vec3i{}, divs)
	b := m.InsertFarBlock(geom.Vec3i{}, divs, solidContent(divs, bp), false)
	b.Meshes.Crude = gpu.NewMeshHandle(func() {})
	b.Meshes.Fine = gpu.NewMeshHandle(func() {})
	// Only one map-block sub-mesh slot populated, the rest stay nil as they
	// would for genuinely sparse content — FineAndSmallBuilt is what marks
	// the pass as complete, not slot occupancy.
	b.Meshes.MapBlocks[0] = gpu.NewMeshHandle(func() {})
	b.FineAndSmallBuilt = true

	// Overlap every map-block except the one holding the populated slot.
	occ := nearmap.StaticOccupancy{}
	fmp := farblock.FarBlockMBs
	for z := int32(0); z < fmp; z++ {
		for y := int32(0); y < fmp; y++ {
			for x := int32(0); x < fmp; x++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				occ[geom.Vec3i{X: x, Y: y, Z: z}] = true
			}
		}
	}

	calls := s.Frame(mgl32.Vec3{}, occ)
	if len(calls) == 0 {
		t.Fatalf("expected a piecewise draw call for the non-overlapped map-block, got none")
	}
}
