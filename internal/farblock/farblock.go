// Package farblock implements the FarBlock unit of content and rendering:
// a padded array of FarNodes plus up to four mesh slots at increasing
// levels of detail.
package farblock

import (
	"sync"

	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/gpu"
)

// Compile-time lattice constants (the original's MAP_BLOCKSIZE and the
// FarBlock-to-mapblock ratio).
const (
	MapBlockSize int32 = 16 // MB
	FarBlockMBs  int32 = 8  // FMP: map-blocks per far-block edge

	// BS is the world-space length of one voxel edge.
	BS float32 = 10
)

// BasicParameters are derived from (position, divs_per_mb) and immutable
// after a FarBlock is created.
type BasicParameters struct {
	Position   geom.Vec3i // far-block position, in far-block units
	DivsPerMB  geom.Vec3i // per-axis FarNode subdivisions of one map-block

	DP00          geom.Vec3i // origin in FarNode units: p * FMP * d
	EffectiveSize geom.Vec3i // FMP * d
	EffectiveArea geom.Area
	ContentSize   geom.Vec3i // effective_size + 2 per axis
	ContentArea   geom.Area
}

// NewBasicParameters computes the derived fields for (p, divsPerMB).
func NewBasicParameters(p, divsPerMB geom.Vec3i) BasicParameters {
	bp := BasicParameters{Position: p, DivsPerMB: divsPerMB}
	bp.DP00 = geom.Vec3i{
		X: p.X * FarBlockMBs * divsPerMB.X,
		Y: p.Y * FarBlockMBs * divsPerMB.Y,
		Z: p.Z * FarBlockMBs * divsPerMB.Z,
	}
	bp.EffectiveSize = geom.Vec3i{
		X: FarBlockMBs * divsPerMB.X,
		Y: FarBlockMBs * divsPerMB.Y,
		Z: FarBlockMBs * divsPerMB.Z,
	}
	bp.EffectiveArea = geom.Area{
		MinEdge: bp.DP00,
		MaxEdge: bp.DP00.Add(bp.EffectiveSize).Sub(geom.Vec3i{X: 1, Y: 1, Z: 1}),
	}
	bp.ContentSize = bp.EffectiveSize.Add(geom.Vec3i{X: 2, Y: 2, Z: 2})
	bp.ContentArea = geom.Area{
		MinEdge: bp.EffectiveArea.MinEdge.Sub(geom.Vec3i{X: 1, Y: 1, Z: 1}),
		MaxEdge: bp.EffectiveArea.MaxEdge.Add(geom.Vec3i{X: 1, Y: 1, Z: 1}),
	}
	return bp
}

// MeshSlots holds the up-to-four mesh handles a FarBlock can have. Sub-cube
// slices are flattened in Z-outer, Y-middle, X-inner order matching
// geom.Area.Index.
type MeshSlots struct {
	Crude     *gpu.MeshHandle
	Fine      *gpu.MeshHandle
	MapBlocks []*gpu.MeshHandle // len FMP^3
	HalfBlocks []*gpu.MeshHandle // len (FMP/2)^3
}

func newMeshSlots() MeshSlots {
	fmp := int(FarBlockMBs)
	return MeshSlots{
		MapBlocks:  make([]*gpu.MeshHandle, fmp*fmp*fmp),
		HalfBlocks: make([]*gpu.MeshHandle, (fmp/2)*(fmp/2)*(fmp/2)),
	}
}

// Block is the FarMap's unit of content and rendering.
type Block struct {
	mu sync.Mutex

	Params BasicParameters

	Content []farnode.FarNode // len == ContentArea.Volume(); nil if empty/culled

	IsCulledByServer        bool
	LoadInProgressOnServer  bool
	RefreshFromServerCounter int

	Meshes MeshSlots

	GeneratingMesh      bool
	MeshIsOutdated      bool
	MeshIsEmpty         bool
	CurrentCameraOffset geom.Vec3i

	// FineAndSmallBuilt records that the FINE_AND_SMALL sub-cube pass has
	// been run at least once since the last time it was invalidated, rather
	// than inferring that from every MapBlocks/HalfBlocks slot being
	// non-nil — real sparse terrain leaves most sub-cube slots nil (the
	// extraction skips empty ones) even on a fully successful pass.
	FineAndSmallBuilt bool
}

// NewStub creates an empty FarBlock for positions the server reported as
// empty, culled, or still loading (divs_per_mb is zero until real content
// arrives).
func NewStub(p geom.Vec3i) *Block {
	return &Block{
		Params: NewBasicParameters(p, geom.Vec3i{}),
		Meshes: newMeshSlots(),
	}
}

// NewWithContent creates a FarBlock carrying decoded voxel content.
func NewWithContent(p, divsPerMB geom.Vec3i, content []farnode.FarNode) *Block {
	b := &Block{
		Params:         NewBasicParameters(p, divsPerMB),
		Content:        content,
		Meshes:         newMeshSlots(),
		MeshIsOutdated: true,
	}
	return b
}

// Lock/Unlock expose the block's mutex for callers that need to mutate
// content, flags, or mesh slots atomically with a read of the same (the
// worker's sync phase and the draw scheduler both touch this type from the
// single main-thread loop, but a test harness may drive them concurrently).
func (b *Block) Lock()   { b.mu.Lock() }
func (b *Block) Unlock() { b.mu.Unlock() }

// CurrentMeshLevel returns the highest level built so far, per the strict
// ordering NONE < CRUDE < FINE < FINE_AND_SMALL. FINE_AND_SMALL is reported
// once that pass has been attempted (FineAndSmallBuilt), regardless of how
// many individual sub-cube slots turned out empty and so stayed nil — a
// slot left nil because its sub-cube had zero triangles is not the same as
// the pass never having run.
func (b *Block) CurrentMeshLevel() farnode.MeshLevel {
	if b.Meshes.Crude == nil {
		return farnode.MeshLevelNone
	}
	if b.Meshes.Fine == nil {
		return farnode.MeshLevelCrude
	}
	if !b.FineAndSmallBuilt {
		return farnode.MeshLevelFine
	}
	return farnode.MeshLevelFineAndSmall
}

// HasContent reports whether this block has decoded voxel data (as opposed
// to being a stub for empty/culled/loading positions).
func (b *Block) HasContent() bool { return len(b.Content) > 0 }
