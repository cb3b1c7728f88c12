package tasks

import (
	"github.com/voxelfar/farmap/internal/atlas"
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/gpu"
	"github.com/voxelfar/farmap/internal/meshgen"
)

// blockSnapshot is the "snapshot-copy of the FarBlock" spec §4.4 requires:
// everything the mesh builder reads, copied by value so the worker never
// races the main thread's owning Block.
type blockSnapshot struct {
	params  farblock.BasicParameters
	content []farnode.FarNode
}

// MeshBuildTask builds one or more LOD meshes for a FarBlock off the main
// thread, then installs them on sync. This is the
// FarBlockMeshGenerateTask of spec §4.4.
type MeshBuildTask struct {
	Block    *farblock.Block
	Level    farnode.MeshLevel
	Defs     farnode.Definitions
	Atlas    *atlas.NodeAtlas
	Uploader gpu.MeshUploader
	Shaders  bool

	// CameraOffset is the rebase origin in effect when this build was
	// demanded; Sync stamps it onto the block so a newly built mesh starts
	// out already aligned to whatever rebase is current (spec's
	// resetCameraOffset(current_offset)).
	CameraOffset geom.Vec3i

	snap blockSnapshot

	crude       meshgen.Mesh
	fine        meshgen.Mesh
	mapBlocks   []meshgen.SubMesh
	halfBlocks  []meshgen.SubMesh
}

// InThread snapshots the block under its own lock, then runs the LOD passes
// requested by Level. Nothing here touches GPU or scene-graph state.
func (t *MeshBuildTask) InThread() {
	t.Block.Lock()
	t.snap = blockSnapshot{params: t.Block.Params, content: append([]farnode.FarNode(nil), t.Block.Content...)}
	t.Block.Unlock()

	if len(t.snap.content) == 0 {
		return
	}

	opts := meshgen.Options{Defs: t.Defs, Atlas: t.Atlas, ShadersEnabled: t.Shaders}

	t.crude = meshgen.BuildCrude(t.snap.content, t.snap.params.ContentArea, t.snap.params.DivsPerMB, opts)

	if t.Level < farnode.MeshLevelFine {
		return
	}
	t.fine = meshgen.BuildFine(t.snap.content, t.snap.params.ContentArea, t.snap.params.EffectiveArea, t.snap.params.DivsPerMB, opts)

	if t.Level < farnode.MeshLevelFineAndSmall {
		return
	}
	t.mapBlocks = meshgen.BuildMapBlockSubMeshes(t.snap.content, t.snap.params.ContentArea, t.snap.params.DivsPerMB, opts)
	t.halfBlocks = meshgen.BuildHalfBlockSubMeshes(t.snap.content, t.snap.params.ContentArea, t.snap.params.DivsPerMB, opts)
}

// Sync uploads the built meshes and installs them on the live Block,
// dropping whatever meshes they replace, per spec §4.4's main-thread step.
func (t *MeshBuildTask) Sync() {
	t.Block.Lock()
	defer t.Block.Unlock()

	replace := func(slot **gpu.MeshHandle, m meshgen.Mesh) {
		old := *slot
		if m.Empty() {
			*slot = nil
		} else {
			*slot = t.Uploader.Upload(m)
		}
		old.Release()
	}

	replace(&t.Block.Meshes.Crude, t.crude)

	if t.Level >= farnode.MeshLevelFine {
		replace(&t.Block.Meshes.Fine, t.fine)
	}

	if t.Level >= farnode.MeshLevelFineAndSmall {
		t.installSubMeshes(t.Block.Meshes.MapBlocks, t.mapBlocks)
		t.installSubMeshes(t.Block.Meshes.HalfBlocks, t.halfBlocks)
		t.Block.FineAndSmallBuilt = true
	}

	t.Block.GeneratingMesh = false
	t.Block.MeshIsOutdated = false
	t.Block.MeshIsEmpty = t.Block.Meshes.Crude == nil && t.Block.Meshes.Fine == nil

	t.Block.CurrentCameraOffset = t.CameraOffset
}

// installSubMeshes clears every slot, then uploads exactly the non-empty
// sub-meshes extract produced (buildSubCubes skips empty ones outright).
func (t *MeshBuildTask) installSubMeshes(slots []*gpu.MeshHandle, built []meshgen.SubMesh) {
	for i, s := range slots {
		s.Release()
		slots[i] = nil
	}
	for _, sm := range built {
		slots[sm.Index] = t.Uploader.Upload(sm.Mesh)
	}
}
