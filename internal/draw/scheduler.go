// Package draw implements the per-frame draw scheduler (spec §4.6): for
// every FarBlock, it culls by distance, checks near-renderer overlap,
// selects a level of detail, demands mesh builds, evicts meshes that have
// become more detailed than needed, and issues draw calls for whatever
// survives.
package draw

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelfar/farmap/internal/atlas"
	"github.com/voxelfar/farmap/internal/config"
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farmap"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/gpu"
	"github.com/voxelfar/farmap/internal/nearmap"
	"github.com/voxelfar/farmap/internal/tasks"
	"github.com/voxelfar/farmap/internal/worker"
)

// blockWorldSize is the world-space edge length of one far-block, fixed
// regardless of its divs_per_mb (which only changes meshing resolution).
const blockWorldSize = float32(farblock.FarBlockMBs*farblock.MapBlockSize) * farblock.BS

// DrawCall is one mesh the scheduler decided to submit this frame. Offset is
// the scene-node translation the block's camera-rebase origin implies
// (-CameraOffset, in world units); the out-of-scope video driver is
// expected to apply it, bind Mesh, and issue the actual GPU draw.
type DrawCall struct {
	Block  geom.Vec3i
	Mesh   *gpu.MeshHandle
	Offset mgl32.Vec3
}

// Scheduler is the draw-time state for the FarMap: the worker it posts
// mesh-build tasks to and the collaborators a build needs.
type Scheduler struct {
	Map      *farmap.Map
	Settings *config.Settings
	Worker   *worker.Worker
	Defs     farnode.Definitions
	Atlas    *atlas.NodeAtlas
	Uploader gpu.MeshUploader
	Logger   *log.Logger

	shaderResolved bool
	cameraOffset   geom.Vec3i
}

// Rebase applies a new camera-origin rebase: every FarBlock's
// CurrentCameraOffset is updated immediately (spec §4.6 "every FarBlock's
// meshes are translated in place by the delta"), realized here as the
// per-block scene-node translation DrawCall.Offset carries rather than a
// CPU-side rewrite of already-uploaded vertex buffers, since the actual
// scene-node transform is the out-of-scope video driver's job.
func (s *Scheduler) Rebase(newOffset geom.Vec3i) {
	s.cameraOffset = newOffset
	s.Map.EachBlock(func(p geom.Vec3i, b *farblock.Block) {
		b.Lock()
		b.CurrentCameraOffset = newOffset
		b.Unlock()
	})
}

// sceneOffset returns the world-space translation a block's current
// rebase implies.
func sceneOffset(b *farblock.Block) mgl32.Vec3 {
	o := b.CurrentCameraOffset
	return mgl32.Vec3{-float32(o.X) * farblock.BS, -float32(o.Y) * farblock.BS, -float32(o.Z) * farblock.BS}
}

// Frame runs one pass of the scheduler: drains the worker's sync queue,
// then visits every FarBlock in the map to decide what to draw, what to
// build, and what to evict. camera is the camera position in the same
// rebased world-space as mesh vertices.
func (s *Scheduler) Frame(camera mgl32.Vec3, occ nearmap.OccupancyView) []DrawCall {
	if s.Settings.EnableShaders() && !s.shaderResolved {
		s.shaderResolved = true // resolving the single "nodes" shader is the video driver's job; nothing to do here
	}
	s.Worker.DrainSync()

	var calls []DrawCall
	farRange := float32(s.Settings.FarMapRange()) * farblock.BS
	fineDist := s.Settings.FineMeshDistance() * farblock.BS

	s.Map.EachBlock(func(p geom.Vec3i, b *farblock.Block) {
		b.Lock()
		defer b.Unlock()

		center := blockCenter(p).Add(sceneOffset(b))
		d := center.Sub(camera).Len()
		if d > farRange {
			return
		}

		overlap := blockOverlapsNearRenderer(p, occ)

		// levelWanted (step 5) is purely distance/overlap driven, independent
		// of what's already built — it drives demand and eviction. Whether a
		// fine mesh actually exists yet is a separate, draw-only question
		// (step 4) below.
		levelWanted := farnode.MeshLevelCrude
		switch {
		case overlap:
			levelWanted = farnode.MeshLevelFineAndSmall
		case d < fineDist:
			levelWanted = farnode.MeshLevelFine
		}

		switch {
		case overlap:
			if b.CurrentMeshLevel() >= farnode.MeshLevelFineAndSmall {
				calls = append(calls, piecewiseDrawCalls(p, b, occ)...)
			}
			// else: avoid_crude — a FINE_AND_SMALL build is in flight or about
			// to be demanded below; draw nothing this frame to avoid a blink.
		case d < fineDist && b.Meshes.Fine != nil:
			calls = append(calls, DrawCall{Block: p, Mesh: b.Meshes.Fine, Offset: sceneOffset(b)})
		case b.Meshes.Crude != nil:
			calls = append(calls, DrawCall{Block: p, Mesh: b.Meshes.Crude, Offset: sceneOffset(b)})
		}

		built := s.demandMesh(b, p, levelWanted)
		if !built {
			s.evictExcess(b, levelWanted)
		}
	})
	return calls
}

// demandMesh posts a mesh-build task when the block needs more detail than
// it currently has, or its content changed since the last build. It
// returns true iff a build was just started this frame.
func (s *Scheduler) demandMesh(b *farblock.Block, p geom.Vec3i, levelWanted farnode.MeshLevel) bool {
	if b.GeneratingMesh || !b.HasContent() {
		return false
	}
	if b.CurrentMeshLevel() >= levelWanted && !b.MeshIsOutdated {
		return false
	}
	b.GeneratingMesh = true
	t := &tasks.MeshBuildTask{
		Block:        b,
		Level:        levelWanted,
		Defs:         s.Defs,
		Atlas:        s.Atlas,
		Uploader:     s.Uploader,
		Shaders:      s.Settings.EnableShaders(),
		CameraOffset: s.cameraOffset,
	}
	if !s.Worker.Add(t) {
		b.GeneratingMesh = false
		return false
	}
	return true
}

// evictExcess drops mesh slots more detailed than levelWanted, reclaiming
// RAM for blocks that no longer need their fine or piecewise meshes (spec
// §4.6 step 6).
func (s *Scheduler) evictExcess(b *farblock.Block, levelWanted farnode.MeshLevel) {
	current := b.CurrentMeshLevel()
	if current <= levelWanted {
		return
	}
	if levelWanted < farnode.MeshLevelFineAndSmall && current >= farnode.MeshLevelFineAndSmall {
		releaseAll(b.Meshes.MapBlocks)
		releaseAll(b.Meshes.HalfBlocks)
		b.FineAndSmallBuilt = false
	}
	if levelWanted < farnode.MeshLevelFine && b.Meshes.Fine != nil {
		b.Meshes.Fine.Release()
		b.Meshes.Fine = nil
	}
}

func releaseAll(slots []*gpu.MeshHandle) {
	for i, h := range slots {
		h.Release()
		slots[i] = nil
	}
}

// blockCenter returns the world-space center of far-block p.
func blockCenter(p geom.Vec3i) mgl32.Vec3 {
	return mgl32.Vec3{
		(float32(p.X) + 0.5) * blockWorldSize,
		(float32(p.Y) + 0.5) * blockWorldSize,
		(float32(p.Z) + 0.5) * blockWorldSize,
	}
}

// blockOverlapsNearRenderer reports whether any of the block's FMP^3
// constituent map-blocks is currently drawn by the near renderer.
func blockOverlapsNearRenderer(p geom.Vec3i, occ nearmap.OccupancyView) bool {
	if occ == nil {
		return false
	}
	fmp := farblock.FarBlockMBs
	base := geom.Vec3i{X: p.X * fmp, Y: p.Y * fmp, Z: p.Z * fmp}
	for mz := int32(0); mz < fmp; mz++ {
		for my := int32(0); my < fmp; my++ {
			for mx := int32(0); mx < fmp; mx++ {
				mb := base.Add(geom.Vec3i{X: mx, Y: my, Z: mz})
				if occ.IsNormallyRendered(mb) {
					return true
				}
			}
		}
	}
	return false
}

// piecewiseDrawCalls implements spec §4.6 step 3: prefer the coarser
// 2x2x2-block sub-mesh when none of its eight map-blocks overlap the near
// renderer, otherwise fall back to the individual map-block meshes,
// skipping any whose map-block the near renderer already drew.
func piecewiseDrawCalls(p geom.Vec3i, b *farblock.Block, occ nearmap.OccupancyView) []DrawCall {
	fmp := farblock.FarBlockMBs
	half := fmp / 2
	base := geom.Vec3i{X: p.X * fmp, Y: p.Y * fmp, Z: p.Z * fmp}
	halfArea := geom.Area{MaxEdge: geom.Vec3i{X: half - 1, Y: half - 1, Z: half - 1}}
	fullArea := geom.Area{MaxEdge: geom.Vec3i{X: fmp - 1, Y: fmp - 1, Z: fmp - 1}}
	offset := sceneOffset(b)

	var calls []DrawCall
	for hz := int32(0); hz < half; hz++ {
		for hy := int32(0); hy < half; hy++ {
			for hx := int32(0); hx < half; hx++ {
				lowMB := geom.Vec3i{X: hx * 2, Y: hy * 2, Z: hz * 2}
				anyOverlap := false
				for dz := int32(0); dz < 2 && !anyOverlap; dz++ {
					for dy := int32(0); dy < 2 && !anyOverlap; dy++ {
						for dx := int32(0); dx < 2 && !anyOverlap; dx++ {
							mb := base.Add(lowMB).Add(geom.Vec3i{X: dx, Y: dy, Z: dz})
							if occ.IsNormallyRendered(mb) {
								anyOverlap = true
							}
						}
					}
				}

				if !anyOverlap {
					idx := int(halfArea.Index(geom.Vec3i{X: hx, Y: hy, Z: hz}))
					if m := b.Meshes.HalfBlocks[idx]; m != nil {
						calls = append(calls, DrawCall{Block: p, Mesh: m, Offset: offset})
					}
					continue
				}

				for dz := int32(0); dz < 2; dz++ {
					for dy := int32(0); dy < 2; dy++ {
						for dx := int32(0); dx < 2; dx++ {
							localMB := lowMB.Add(geom.Vec3i{X: dx, Y: dy, Z: dz})
							mb := base.Add(localMB)
							if occ.IsNormallyRendered(mb) {
								continue
							}
							idx := int(fullArea.Index(localMB))
							if m := b.Meshes.MapBlocks[idx]; m != nil {
								calls = append(calls, DrawCall{Block: p, Mesh: m, Offset: offset})
							}
						}
					}
				}
			}
		}
	}
	return calls
}
