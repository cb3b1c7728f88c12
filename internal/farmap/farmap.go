// Package farmap is the top-level container: sectors keyed by (x,z), each
// owning its FarBlocks keyed by y. It is the sole owner of every FarBlock.
package farmap

import (
	"sync"

	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/farsector"
	"github.com/voxelfar/farmap/internal/geom"
)

type sectorKey struct{ X, Z int32 }

// SceneRenderer is whatever the out-of-scope scene graph provides as this
// Map's draw step; Map.Render forwards to it once registered.
type SceneRenderer interface {
	Render()
}

// Map is the two-level spatial index of FarBlocks.
type Map struct {
	mu      sync.RWMutex
	sectors map[sectorKey]*farsector.Sector

	renderer   SceneRenderer
	registered bool
}

// New returns an empty Map.
func New() *Map {
	return &Map{sectors: make(map[sectorKey]*farsector.Sector)}
}

// SetSceneRenderer installs the callback Render forwards to, standing in
// for the scene graph binding a draw.Scheduler (or any other renderer) to
// this Map's node.
func (m *Map) SetSceneRenderer(r SceneRenderer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderer = r
}

// OnRegisterSceneNode is the scene-graph registration hook: a scene node
// calls this once before its first Render, and Map records whether it has
// a renderer worth being asked to draw.
func (m *Map) OnRegisterSceneNode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = m.renderer != nil
	return m.registered
}

// Render forwards to the registered SceneRenderer, if any. A nil renderer
// is a no-op rather than an error: a scene graph may register this node
// before the renderer is wired up.
func (m *Map) Render() {
	m.mu.RLock()
	r := m.renderer
	m.mu.RUnlock()
	if r != nil {
		r.Render()
	}
}

// BoundingBox returns the axis-aligned box, in map-block units, spanning
// every loaded FarBlock, for the scene graph's frustum-culling pass. An
// empty Map returns a zero-sized box at the origin.
func (m *Map) BoundingBox() (min, max geom.Vec3i) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	const fmp = farblock.FarBlockMBs
	first := true
	for key, s := range m.sectors {
		for y := range s.All() {
			p := geom.Vec3i{X: key.X, Y: y, Z: key.Z}
			lo := geom.Vec3i{X: p.X * fmp, Y: p.Y * fmp, Z: p.Z * fmp}
			hi := geom.Vec3i{X: lo.X + fmp, Y: lo.Y + fmp, Z: lo.Z + fmp}
			if first {
				min, max = lo, hi
				first = false
				continue
			}
			min = geom.Vec3i{X: minInt32(min.X, lo.X), Y: minInt32(min.Y, lo.Y), Z: minInt32(min.Z, lo.Z)}
			max = geom.Vec3i{X: maxInt32(max.X, hi.X), Y: maxInt32(max.Y, hi.Y), Z: maxInt32(max.Z, hi.Z)}
		}
	}
	return min, max
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func (m *Map) sectorFor(p geom.Vec3i, create bool) *farsector.Sector {
	key := sectorKey{p.X, p.Z}
	s, ok := m.sectors[key]
	if !ok {
		if !create {
			return nil
		}
		s = farsector.New(p.X, p.Z)
		m.sectors[key] = s
	}
	return s
}

// GetBlock returns the FarBlock at p, if loaded.
func (m *Map) GetBlock(p geom.Vec3i) (*farblock.Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sectorFor(p, false)
	if s == nil {
		return nil, false
	}
	return s.Get(p.Y)
}

// GetOrCreateBlock gets the block at p, creating a stub with divsPerMB if
// none exists yet. The first insertion fixes the block's divs_per_mb;
// callers that need to upgrade it go through InsertFarBlock instead.
func (m *Map) GetOrCreateBlock(p, divsPerMB geom.Vec3i) *farblock.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sectorFor(p, true)
	if b, ok := s.Get(p.Y); ok {
		return b
	}
	b := farblock.NewWithContent(p, divsPerMB, nil)
	s.Set(p.Y, b)
	return b
}

// InsertFarBlock swaps new content into the block at p (creating it if
// necessary), fixing or upgrading its divs_per_mb, and marks its meshes
// outdated. This is the decode task's main-thread sync step. A divs_per_mb
// change swaps BasicParameters in place on the existing Block rather than
// allocating a fresh one: mesh_is_outdated is what drives the rebuild, so
// GeneratingMesh, CurrentCameraOffset, and whatever mesh slots are still
// valid survive the swap instead of being silently dropped.
func (m *Map) InsertFarBlock(p, divsPerMB geom.Vec3i, content []farnode.FarNode, partlyLoaded bool) *farblock.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sectorFor(p, true)
	b, ok := s.Get(p.Y)
	if !ok {
		b = farblock.NewWithContent(p, divsPerMB, nil)
		s.Set(p.Y, b)
	}
	b.Lock()
	if b.Params.DivsPerMB != divsPerMB {
		b.Params = farblock.NewBasicParameters(p, divsPerMB)
	}
	b.Content = content
	b.IsCulledByServer = false
	b.MeshIsEmpty = false
	b.MeshIsOutdated = true
	b.LoadInProgressOnServer = partlyLoaded
	b.Unlock()
	return b
}

// InsertEmptyBlock marks p as reported non-existent by the server: content
// stays empty, mesh_is_empty stays true.
func (m *Map) InsertEmptyBlock(p geom.Vec3i) *farblock.Block {
	return m.insertStub(p, false, false)
}

// InsertCulledBlock marks p as culled by the server.
func (m *Map) InsertCulledBlock(p geom.Vec3i) *farblock.Block {
	return m.insertStub(p, true, false)
}

// InsertLoadInProgressBlock marks p as still loading on the server.
func (m *Map) InsertLoadInProgressBlock(p geom.Vec3i) *farblock.Block {
	return m.insertStub(p, false, true)
}

func (m *Map) insertStub(p geom.Vec3i, culled, loadInProgress bool) *farblock.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sectorFor(p, true)
	b, ok := s.Get(p.Y)
	if !ok {
		b = farblock.NewStub(p)
		s.Set(p.Y, b)
	}
	b.Lock()
	b.IsCulledByServer = culled
	b.LoadInProgressOnServer = loadInProgress
	b.MeshIsEmpty = true
	b.Unlock()
	return b
}

// EachBlock calls fn for every loaded FarBlock. fn must not mutate the map
// structure (sectors/blocks); it may mutate the block's own fields under
// the block's own lock.
func (m *Map) EachBlock(fn func(p geom.Vec3i, b *farblock.Block)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, s := range m.sectors {
		for y, b := range s.All() {
			fn(geom.Vec3i{X: key.X, Y: y, Z: key.Z}, b)
		}
	}
}

// HasBlock reports whether a block exists at p (loaded or stub).
func (m *Map) HasBlock(p geom.Vec3i) bool {
	_, ok := m.GetBlock(p)
	return ok
}
