package atlas

import "github.com/voxelfar/farmap/internal/farnode"

// nodeRefs holds the six segment references for one voxel id: three faces
// times two LODs (fine, crude).
type nodeRefs struct {
	fine  [3]SegmentReference // indexed by farnode.Face
	crude [3]SegmentReference
}

// NodeAtlas is the FarMap-facing atlas API: prepareForNodes/addTexture/
// addNode/refreshTextures/getNode, built on top of a Registry.
type NodeAtlas struct {
	reg          *Registry
	nodeSegRefs  map[uint16]*nodeRefs
	nodeResolution int32
}

// NewNodeAtlas builds a NodeAtlas targeting the given per-node pixel
// resolution (far_map_atlas_node_resolution).
func NewNodeAtlas(nodeResolution int32) *NodeAtlas {
	if nodeResolution < 1 {
		nodeResolution = 1
	}
	return &NodeAtlas{
		reg:            New(16),
		nodeSegRefs:    make(map[uint16]*nodeRefs),
		nodeResolution: nodeResolution,
	}
}

// PrepareForNodes hints that up to n voxel ids, each contributing six face
// segments, will be added.
func (a *NodeAtlas) PrepareForNodes(n int) {
	a.reg.PrepareForSegments(n*6, Size2{a.nodeResolution, a.nodeResolution})
}

// AddTexture inserts a source image as one atlas segment and returns its
// reference. Crude variants target half the configured node resolution
// (a cheaper LOD filter); liquids and top faces are flagged so the atlas
// bakes shadow-direction shading and, for crude, liquid-like darkening.
func (a *NodeAtlas) AddTexture(name string, isTop, crude, isLiquid bool) SegmentReference {
	res := a.nodeResolution
	if crude {
		res = res / 2
		if res < 1 {
			res = 1
		}
	}
	var flags LODFlags
	if isTop {
		flags |= LODTopFace
	}
	if isLiquid {
		flags |= LODBakeShadows
		if crude {
			flags |= LODDarkenLikeLiquid
		}
	}
	def := SegmentDefinition{
		ImageName:     name,
		TotalSegments: Size2{1, 1},
		SelectSegment: Size2{0, 0},
		TargetSize:    Size2{res, res},
		LODSimulation: flags,
	}
	return a.reg.FindOrAddSegment(def)
}

// AddNode registers the six face/LOD segments for a voxel id.
func (a *NodeAtlas) AddNode(id uint16, topImage, bottomImage, sideImage string, isLiquid bool) {
	refs := &nodeRefs{}
	refs.fine[farnode.FaceTop] = a.AddTexture(topImage, true, false, isLiquid)
	refs.fine[farnode.FaceBottom] = a.AddTexture(bottomImage, false, false, isLiquid)
	refs.fine[farnode.FaceSide] = a.AddTexture(sideImage, false, false, isLiquid)
	refs.crude[farnode.FaceTop] = a.AddTexture(topImage, true, true, isLiquid)
	refs.crude[farnode.FaceBottom] = a.AddTexture(bottomImage, false, true, isLiquid)
	refs.crude[farnode.FaceSide] = a.AddTexture(sideImage, false, true, isLiquid)
	a.nodeSegRefs[id] = refs
}

// RefreshTextures is a no-op hook in the pure packer; atlasgpu.Baker
// implements the real rebake and is invoked after this by the caller.
func (a *NodeAtlas) RefreshTextures() {}

// GetNode looks up the cached segment for (id, face, crude). It returns
// ok=false if the id was never registered or its texture pointer is null
// (missing source image), in which case the mesh builder must emit no
// face.
func (a *NodeAtlas) GetNode(id uint16, face farnode.Face, crude bool) (SegmentCache, bool) {
	refs, ok := a.nodeSegRefs[id]
	if !ok {
		return SegmentCache{}, false
	}
	var ref SegmentReference
	if crude {
		ref = refs.crude[face]
	} else {
		ref = refs.fine[face]
	}
	if ref.IsUndefined() {
		return SegmentCache{}, false
	}
	cache, ok := a.reg.GetSegmentCache(ref)
	if !ok || !cache.HasTexture {
		return SegmentCache{}, false
	}
	return cache, true
}

// Registry exposes the underlying packer, e.g. for atlasgpu to rasterize
// pages.
func (a *NodeAtlas) Registry() *Registry { return a.reg }
