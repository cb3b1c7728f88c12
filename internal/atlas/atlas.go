// Package atlas packs per-voxel-face textures into shared GPU atlas pages.
// It is pure bookkeeping: it hands out (atlas_id, segment_id) references
// and UV rectangles. Building the actual GL texture array that backs a page
// is the job of internal/atlasgpu.
package atlas

// LODFlags mark a segment definition's shading/bake requirements. The mask
// 0x00ff is reserved for an LOD level (unused here); 0xff00 holds flags.
type LODFlags uint16

const (
	LODTopFace          LODFlags = 0x0100
	LODSemibright1Face   LODFlags = 0x0200
	LODSemibright2Face   LODFlags = 0x0400
	LODBakeShadows       LODFlags = 0x0800
	LODDarkenLikeLiquid  LODFlags = 0x1000
)

// Undefined is the zero AtlasID, meaning "no atlas assigned".
const Undefined uint32 = 0

// SegmentReference identifies one texel rectangle on one atlas page.
type SegmentReference struct {
	AtlasID   uint32
	SegmentID uint32
}

func (r SegmentReference) IsUndefined() bool { return r.AtlasID == Undefined }

// Size2 is a width/height pair of either segment counts or pixel sizes.
type Size2 struct{ X, Y int32 }

// SegmentDefinition fully describes a requested segment. It is comparable:
// two definitions with identical fields are the same request, and
// find-or-add must return the same reference for them.
type SegmentDefinition struct {
	ImageName     string
	TotalSegments Size2
	SelectSegment Size2
	TargetSize    Size2
	LODSimulation LODFlags
}

// SegmentCache is the resolved render-time data for a segment: a texture
// page id (resolved by atlasgpu) and its UV rectangle.
type SegmentCache struct {
	PageID     uint32
	HasTexture bool
	Coord0     [2]float32
	Coord1     [2]float32
}

// pageDefinition is the packer's bookkeeping for one atlas page.
type pageDefinition struct {
	id                uint32
	segmentResolution Size2
	totalSegments     Size2
	segments          []SegmentDefinition
	caches            []SegmentCache
}

// Registry packs segment definitions onto atlas pages and caches their UV
// rectangles, following the original's AtlasRegistry interface
// (prepare_for_segments/add_segment/find_or_add_segment/refresh_textures/
// get_atlas_cache/get_texture) generalized from one page to many.
type Registry struct {
	pages    []*pageDefinition
	byDef    map[SegmentDefinition]SegmentReference
	nextPage uint32

	// pageColumns is how many segments fit per row on a freshly started
	// page; PrepareForSegments adjusts it for the expected segment count.
	pageColumns int32
}

// New returns an empty Registry. pageColumns is how many segments fit per
// atlas page row; a page started on demand has pageColumns rows, and a new
// page is started once it is full or a segment of another size arrives.
func New(pageColumns int32) *Registry {
	if pageColumns < 1 {
		pageColumns = 16
	}
	return &Registry{
		byDef:       make(map[SegmentDefinition]SegmentReference),
		pageColumns: pageColumns,
	}
}

// PrepareForSegments hints that up to n segments are about to be added, so
// the packer can pre-size its first page.
func (r *Registry) PrepareForSegments(n int, segmentSize Size2) {
	if len(r.pages) > 0 {
		return
	}
	cols := r.pageColumns
	rows := (int32(n) + cols - 1) / cols
	if rows < 1 {
		rows = 1
	}
	r.startPage(segmentSize, Size2{cols, rows})
}

func (r *Registry) startPage(segRes, totalSegs Size2) *pageDefinition {
	r.nextPage++
	p := &pageDefinition{
		id:                r.nextPage,
		segmentResolution: segRes,
		totalSegments:     totalSegs,
	}
	r.pages = append(r.pages, p)
	return p
}

func (r *Registry) currentPage(segRes Size2) *pageDefinition {
	if len(r.pages) == 0 {
		return r.startPage(segRes, Size2{r.pageColumns, r.pageColumns})
	}
	p := r.pages[len(r.pages)-1]
	cap := p.totalSegments.X * p.totalSegments.Y
	if p.segmentResolution != segRes || int32(len(p.segments)) >= cap {
		return r.startPage(segRes, Size2{r.pageColumns, r.pageColumns})
	}
	return p
}

// AddSegment always inserts a new segment, even if an equal definition was
// already added.
func (r *Registry) AddSegment(def SegmentDefinition) SegmentReference {
	if def.ImageName == "" {
		return SegmentReference{}
	}
	p := r.currentPage(def.TargetSize)
	segID := uint32(len(p.segments))
	p.segments = append(p.segments, def)

	cols := p.totalSegments.X
	col := int32(segID) % cols
	row := int32(segID) / cols
	u0 := float32(col) / float32(cols)
	v0 := float32(row) / float32(p.totalSegments.Y)
	u1 := u0 + 1.0/float32(cols)
	v1 := v0 + 1.0/float32(p.totalSegments.Y)
	p.caches = append(p.caches, SegmentCache{
		PageID:     p.id,
		HasTexture: true,
		Coord0:     [2]float32{u0, v0},
		Coord1:     [2]float32{u1, v1},
	})

	ref := SegmentReference{AtlasID: p.id, SegmentID: segID}
	r.byDef[def] = ref
	return ref
}

// FindOrAddSegment returns the existing reference for an equal definition,
// or adds a new segment. Value equality on SegmentDefinition is what makes
// this idempotent.
func (r *Registry) FindOrAddSegment(def SegmentDefinition) SegmentReference {
	if ref, ok := r.byDef[def]; ok {
		return ref
	}
	return r.AddSegment(def)
}

func (r *Registry) page(atlasID uint32) *pageDefinition {
	for _, p := range r.pages {
		if p.id == atlasID {
			return p
		}
	}
	return nil
}

// GetSegmentDefinition returns the definition a reference was issued for.
func (r *Registry) GetSegmentDefinition(ref SegmentReference) (SegmentDefinition, bool) {
	p := r.page(ref.AtlasID)
	if p == nil || int(ref.SegmentID) >= len(p.segments) {
		return SegmentDefinition{}, false
	}
	return p.segments[ref.SegmentID], true
}

// GetSegmentCache returns the resolved UV rectangle for a reference. The
// packer never reallocates a segment's coordinates once issued, so this is
// stable across calls.
func (r *Registry) GetSegmentCache(ref SegmentReference) (SegmentCache, bool) {
	p := r.page(ref.AtlasID)
	if p == nil || int(ref.SegmentID) >= len(p.caches) {
		return SegmentCache{}, false
	}
	return p.caches[ref.SegmentID], true
}

// PageCount reports how many atlas pages currently exist.
func (r *Registry) PageCount() int { return len(r.pages) }

// PageSegments returns the segment definitions queued for a page, used by
// atlasgpu to actually rasterize the page image.
func (r *Registry) PageSegments(atlasID uint32) []SegmentDefinition {
	p := r.page(atlasID)
	if p == nil {
		return nil
	}
	return p.segments
}

// PageIDs returns every page id currently allocated, in creation order.
func (r *Registry) PageIDs() []uint32 {
	ids := make([]uint32, len(r.pages))
	for i, p := range r.pages {
		ids[i] = p.id
	}
	return ids
}

// PageLayout returns the per-segment pixel resolution and the segment grid
// dimensions for a page, for atlasgpu to size its canvas.
func (r *Registry) PageLayout(atlasID uint32) (segRes, totalSegs Size2, ok bool) {
	p := r.page(atlasID)
	if p == nil {
		return Size2{}, Size2{}, false
	}
	return p.segmentResolution, p.totalSegments, true
}

// MarkSegmentMissing degrades a segment's cache to a null texture pointer
// (spec's "the segment is still issued but its texture pointer is null"),
// for atlasgpu to call when the segment's source image can't be loaded. The
// segment keeps its UV rectangle; only HasTexture flips to false.
func (r *Registry) MarkSegmentMissing(atlasID, segmentID uint32) {
	p := r.page(atlasID)
	if p == nil || int(segmentID) >= len(p.caches) {
		return
	}
	p.caches[segmentID].HasTexture = false
}
