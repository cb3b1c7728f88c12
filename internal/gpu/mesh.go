// Package gpu provides the small reference-counted mesh handle that stands
// in for the engine's grab()/drop() scene-node mesh ownership. The FarMap
// core never touches raw GPU objects directly: it asks a MeshUploader to
// turn a built mesh into a MeshHandle, and releases that handle when the
// mesh is replaced or evicted.
package gpu

import (
	"sync/atomic"

	"github.com/voxelfar/farmap/internal/meshgen"
)

// ReleaseFunc frees whatever GPU resource backs a MeshHandle. It runs
// exactly once, on the handle's last Release.
type ReleaseFunc func()

// MeshHandle is a reference-counted handle to an uploaded mesh. Multiple
// owners (a FarBlock's mesh slot and, briefly, an in-flight frame that
// started drawing it) may hold a handle; the backing resource is freed only
// once every owner has released it. This replaces the original's
// grab()/drop() pointer refcounting with an explicit, owned value.
type MeshHandle struct {
	refs    atomic.Int32
	release ReleaseFunc
	empty   bool
}

// NewMeshHandle wraps a freshly uploaded mesh with refcount 1. release is
// invoked once the handle's count reaches zero.
func NewMeshHandle(release ReleaseFunc) *MeshHandle {
	h := &MeshHandle{release: release}
	h.refs.Store(1)
	return h
}

// Empty returns a handle representing "built, but has no geometry" (the
// mesh_is_empty case) — it holds no GPU resource and Release is a no-op.
func Empty() *MeshHandle {
	h := &MeshHandle{empty: true}
	h.refs.Store(1)
	return h
}

func (h *MeshHandle) IsEmpty() bool { return h.empty }

// Retain increments the refcount. Call before handing the handle to a new
// owner (e.g. a frame that is about to submit a draw call using it).
func (h *MeshHandle) Retain() *MeshHandle {
	if h == nil {
		return nil
	}
	h.refs.Add(1)
	return h
}

// Release decrements the refcount, freeing the backing resource on the
// last release.
func (h *MeshHandle) Release() {
	if h == nil || h.empty {
		return
	}
	if h.refs.Add(-1) == 0 && h.release != nil {
		h.release()
	}
}

// MeshUploader turns a CPU-side built mesh into a GPU-backed, refcounted
// handle. The out-of-scope video driver implements this; internal/atlasgpu
// provides a go-gl based one, and tests use a no-op stub.
type MeshUploader interface {
	Upload(mesh meshgen.Mesh) *MeshHandle
}
