// Package meshgen builds FarBlock meshes from voxel content via greedy
// face extraction, generalizing the teacher's fixed 16x256x16
// chunk mesher (internal/meshing.BuildGreedyMeshForChunk) to an arbitrary
// padded content buffer over three coarse LOD passes.
package meshgen

import "github.com/go-gl/mathgl/mgl32"

// Vertex is one corner of a triangle, carrying world-space position,
// face normal, a UV coordinate into an atlas segment, and baked lighting.
type Vertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
	UV     [2]float32

	// Color packs day|night<<8 exactly as the vertex diffuse channel
	// does on the wire; Alpha and LightSource mirror the original's
	// MapBlock_LightColor inputs.
	Color       uint16
	Alpha       uint8
	LightSource uint8
}

// Mesh is a flat triangle list: len(Vertices) is always a multiple of 3.
// There is deliberately no index buffer, matching the teacher's
// append-two-triangles-per-quad style.
type Mesh struct {
	Vertices []Vertex
}

func (m Mesh) Empty() bool { return len(m.Vertices) == 0 }
