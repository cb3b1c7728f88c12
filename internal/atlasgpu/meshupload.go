package atlasgpu

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/voxelfar/farmap/internal/gpu"
	"github.com/voxelfar/farmap/internal/meshgen"
)

// vertexStride is the byte size of one meshgen.Vertex as laid out by
// GLMeshUploader's attribute pointers: position, normal, uv, and the
// day/night color plus alpha and light-source scalars.
const vertexStride = (3 + 3 + 2 + 3) * 4

// GLMeshUploader implements gpu.MeshUploader with one VAO/VBO pair per
// uploaded mesh, grounded on the teacher's block atlas VBO setup
// (internal/graphics/renderables/blocks/atlas.go) generalized from its one
// shared growing buffer to a dedicated buffer per FarBlock mesh slot, since
// FarMap meshes are built and evicted independently rather than packed into
// a single chunk atlas.
type GLMeshUploader struct{}

// Upload packs mesh into a freshly allocated VAO/VBO and returns a handle
// whose Release deletes both.
func (GLMeshUploader) Upload(mesh meshgen.Mesh) *gpu.MeshHandle {
	if mesh.Empty() {
		return gpu.Empty()
	}

	data := flatten(mesh)

	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, vertexStride, gl.PtrOffset(6*4))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(8*4))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return gpu.NewMeshHandle(func() {
		gl.DeleteBuffers(1, &vbo)
		gl.DeleteVertexArrays(1, &vao)
	})
}

// flatten packs a meshgen.Mesh into the interleaved float layout Upload's
// attribute pointers expect. The shader decodes Color's day|night<<8
// packing itself; Upload only needs to hand the raw 16-bit value across.
func flatten(mesh meshgen.Mesh) []float32 {
	out := make([]float32, 0, len(mesh.Vertices)*vertexStride/4)
	for _, v := range mesh.Vertices {
		out = append(out,
			v.Pos.X(), v.Pos.Y(), v.Pos.Z(),
			v.Normal.X(), v.Normal.Y(), v.Normal.Z(),
			v.UV[0], v.UV[1],
			float32(v.Color), float32(v.Alpha), float32(v.LightSource),
		)
	}
	return out
}
