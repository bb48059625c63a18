// Package renderer defines the narrow GPU-upload contract the simulation
// loop drives once per frame, plus a concrete NullRenderer implementation
// usable without a GPU (headless profiling runs and tests).
//
// Modeled on the teacher's renderer.Renderable interface shape
// (internal/graphics/renderer/api.go), but redrawn around upload/draw calls
// instead of an Init/Render(ctx)/Dispose lifecycle: the GPU backend here is
// an explicit external collaborator, not an in-process OpenGL context the
// renderer owns.
package renderer

// Renderer is the collaborator boundary between the simulation/render
// thread and a GPU backend. Every method may be called every frame; error
// returns propagate to the caller rather than panicking.
type Renderer interface {
	// CreatePipeline compiles or registers a shader program. vertexStride is
	// the byte size of one vertex in the combined buffer the composer builds.
	CreatePipeline(shaderSource, vertexEntry, fragmentEntry string, vertexStride int) error

	// SetTexture uploads a texture atlas. rowBytes accounts for any padding
	// between scanlines.
	SetTexture(data []byte, width, height, rowBytes int) error

	// SetMesh uploads the frame's combined world-geometry buffers.
	SetMesh(vertexBytes []byte, stride int, indices []uint32) error

	// SetLineMesh uploads debug/wireframe geometry, drawn as line primitives.
	SetLineMesh(bytes []byte, stride int) error

	// SetUIMesh uploads 2D HUD/menu geometry, drawn last and unaffected by
	// the 3D view-projection uniforms.
	SetUIMesh(bytes []byte, stride int) error

	// SetUniforms uploads the frame's uniform buffer (view, projection,
	// lighting, and any other per-frame shader constants), opaque to the
	// renderer itself.
	SetUniforms(bytes []byte) error

	// Draw clears to clearColor and issues the frame's draw calls.
	Draw(clearColor [4]float32) error
}
