// Package meshing implements the full-detail greedy mesher and the
// surface-LOD mesher of spec.md section 4.G: both walk a resident chunk and
// produce a renderer-agnostic (vertices, indices) pair for the frame
// composer to budget, remap, and combine.
package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/voxel"
)

// Vertex is the mesher's output format: position local to the chunk's own
// origin (the composer adds the chunk's world origin on combine), a face
// normal, a raw tex-coord the composer remaps into an atlas tile, an
// ambient-occlusion factor, and the block type driving per-type coloring.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
	AO       float32
	Block    voxel.BlockType
}

// Mesh is the (vertices, indices) pair a mesher produces for one chunk at
// one detail level.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// reset clears a mesh's length without releasing its backing arrays, the
// zero-allocation-reuse discipline GenerateMeshInto/GenerateSurfaceMeshInto
// apply when the frame cache hands back a chunk's own scratch mesh for
// regeneration instead of allocating a fresh one every time.
func (m *Mesh) reset() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

// emitQuad appends one quad's four corners and chooses the triangulation
// diagonal by the AO winding-repair rule of spec.md section 4.G: when
// ao[0]+ao[2] > ao[1]+ao[3], triangulate (0,1,2)(0,2,3); otherwise
// (0,1,3)(1,2,3). corners, uvs, and ao are given in consistent CCW order for
// the quad's normal.
func (m *Mesh) emitQuad(corners [4]mgl32.Vec3, normal mgl32.Vec3, uvs [4]mgl32.Vec2, ao [4]float32, block voxel.BlockType) {
	base := uint32(len(m.Vertices))
	for i := 0; i < 4; i++ {
		m.Vertices = append(m.Vertices, Vertex{
			Position: corners[i],
			Normal:   normal,
			TexCoord: uvs[i],
			AO:       ao[i],
			Block:    block,
		})
	}

	if ao[0]+ao[2] > ao[1]+ao[3] {
		m.Indices = append(m.Indices, base+0, base+1, base+2, base+0, base+2, base+3)
	} else {
		m.Indices = append(m.Indices, base+0, base+1, base+3, base+1, base+2, base+3)
	}
}
