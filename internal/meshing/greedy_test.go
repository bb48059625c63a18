package meshing

import (
	"testing"

	"chunkengine/internal/voxel"
)

func mustSet(t *testing.T, c *voxel.Chunk, x, y, z int, bt voxel.BlockType) {
	t.Helper()
	if err := c.SetBlock(x, y, z, bt); err != nil {
		t.Fatalf("SetBlock(%d,%d,%d): %v", x, y, z, err)
	}
}

func TestSingleBlockMesh(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	mustSet(t, c, 0, 0, 0, voxel.BlockStone)

	mesh := GenerateMesh(c)
	if got, want := len(mesh.Indices), 36; got != want {
		t.Fatalf("single block: got %d indices, want %d (6 faces * 6 indices)", got, want)
	}
	if got, want := len(mesh.Vertices), 24; got != want {
		t.Fatalf("single block: got %d vertices, want %d (6 faces * 4 corners)", got, want)
	}
}

func TestTwoBlocksSeparated(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	mustSet(t, c, 0, 0, 0, voxel.BlockStone)
	mustSet(t, c, 2, 0, 0, voxel.BlockStone)

	mesh := GenerateMesh(c)
	if got, want := len(mesh.Indices), 72; got != want {
		t.Fatalf("two separated blocks: got %d indices, want %d", got, want)
	}
}

func TestTwoBlocksTouchingGreedyMerge(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	mustSet(t, c, 0, 0, 0, voxel.BlockStone)
	mustSet(t, c, 1, 0, 0, voxel.BlockStone)

	mesh := GenerateMesh(c)
	// The union is a 2x1x1 cuboid: 6 faces, each a single merged quad.
	if got, want := len(mesh.Indices), 36; got != want {
		t.Fatalf("two touching blocks: got %d indices, want %d (greedy should merge the shared faces)", got, want)
	}
}

func TestChunkBoundaryTreatedAsExposed(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	mustSet(t, c, 15, 0, 0, voxel.BlockStone)

	mesh := GenerateMesh(c)
	// All 6 faces are emitted even though a neighbor chunk might exist at
	// x=16 in world space: this mesher never looks outside its own chunk.
	if got, want := len(mesh.Indices), 36; got != want {
		t.Fatalf("boundary block: got %d indices, want %d (boundary faces are unconditionally exposed)", got, want)
	}
}

func TestWaterIsNotMeshedAsSolid(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	mustSet(t, c, 5, 5, 5, voxel.BlockWater)

	mesh := GenerateMesh(c)
	if len(mesh.Indices) != 0 {
		t.Fatalf("expected non-solid water to contribute no faces, got %d indices", len(mesh.Indices))
	}
}

func TestGenerateMeshNilChunk(t *testing.T) {
	mesh := GenerateMesh(nil)
	if len(mesh.Vertices) != 0 || len(mesh.Indices) != 0 {
		t.Fatalf("expected empty mesh for nil chunk")
	}
}

func TestGenerateMeshIntoReusesBackingArrays(t *testing.T) {
	small := voxel.NewChunk(0, 0)
	mustSet(t, small, 0, 0, 0, voxel.BlockStone)

	big := voxel.NewChunk(0, 0)
	mustSet(t, big, 0, 0, 0, voxel.BlockStone)
	mustSet(t, big, 2, 0, 0, voxel.BlockStone)

	scratch := &Mesh{}
	first := GenerateMeshInto(small, scratch)
	if first != scratch {
		t.Fatalf("expected GenerateMeshInto to return the same *Mesh it was given")
	}
	if got, want := len(scratch.Indices), 36; got != want {
		t.Fatalf("first pass: got %d indices, want %d", got, want)
	}
	firstVertCap := cap(scratch.Vertices)

	second := GenerateMeshInto(big, scratch)
	if second != scratch {
		t.Fatalf("expected GenerateMeshInto to keep reusing the same *Mesh")
	}
	if got, want := len(scratch.Indices), 72; got != want {
		t.Fatalf("second pass: got %d indices, want %d", got, want)
	}
	if cap(scratch.Vertices) < firstVertCap {
		t.Fatalf("expected reset() to keep the backing array rather than shrink it")
	}
}

func BenchmarkGenerateMeshFullSurface(b *testing.B) {
	c := voxel.NewChunk(0, 0)
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			_ = c.SetBlock(x, 64, z, voxel.BlockStone)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GenerateMesh(c)
	}
}
