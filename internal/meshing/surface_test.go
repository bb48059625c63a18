package meshing

import (
	"testing"

	"chunkengine/internal/voxel"
)

func TestGenerateSurfaceMeshFlatTop(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			mustSet(t, c, x, 10, z, voxel.BlockStone)
		}
	}

	mesh := GenerateSurfaceMesh(c, SurfaceOptions{CellSize: 4})
	wantCells := 4 * 4
	if got := len(mesh.Vertices); got != wantCells*4 {
		t.Fatalf("flat top: got %d vertices, want %d (one quad per cell)", got, wantCells*4)
	}
	for _, v := range mesh.Vertices {
		if v.Position.Y() != 11 {
			t.Fatalf("expected every top quad at y=11 (top block + 1), got %v", v.Position.Y())
		}
	}
}

func TestGenerateSurfaceMeshEmptyChunk(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	mesh := GenerateSurfaceMesh(c, SurfaceOptions{CellSize: 4})
	if len(mesh.Vertices) != 0 {
		t.Fatalf("expected no quads for an all-air chunk, got %d vertices", len(mesh.Vertices))
	}
}

func TestGenerateSurfaceMeshSkirtsAddGeometry(t *testing.T) {
	c := voxel.NewChunk(0, 0)
	mustSet(t, c, 0, 10, 0, voxel.BlockStone)

	without := GenerateSurfaceMesh(c, SurfaceOptions{CellSize: 16, EmitSkirts: false})
	with := GenerateSurfaceMesh(c, SurfaceOptions{CellSize: 16, EmitSkirts: true, SkirtDepth: DefaultSkirtDepth})

	if len(with.Vertices) <= len(without.Vertices) {
		t.Fatalf("expected skirts to add geometry: without=%d with=%d", len(without.Vertices), len(with.Vertices))
	}
}

func TestGenerateSurfaceMeshNilChunk(t *testing.T) {
	mesh := GenerateSurfaceMesh(nil, SurfaceOptions{CellSize: 4})
	if len(mesh.Vertices) != 0 {
		t.Fatalf("expected empty mesh for nil chunk")
	}
}
