package frame

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/config"
	"chunkengine/internal/spatial"
	"chunkengine/internal/voxel"
)

func identityFrustum() spatial.Frustum {
	return spatial.NewFrustum(mgl32.Ident4())
}

func solidChunk(cx, cz int32) *voxel.Chunk {
	c := voxel.NewChunk(cx, cz)
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			_ = c.SetBlock(x, 10, z, voxel.BlockStone)
		}
	}
	c.ClearModified()
	return c
}

func TestNextLODHysteresisThresholds(t *testing.T) {
	cases := []struct {
		previous LOD
		distSq   float64
		want     LOD
	}{
		{Full, 100, Full},
		{Full, 1.1*medSq + 1, SurfaceMedium},
		{Full, 1.1*farSq + 1, SurfaceFar},
		{SurfaceMedium, 1.1*farSq + 1, SurfaceFar},
		{SurfaceMedium, 0.85*medSq - 1, Full},
		{SurfaceMedium, medSq, SurfaceMedium}, // inside the hysteresis band: stays put
		{SurfaceFar, 0.85*medSq - 1, Full},
		{SurfaceFar, 0.8*farSq - 1, SurfaceMedium},
		{SurfaceFar, farSq, SurfaceFar},
	}
	for _, c := range cases {
		if got := NextLOD(c.previous, c.distSq); got != c.want {
			t.Errorf("NextLOD(%v, %v) = %v, want %v", c.previous, c.distSq, got, c.want)
		}
	}
}

func TestComposeFrameFirstPassGeneratesAndSelects(t *testing.T) {
	cp := NewComposer()
	resident := []ResidentChunk{{Coord: spatial.ChunkCoord{CX: 0, CZ: 0}, Chunk: solidChunk(0, 0)}}

	stats := cp.ComposeFrame(resident, identityFrustum(), mgl32.Vec3{8, 0, 8}, 3)

	if stats.Regenerations != 1 {
		t.Fatalf("expected 1 regeneration on first pass, got %d", stats.Regenerations)
	}
	if stats.RenderedChunks != 1 {
		t.Fatalf("expected 1 rendered chunk, got %d", stats.RenderedChunks)
	}
	if !stats.Changed {
		t.Fatalf("expected Changed=true on first pass")
	}
	if stats.TotalVertices == 0 {
		t.Fatalf("expected non-zero combined vertices")
	}
}

func TestComposeFrameSecondPassNoRegenerationWhenUnmodified(t *testing.T) {
	cp := NewComposer()
	resident := []ResidentChunk{{Coord: spatial.ChunkCoord{CX: 0, CZ: 0}, Chunk: solidChunk(0, 0)}}

	cp.ComposeFrame(resident, identityFrustum(), mgl32.Vec3{8, 0, 8}, 3)
	stats := cp.ComposeFrame(resident, identityFrustum(), mgl32.Vec3{8, 0, 8}, 3)

	if stats.Regenerations != 0 {
		t.Fatalf("expected no regeneration on unmodified second pass, got %d", stats.Regenerations)
	}
	if stats.Changed {
		t.Fatalf("expected Changed=false when selection is unchanged")
	}
}

func TestComposeFrameRegeneratesWhenChunkModifiedAgain(t *testing.T) {
	cp := NewComposer()
	c := solidChunk(0, 0)
	resident := []ResidentChunk{{Coord: spatial.ChunkCoord{CX: 0, CZ: 0}, Chunk: c}}

	cp.ComposeFrame(resident, identityFrustum(), mgl32.Vec3{8, 0, 8}, 3)

	if err := c.SetBlock(0, 0, 0, voxel.BlockStone); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	stats := cp.ComposeFrame(resident, identityFrustum(), mgl32.Vec3{8, 0, 8}, 3)

	if stats.Regenerations != 1 {
		t.Fatalf("expected regeneration after modification, got %d", stats.Regenerations)
	}
}

func TestComposeFrameBudgetSkipBlocksRegeneration(t *testing.T) {
	cp := NewComposer()
	resident := []ResidentChunk{
		{Coord: spatial.ChunkCoord{CX: 0, CZ: 0}, Chunk: solidChunk(0, 0)},
		{Coord: spatial.ChunkCoord{CX: -1, CZ: 0}, Chunk: solidChunk(-1, 0)},
	}

	// allowMeshesThisFrame=1 permits only the nearer chunk to regenerate.
	stats := cp.ComposeFrame(resident, identityFrustum(), mgl32.Vec3{8, 0, 8}, 1)

	if stats.Regenerations != 1 {
		t.Fatalf("expected exactly 1 regeneration under a budget of 1, got %d", stats.Regenerations)
	}
	if stats.BudgetSkipped != 1 {
		t.Fatalf("expected 1 budget-skipped chunk, got %d", stats.BudgetSkipped)
	}
	if stats.RenderedChunks != 1 {
		t.Fatalf("expected 1 rendered chunk, got %d", stats.RenderedChunks)
	}
}

func TestComposeFrameRenderChunkCapSkipsAdmission(t *testing.T) {
	original := config.GetMaxRenderChunks()
	config.SetMaxRenderChunks(1)
	defer config.SetMaxRenderChunks(original)

	cp := NewComposer()
	resident := []ResidentChunk{
		{Coord: spatial.ChunkCoord{CX: 0, CZ: 0}, Chunk: solidChunk(0, 0)},
		{Coord: spatial.ChunkCoord{CX: -1, CZ: 0}, Chunk: solidChunk(-1, 0)},
	}

	stats := cp.ComposeFrame(resident, identityFrustum(), mgl32.Vec3{8, 0, 8}, 3)

	if stats.RenderedChunks != 1 {
		t.Fatalf("expected render-chunk cap to admit only 1 chunk, got %d", stats.RenderedChunks)
	}
	if stats.BudgetSkipped != 1 {
		t.Fatalf("expected 1 chunk skipped by the render-chunk cap, got %d", stats.BudgetSkipped)
	}
}

func TestComposeFrameCullsOutOfFrustumChunks(t *testing.T) {
	cp := NewComposer()
	resident := []ResidentChunk{{Coord: spatial.ChunkCoord{CX: 0, CZ: 0}, Chunk: solidChunk(0, 0)}}

	// Translating clip space 1000 units along +X puts the frustum's right
	// plane at x <= -999, so the chunk at the origin lies wholly outside it.
	frustum := spatial.NewFrustum(mgl32.Translate3D(1000, 0, 0))
	stats := cp.ComposeFrame(resident, frustum, mgl32.Vec3{8, 0, 8}, 3)

	if stats.CulledChunks != 1 {
		t.Fatalf("expected 1 culled chunk, got %d", stats.CulledChunks)
	}
	if stats.RenderedChunks != 0 {
		t.Fatalf("expected 0 rendered chunks when culled, got %d", stats.RenderedChunks)
	}
}
