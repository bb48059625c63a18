package frame

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/config"
	"chunkengine/internal/meshing"
	"chunkengine/internal/spatial"
	"chunkengine/internal/voxel"
)

// tilesPerRow is the texture atlas' tiles-per-row, used by the tex-coord
// remap formula of spec.md section 4.H (tile_u = (tile_x + frac(u_raw)) /
// tiles_per_row). The spec names the formula but not an atlas layout, so a
// small square atlas sized to the closed block set is chosen here.
const tilesPerRow = 4

// baseColors gives each block type a flat base color, multiplied by the
// vertex AO factor during the composer's vertex remap.
var baseColors = map[voxel.BlockType]mgl32.Vec3{
	voxel.BlockDirt:  {0.55, 0.38, 0.20},
	voxel.BlockGrass: {0.30, 0.65, 0.25},
	voxel.BlockStone: {0.55, 0.55, 0.55},
	voxel.BlockSand:  {0.90, 0.85, 0.60},
	voxel.BlockWater: {0.20, 0.40, 0.80},
}

func baseColor(bt voxel.BlockType) mgl32.Vec3 {
	if c, ok := baseColors[bt]; ok {
		return c
	}
	return mgl32.Vec3{1, 1, 1}
}

func frac(v float32) float32 {
	return v - float32(math.Floor(float64(v)))
}

func tileIndex(bt voxel.BlockType) (tx, ty int) {
	idx := int(bt)
	return idx % tilesPerRow, idx / tilesPerRow
}

func remapUV(raw mgl32.Vec2, bt voxel.BlockType) mgl32.Vec2 {
	tx, ty := tileIndex(bt)
	u := (float32(tx) + frac(raw.X())) / tilesPerRow
	v := (float32(ty) + frac(raw.Y())) / tilesPerRow
	return mgl32.Vec2{u, v}
}

func chunkOrigin(coord spatial.ChunkCoord) mgl32.Vec3 {
	return mgl32.Vec3{float32(coord.CX * spatial.ChunkSize), 0, float32(coord.CZ * spatial.ChunkSize)}
}

// buildRenderVertices converts a meshing.Mesh's renderer-agnostic vertices
// into world-space, atlas-remapped, AO-colored RenderVertex values.
func buildRenderVertices(mesh *meshing.Mesh, coord spatial.ChunkCoord) []RenderVertex {
	origin := chunkOrigin(coord)
	out := make([]RenderVertex, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		out[i] = RenderVertex{
			Position: v.Position.Add(origin),
			Normal:   v.Normal,
			UV:       remapUV(v.TexCoord, v.Block),
			Color:    baseColor(v.Block).Mul(v.AO),
		}
	}
	return out
}

// ResidentChunk is the minimal view of a resident chunk the composer needs;
// callers (typically the residency manager's ForEachResident) build a slice
// of these once per frame.
type ResidentChunk struct {
	Coord spatial.ChunkCoord
	Chunk *voxel.Chunk
}

// MeshStats reports one ComposeFrame call's outcome, per spec.md section 4.H
// step 7.
type MeshStats struct {
	Changed        bool
	TotalChunks    int
	VisibleChunks  int
	RenderedChunks int
	CulledChunks   int
	BudgetSkipped  int
	TotalVertices  int
	TotalIndices   int
	FullChunks     int
	MediumChunks   int
	FarChunks      int
	Regenerations  int
}

// Composer is the per-frame mesh selector and combined-buffer builder of
// spec.md section 4.H. It owns the mesh cache and the per-chunk LOD history
// (hysteresis state) across frames.
type Composer struct {
	cache        *MeshCache
	previousLOD  map[spatial.ChunkCoord]LOD
	combinedVert []RenderVertex
	combinedIdx  []uint32
}

// NewComposer returns an empty Composer.
func NewComposer() *Composer {
	return &Composer{
		cache:       NewMeshCache(),
		previousLOD: make(map[spatial.ChunkCoord]LOD),
	}
}

// CombinedBuffers returns the most recently built combined vertex/index
// stream, unchanged since the last ComposeFrame call that reported Changed.
func (cp *Composer) CombinedBuffers() ([]RenderVertex, []uint32) {
	return cp.combinedVert, cp.combinedIdx
}

type composerCandidate struct {
	coord  spatial.ChunkCoord
	chunk  *voxel.Chunk
	distSq float64
}

// ComposeFrame runs one full selection pass: frustum cull, distance sort,
// LOD assignment, budgeted regeneration, budgeted admission, cache sweep,
// and (if anything changed) a combined-buffer rebuild.
func (cp *Composer) ComposeFrame(resident []ResidentChunk, frustum spatial.Frustum, cameraPos mgl32.Vec3, allowMeshesThisFrame int) MeshStats {
	wasSelected := make(map[spatial.ChunkCoord]bool, cp.cache.Len())
	for k, e := range cp.cache.entries {
		if e.Selected {
			wasSelected[k] = true
		}
	}
	cp.cache.beginFrame()

	var stats MeshStats
	stats.TotalChunks = len(resident)

	candidates := make([]composerCandidate, 0, len(resident))
	for _, rc := range resident {
		aabb := spatial.ChunkColumnAABB(rc.Coord).Expand(2)
		if !frustum.ContainsAABB(aabb) {
			stats.CulledChunks++
			continue
		}
		center := mgl32.Vec2{
			float32(rc.Coord.CX*spatial.ChunkSize + spatial.ChunkSize/2),
			float32(rc.Coord.CZ*spatial.ChunkSize + spatial.ChunkSize/2),
		}
		dx := float64(center.X() - cameraPos.X())
		dz := float64(center.Y() - cameraPos.Z())
		candidates = append(candidates, composerCandidate{coord: rc.Coord, chunk: rc.Chunk, distSq: dx*dx + dz*dz})
	}
	stats.VisibleChunks = len(candidates)

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distSq < candidates[j].distSq })

	changed := false
	meshesGenerated := 0

	var renderedVerts, renderedIdx int

	for _, cand := range candidates {
		previous, ok := cp.previousLOD[cand.coord]
		if !ok {
			previous = Full
		}
		target := NextLOD(previous, cand.distSq)
		cp.previousLOD[cand.coord] = target

		entry, exists := cp.cache.entries[cand.coord]
		if !exists {
			entry = &CacheEntry{Detail: lodUnset}
			cp.cache.entries[cand.coord] = entry
			changed = true
		}

		needsRegen := cand.chunk.Modified() || entry.Detail == lodUnset || entry.Detail != target

		if needsRegen {
			if meshesGenerated < allowMeshesThisFrame {
				scratch := entry.Scratch()
				var mesh *meshing.Mesh
				switch target {
				case Full:
					mesh = meshing.GenerateMeshInto(cand.chunk, scratch)
				case SurfaceMedium:
					mesh = meshing.GenerateSurfaceMeshInto(cand.chunk, meshing.SurfaceOptions{CellSize: 4, EmitSkirts: true, SkirtDepth: meshing.DefaultSkirtDepth}, scratch)
				case SurfaceFar:
					mesh = meshing.GenerateSurfaceMeshInto(cand.chunk, meshing.SurfaceOptions{CellSize: 16, EmitSkirts: true, SkirtDepth: meshing.DefaultSkirtDepth}, scratch)
				}
				entry.Vertices = buildRenderVertices(mesh, cand.coord)
				entry.Indices = mesh.Indices
				entry.Detail = target
				meshesGenerated++
				stats.Regenerations++
				changed = true
			} else {
				entry.InUse = true
				stats.BudgetSkipped++
				continue
			}
		}

		entry.InUse = true

		wouldVerts := renderedVerts + len(entry.Vertices)
		wouldIdx := renderedIdx + len(entry.Indices)
		wouldCount := stats.RenderedChunks + 1
		if wouldCount > config.GetMaxRenderChunks() || wouldVerts > config.GetMaxVertexBudget() || wouldIdx > config.GetMaxIndexBudget() {
			entry.Selected = false
			stats.BudgetSkipped++
			continue
		}

		entry.Selected = true
		renderedVerts = wouldVerts
		renderedIdx = wouldIdx
		stats.RenderedChunks++
		switch target {
		case Full:
			stats.FullChunks++
		case SurfaceMedium:
			stats.MediumChunks++
		case SurfaceFar:
			stats.FarChunks++
		}
	}

	for k, e := range cp.cache.entries {
		if e.Selected != wasSelected[k] {
			changed = true
		}
	}

	if cp.cache.sweep() > 0 {
		changed = true
	}

	if changed || len(cp.combinedVert) == 0 {
		cp.rebuildCombined(resident)
		stats.Changed = true
	}
	stats.TotalVertices = len(cp.combinedVert)
	stats.TotalIndices = len(cp.combinedIdx)

	return stats
}

// rebuildCombined concatenates every selected entry's buffers, rebasing
// indices by the running vertex count, in the order chunks were passed in
// (the residency set's own iteration order).
func (cp *Composer) rebuildCombined(resident []ResidentChunk) {
	cp.combinedVert = cp.combinedVert[:0]
	cp.combinedIdx = cp.combinedIdx[:0]

	for _, rc := range resident {
		entry, ok := cp.cache.entries[rc.Coord]
		if !ok || !entry.Selected {
			continue
		}
		base := uint32(len(cp.combinedVert))
		cp.combinedVert = append(cp.combinedVert, entry.Vertices...)
		for _, idx := range entry.Indices {
			cp.combinedIdx = append(cp.combinedIdx, idx+base)
		}
	}
}
