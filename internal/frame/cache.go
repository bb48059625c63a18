package frame

import (
	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/meshing"
	"chunkengine/internal/spatial"
)

// RenderVertex is the GPU-ready vertex format the composer emits: world
// position, normal, atlas-remapped tex-coord, and a base color already
// multiplied by the vertex's ambient-occlusion factor.
type RenderVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Color    mgl32.Vec3
}

// CacheEntry is one chunk's meshed buffers at a given detail level, plus the
// mark-and-sweep flags the composer uses to decide what survives a frame.
type CacheEntry struct {
	Detail   LOD
	Vertices []RenderVertex
	Indices  []uint32
	InUse    bool
	Selected bool

	// scratch is this chunk's own reusable meshing.Mesh, handed to
	// meshing.GenerateMeshInto/GenerateSurfaceMeshInto on every
	// regeneration so its backing arrays are reset and reused rather than
	// reallocated each time the composer rebuilds this entry.
	scratch *meshing.Mesh
}

// Scratch lazily allocates and returns this entry's reusable mesh buffer.
func (e *CacheEntry) Scratch() *meshing.Mesh {
	if e.scratch == nil {
		e.scratch = &meshing.Mesh{}
	}
	return e.scratch
}

// MeshCache maps resident chunk coordinates to their cached mesh entry.
// Modeled on the teacher's chunkMeshes map and its mark-and-sweep prune
// cycle (internal/graphics/renderables/blocks/meshing.go).
type MeshCache struct {
	entries map[spatial.ChunkCoord]*CacheEntry
}

// NewMeshCache returns an empty cache.
func NewMeshCache() *MeshCache {
	return &MeshCache{entries: make(map[spatial.ChunkCoord]*CacheEntry)}
}

// beginFrame clears every entry's transient flags ahead of a new selection pass.
func (mc *MeshCache) beginFrame() {
	for _, e := range mc.entries {
		e.InUse = false
		e.Selected = false
	}
}

// sweep removes every entry whose InUse flag was never set true this frame,
// returning how many were dropped.
func (mc *MeshCache) sweep() int {
	removed := 0
	for k, e := range mc.entries {
		if !e.InUse {
			delete(mc.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports how many entries the cache currently holds.
func (mc *MeshCache) Len() int { return len(mc.entries) }
