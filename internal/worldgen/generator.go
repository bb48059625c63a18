// Package worldgen implements the terrain generator contract of spec.md
// section 4.C: a pure function of (seed, x, z) producing column heights,
// biomes, and fully-populated chunks, safe for unsynchronized concurrent use.
package worldgen

import (
	"math"

	"chunkengine/internal/spatial"
	"chunkengine/internal/voxel"
)

// SeaLevel is the fixed world Y below which Ocean biome columns fill with
// water.
const SeaLevel = 48

// TerrainGenerator is the contract the async generation pipeline depends
// on: a pure function of (seed, x, z), with no
// hidden state, so any number of pipeline workers can call it concurrently.
type TerrainGenerator interface {
	HeightAt(seed int64, bx, bz int32) int32
	BiomeAt(seed int64, bx, bz int32) Biome
	GenerateChunk(seed int64, cx, cz int32) *voxel.Chunk
}

// Generator is the TerrainGenerator implementation. Every field is set once
// at construction and never mutated afterward, so a single Generator can be
// shared across every pipeline worker with no locking.
type Generator struct {
	scale       float64
	baseHeight  float64
	amplitude   float64
	octaves     int
	persistence float64
	lacunarity  float64

	biomeScale float64

	caveScale     float64
	caveThreshold float64
	caveMaxDepth  int
}

// NewGenerator builds a Generator using the teacher's
// internal/world/generator.go defaults, retuned to this engine's 256-tall
// columns and closed block set.
func NewGenerator() *Generator {
	return &Generator{
		scale:         1.0 / 96.0,
		baseHeight:    float64(SeaLevel) + 16,
		amplitude:     40,
		octaves:       4,
		persistence:   0.5,
		lacunarity:    2.0,
		biomeScale:    1.0 / 300.0,
		caveScale:     1.0 / 24.0,
		caveThreshold: 0.6,
		caveMaxDepth:  40,
	}
}

// HeightAt computes the deterministic surface height (block Y) at world
// (bx, bz) for the given world seed.
func (g *Generator) HeightAt(seed int64, bx, bz int32) int32 {
	h, _ := g.sample(seed, bx, bz)
	return h
}

// BiomeAt returns the biome selected at world (bx, bz) for the given world
// seed.
func (g *Generator) BiomeAt(seed int64, bx, bz int32) Biome {
	_, b := g.sample(seed, bx, bz)
	return b
}

// sample computes both the height and biome in one noise evaluation so
// HeightAt/BiomeAt and GenerateChunk stay consistent with each other.
func (g *Generator) sample(seed int64, bx, bz int32) (int32, Biome) {
	x := float64(bx) * g.scale
	z := float64(bz) * g.scale

	n := g.octaveHeight(seed, x, z)
	selector := octaveNoise2D(float64(bx)*g.biomeScale+1000, float64(bz)*g.biomeScale+1000, seed+99, 2, 0.5, 2.0)
	biome := biomeFor(n, selector)

	heightWeight := n
	if heightWeight < biome.MinHeight {
		heightWeight = biome.MinHeight
	}
	if heightWeight > biome.MaxHeight {
		heightWeight = biome.MaxHeight
	}

	height := g.baseHeight + heightWeight*g.amplitude
	if biome.SeaLevel && height > SeaLevel-2 {
		height = SeaLevel - 2
	}
	if height < 1 {
		height = 1
	}
	if height > spatial.ChunkHeight-1 {
		height = spatial.ChunkHeight - 1
	}
	return int32(math.Floor(height)), biome
}

func (g *Generator) octaveHeight(seed int64, x, z float64) float64 {
	// octaveNoise2D returns [0,1]; remap to [-1,1] so biome height bands can
	// be negative (Ocean).
	return octaveNoise2D(x, z, seed, g.octaves, g.persistence, g.lacunarity)*2 - 1
}

// isCave reports whether world block (bx, by, bz) should be carved into a
// cavern void, modeled on the teacher's internal/world/density.go
// computeDensity (positive density = solid).
func (g *Generator) isCave(seed int64, bx, by, bz, surfaceHeight int32) bool {
	if by >= surfaceHeight-2 || int32(surfaceHeight)-by > int32(g.caveMaxDepth) {
		return false
	}
	if by < 2 {
		return false
	}
	nx := float64(bx) * g.caveScale
	ny := float64(by) * g.caveScale
	nz := float64(bz) * g.caveScale
	d := octaveNoise3D(nx, ny, nz, seed+7331, 3, 0.5, 2.0)
	return d > g.caveThreshold
}

// GenerateChunk builds and fully populates a chunk at (cx, cz) for the given
// world seed, matching the residency invariant that no partial chunk is ever
// observable: the chunk returned here has every column already filled before
// it is handed back to the pipeline.
func (g *Generator) GenerateChunk(seed int64, cx, cz int32) *voxel.Chunk {
	c := voxel.NewChunk(cx, cz)
	baseX := cx * spatial.ChunkSize
	baseZ := cz * spatial.ChunkSize

	for lx := 0; lx < spatial.ChunkSize; lx++ {
		for lz := 0; lz < spatial.ChunkSize; lz++ {
			bx := baseX + int32(lx)
			bz := baseZ + int32(lz)
			height, biome := g.sample(seed, bx, bz)

			for by := int32(0); by <= height; by++ {
				if by > 0 && g.isCave(seed, bx, by, bz, height) {
					continue
				}
				var bt voxel.BlockType
				switch {
				case by == 0:
					bt = voxel.BlockStone
				case by == height:
					bt = biome.TopBlock
				case by > height-4:
					bt = biome.FillerBlock
				default:
					bt = voxel.BlockStone
				}
				_ = c.SetBlock(lx, int(by), lz, bt)
			}

			if biome.SeaLevel {
				for by := height + 1; by <= SeaLevel; by++ {
					_ = c.SetBlock(lx, int(by), lz, voxel.BlockWater)
				}
			}
		}
	}
	c.ClearModified()
	return c
}
