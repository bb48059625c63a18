package worldgen

import "chunkengine/internal/voxel"

// Biome describes a terrain archetype selected by a decorrelated noise
// channel and blended by height, modeled on the teacher's
// internal/world/biome.go Biome struct.
type Biome struct {
	ID          int
	Name        string
	MinHeight   float64 // height-noise weight floor
	MaxHeight   float64 // height-noise weight ceiling
	TopBlock    voxel.BlockType
	FillerBlock voxel.BlockType
	SeaLevel    bool // true for biomes whose surface is capped by water (Ocean)
}

var (
	BiomePlains = Biome{ID: 1, Name: "plains", MinHeight: 0.10, MaxHeight: 0.20, TopBlock: voxel.BlockGrass, FillerBlock: voxel.BlockDirt}
	BiomeForest = Biome{ID: 2, Name: "forest", MinHeight: 0.12, MaxHeight: 0.22, TopBlock: voxel.BlockGrass, FillerBlock: voxel.BlockDirt}
	BiomeHills  = Biome{ID: 3, Name: "hills", MinHeight: 0.30, MaxHeight: 0.55, TopBlock: voxel.BlockGrass, FillerBlock: voxel.BlockDirt}
	BiomeDesert = Biome{ID: 4, Name: "desert", MinHeight: 0.08, MaxHeight: 0.18, TopBlock: voxel.BlockSand, FillerBlock: voxel.BlockSand}
	BiomeOcean  = Biome{ID: 5, Name: "ocean", MinHeight: -0.25, MaxHeight: -0.05, TopBlock: voxel.BlockSand, FillerBlock: voxel.BlockSand, SeaLevel: true}
)

// biomeTable lists the five biomes in ascending MinHeight order. biomeFor
// selects with its own switch and does not read this table.
var biomeTable = []Biome{BiomeOcean, BiomeDesert, BiomePlains, BiomeForest, BiomeHills}

// biomeFor selects a biome from a [-1,1] height-weight value and a [0,1]
// moisture-like selector value that disambiguates between biomes sharing a
// height band (Plains vs. Desert vs. Forest).
func biomeFor(heightWeight, selector float64) Biome {
	switch {
	case heightWeight < BiomeOcean.MaxHeight:
		return BiomeOcean
	case heightWeight < BiomePlains.MaxHeight:
		if selector < 0.35 {
			return BiomeDesert
		}
		if selector < 0.7 {
			return BiomePlains
		}
		return BiomeForest
	default:
		return BiomeHills
	}
}
