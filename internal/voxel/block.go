package voxel

// BlockType is a tagged value drawn from the engine's closed block set.
type BlockType uint8

const (
	BlockAir BlockType = iota
	BlockDirt
	BlockGrass
	BlockStone
	BlockWater
	BlockSand

	numBlockTypes
)

// blockNames backs BlockType.String and BlockTypeByName.
var blockNames = [numBlockTypes]string{
	BlockAir:   "air",
	BlockDirt:  "dirt",
	BlockGrass: "grass",
	BlockStone: "stone",
	BlockWater: "water",
	BlockSand:  "sand",
}

// String returns the canonical lowercase name of the block type.
func (b BlockType) String() string {
	if int(b) < len(blockNames) {
		return blockNames[b]
	}
	return "unknown"
}

// BlockTypeByName resolves a block's canonical name back to its BlockType.
func BlockTypeByName(name string) (BlockType, bool) {
	for i, n := range blockNames {
		if n == name {
			return BlockType(i), true
		}
	}
	return BlockAir, false
}

// IsSolid reports whether the block type occupies physical space. Air and
// water are the only non-solid members of the closed set.
func (b BlockType) IsSolid() bool {
	return b != BlockAir && b != BlockWater
}

// BlockFace names one of a block's six exposed faces.
type BlockFace uint8

const (
	FaceNorth BlockFace = iota // +Z
	FaceSouth                  // -Z
	FaceEast                   // +X
	FaceWest                   // -X
	FaceTop                    // +Y
	FaceBottom                 // -Y
)
