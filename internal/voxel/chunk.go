package voxel

import (
	"errors"

	"chunkengine/internal/spatial"
)

// ErrOutOfBounds is returned by bounds-checked local block access when any
// coordinate lies outside the chunk's S x S x H volume.
var ErrOutOfBounds = errors.New("voxel: coordinate out of bounds")

const (
	sizeX = spatial.ChunkSize
	sizeZ = spatial.ChunkSize
	sizeY = spatial.ChunkHeight

	// sectionHeight and numSections divide the 256-tall column into 16
	// lazily-allocated 16x16x16 sections, the same memory trick the teacher's
	// internal/world/chunk.go Section type uses for its (cx,cy,cz)-addressed
	// chunks, adapted here to a single full-height column per (cx,cz).
	sectionHeight = 16
	numSections   = sizeY / sectionHeight
	sectionVolume = sizeX * sectionHeight * sizeZ
)

// section is a lazily-allocated 16x16x16 sub-volume of a Chunk.
type section struct {
	blocks     []BlockType
	blockCount int
}

// Chunk is a 16x16x256 voxel column identified by (cx, cz), with a modified
// flag, read by the mesh cache's staleness check, and a monotonically
// increasing content epoch exposed through Fingerprint (spec.md section 3:
// "Chunk" and "Mesh cache" invariants).
type Chunk struct {
	CX, CZ int32

	sections [numSections]*section

	modified bool
	epoch    uint64
}

// Fingerprint identifies the content version of a chunk. The frame
// composer's staleness check reads Chunk.Modified and does not compare
// fingerprints.
type Fingerprint struct {
	CX, CZ int32
	Epoch  uint64
}

// NewChunk returns a chunk at (cx, cz) filled with air.
func NewChunk(cx, cz int32) *Chunk {
	return &Chunk{CX: cx, CZ: cz}
}

func indexInSection(lx, localY, lz int) int {
	return lx*sectionHeight*sizeZ + localY*sizeZ + lz
}

func inBounds(lx, ly, lz int) bool {
	return lx >= 0 && lx < sizeX && ly >= 0 && ly < sizeY && lz >= 0 && lz < sizeZ
}

// GetBlock returns the block at local coordinates (lx, ly, lz). Out-of-range
// coordinates return BlockAir, ErrOutOfBounds (the OutOfBounds error kind of
// spec.md section 7, local and never surfaced past this call).
func (c *Chunk) GetBlock(lx, ly, lz int) (BlockType, error) {
	if !inBounds(lx, ly, lz) {
		return BlockAir, ErrOutOfBounds
	}
	sec := c.sections[ly/sectionHeight]
	if sec == nil {
		return BlockAir, nil
	}
	return sec.blocks[indexInSection(lx, ly%sectionHeight, lz)], nil
}

// MustGetBlock is GetBlock without the bounds-check error, returning air for
// any out-of-range coordinate — the form callers in the meshing and residency
// hot paths use once a coordinate is already known to be in-chunk or when air
// is an acceptable default for edge probes.
func (c *Chunk) MustGetBlock(lx, ly, lz int) BlockType {
	b, _ := c.GetBlock(lx, ly, lz)
	return b
}

// IsAir reports whether the local coordinate holds air (including out-of-range
// coordinates, which read as air).
func (c *Chunk) IsAir(lx, ly, lz int) bool {
	return c.MustGetBlock(lx, ly, lz) == BlockAir
}

// SetBlock sets the block at local coordinates (lx, ly, lz). modified is set
// to true only when the new value differs from the old one, and the epoch
// advances on that same transition (spec.md section 4.B).
func (c *Chunk) SetBlock(lx, ly, lz int, bt BlockType) error {
	if !inBounds(lx, ly, lz) {
		return ErrOutOfBounds
	}
	secIdx := ly / sectionHeight
	localY := ly % sectionHeight
	sec := c.sections[secIdx]

	if bt == BlockAir {
		if sec == nil {
			return nil
		}
		idx := indexInSection(lx, localY, lz)
		old := sec.blocks[idx]
		if old == BlockAir {
			return nil
		}
		sec.blocks[idx] = BlockAir
		sec.blockCount--
		c.markModified()
		if sec.blockCount == 0 {
			c.sections[secIdx] = nil
		}
		return nil
	}

	if sec == nil {
		sec = &section{blocks: make([]BlockType, sectionVolume)}
		c.sections[secIdx] = sec
	}
	idx := indexInSection(lx, localY, lz)
	old := sec.blocks[idx]
	if old == bt {
		return nil
	}
	sec.blocks[idx] = bt
	if old == BlockAir {
		sec.blockCount++
	}
	c.markModified()
	return nil
}

func (c *Chunk) markModified() {
	if !c.modified {
		c.epoch++
	}
	c.modified = true
}

// Modified reports whether the chunk has unsaved mutations.
func (c *Chunk) Modified() bool { return c.modified }

// ClearModified marks the chunk as persisted, clearing the modified flag
// without advancing the epoch (the epoch only tracks content versions, not
// save state).
func (c *Chunk) ClearModified() { c.modified = false }

// Fingerprint returns the chunk's current content version.
func (c *Chunk) Fingerprint() Fingerprint {
	return Fingerprint{CX: c.CX, CZ: c.CZ, Epoch: c.epoch}
}

// ForEachBlock visits every non-air block in the chunk with its local
// coordinates.
func (c *Chunk) ForEachBlock(fn func(lx, ly, lz int, bt BlockType)) {
	for secIdx, sec := range c.sections {
		if sec == nil {
			continue
		}
		base := secIdx * sectionHeight
		for lx := 0; lx < sizeX; lx++ {
			for ly := 0; ly < sectionHeight; ly++ {
				for lz := 0; lz < sizeZ; lz++ {
					bt := sec.blocks[indexInSection(lx, ly, lz)]
					if bt != BlockAir {
						fn(lx, base+ly, lz, bt)
					}
				}
			}
		}
	}
}

// Coord returns the chunk's (cx, cz) identity as a spatial.ChunkCoord.
func (c *Chunk) Coord() spatial.ChunkCoord {
	return spatial.ChunkCoord{CX: c.CX, CZ: c.CZ}
}
