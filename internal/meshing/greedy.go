package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/spatial"
	"chunkengine/internal/voxel"
)

// GenerateMesh builds the full-detail mesh for a chunk: per spec.md section
// 4.G, it slices the chunk along each of the three axes and both face
// directions, builds a 2D exposure mask per slice, and greedy-merges
// same-block-type runs into maximal rectangles.
//
// Chunk boundaries are treated as unconditionally exposed — this mesher
// never looks at neighboring chunks, reproducing the teacher's own
// cross-chunk double-face-emission rather than fixing it (see DESIGN.md).
func GenerateMesh(c *voxel.Chunk) *Mesh {
	return GenerateMeshInto(c, &Mesh{})
}

// GenerateMeshInto builds the full-detail mesh the same way GenerateMesh
// does, but reuses m's backing vertex/index arrays (via m.reset()) rather
// than allocating a fresh Mesh. The frame cache's per-chunk scratch mesh
// is the intended caller, avoiding allocator churn on the hot regeneration
// path (spec.md section 9, arena/index patterns).
func GenerateMeshInto(c *voxel.Chunk, m *Mesh) *Mesh {
	m.reset()
	if c == nil {
		return m
	}

	meshAxisX(c, m, +1)
	meshAxisX(c, m, -1)
	meshAxisY(c, m, +1)
	meshAxisY(c, m, -1)
	meshAxisZ(c, m, +1)
	meshAxisZ(c, m, -1)
	return m
}

const (
	sizeX = spatial.ChunkSize
	sizeY = spatial.ChunkHeight
	sizeZ = spatial.ChunkSize
)

// exposed reports whether the face of block (x,y,z) facing (dx,dy,dz) should
// be drawn: the neighbor is non-solid, or lies outside the chunk.
func exposed(c *voxel.Chunk, x, y, z, dx, dy, dz int) bool {
	nx, ny, nz := x+dx, y+dy, z+dz
	if nx < 0 || nx >= sizeX || ny < 0 || ny >= sizeY || nz < 0 || nz >= sizeZ {
		return true
	}
	return !c.MustGetBlock(nx, ny, nz).IsSolid()
}

// quadUV returns the four corner tex-coords for a w x h quad, scaled with
// quad size so the composer's atlas remap sees the correct tile repetition.
func quadUV(w, h int) [4]mgl32.Vec2 {
	fw, fh := float32(w), float32(h)
	return [4]mgl32.Vec2{{0, 0}, {fw, 0}, {fw, fh}, {0, fh}}
}

var fullAO = [4]float32{1, 1, 1, 1}

func meshAxisX(c *voxel.Chunk, m *Mesh, dir int) {
	normal := mgl32.Vec3{float32(dir), 0, 0}
	mask := make([]voxel.BlockType, sizeY*sizeZ)

	for x := 0; x < sizeX; x++ {
		for i := range mask {
			mask[i] = voxel.BlockAir
		}
		for y := 0; y < sizeY; y++ {
			for z := 0; z < sizeZ; z++ {
				bt := c.MustGetBlock(x, y, z)
				if !bt.IsSolid() {
					continue
				}
				if exposed(c, x, y, z, dir, 0, 0) {
					mask[y*sizeZ+z] = bt
				}
			}
		}

		faceX := x
		if dir > 0 {
			faceX++
		}

		i := 0
		for i < len(mask) {
			bt := mask[i]
			if bt == voxel.BlockAir {
				i++
				continue
			}
			y0, z0 := i/sizeZ, i%sizeZ

			width := 1
			for z0+width < sizeZ && mask[y0*sizeZ+z0+width] == bt {
				width++
			}
			height := 1
		growY:
			for y1 := y0 + 1; y1 < sizeY; y1++ {
				for z := z0; z < z0+width; z++ {
					if mask[y1*sizeZ+z] != bt {
						break growY
					}
				}
				height++
			}

			fx := float32(faceX)
			var corners [4]mgl32.Vec3
			if dir > 0 {
				corners = [4]mgl32.Vec3{
					{fx, float32(y0), float32(z0)},
					{fx, float32(y0 + height), float32(z0)},
					{fx, float32(y0 + height), float32(z0 + width)},
					{fx, float32(y0), float32(z0 + width)},
				}
			} else {
				corners = [4]mgl32.Vec3{
					{fx, float32(y0), float32(z0)},
					{fx, float32(y0), float32(z0 + width)},
					{fx, float32(y0 + height), float32(z0 + width)},
					{fx, float32(y0 + height), float32(z0)},
				}
			}
			m.emitQuad(corners, normal, quadUV(width, height), fullAO, bt)

			for y := y0; y < y0+height; y++ {
				for z := z0; z < z0+width; z++ {
					mask[y*sizeZ+z] = voxel.BlockAir
				}
			}
		}
	}
}

func meshAxisY(c *voxel.Chunk, m *Mesh, dir int) {
	normal := mgl32.Vec3{0, float32(dir), 0}
	mask := make([]voxel.BlockType, sizeX*sizeZ)

	for y := 0; y < sizeY; y++ {
		for i := range mask {
			mask[i] = voxel.BlockAir
		}
		for x := 0; x < sizeX; x++ {
			for z := 0; z < sizeZ; z++ {
				bt := c.MustGetBlock(x, y, z)
				if !bt.IsSolid() {
					continue
				}
				if exposed(c, x, y, z, 0, dir, 0) {
					mask[x*sizeZ+z] = bt
				}
			}
		}

		faceY := y
		if dir > 0 {
			faceY++
		}

		i := 0
		for i < len(mask) {
			bt := mask[i]
			if bt == voxel.BlockAir {
				i++
				continue
			}
			x0, z0 := i/sizeZ, i%sizeZ

			width := 1
			for z0+width < sizeZ && mask[x0*sizeZ+z0+width] == bt {
				width++
			}
			height := 1
		growX:
			for x1 := x0 + 1; x1 < sizeX; x1++ {
				for z := z0; z < z0+width; z++ {
					if mask[x1*sizeZ+z] != bt {
						break growX
					}
				}
				height++
			}

			fy := float32(faceY)
			var corners [4]mgl32.Vec3
			if dir > 0 {
				corners = [4]mgl32.Vec3{
					{float32(x0), fy, float32(z0)},
					{float32(x0), fy, float32(z0 + width)},
					{float32(x0 + height), fy, float32(z0 + width)},
					{float32(x0 + height), fy, float32(z0)},
				}
			} else {
				corners = [4]mgl32.Vec3{
					{float32(x0), fy, float32(z0)},
					{float32(x0 + height), fy, float32(z0)},
					{float32(x0 + height), fy, float32(z0 + width)},
					{float32(x0), fy, float32(z0 + width)},
				}
			}
			m.emitQuad(corners, normal, quadUV(height, width), fullAO, bt)

			for x := x0; x < x0+height; x++ {
				for z := z0; z < z0+width; z++ {
					mask[x*sizeZ+z] = voxel.BlockAir
				}
			}
		}
	}
}

func meshAxisZ(c *voxel.Chunk, m *Mesh, dir int) {
	normal := mgl32.Vec3{0, 0, float32(dir)}
	mask := make([]voxel.BlockType, sizeX*sizeY)

	for z := 0; z < sizeZ; z++ {
		for i := range mask {
			mask[i] = voxel.BlockAir
		}
		for x := 0; x < sizeX; x++ {
			for y := 0; y < sizeY; y++ {
				bt := c.MustGetBlock(x, y, z)
				if !bt.IsSolid() {
					continue
				}
				if exposed(c, x, y, z, 0, 0, dir) {
					mask[x*sizeY+y] = bt
				}
			}
		}

		faceZ := z
		if dir > 0 {
			faceZ++
		}

		i := 0
		for i < len(mask) {
			bt := mask[i]
			if bt == voxel.BlockAir {
				i++
				continue
			}
			x0, y0 := i/sizeY, i%sizeY

			width := 1
			for y0+width < sizeY && mask[x0*sizeY+y0+width] == bt {
				width++
			}
			height := 1
		growXZ:
			for x1 := x0 + 1; x1 < sizeX; x1++ {
				for y := y0; y < y0+width; y++ {
					if mask[x1*sizeY+y] != bt {
						break growXZ
					}
				}
				height++
			}

			fz := float32(faceZ)
			var corners [4]mgl32.Vec3
			if dir > 0 {
				corners = [4]mgl32.Vec3{
					{float32(x0), float32(y0), fz},
					{float32(x0 + height), float32(y0), fz},
					{float32(x0 + height), float32(y0 + width), fz},
					{float32(x0), float32(y0 + width), fz},
				}
			} else {
				corners = [4]mgl32.Vec3{
					{float32(x0), float32(y0), fz},
					{float32(x0), float32(y0 + width), fz},
					{float32(x0 + height), float32(y0 + width), fz},
					{float32(x0 + height), float32(y0), fz},
				}
			}
			m.emitQuad(corners, normal, quadUV(height, width), fullAO, bt)

			for x := x0; x < x0+height; x++ {
				for y := y0; y < y0+width; y++ {
					mask[x*sizeY+y] = voxel.BlockAir
				}
			}
		}
	}
}
