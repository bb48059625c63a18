package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/voxel"
)

// DefaultSkirtDepth is how far a surface-LOD skirt quad drops below the
// local minimum height, addressing the hard-coded 0.05 offset the original
// left as an open question: named here instead of inlined at the call site.
const DefaultSkirtDepth = 0.05

// SurfaceOptions configures GenerateSurfaceMesh.
type SurfaceOptions struct {
	CellSize   int
	EmitSkirts bool
	SkirtDepth float32
}

// columnTop returns the Y of the tallest solid block in column (x, z) and
// its block type, or (-1, BlockAir) if the column is entirely air.
func columnTop(c *voxel.Chunk, x, z int) (int, voxel.BlockType) {
	for y := sizeY - 1; y >= 0; y-- {
		bt := c.MustGetBlock(x, y, z)
		if bt.IsSolid() {
			return y, bt
		}
	}
	return -1, voxel.BlockAir
}

// cellHeight is the representative top height of a cell: the tallest column
// within it, used both for the cell's own quad and as a neighbor sample for
// finite-difference slope.
func cellHeight(c *voxel.Chunk, cellX, cellZ, cellSize int) (int, voxel.BlockType) {
	best := -1
	var bestType voxel.BlockType
	x0, z0 := cellX*cellSize, cellZ*cellSize
	for x := x0; x < x0+cellSize && x < sizeX; x++ {
		for z := z0; z < z0+cellSize && z < sizeZ; z++ {
			h, bt := columnTop(c, x, z)
			if h > best {
				best = h
				bestType = bt
			}
		}
	}
	return best, bestType
}

// GenerateSurfaceMesh builds a coarse, cell-quantized mesh for distant
// chunks (spec.md section 4.G). It has no teacher analog: cellSize groups
// the chunk's XZ plane into square cells, each contributing one top quad at
// its tallest column's height, with a finite-difference slope across
// neighboring cells driving the quad's normal for smooth cross-cell shading.
// When opts.EmitSkirts is set, vertical skirt quads seal the mesh down to
// the local minimum so adjacent LOD levels don't show gaps.
func GenerateSurfaceMesh(c *voxel.Chunk, opts SurfaceOptions) *Mesh {
	return GenerateSurfaceMeshInto(c, opts, &Mesh{})
}

// GenerateSurfaceMeshInto builds the surface-LOD mesh the same way
// GenerateSurfaceMesh does, but reuses m's backing arrays (via m.reset())
// instead of allocating a fresh Mesh — see GenerateMeshInto.
func GenerateSurfaceMeshInto(c *voxel.Chunk, opts SurfaceOptions, m *Mesh) *Mesh {
	m.reset()
	if c == nil {
		return m
	}
	cellSize := opts.CellSize
	if cellSize < 1 {
		cellSize = 1
	}
	cellsPerSide := (sizeX + cellSize - 1) / cellSize

	heights := make([][]int, cellsPerSide)
	types := make([][]voxel.BlockType, cellsPerSide)
	for cx := 0; cx < cellsPerSide; cx++ {
		heights[cx] = make([]int, cellsPerSide)
		types[cx] = make([]voxel.BlockType, cellsPerSide)
		for cz := 0; cz < cellsPerSide; cz++ {
			h, bt := cellHeight(c, cx, cz, cellSize)
			heights[cx][cz] = h
			types[cx][cz] = bt
		}
	}

	sampleHeight := func(cx, cz int) float32 {
		if cx < 0 {
			cx = 0
		}
		if cx >= cellsPerSide {
			cx = cellsPerSide - 1
		}
		if cz < 0 {
			cz = 0
		}
		if cz >= cellsPerSide {
			cz = cellsPerSide - 1
		}
		h := heights[cx][cz]
		if h < 0 {
			return 0
		}
		return float32(h + 1)
	}

	localMin := 0
	first := true
	for cx := 0; cx < cellsPerSide; cx++ {
		for cz := 0; cz < cellsPerSide; cz++ {
			if heights[cx][cz] < 0 {
				continue
			}
			if first || heights[cx][cz] < localMin {
				localMin = heights[cx][cz]
				first = false
			}
		}
	}

	for cx := 0; cx < cellsPerSide; cx++ {
		for cz := 0; cz < cellsPerSide; cz++ {
			h := heights[cx][cz]
			if h < 0 {
				continue
			}
			bt := types[cx][cz]
			top := float32(h + 1)

			x0, z0 := float32(cx*cellSize), float32(cz*cellSize)
			x1 := x0 + float32(cellSize)
			z1 := z0 + float32(cellSize)

			hl := sampleHeight(cx-1, cz)
			hr := sampleHeight(cx+1, cz)
			hd := sampleHeight(cx, cz-1)
			hu := sampleHeight(cx, cz+1)
			normal := mgl32.Vec3{hl - hr, 2, hd - hu}.Normalize()

			corners := [4]mgl32.Vec3{
				{x0, top, z0},
				{x0, top, z1},
				{x1, top, z1},
				{x1, top, z0},
			}
			m.emitQuad(corners, normal, quadUV(cellSize, cellSize), fullAO, bt)

			if opts.EmitSkirts {
				depth := opts.SkirtDepth
				if depth == 0 {
					depth = DefaultSkirtDepth
				}
				bottom := float32(localMin) - depth

				skirt := func(a, b mgl32.Vec3, n mgl32.Vec3) {
					corners := [4]mgl32.Vec3{
						{a.X(), top, a.Z()},
						{a.X(), bottom, a.Z()},
						{b.X(), bottom, b.Z()},
						{b.X(), top, b.Z()},
					}
					m.emitQuad(corners, n, quadUV(cellSize, 1), fullAO, bt)
				}
				skirt(mgl32.Vec3{x0, 0, z0}, mgl32.Vec3{x1, 0, z0}, mgl32.Vec3{0, 0, -1})
				skirt(mgl32.Vec3{x1, 0, z0}, mgl32.Vec3{x1, 0, z1}, mgl32.Vec3{1, 0, 0})
				skirt(mgl32.Vec3{x1, 0, z1}, mgl32.Vec3{x0, 0, z1}, mgl32.Vec3{0, 0, 1})
				skirt(mgl32.Vec3{x0, 0, z1}, mgl32.Vec3{x0, 0, z0}, mgl32.Vec3{-1, 0, 0})

				underCorners := [4]mgl32.Vec3{
					{x0, bottom, z0},
					{x1, bottom, z0},
					{x1, bottom, z1},
					{x0, bottom, z1},
				}
				m.emitQuad(underCorners, mgl32.Vec3{0, -1, 0}, quadUV(cellSize, cellSize), fullAO, bt)
			}
		}
	}

	return m
}
