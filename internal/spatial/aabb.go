package spatial

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// FromCenter builds an AABB centered at center with the given half-extents.
func FromCenter(center mgl32.Vec3, halfExtent mgl32.Vec3) AABB {
	return AABB{
		Min: center.Sub(halfExtent),
		Max: center.Add(halfExtent),
	}
}

// Expand grows the box by margin blocks in every direction, matching the 2-block
// margin the composer applies before frustum testing (spec.md section 4.H step 2).
func (b AABB) Expand(margin float32) AABB {
	m := mgl32.Vec3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Intersects reports whether two AABBs overlap on every axis.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y() &&
		b.Min.Z() <= o.Max.Z() && b.Max.Z() >= o.Min.Z()
}

// ContainsAABB reports whether o lies entirely within b.
func (b AABB) ContainsAABB(o AABB) bool {
	return o.Min.X() >= b.Min.X() && o.Max.X() <= b.Max.X() &&
		o.Min.Y() >= b.Min.Y() && o.Max.Y() <= b.Max.Y() &&
		o.Min.Z() >= b.Min.Z() && o.Max.Z() <= b.Max.Z()
}

// Corners returns the eight corners of the box, used by frustum-culling tests.
func (b AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}
}

// ChunkColumnAABB returns the world-space AABB of a full 16x256x16 chunk column.
func ChunkColumnAABB(c ChunkCoord) AABB {
	minX := float32(c.CX) * ChunkSize
	minZ := float32(c.CZ) * ChunkSize
	return AABB{
		Min: mgl32.Vec3{minX, 0, minZ},
		Max: mgl32.Vec3{minX + ChunkSize, ChunkHeight, minZ + ChunkSize},
	}
}
