package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// plane is ax + by + cz + d = 0, normalized so (a,b,c) is unit length.
type plane struct {
	a, b, c, d float32
}

// Frustum is the six clipping planes of a view-projection matrix, in the order
// left, right, bottom, top, near, far.
type Frustum struct {
	planes [6]plane
}

// NewFrustum extracts the six clip planes from a combined projection*view matrix
// using the standard Gribb-Hartmann method, the same derivation as the teacher's
// internal/graphics/renderables/blocks/frustum.go extractFrustumPlanes, exported
// here as an engine-agnostic type instead of a renderer-private helper.
func NewFrustum(viewProj mgl32.Mat4) Frustum {
	// mgl32 matrices are column-major; m[row+4*col].
	m00, m01, m02, m03 := viewProj[0], viewProj[4], viewProj[8], viewProj[12]
	m10, m11, m12, m13 := viewProj[1], viewProj[5], viewProj[9], viewProj[13]
	m20, m21, m22, m23 := viewProj[2], viewProj[6], viewProj[10], viewProj[14]
	m30, m31, m32, m33 := viewProj[3], viewProj[7], viewProj[11], viewProj[15]

	var f Frustum
	f.planes[0] = normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03}) // left
	f.planes[1] = normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03}) // right
	f.planes[2] = normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13}) // bottom
	f.planes[3] = normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13}) // top
	f.planes[4] = normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23}) // near
	f.planes[5] = normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23}) // far
	return f
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// ContainsAABB reports whether box is not fully outside any single plane — the
// conservative test required by spec.md invariant 5.
func (f Frustum) ContainsAABB(box AABB) bool {
	for _, p := range f.planes {
		px := box.Max.X()
		if p.a < 0 {
			px = box.Min.X()
		}
		py := box.Max.Y()
		if p.b < 0 {
			py = box.Min.Y()
		}
		pz := box.Max.Z()
		if p.c < 0 {
			pz = box.Min.Z()
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}
