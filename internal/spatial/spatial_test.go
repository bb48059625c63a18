package spatial

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFloorDivNegativeCoordinates(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{15, 16, 0},
		{16, 16, 1},
		{-1, 16, -1},
		{-16, 16, -1},
		{-17, 16, -2},
		{-32, 16, -2},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.want {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestModIsAlwaysNonNegative(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{15, 16, 15},
		{16, 16, 0},
		{-1, 16, 15},
		{-16, 16, 0},
		{-17, 16, 15},
	}
	for _, c := range cases {
		if got := Mod(c.a, c.b); got != c.want {
			t.Errorf("Mod(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestChunkCoordForBlockNegativeCoordinates(t *testing.T) {
	coord, lx, ly, lz := ChunkCoordForBlock(-1, 5, -17)
	if coord != (ChunkCoord{CX: -1, CZ: -2}) {
		t.Fatalf("expected chunk (-1,-2), got %+v", coord)
	}
	if lx != 15 || ly != 5 || lz != 15 {
		t.Fatalf("expected local (15,5,15), got (%d,%d,%d)", lx, ly, lz)
	}

	coord, lx, ly, lz = ChunkCoordForBlock(16, 0, 31)
	if coord != (ChunkCoord{CX: 1, CZ: 1}) {
		t.Fatalf("expected chunk (1,1), got %+v", coord)
	}
	if lx != 0 || ly != 0 || lz != 15 {
		t.Fatalf("expected local (0,0,15), got (%d,%d,%d)", lx, ly, lz)
	}
}

func TestWithinLInfRadius(t *testing.T) {
	center := ChunkCoord{CX: 0, CZ: 0}
	if !(ChunkCoord{CX: 3, CZ: -3}).WithinLInfRadius(center, 3) {
		t.Fatalf("expected (3,-3) within L-infinity radius 3 of origin")
	}
	if (ChunkCoord{CX: 4, CZ: 0}).WithinLInfRadius(center, 3) {
		t.Fatalf("expected (4,0) outside L-infinity radius 3 of origin")
	}
}

func TestAABBIntersectsAndContains(t *testing.T) {
	a := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{10, 10, 10}}
	b := AABB{Min: mgl32.Vec3{5, 5, 5}, Max: mgl32.Vec3{15, 15, 15}}
	if !a.Intersects(b) {
		t.Fatalf("expected overlapping boxes to intersect")
	}

	c := AABB{Min: mgl32.Vec3{20, 20, 20}, Max: mgl32.Vec3{30, 30, 30}}
	if a.Intersects(c) {
		t.Fatalf("expected disjoint boxes not to intersect")
	}

	inner := AABB{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{9, 9, 9}}
	if !a.ContainsAABB(inner) {
		t.Fatalf("expected a to contain inner")
	}
	if a.ContainsAABB(b) {
		t.Fatalf("expected a not to contain the partially-overlapping box b")
	}
}

func TestFrustumContainsAndRejects(t *testing.T) {
	// Looking down -Z from the origin; a standard right-handed perspective
	// frustum, the same construction cmd/voxelstream uses for culling.
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 100)
	frustum := NewFrustum(proj.Mul4(view))

	inView := AABB{Min: mgl32.Vec3{-1, -1, -11}, Max: mgl32.Vec3{1, 1, -9}}
	if !frustum.ContainsAABB(inView) {
		t.Fatalf("expected a box in front of the camera to be contained")
	}

	behind := AABB{Min: mgl32.Vec3{-1, -1, 9}, Max: mgl32.Vec3{1, 1, 11}}
	if frustum.ContainsAABB(behind) {
		t.Fatalf("expected a box behind the camera to be rejected")
	}

	farAway := AABB{Min: mgl32.Vec3{-1, -1, -1000}, Max: mgl32.Vec3{1, 1, -998}}
	if frustum.ContainsAABB(farAway) {
		t.Fatalf("expected a box beyond the far plane to be rejected")
	}
}
