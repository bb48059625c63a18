package voxel

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	c := NewChunk(3, -7)
	if err := c.SetBlock(1, 64, 2, BlockStone); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	got, err := c.GetBlock(1, 64, 2)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if got != BlockStone {
		t.Fatalf("got %v, want %v", got, BlockStone)
	}
	if !c.Modified() {
		t.Fatalf("expected modified after differing SetBlock")
	}
}

func TestSetBlockSameValueLeavesUnmodified(t *testing.T) {
	c := NewChunk(0, 0)
	c.ClearModified()
	if err := c.SetBlock(0, 0, 0, BlockAir); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if c.Modified() {
		t.Fatalf("setting air-on-air should not mark modified")
	}
}

func TestOutOfBoundsAccess(t *testing.T) {
	c := NewChunk(0, 0)
	if _, err := c.GetBlock(-1, 0, 0); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := c.SetBlock(16, 0, 0, BlockStone); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestFingerprintAdvancesOnModification(t *testing.T) {
	c := NewChunk(0, 0)
	fp0 := c.Fingerprint()
	c.SetBlock(0, 0, 0, BlockStone)
	fp1 := c.Fingerprint()
	if fp1.Epoch == fp0.Epoch {
		t.Fatalf("epoch did not advance after modification")
	}
	c.ClearModified()
	c.SetBlock(0, 0, 0, BlockStone) // no-op, same value
	fp2 := c.Fingerprint()
	if fp2.Epoch != fp1.Epoch {
		t.Fatalf("epoch advanced without a content change")
	}
}

func TestColumnRoundTripAllStoneLayer(t *testing.T) {
	c := NewChunk(3, -7)
	for x := 0; x < sizeX; x++ {
		for z := 0; z < sizeZ; z++ {
			if err := c.SetBlock(x, 64, z, BlockStone); err != nil {
				t.Fatalf("SetBlock(%d,64,%d): %v", x, z, err)
			}
		}
	}
	count := 0
	c.ForEachBlock(func(lx, ly, lz int, bt BlockType) {
		count++
		if ly != 64 || bt != BlockStone {
			t.Fatalf("unexpected block at (%d,%d,%d): %v", lx, ly, lz, bt)
		}
	})
	if count != sizeX*sizeZ {
		t.Fatalf("got %d non-air blocks, want %d", count, sizeX*sizeZ)
	}
}

func TestSectionFreedWhenEmptied(t *testing.T) {
	c := NewChunk(0, 0)
	c.SetBlock(0, 0, 0, BlockStone)
	if c.sections[0] == nil {
		t.Fatalf("expected section to be allocated")
	}
	c.SetBlock(0, 0, 0, BlockAir)
	if c.sections[0] != nil {
		t.Fatalf("expected section to be freed once emptied")
	}
}
