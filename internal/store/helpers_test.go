package store

import (
	"os"
	"testing"
)

func readFileBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// corruptByteAt flips one byte in the file at the given offset, used to
// simulate single-byte on-disk corruption of a region file.
func corruptByteAt(t *testing.T, path string, offset int) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file to corrupt: %v", err)
	}
	if offset >= len(b) {
		t.Fatalf("corrupt offset %d out of range (file length %d)", offset, len(b))
	}
	b[offset] ^= 0xFF
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("writing corrupted file: %v", err)
	}
}
