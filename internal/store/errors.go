package store

import "errors"

// Typed error kinds from spec.md section 7. Errors are sentinel values
// wrapped with context via fmt.Errorf("...: %w", ...) at call sites, the
// same discipline the teacher's internal/world code uses for I/O failures.
var (
	// ErrWorldAlreadyExists is returned by OpenWorld when forceNew is set
	// and the world directory already exists.
	ErrWorldAlreadyExists = errors.New("store: world already exists")

	// ErrSeedMismatch is returned by OpenWorld when a caller-provided seed
	// disagrees with the seed recorded in an existing world's metadata.
	ErrSeedMismatch = errors.New("store: seed does not match existing world")

	// ErrInvalidWorldName is returned for empty or path-traversal-prone
	// world names.
	ErrInvalidWorldName = errors.New("store: invalid world name")

	// ErrCorrupt is returned by LoadChunk when the stored CRC32C does not
	// match the decoded block stream.
	ErrCorrupt = errors.New("store: region payload failed CRC32C check")

	// ErrChunkNotFound is returned by LoadChunk when the requested slot has
	// no present chunk.
	ErrChunkNotFound = errors.New("store: chunk not present in region")

	// ErrNoBackups is returned by RestoreBackup when a region has no
	// rotated backups to restore from.
	ErrNoBackups = errors.New("store: no backups available for region")
)
