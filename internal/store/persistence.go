package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"chunkengine/internal/config"
	"chunkengine/internal/voxel"
)

var validWorldName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _-]{0,63}$`)

// OpenOptions configures OpenWorld.
type OpenOptions struct {
	Seed      int64
	ForceSeed bool // when true, Seed is compared against the on-disk seed
	ForceNew  bool // when true, refuse if the world already exists
	Defaults  config.WorldOptions
}

// Store is a handle to one world's on-disk state: its metadata and its open
// region files, each behind its own lock (spec.md section 5 "Persistence
// holds per-region locks"). Modeled on the discopanel RegionManager's
// lazily-opened-region-cache pattern.
type Store struct {
	root string // worlds_root
	name string

	mu       sync.RWMutex
	meta     Metadata
	regions  map[string]*Region
	regionMu sync.Mutex // guards creation of new entries in `regions`
}

func worldDir(root, name string) string { return filepath.Join(root, name) }
func regionsDir(root, name string) string { return filepath.Join(worldDir(root, name), "regions") }
func backupsDir(root, name string) string { return filepath.Join(worldDir(root, name), "backups") }

// WorldExists reports whether a world directory with a metadata file exists
// under root.
func WorldExists(root, name string) bool {
	_, err := os.Stat(metadataPath(worldDir(root, name)))
	return err == nil
}

// ListWorlds returns the names of every world under root, sorted
// alphabetically.
func ListWorlds(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: listing worlds: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if WorldExists(root, e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// OpenWorld creates or opens a world at root/name, enforcing the
// ForceNew/SeedMismatch contract from spec.md section 4.D.
func OpenWorld(root, name string, opts OpenOptions) (*Store, error) {
	if !validWorldName.MatchString(name) {
		return nil, ErrInvalidWorldName
	}

	exists := WorldExists(root, name)
	if exists && opts.ForceNew {
		return nil, ErrWorldAlreadyExists
	}

	dir := worldDir(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating world directory: %w", err)
	}

	var meta Metadata
	if exists {
		m, err := loadMetadata(dir)
		if err != nil {
			return nil, err
		}
		if opts.ForceSeed && m.Seed != opts.Seed {
			return nil, ErrSeedMismatch
		}
		m.LastPlayed = now()
		meta = m
	} else {
		meta = newMetadata(name, opts.Seed, opts.Defaults, now())
	}

	if err := saveMetadata(dir, meta); err != nil {
		return nil, err
	}

	return &Store{
		root:    root,
		name:    name,
		meta:    meta,
		regions: make(map[string]*Region),
	}, nil
}

// now is a seam so tests could stub wall-clock time if ever needed; today it
// simply defers to the standard library.
func now() time.Time { return time.Now().UTC() }

// Metadata returns a copy of the world's current metadata record.
func (s *Store) Metadata() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Seed returns the world's seed.
func (s *Store) Seed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Seed
}

// Options returns the world's current settings as config.WorldOptions.
func (s *Store) Options() config.WorldOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.options()
}

func (s *Store) mutateMeta(fn func(*Metadata)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := s.meta
	fn(&updated)
	if err := saveMetadata(worldDir(s.root, s.name), updated); err != nil {
		return err
	}
	s.meta = updated
	return nil
}

// SetSeed updates the recorded seed (used only on an intentional reseed;
// OpenWorld enforces SeedMismatch for accidental disagreement).
func (s *Store) SetSeed(seed int64) error {
	return s.mutateMeta(func(m *Metadata) { m.Seed = seed })
}

// SetDifficulty edits the world's difficulty.
func (s *Store) SetDifficulty(d config.Difficulty) error {
	return s.mutateMeta(func(m *Metadata) { m.Difficulty = d.String() })
}

// SetDescription edits the world's free-text description.
func (s *Store) SetDescription(desc string) error {
	return s.mutateMeta(func(m *Metadata) { m.Description = desc })
}

// SetAutosaveInterval edits the autosave interval in seconds (0 disables).
func (s *Store) SetAutosaveInterval(seconds int) error {
	return s.mutateMeta(func(m *Metadata) {
		o := m.options()
		o.SetAutosaveInterval(seconds)
		m.Autosave = o.AutosaveInterval
	})
}

// SetBackupRetention edits the per-region backup retention count.
func (s *Store) SetBackupRetention(n int) error {
	return s.mutateMeta(func(m *Metadata) {
		o := m.options()
		o.SetBackupRetention(n)
		m.Retention = o.BackupRetention
	})
}

// ResetSettings restores every tunable to its default, keeping identity
// (name, seed, id, timestamps) untouched.
func (s *Store) ResetSettings() error {
	return s.mutateMeta(func(m *Metadata) {
		o := config.DefaultWorldOptions()
		m.Difficulty = o.Difficulty.String()
		m.Description = o.Description
		m.Autosave = o.AutosaveInterval
		m.Retention = o.BackupRetention
		m.Maintenance = o.MaintenanceInterval
	})
}

// RecordActivity adds delta to the cumulative activity score and persists
// the metadata record.
func (s *Store) RecordActivity(delta float64) error {
	return s.mutateMeta(func(m *Metadata) { m.Activity += delta })
}

// RecordAutosave stamps the last-autosave timestamp.
func (s *Store) RecordAutosave(t time.Time) error {
	return s.mutateMeta(func(m *Metadata) { m.LastAutosave = t })
}

// RecordBackup stamps the last-backup timestamp.
func (s *Store) RecordBackup(t time.Time) error {
	return s.mutateMeta(func(m *Metadata) { m.LastBackup = t })
}

// RenameWorld moves a world directory to a new name, rejecting the rename if
// the destination already exists.
func RenameWorld(root, oldName, newName string) error {
	if !validWorldName.MatchString(newName) {
		return ErrInvalidWorldName
	}
	if WorldExists(root, newName) {
		return ErrWorldAlreadyExists
	}
	oldDir := worldDir(root, oldName)
	newDir := worldDir(root, newName)
	if err := os.Rename(oldDir, newDir); err != nil {
		return fmt.Errorf("store: renaming world: %w", err)
	}
	m, err := loadMetadata(newDir)
	if err != nil {
		return err
	}
	m.Name = newName
	return saveMetadata(newDir, m)
}

func (s *Store) regionFor(cx, cz int32) (*Region, error) {
	rx, rz := RegionCoord(cx, cz)
	key := fmt.Sprintf("%d,%d", rx, rz)

	s.regionMu.Lock()
	defer s.regionMu.Unlock()

	if r, ok := s.regions[key]; ok {
		return r, nil
	}
	path := filepath.Join(regionsDir(s.root, s.name), RegionFileName(rx, rz))
	r, err := OpenOrCreateRegion(path)
	if err != nil {
		return nil, err
	}
	s.regions[key] = r
	return r, nil
}

// SaveChunk persists a modified chunk to its region file.
func (s *Store) SaveChunk(c *voxel.Chunk) error {
	r, err := s.regionFor(c.CX, c.CZ)
	if err != nil {
		return err
	}
	return r.SaveChunk(c)
}

// LoadChunk loads a chunk from its region file, or reports ErrChunkNotFound
// if it was never saved.
func (s *Store) LoadChunk(cx, cz int32) (*voxel.Chunk, error) {
	r, err := s.regionFor(cx, cz)
	if err != nil {
		return nil, err
	}
	return r.LoadChunk(cx, cz)
}

// RegionPathFor returns the on-disk path of the region file covering (cx,
// cz), used by the residency manager's maintenance scheduler to enqueue
// backup rotations for touched regions.
func (s *Store) RegionPathFor(cx, cz int32) string {
	rx, rz := RegionCoord(cx, cz)
	return filepath.Join(regionsDir(s.root, s.name), RegionFileName(rx, rz))
}

// BackupsDir returns the world's backups directory.
func (s *Store) BackupsDir() string { return backupsDir(s.root, s.name) }

// RestoreRegionBackup restores the region covering (cx, cz) from its most
// recent backup, closing and evicting any open handle first so the next
// LoadChunk reopens the restored file from disk (spec.md scenario 6).
func (s *Store) RestoreRegionBackup(cx, cz int32) error {
	rx, rz := RegionCoord(cx, cz)
	key := fmt.Sprintf("%d,%d", rx, rz)
	path := s.RegionPathFor(cx, cz)

	s.regionMu.Lock()
	if r, ok := s.regions[key]; ok {
		r.Close()
		delete(s.regions, key)
	}
	s.regionMu.Unlock()

	return RestoreBackup(path, s.BackupsDir())
}

// RotateRegionBackup rotates a backup for the region covering (cx, cz).
func (s *Store) RotateRegionBackup(cx, cz int32, stamp int64) error {
	retention := s.Options().BackupRetention
	return RotateBackup(s.RegionPathFor(cx, cz), s.BackupsDir(), retention, stamp)
}

// Close closes every open region file.
func (s *Store) Close() error {
	s.regionMu.Lock()
	defer s.regionMu.Unlock()
	var lastErr error
	for _, r := range s.regions {
		if err := r.Close(); err != nil {
			lastErr = err
		}
	}
	s.regions = make(map[string]*Region)
	return lastErr
}
