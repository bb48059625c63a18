package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"chunkengine/internal/config"
)

// metadataFileName is the per-world record from spec.md section 4.D.
const metadataFileName = "world.meta"

// Metadata is the on-disk per-world record (spec.md section 3
// "World metadata"), serialized as YAML the way the teacher's asset/catalog
// files are human-readable rather than binary.
type Metadata struct {
	ID           string    `yaml:"id"`
	Name         string    `yaml:"name"`
	Seed         int64     `yaml:"seed"`
	CreatedAt    time.Time `yaml:"created_at"`
	LastPlayed   time.Time `yaml:"last_played"`
	Difficulty   string    `yaml:"difficulty"`
	Description  string    `yaml:"description"`
	Autosave     int       `yaml:"autosave_interval_seconds"`
	Retention    int       `yaml:"backup_retention"`
	Maintenance  int       `yaml:"maintenance_interval_seconds"`
	LastAutosave time.Time `yaml:"last_autosave_at"`
	LastBackup   time.Time `yaml:"last_backup_at"`
	Activity     float64   `yaml:"activity_score"`
}

// newMetadata builds a fresh record for a newly created world, stamping a
// stable UUID as its identity the way the teacher stamps asset IDs.
func newMetadata(name string, seed int64, opts config.WorldOptions, now time.Time) Metadata {
	return Metadata{
		ID:          uuid.NewString(),
		Name:        name,
		Seed:        seed,
		CreatedAt:   now,
		LastPlayed:  now,
		Difficulty:  opts.Difficulty.String(),
		Description: opts.Description,
		Autosave:    opts.AutosaveInterval,
		Retention:   opts.BackupRetention,
		Maintenance: opts.MaintenanceInterval,
	}
}

func (m Metadata) options() config.WorldOptions {
	d, err := config.ParseDifficulty(m.Difficulty)
	if err != nil {
		d = config.Normal
	}
	return config.WorldOptions{
		Difficulty:          d,
		Description:         m.Description,
		AutosaveInterval:    m.Autosave,
		BackupRetention:     m.Retention,
		MaintenanceInterval: m.Maintenance,
	}
}

func metadataPath(worldDir string) string {
	return filepath.Join(worldDir, metadataFileName)
}

func loadMetadata(worldDir string) (Metadata, error) {
	var m Metadata
	b, err := os.ReadFile(metadataPath(worldDir))
	if err != nil {
		return m, fmt.Errorf("store: reading world metadata: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("store: parsing world metadata: %w", err)
	}
	return m, nil
}

// saveMetadata writes the metadata record via the temp-file+rename
// discipline spec.md section 4.D requires for every metadata edit.
func saveMetadata(worldDir string, m Metadata) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("store: encoding world metadata: %w", err)
	}
	return atomicWriteFile(metadataPath(worldDir), b)
}

// atomicWriteFile writes to a temp file in the same directory and renames
// it over the destination, so a crash mid-write never corrupts the
// previously-committed file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: renaming temp file: %w", err)
	}
	return nil
}
