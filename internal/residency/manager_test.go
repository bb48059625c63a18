package residency

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/config"
	"chunkengine/internal/pipeline"
	"chunkengine/internal/spatial"
	"chunkengine/internal/store"
	"chunkengine/internal/voxel"
)

func testOptions() Options {
	return Options{
		ViewDistance:     4,
		AdmissionBudget:  3,
		AutosaveInterval: 2 * time.Second,
		MaintenanceBase:  5 * time.Minute,
		BackupCooldown:   0,
		BackupRetention:  3,
	}
}

func TestGetSetBlockWorldRoundTrip(t *testing.T) {
	m := New(nil, nil, testOptions(), nil)

	if got := m.GetBlockWorld(1, 2, 3); got != voxel.BlockAir {
		t.Fatalf("expected air for non-resident chunk, got %v", got)
	}

	c := voxel.NewChunk(0, 0)
	m.resident[spatial.ChunkCoord{CX: 0, CZ: 0}] = c

	if ok := m.SetBlockWorld(5, 10, 5, voxel.BlockStone); !ok {
		t.Fatalf("expected SetBlockWorld to succeed for a resident chunk")
	}
	if got := m.GetBlockWorld(5, 10, 5); got != voxel.BlockStone {
		t.Fatalf("expected stone after SetBlockWorld, got %v", got)
	}
	if !c.Modified() {
		t.Fatalf("expected chunk to be marked modified after SetBlockWorld")
	}

	if ok := m.SetBlockWorld(5, 500, 5, voxel.BlockStone); ok {
		t.Fatalf("expected SetBlockWorld to fail for an out-of-range Y")
	}
}

func TestAdmitFromBacklogRespectsBudget(t *testing.T) {
	m := New(nil, nil, Options{ViewDistance: 4, AdmissionBudget: 2}, nil)

	observer := spatial.ChunkCoord{CX: 0, CZ: 0}
	m.backlog = []pipeline.Result{
		{CX: 5, CZ: 0, Chunk: voxel.NewChunk(5, 0)},
		{CX: 1, CZ: 0, Chunk: voxel.NewChunk(1, 0)},
		{CX: 3, CZ: 0, Chunk: voxel.NewChunk(3, 0)},
		{CX: 2, CZ: 0, Chunk: voxel.NewChunk(2, 0)},
	}

	installed := m.admitFromBacklog(observer)
	if installed != 2 {
		t.Fatalf("expected 2 installs under budget, got %d", installed)
	}
	if len(m.backlog) != 2 {
		t.Fatalf("expected 2 entries to remain in backlog, got %d", len(m.backlog))
	}

	if _, ok := m.resident[spatial.ChunkCoord{CX: 1, CZ: 0}]; !ok {
		t.Fatalf("expected nearest candidate (cx=1) to be installed")
	}
	if _, ok := m.resident[spatial.ChunkCoord{CX: 2, CZ: 0}]; !ok {
		t.Fatalf("expected second-nearest candidate (cx=2) to be installed")
	}
	if _, ok := m.resident[spatial.ChunkCoord{CX: 5, CZ: 0}]; ok {
		t.Fatalf("did not expect farthest candidate (cx=5) to be installed yet")
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	root := t.TempDir()
	s, err := store.OpenWorld(root, "residency-test", store.OpenOptions{
		Seed:     7,
		ForceNew: true,
		Defaults: config.DefaultWorldOptions(),
	})
	if err != nil {
		t.Fatalf("OpenWorld: %v", err)
	}
	return s
}

// TestAutosaveTimerFiresExactlyOnce mirrors the autosave timer scenario: a
// 2s interval, one modified block, and a single advance past the interval
// must produce exactly one AutosaveSummary and leave the chunk unmodified.
func TestAutosaveTimerFiresExactlyOnce(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	opts := testOptions()
	m := New(nil, s, opts, nil)

	c := voxel.NewChunk(0, 0)
	m.resident[spatial.ChunkCoord{CX: 0, CZ: 0}] = c
	if err := c.SetBlock(0, 64, 0, voxel.BlockStone); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}

	result := m.Update(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 5*time.Second)

	if result.Autosave == nil {
		t.Fatalf("expected an autosave summary after advancing past the interval")
	}
	if result.Autosave.SavedCount != 1 || result.Autosave.ErrorCount != 0 {
		t.Fatalf("expected SavedCount=1 ErrorCount=0, got %+v", result.Autosave)
	}
	if result.Autosave.Reason != AutosaveTimer {
		t.Fatalf("expected AutosaveTimer reason, got %v", result.Autosave.Reason)
	}
	if c.Modified() {
		t.Fatalf("expected chunk to be unmodified after autosave")
	}

	loaded, err := s.LoadChunk(0, 0)
	if err != nil {
		t.Fatalf("LoadChunk after autosave: %v", err)
	}
	if got := loaded.MustGetBlock(0, 64, 0); got != voxel.BlockStone {
		t.Fatalf("expected persisted stone block, got %v", got)
	}
}

func TestEvictOutOfRangePersistsModifiedChunk(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	var evicted []spatial.ChunkCoord
	m := New(nil, s, Options{ViewDistance: 2, AdmissionBudget: 3}, func(cx, cz int32) {
		evicted = append(evicted, spatial.ChunkCoord{CX: cx, CZ: cz})
	})

	far := spatial.ChunkCoord{CX: 100, CZ: 100}
	c := voxel.NewChunk(far.CX, far.CZ)
	m.resident[far] = c
	if err := c.SetBlock(0, 70, 0, voxel.BlockStone); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}

	m.Update(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 0)

	if _, ok := m.Resident(far.CX, far.CZ); ok {
		t.Fatalf("expected out-of-range chunk to be evicted")
	}
	if len(evicted) != 1 || evicted[0] != far {
		t.Fatalf("expected onEvict to fire once for %+v, got %+v", far, evicted)
	}

	loaded, err := s.LoadChunk(far.CX, far.CZ)
	if err != nil {
		t.Fatalf("expected evicted modified chunk to be persisted: %v", err)
	}
	if got := loaded.MustGetBlock(0, 70, 0); got != voxel.BlockStone {
		t.Fatalf("expected persisted stone block, got %v", got)
	}
}

func TestUnloadAllClearsResidencyAndPersists(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	m := New(nil, s, testOptions(), nil)
	c := voxel.NewChunk(9, 9)
	m.resident[spatial.ChunkCoord{CX: 9, CZ: 9}] = c
	if err := c.SetBlock(0, 10, 0, voxel.BlockStone); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}

	if err := m.UnloadAll(); err != nil {
		t.Fatalf("UnloadAll: %v", err)
	}
	if m.ResidentCount() != 0 {
		t.Fatalf("expected residency to be empty after UnloadAll, got %d", m.ResidentCount())
	}

	loaded, err := s.LoadChunk(9, 9)
	if err != nil {
		t.Fatalf("expected modified chunk to be persisted by UnloadAll: %v", err)
	}
	if got := loaded.MustGetBlock(0, 10, 0); got != voxel.BlockStone {
		t.Fatalf("expected persisted stone block, got %v", got)
	}
}
