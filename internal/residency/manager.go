package residency

import (
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"chunkengine/internal/config"
	"chunkengine/internal/pipeline"
	"chunkengine/internal/spatial"
	"chunkengine/internal/store"
	"chunkengine/internal/voxel"
)

// Options configures a Manager. Durations are expressed directly (rather
// than raw seconds) so callers never have to remember the unit.
type Options struct {
	ViewDistance     int32
	AdmissionBudget  int
	AutosaveInterval time.Duration // 0 disables autosave
	MaintenanceBase  time.Duration // starting maintenance cadence
	BackupCooldown   time.Duration
	BackupRetention  int
}

// OptionsForWorld derives Manager options from a world's persisted settings.
func OptionsForWorld(opts config.WorldOptions) Options {
	return Options{
		ViewDistance:     int32(opts.Difficulty.ViewDistance()),
		AdmissionBudget:  opts.Difficulty.AdmissionBudget(),
		AutosaveInterval: time.Duration(opts.AutosaveInterval) * time.Second,
		MaintenanceBase:  time.Duration(opts.MaintenanceInterval) * time.Second,
		BackupCooldown:   120 * time.Second,
		BackupRetention:  opts.BackupRetention,
	}
}

const (
	maintenanceMin       = 30 * time.Second
	maintenanceMax       = 30 * time.Minute
	activityEvictWeight  = 1.0
	activitySaveWeight   = 0.5
	activityDecay        = 0.98
	maintenanceThreshold = 20.0
)

// OnEvictFunc, when passed to New, is called synchronously whenever a chunk is evicted
// from residency, before its mesh-cache entry (owned by the frame package)
// would need to be dropped.
type OnEvictFunc func(cx, cz int32)

// Manager is the residency manager. It owns the resident chunk set
// exclusively; every other package borrows chunks only during a call into
// this package's accessor methods or right after a GenerateChunk/LoadChunk
// hand-off from the pipeline.
type Manager struct {
	mu sync.Mutex // guards resident/inFlight/backlog against the block-accessor fast path

	pipeline *pipeline.Pipeline
	persist  *store.Store
	opts     Options
	onEvict  OnEvictFunc

	resident map[spatial.ChunkCoord]*voxel.Chunk
	inFlight map[spatial.ChunkCoord]struct{}
	backlog  []pipeline.Result

	autosaveAccum     time.Duration
	maintenanceAccum  time.Duration
	maintenancePeriod time.Duration
	activityScore     float64
	touchedRegions    map[[2]int32]struct{}
	lastBackupAt      map[[2]int32]time.Time
}

// New builds a Manager. persist may be nil for an ephemeral world with
// autosave and maintenance both effectively disabled.
func New(p *pipeline.Pipeline, persist *store.Store, opts Options, onEvict OnEvictFunc) *Manager {
	if opts.MaintenanceBase <= 0 {
		opts.MaintenanceBase = 5 * time.Minute
	}
	return &Manager{
		pipeline:          p,
		persist:           persist,
		opts:              opts,
		onEvict:           onEvict,
		resident:          make(map[spatial.ChunkCoord]*voxel.Chunk),
		inFlight:          make(map[spatial.ChunkCoord]struct{}),
		maintenancePeriod: opts.MaintenanceBase,
		touchedRegions:    make(map[[2]int32]struct{}),
		lastBackupAt:      make(map[[2]int32]time.Time),
	}
}

// ResidentCount returns the number of currently resident chunks.
func (m *Manager) ResidentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resident)
}

// InFlightCount returns the number of candidates enqueued or being generated
// that have not yet been installed into residency, for the CLI's
// pending_generations profile-log column.
func (m *Manager) InFlightCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inFlight)
}

// InstallSync installs an already-produced chunk directly into residency,
// bypassing the async pipeline entirely. The CLI uses this once at startup
// to populate a small spawn area synchronously for a smooth first frame,
// the same shortcut the teacher's StreamChunksAroundSync takes before
// handing streaming over to the worker pool.
func (m *Manager) InstallSync(c *voxel.Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := spatial.ChunkCoord{CX: c.CX, CZ: c.CZ}
	m.resident[key] = c
	delete(m.inFlight, key)
}

// Resident returns the chunk at (cx, cz) if resident.
func (m *Manager) Resident(cx, cz int32) (*voxel.Chunk, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.resident[spatial.ChunkCoord{CX: cx, CZ: cz}]
	return c, ok
}

// ForEachResident visits every resident chunk. fn must not mutate the
// residency set.
func (m *Manager) ForEachResident(fn func(coord spatial.ChunkCoord, c *voxel.Chunk)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, c := range m.resident {
		fn(k, c)
	}
}

// GetBlockWorld returns the block at world (bx, by, bz), or air when the
// owning chunk is non-resident, vertically out of range, or local access
// fails (spec.md section 4.F "Block accessor contract").
func (m *Manager) GetBlockWorld(bx, by, bz int) voxel.BlockType {
	if by < 0 || by >= spatial.ChunkHeight {
		return voxel.BlockAir
	}
	coord, lx, ly, lz := spatial.ChunkCoordForBlock(bx, by, bz)

	m.mu.Lock()
	c, ok := m.resident[coord]
	m.mu.Unlock()
	if !ok {
		return voxel.BlockAir
	}
	return c.MustGetBlock(lx, ly, lz)
}

// SetBlockWorld sets the block at world (bx, by, bz), returning false under
// the same conditions GetBlockWorld returns air for. On success, the owning
// chunk's modified flag is set (via Chunk.SetBlock).
func (m *Manager) SetBlockWorld(bx, by, bz int, bt voxel.BlockType) bool {
	if by < 0 || by >= spatial.ChunkHeight {
		return false
	}
	coord, lx, ly, lz := spatial.ChunkCoordForBlock(bx, by, bz)

	m.mu.Lock()
	c, ok := m.resident[coord]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return c.SetBlock(lx, ly, lz, bt) == nil
}

// Update runs one residency pass: drains the pipeline's backlog of completed
// results, admits as many as the per-call budget allows, enqueues new
// candidates for the ideal set around the observer, evicts out-of-range
// chunks, and ticks the autosave and maintenance schedulers.
func (m *Manager) Update(observerPos mgl32.Vec3, front mgl32.Vec3, dt time.Duration) UpdateResult {
	m.drainResults()

	observerChunk := spatial.ChunkCoord{
		CX: int32(spatial.FloorDiv(int(observerPos.X()), spatial.ChunkSize)),
		CZ: int32(spatial.FloorDiv(int(observerPos.Z()), spatial.ChunkSize)),
	}

	m.enqueueIdealSet(observerChunk, observerPos, front)

	installed := m.admitFromBacklog(observerChunk)
	evicted := m.evictOutOfRange(observerChunk)

	var result UpdateResult
	result.Installed = installed
	result.Evicted = evicted
	if m.pipeline != nil {
		result.QueuedCandidates = m.pipeline.PendingCandidates()
	}

	result.Autosave = m.tickAutosave(dt)
	result.BackupsRotated = m.tickMaintenance(dt)

	return result
}

// drainResults pulls every currently-available pipeline result into the
// manager's backlog without blocking. Installation into residency happens
// later, budget-limited, in admitFromBacklog.
func (m *Manager) drainResults() {
	if m.pipeline == nil {
		return
	}
	for {
		select {
		case r, ok := <-m.pipeline.Results():
			if !ok {
				return
			}
			m.mu.Lock()
			m.backlog = append(m.backlog, r)
			m.mu.Unlock()
		default:
			return
		}
	}
}

// admitFromBacklog installs up to opts.AdmissionBudget backlog entries,
// nearest to the observer first, into the residency set.
func (m *Manager) admitFromBacklog(observerChunk spatial.ChunkCoord) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.backlog) == 0 {
		return 0
	}
	sort.Slice(m.backlog, func(i, j int) bool {
		ci := spatial.ChunkCoord{CX: m.backlog[i].CX, CZ: m.backlog[i].CZ}
		cj := spatial.ChunkCoord{CX: m.backlog[j].CX, CZ: m.backlog[j].CZ}
		return ci.DistSq2(observerChunk) < cj.DistSq2(observerChunk)
	})

	budget := m.opts.AdmissionBudget
	if budget <= 0 || budget > len(m.backlog) {
		budget = len(m.backlog)
	}

	installed := 0
	for i := 0; i < budget; i++ {
		r := m.backlog[i]
		key := spatial.ChunkCoord{CX: r.CX, CZ: r.CZ}
		m.resident[key] = r.Chunk
		delete(m.inFlight, key)
		installed++
	}
	m.backlog = append([]pipeline.Result(nil), m.backlog[budget:]...)
	return installed
}

// enqueueIdealSet requests generation for every ideal-set key that is
// neither resident nor already in flight, ordered nearest-first with a
// mild forward-bias tie-break.
func (m *Manager) enqueueIdealSet(observerChunk spatial.ChunkCoord, observerPos, front mgl32.Vec3) {
	if m.pipeline == nil {
		return
	}
	vd := m.opts.ViewDistance

	m.mu.Lock()
	defer m.mu.Unlock()

	for dx := -vd; dx <= vd; dx++ {
		for dz := -vd; dz <= vd; dz++ {
			key := spatial.ChunkCoord{CX: observerChunk.CX + dx, CZ: observerChunk.CZ + dz}
			if _, resident := m.resident[key]; resident {
				continue
			}
			if _, inFlight := m.inFlight[key]; inFlight {
				continue
			}

			distSq := key.DistSq2(observerChunk)
			centerX := float32(key.CX*spatial.ChunkSize + spatial.ChunkSize/2)
			centerZ := float32(key.CZ*spatial.ChunkSize + spatial.ChunkSize/2)
			toCenter := mgl32.Vec2{centerX - observerPos.X(), centerZ - observerPos.Z()}
			dot := toCenter.X()*front.X() + toCenter.Y()*front.Z()
			biased := distSq
			if dot > 0 {
				biased-- // mild forward-bias tie-break: prefer keys ahead of the observer
			}

			if m.pipeline.Enqueue(key.CX, key.CZ, biased) {
				m.inFlight[key] = struct{}{}
			}
		}
	}
}

// evictOutOfRange removes every resident chunk outside the hysteresis band
// (view distance + 1), persisting modified chunks first, and reports how
// many were evicted.
func (m *Manager) evictOutOfRange(observerChunk spatial.ChunkCoord) int {
	band := m.opts.ViewDistance + 1

	m.mu.Lock()
	var toEvict []spatial.ChunkCoord
	for key := range m.resident {
		if !key.WithinLInfRadius(observerChunk, band) {
			toEvict = append(toEvict, key)
		}
	}
	m.mu.Unlock()

	for _, key := range toEvict {
		m.evictOne(key)
	}
	return len(toEvict)
}

// evictOne persists a chunk if modified and removes it from residency. It
// is also used, unconditionally, by UnloadAll.
func (m *Manager) evictOne(key spatial.ChunkCoord) {
	m.mu.Lock()
	c, ok := m.resident[key]
	if ok {
		delete(m.resident, key)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if c.Modified() && m.persist != nil {
		if err := m.persist.SaveChunk(c); err == nil {
			c.ClearModified()
			m.markActivity(activitySaveWeight)
			m.touchRegion(key)
		}
	}
	m.markActivity(activityEvictWeight)

	if m.onEvict != nil {
		m.onEvict(key.CX, key.CZ)
	}
}

func (m *Manager) touchRegion(key spatial.ChunkCoord) {
	if m.persist == nil {
		return
	}
	rx, rz := store.RegionCoord(key.CX, key.CZ)
	m.touchedRegions[[2]int32{rx, rz}] = struct{}{}
}

func (m *Manager) markActivity(delta float64) {
	m.activityScore = m.activityScore*activityDecay + delta
}

// tickAutosave accumulates dt and, once the configured interval is crossed,
// persists every modified resident chunk exactly once, returning a single
// summary (never more than one per call, per spec.md section 9).
func (m *Manager) tickAutosave(dt time.Duration) *AutosaveSummary {
	if m.opts.AutosaveInterval <= 0 || m.persist == nil {
		return nil
	}
	m.autosaveAccum += dt
	if m.autosaveAccum < m.opts.AutosaveInterval {
		return nil
	}
	m.autosaveAccum = 0

	start := time.Now()
	var saved, failed int
	m.ForEachResident(func(coord spatial.ChunkCoord, c *voxel.Chunk) {
		if !c.Modified() {
			return
		}
		if err := m.persist.SaveChunk(c); err != nil {
			failed++
			return
		}
		c.ClearModified()
		saved++
		m.touchRegion(coord)
	})
	m.markActivity(float64(saved) * activitySaveWeight)

	return &AutosaveSummary{
		SavedCount: saved,
		ErrorCount: failed,
		Duration:   time.Since(start),
		Reason:     AutosaveTimer,
	}
}

// tickMaintenance advances the adaptive maintenance scheduler and, when due
// and the per-region backup cooldown has elapsed, rotates backups for every
// region touched since the last maintenance pass.
func (m *Manager) tickMaintenance(dt time.Duration) []string {
	if m.persist == nil {
		return nil
	}

	// Higher recent activity shortens the interval, clamped to [30s, 30m].
	factor := 1.0 / (1.0 + m.activityScore/maintenanceThreshold)
	period := time.Duration(float64(m.opts.MaintenanceBase) * factor)
	if period < maintenanceMin {
		period = maintenanceMin
	}
	if period > maintenanceMax {
		period = maintenanceMax
	}
	m.maintenancePeriod = period

	m.maintenanceAccum += dt
	if m.maintenanceAccum < m.maintenancePeriod {
		return nil
	}
	if m.activityScore < maintenanceThreshold {
		// Not active enough to warrant a rotation pass yet; keep accumulating.
		return nil
	}
	m.maintenanceAccum = 0

	now := time.Now()
	var rotated []string
	for region := range m.touchedRegions {
		if last, ok := m.lastBackupAt[region]; ok && now.Sub(last) < m.opts.BackupCooldown {
			continue
		}
		// Any chunk coordinate inside the region identifies it to RotateRegionBackup.
		cx := region[0] * store.ChunksPerRegion
		cz := region[1] * store.ChunksPerRegion
		if err := m.persist.RotateRegionBackup(cx, cz, now.Unix()); err == nil {
			rotated = append(rotated, store.RegionFileName(region[0], region[1]))
			m.lastBackupAt[region] = now
		}
	}
	m.touchedRegions = make(map[[2]int32]struct{})
	return rotated
}

// UnloadAll first shuts the pipeline down (closing the candidate queue,
// discarding any in-flight results, and joining the worker pool), then
// evicts every resident chunk, persisting modified ones.
func (m *Manager) UnloadAll() error {
	var err error
	if m.pipeline != nil {
		// Pipeline.Shutdown already drains and discards every in-flight
		// result concurrently with joining the workers, matching the
		// caller-choice "discard" branch of spec.md section 4.F; by the
		// time it returns, Results() is closed and empty, so this loop is
		// just a defensive no-op rather than a second drain.
		err = m.pipeline.Shutdown()
		for range m.pipeline.Results() {
		}
	}

	m.mu.Lock()
	keys := make([]spatial.ChunkCoord, 0, len(m.resident))
	for k := range m.resident {
		keys = append(keys, k)
	}
	m.mu.Unlock()

	for _, k := range keys {
		m.evictOne(k)
	}
	return err
}
