// Command voxelstream is the headless CLI driver for the chunk streaming
// and meshing engine (spec.md section 6). It wires store, worldgen,
// pipeline, residency, and frame into one simulation loop, stepping a
// deterministic synthetic observer path frame by frame and optionally
// emitting the CSV profile log external tooling consumes. The windowing
// layer, GPU backend, and player/camera physics are explicit external
// collaborators this binary never implements — frames are driven by a
// scripted flight path instead of live input, and mesh output goes to a
// renderer.NullRenderer rather than a real GPU context.
package main

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	flag "github.com/spf13/pflag"

	"chunkengine/internal/config"
	"chunkengine/internal/frame"
	"chunkengine/internal/pipeline"
	"chunkengine/internal/profiling"
	"chunkengine/internal/renderer"
	"chunkengine/internal/residency"
	"chunkengine/internal/spatial"
	"chunkengine/internal/store"
	"chunkengine/internal/voxel"
	"chunkengine/internal/worldgen"
)

// Exit codes. 0 is success; WorldAlreadyExists and SeedMismatch get their
// own codes so scripts driving this binary can tell the failure kinds apart
// without scraping stderr (spec.md section 6: "reported as distinct
// messages").
const (
	exitOK = iota
	exitGenericError
	exitWorldAlreadyExists
	exitSeedMismatch
)

// spawnSyncRadius is how many chunks around the origin are loaded
// synchronously before the frame loop starts, matching the teacher's
// smooth-startup shortcut (see residency.Manager.InstallSync).
const spawnSyncRadius = 2

func main() {
	os.Exit(run())
}

type cliFlags struct {
	maxFrames     int
	world         string
	seed          int64
	newWorld      bool
	worldsRoot    string
	difficulty    string
	description   string
	listWorlds    bool
	profileLog    string
	profileFrames int
}

func parseFlags(args []string) (cliFlags, *flag.FlagSet) {
	fs := flag.NewFlagSet("voxelstream", flag.ContinueOnError)
	var f cliFlags
	fs.IntVar(&f.maxFrames, "max-frames", 0, "stop after N frames (0 = run until interrupted)")
	fs.StringVar(&f.world, "world", "world", "world name")
	fs.Int64Var(&f.seed, "seed", 0, "world seed")
	fs.BoolVar(&f.newWorld, "new-world", false, "refuse to open an existing world")
	fs.StringVar(&f.worldsRoot, "worlds-root", "worlds", "directory containing world subdirectories")
	fs.StringVar(&f.difficulty, "difficulty", "normal", "peaceful|easy|normal|hard")
	fs.StringVar(&f.description, "description", "", "world description, set on creation")
	fs.BoolVar(&f.listWorlds, "list-worlds", false, "list worlds under --worlds-root and exit")
	fs.StringVar(&f.profileLog, "profile-log", "", "CSV profile log path")
	fs.IntVar(&f.profileFrames, "profile-frames", 0, "limit profile-log rows to the first N frames (0 = all)")
	_ = fs.Parse(args)
	return f, fs
}

func run() int {
	flags, fs := parseFlags(os.Args[1:])

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Read but never interpreted, per spec.md section 6.
	_ = os.Getenv("MTL_HUD_ENABLED")

	if flags.listWorlds {
		names, err := store.ListWorlds(flags.worldsRoot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "voxelstream: listing worlds: %v\n", err)
			return exitGenericError
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return exitOK
	}

	difficulty, err := config.ParseDifficulty(flags.difficulty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxelstream: %v\n", err)
		return exitGenericError
	}

	defaults := config.DefaultWorldOptions()
	defaults.Difficulty = difficulty
	defaults.Description = flags.description

	openOpts := store.OpenOptions{
		Seed:      flags.seed,
		ForceSeed: fs.Changed("seed"),
		ForceNew:  flags.newWorld,
		Defaults:  defaults,
	}

	persist, err := store.OpenWorld(flags.worldsRoot, flags.world, openOpts)
	if err != nil {
		switch {
		case err == store.ErrWorldAlreadyExists:
			fmt.Fprintf(os.Stderr, "voxelstream: world %q already exists\n", flags.world)
			return exitWorldAlreadyExists
		case err == store.ErrSeedMismatch:
			fmt.Fprintf(os.Stderr, "voxelstream: seed does not match existing world %q\n", flags.world)
			return exitSeedMismatch
		default:
			fmt.Fprintf(os.Stderr, "voxelstream: opening world: %v\n", err)
			return exitGenericError
		}
	}
	defer persist.Close()

	worldOpts := persist.Options()
	seed := persist.Seed()
	gen := worldgen.NewGenerator()

	workerCount := pipeline.DefaultWorkerCount()
	pl := pipeline.New(seed, gen, persist, workerCount, 256, 256)

	var rotatedTotal int
	manager := residency.New(pl, persist, residency.OptionsForWorld(worldOpts), nil)

	spawnSync(manager, gen, persist, seed)

	composer := frame.NewComposer()
	gpu := renderer.NewNullRenderer()
	if err := gpu.CreatePipeline("", "vs_main", "fs_main", renderVertexStride); err != nil {
		fmt.Fprintf(os.Stderr, "voxelstream: creating render pipeline: %v\n", err)
		return exitGenericError
	}

	var csvWriter *csv.Writer
	var logFile *os.File
	if flags.profileLog != "" {
		logFile, err = os.Create(flags.profileLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "voxelstream: creating profile log: %v\n", err)
			return exitGenericError
		}
		defer logFile.Close()
		csvWriter = csv.NewWriter(logFile)
		_ = csvWriter.Write(profileHeader)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := newSimLoop(manager, composer, gpu, pl)
	framesRun := 0
	var cumulativeInstalled, cumulativeEvicted int

	const simDT = time.Second / 20
	frameIndex := 0
	for {
		if flags.maxFrames > 0 && frameIndex >= flags.maxFrames {
			break
		}
		select {
		case <-ctx.Done():
			goto done
		default:
		}

		row := sim.step(frameIndex, simDT)
		cumulativeInstalled += row.installed
		cumulativeEvicted += row.evicted
		row.completedAsync = cumulativeInstalled
		row.unloaded = cumulativeEvicted
		if len(row.rotatedBackups) > 0 {
			rotatedTotal += len(row.rotatedBackups)
		}

		if csvWriter != nil && (flags.profileFrames <= 0 || frameIndex < flags.profileFrames) {
			_ = csvWriter.Write(row.csvRecord())
		}

		framesRun++
		frameIndex++
	}
done:

	if csvWriter != nil {
		csvWriter.Flush()
		fmt.Fprintf(logFile, "# completed %d frames\n", framesRun)
	}

	if err := manager.UnloadAll(); err != nil {
		slog.Warn("voxelstream: errors during shutdown", "error", err)
	}

	slog.Info("voxelstream: run complete", "frames", framesRun, "backups_rotated", rotatedTotal)
	return exitOK
}

// spawnSync generates or loads a small area around the origin synchronously
// so the first profiled frame already has a populated residency set,
// mirroring the teacher's pre-loop StreamChunksAroundSync call.
func spawnSync(m *residency.Manager, gen *worldgen.Generator, persist *store.Store, seed int64) {
	for dx := int32(-spawnSyncRadius); dx <= spawnSyncRadius; dx++ {
		for dz := int32(-spawnSyncRadius); dz <= spawnSyncRadius; dz++ {
			var c *voxel.Chunk
			if loaded, err := persist.LoadChunk(dx, dz); err == nil {
				c = loaded
			} else {
				c = gen.GenerateChunk(seed, dx, dz)
			}
			m.InstallSync(c)
		}
	}
}

// renderVertexStride is the byte size of one frame.RenderVertex once
// serialized for the renderer contract: position(3) + normal(3) + uv(2) +
// color(3) float32s.
const renderVertexStride = (3 + 3 + 2 + 3) * 4

func encodeVertices(verts []frame.RenderVertex) []byte {
	buf := make([]byte, 0, len(verts)*renderVertexStride)
	var scratch [4]byte
	putF := func(v float32) {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
		buf = append(buf, scratch[:]...)
	}
	for _, v := range verts {
		putF(v.Position.X())
		putF(v.Position.Y())
		putF(v.Position.Z())
		putF(v.Normal.X())
		putF(v.Normal.Y())
		putF(v.Normal.Z())
		putF(v.UV.X())
		putF(v.UV.Y())
		putF(v.Color.X())
		putF(v.Color.Y())
		putF(v.Color.Z())
	}
	return buf
}

// profileHeader is the exact CSV header of spec.md section 6.
var profileHeader = []string{
	"frame", "frame_ms", "loaded_chunks", "visible_chunks", "rendered_chunks",
	"culled_chunks", "budget_skipped", "total_vertices", "total_indices",
	"lod_full", "lod_medium", "lod_far", "regenerations",
	"stream_last_ms", "stream_avg_ms", "stream_max_ms",
	"queued_candidates", "queued_generations", "completed_async",
	"immediate_loaded", "unloaded", "pending_generations",
}

// simLoop holds the cross-frame state the profile log's rolling stream
// timing columns need, plus the synthetic flight path the observer follows
// in place of real player input.
type simLoop struct {
	manager  *residency.Manager
	composer *frame.Composer
	gpu      *renderer.NullRenderer
	pl       *pipeline.Pipeline
	profiler *profiling.FrameProfiler

	streamSamples int
	streamSum     time.Duration
	streamMax     time.Duration

	immediateLoaded int
}

func newSimLoop(m *residency.Manager, c *frame.Composer, gpu *renderer.NullRenderer, pl *pipeline.Pipeline) *simLoop {
	return &simLoop{
		manager:         m,
		composer:        c,
		gpu:             gpu,
		pl:              pl,
		profiler:        profiling.NewFrameProfiler(),
		immediateLoaded: m.ResidentCount(),
	}
}

type frameRow struct {
	frame          int
	frameMs        float64
	stats          frame.MeshStats
	loadedChunks   int
	streamLastMs   float64
	streamAvgMs    float64
	streamMaxMs    float64
	queuedCand     int
	queuedGen      int
	installed      int
	evicted        int
	rotatedBackups []string
	completedAsync int
	unloaded       int
	pendingGen     int
	immediateLoad  int
}

// observerPath computes a deterministic flight path: a slow outward spiral
// at a fixed altitude, so the resident set keeps growing in a new direction
// every few seconds and exercises both admission and eviction without any
// external input source.
func observerPath(frameIdx int, dt time.Duration) (pos, front mgl32.Vec3) {
	t := float32(frameIdx) * float32(dt.Seconds())
	const radius = 6.0   // blocks per second of outward drift
	const angular = 0.25 // radians per second
	r := 24 + radius*t
	angle := angular * t
	x := r * float32(math.Cos(float64(angle)))
	z := r * float32(math.Sin(float64(angle)))
	pos = mgl32.Vec3{x, 140, z}
	fx := -float32(math.Sin(float64(angle)))
	fz := float32(math.Cos(float64(angle)))
	front = mgl32.Vec3{fx, 0, fz}
	return pos, front
}

func viewProjection(pos, front mgl32.Vec3) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	view := mgl32.LookAtV(pos, pos.Add(front), up)
	proj := mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 512)
	return proj.Mul4(view)
}

func (s *simLoop) step(frameIdx int, dt time.Duration) frameRow {
	s.profiler.ResetFrame()
	frameStart := time.Now()

	pos, front := observerPath(frameIdx, dt)

	streamStop := s.profiler.Track("residency.Update")
	streamStart := time.Now()
	update := s.manager.Update(pos, front, dt)
	streamDur := time.Since(streamStart)
	streamStop()

	s.streamSamples++
	s.streamSum += streamDur
	if streamDur > s.streamMax {
		s.streamMax = streamDur
	}

	var resident []frame.ResidentChunk
	s.manager.ForEachResident(func(coord spatial.ChunkCoord, c *voxel.Chunk) {
		resident = append(resident, frame.ResidentChunk{Coord: coord, Chunk: c})
	})

	vp := viewProjection(pos, front)
	frustum := spatial.NewFrustum(vp)

	composeStop := s.profiler.Track("frame.ComposeFrame")
	stats := s.composer.ComposeFrame(resident, frustum, pos, config.GetAllowMeshesPerFrame())
	composeStop()

	if stats.Changed {
		uploadStop := s.profiler.Track("renderer.SetMesh")
		verts, indices := s.composer.CombinedBuffers()
		_ = s.gpu.SetMesh(encodeVertices(verts), renderVertexStride, indices)
		uploadStop()
	}
	drawStop := s.profiler.Track("renderer.Draw")
	_ = s.gpu.Draw([4]float32{0.5, 0.7, 1.0, 1.0})
	drawStop()

	if frameIdx%300 == 0 {
		slog.Debug("voxelstream: frame profile", "frame", frameIdx, "top", s.profiler.TopN(4))
	}

	row := frameRow{
		frame:          frameIdx,
		frameMs:        msSince(frameStart),
		stats:          stats,
		loadedChunks:   s.manager.ResidentCount(),
		streamLastMs:   msDuration(streamDur),
		streamAvgMs:    msDuration(s.streamSum / time.Duration(s.streamSamples)),
		streamMaxMs:    msDuration(s.streamMax),
		queuedCand:     update.QueuedCandidates,
		queuedGen:      s.pl.InFlight(),
		installed:      update.Installed,
		evicted:        update.Evicted,
		rotatedBackups: update.BackupsRotated,
		pendingGen:     s.manager.InFlightCount(),
		immediateLoad:  s.immediateLoaded,
	}
	return row
}

func msSince(start time.Time) float64    { return msDuration(time.Since(start)) }
func msDuration(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }

func (r frameRow) csvRecord() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	i := func(v int) string { return strconv.Itoa(v) }
	return []string{
		i(r.frame), f(r.frameMs), i(r.loadedChunks), i(r.stats.VisibleChunks),
		i(r.stats.RenderedChunks), i(r.stats.CulledChunks), i(r.stats.BudgetSkipped),
		i(r.stats.TotalVertices), i(r.stats.TotalIndices),
		i(r.stats.FullChunks), i(r.stats.MediumChunks), i(r.stats.FarChunks),
		i(r.stats.Regenerations),
		f(r.streamLastMs), f(r.streamAvgMs), f(r.streamMaxMs),
		i(r.queuedCand), i(r.queuedGen), i(r.completedAsync),
		i(r.immediateLoad), i(r.unloaded), i(r.pendingGen),
	}
}
