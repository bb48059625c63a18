package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"chunkengine/internal/store"
	"chunkengine/internal/voxel"
	"chunkengine/internal/worldgen"
)

// Result is a completed generation or load, pushed by a worker onto the
// result queue for the residency manager to drain and install.
type Result struct {
	CX, CZ int32
	Chunk  *voxel.Chunk
}

// DefaultWorkerCount returns max(2, logical_cpus - 1), the worker pool size
// spec.md section 4.E specifies.
func DefaultWorkerCount() int {
	n := runtime.NumCPU() - 1
	if n < 2 {
		n = 2
	}
	return n
}

// Pipeline is the async generation pipeline: a bounded candidate queue, a
// fixed pool of workers running golang.org/x/sync/errgroup, and a bounded
// result channel. Workers never touch the residency set (spec.md section
// 4.E); they only call the terrain generator and the persistence store.
type Pipeline struct {
	seed    int64
	gen     worldgen.TerrainGenerator
	persist *store.Store

	candidates *CandidateQueue
	results    chan Result
	inFlight   int64

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a pipeline. persist may be nil for an ephemeral, non-persisted
// world; workers then always generate fresh chunks.
func New(seed int64, gen worldgen.TerrainGenerator, persist *store.Store, workerCount, candidateCapacity, resultCapacity int) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	p := &Pipeline{
		seed:       seed,
		gen:        gen,
		persist:    persist,
		candidates: NewCandidateQueue(candidateCapacity),
		results:    make(chan Result, resultCapacity),
		group:      g,
		ctx:        gctx,
		cancel:     cancel,
	}

	for i := 0; i < workerCount; i++ {
		g.Go(p.workerLoop)
	}
	return p
}

// Enqueue submits a generation candidate, applying the drop-farthest
// back-pressure policy of the underlying CandidateQueue.
func (p *Pipeline) Enqueue(cx, cz int32, distSq int64) bool {
	return p.candidates.Enqueue(Candidate{CX: cx, CZ: cz, DistSq: distSq})
}

// PendingCandidates reports how many candidates are queued but not yet
// picked up by a worker, used by the profile log's queued_candidates column.
func (p *Pipeline) PendingCandidates() int { return p.candidates.Len() }

// InFlight reports how many candidates have been popped by a worker but not
// yet pushed as a result, used by the profile log's queued_generations
// column.
func (p *Pipeline) InFlight() int { return int(atomic.LoadInt64(&p.inFlight)) }

// Results exposes the result channel for the residency manager to drain.
func (p *Pipeline) Results() <-chan Result { return p.results }

func (p *Pipeline) workerLoop() error {
	for {
		c, ok := p.candidates.Pop()
		if !ok {
			return nil
		}
		atomic.AddInt64(&p.inFlight, 1)

		chunk := p.produce(c.CX, c.CZ)

		atomic.AddInt64(&p.inFlight, -1)
		select {
		case p.results <- Result{CX: c.CX, CZ: c.CZ, Chunk: chunk}:
		case <-p.ctx.Done():
			return nil
		}
	}
}

// produce loads a persisted chunk if one exists, otherwise generates a
// fresh one. It never returns an error to the caller: a corrupt or failing
// load is logged and degrades to fresh generation, matching spec.md section
// 7 ("Workers never panic the main thread; they report generation failures
// by returning an empty chunk plus a log message" — here, a freshly
// generated chunk rather than an empty one, since a fallback to generation
// is strictly more useful and the terrain generator cannot itself fail).
func (p *Pipeline) produce(cx, cz int32) *voxel.Chunk {
	if p.persist != nil {
		chunk, err := p.persist.LoadChunk(cx, cz)
		switch {
		case err == nil:
			return chunk
		case errors.Is(err, store.ErrChunkNotFound):
			// fall through to generation
		default:
			slog.Warn("pipeline: persisted chunk load failed, regenerating",
				"cx", cx, "cz", cz, "error", err)
		}
	}
	return p.gen.GenerateChunk(p.seed, cx, cz)
}

// Shutdown closes the candidate queue so every blocked or future Pop
// returns the shutdown signal, cancels the worker context so a worker
// blocked pushing onto a full result channel bails out instead of waiting
// on a consumer that hasn't started draining yet, and joins every worker.
// Draining happens concurrently with the join rather than after it: a
// worker already mid-produce when Close/cancel land can still push one more
// result, and with nobody reading, that push (and the join waiting on it)
// would otherwise deadlock. Cooperative cancellation only: no per-item
// timeout (spec.md section 5).
func (p *Pipeline) Shutdown() error {
	p.candidates.Close()
	p.cancel()

	drained := make(chan struct{})
	go func() {
		for range p.results {
		}
		close(drained)
	}()

	err := p.group.Wait()
	close(p.results)
	<-drained
	return err
}
