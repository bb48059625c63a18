// Package profiling implements a lightweight per-frame named-section timer,
// used by cmd/voxelstream to break each frame's stream/compose/draw time
// down by subsystem and log the largest contributors periodically.
package profiling

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

// FrameProfiler accumulates named section durations for the current frame.
// Unlike a package-level singleton, a FrameProfiler is owned by whichever
// caller wants frame timing (cmd/voxelstream's sim loop holds one), the
// same way Composer and Manager own their own state rather than reaching
// for module-level mutable globals (spec.md section 9, "Ambient global
// state").
type FrameProfiler struct {
	mu     sync.Mutex
	totals map[string]time.Duration
}

// NewFrameProfiler returns an empty profiler ready to track a frame.
func NewFrameProfiler() *FrameProfiler {
	return &FrameProfiler{totals: make(map[string]time.Duration)}
}

// Track returns a stop function that records the elapsed time under name.
// Usage: defer fp.Track("subsystem.Operation")()
func (fp *FrameProfiler) Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		fp.mu.Lock()
		fp.totals[name] += d
		fp.mu.Unlock()
	}
}

// Add adds an arbitrary duration under name to the current frame's totals.
func (fp *FrameProfiler) Add(name string, d time.Duration) {
	if d <= 0 {
		return
	}
	fp.mu.Lock()
	fp.totals[name] += d
	fp.mu.Unlock()
}

// ResetFrame clears all accumulated totals. Call at the start of each frame.
func (fp *FrameProfiler) ResetFrame() {
	fp.mu.Lock()
	for k := range fp.totals {
		delete(fp.totals, k)
	}
	fp.mu.Unlock()
}

// Snapshot returns a copy of the current per-frame totals.
func (fp *FrameProfiler) Snapshot() map[string]time.Duration {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	out := make(map[string]time.Duration, len(fp.totals))
	maps.Copy(out, fp.totals)
	return out
}

// Total returns the sum of all tracked durations this frame.
func (fp *FrameProfiler) Total() time.Duration {
	ss := fp.Snapshot()
	var sum time.Duration
	for _, v := range ss {
		sum += v
	}
	return sum
}

// SumWithPrefix returns the sum of durations whose names start with any of
// the given prefixes.
func (fp *FrameProfiler) SumWithPrefix(prefixes ...string) time.Duration {
	ss := fp.Snapshot()
	var sum time.Duration
	for k, v := range ss {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				sum += v
				break
			}
		}
	}
	return sum
}

// TopN formats the top n durations from the current frame's totals.
// Example: "renderer.Draw:4.2ms, frame.ComposeFrame:2.1ms"
func (fp *FrameProfiler) TopN(n int) string {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(fp.totals))
	for k, v := range fp.totals {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].dur > list[j].dur })
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ms := float64(list[i].dur.Microseconds()) / 1000.0
		parts = append(parts, list[i].name+":"+formatMs(ms))
	}
	return strings.Join(parts, ", ")
}

func formatMs(ms float64) string {
	return trimTrailingZerosF(ms) + "ms"
}

func trimTrailingZerosF(f float64) string {
	whole := int64(f)
	frac := int64((f-float64(whole))*10.0 + 0.0001)
	if frac <= 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := false
	if i < 0 {
		neg = true
		i = -i
	}
	buf := make([]byte, 0, 20)
	for i > 0 {
		d := i % 10
		buf = append(buf, byte('0'+d))
		i /= 10
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}
