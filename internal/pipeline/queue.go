// Package pipeline implements the async generation pipeline of spec.md
// section 4.E: a bounded candidate queue, a fixed worker pool, and a bounded
// result queue, with the residency manager as sole producer of candidates
// and sole consumer of results.
package pipeline

import "sync"

// Candidate is a pending chunk generation request, ordered by squared
// distance to the observer so the candidate queue can prefer the nearest
// work and drop the farthest under back-pressure.
type Candidate struct {
	CX, CZ int32
	DistSq int64
}

// CandidateQueue is a bounded, distance-prioritized queue. Unlike a plain
// buffered channel, enqueuing past capacity does not block the caller or
// silently fail: it evicts whichever queued candidate (including, possibly,
// the new one) is farthest from the observer, matching spec.md section
// 4.E's "drop the farthest candidate rather than blocking the caller".
type CandidateQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []Candidate
	capacity int
	closed   bool
}

// NewCandidateQueue returns a queue with the given capacity.
func NewCandidateQueue(capacity int) *CandidateQueue {
	q := &CandidateQueue{capacity: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a candidate, evicting the farthest queued candidate if the
// queue is at capacity. Returns false if the candidate itself was the
// farthest and was dropped, or if the queue is closed.
func (q *CandidateQueue) Enqueue(c Candidate) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if len(q.items) < q.capacity {
		q.items = append(q.items, c)
		q.cond.Signal()
		return true
	}

	farthest := 0
	for i, it := range q.items {
		if it.DistSq > q.items[farthest].DistSq {
			farthest = i
		}
	}
	if c.DistSq >= q.items[farthest].DistSq {
		return false
	}
	q.items[farthest] = c
	q.cond.Signal()
	return true
}

// Pop removes and returns the nearest queued candidate, blocking until one
// is available or the queue is closed (in which case ok is false). Once
// closed, Pop returns the shutdown signal immediately rather than draining
// whatever backlog remains queued, matching spec.md section 4.E: "pending
// pops return a 'shutdown' signal and the worker exits".
func (q *CandidateQueue) Pop() (c Candidate, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return Candidate{}, false
	}

	nearest := 0
	for i, it := range q.items {
		if it.DistSq < q.items[nearest].DistSq {
			nearest = i
		}
	}
	c = q.items[nearest]
	q.items = append(q.items[:nearest], q.items[nearest+1:]...)
	return c, true
}

// Len reports the number of candidates currently queued.
func (q *CandidateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed and wakes every blocked Pop, which then
// returns ok=false at once, even if candidates are still queued — the
// cooperative-cancellation signal workers rely on.
func (q *CandidateQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
