package pipeline

import (
	"sync"

	"github.com/ganot/mongoose/internal/domain/activity"
)

// commitQueue buffers records awaiting publish and owns the single-flight
// guard. The check-inFlight-then-snapshot step in begin and every mutation
// of pending happen under one mutex, so two concurrent triggers can never
// both start draining.
type commitQueue struct {
	mu       sync.Mutex
	pending  []activity.Record
	inFlight bool
}

func newCommitQueue() *commitQueue {
	return &commitQueue{}
}

// enqueue appends a record. It never blocks on an in-flight publish.
func (q *commitQueue) enqueue(rec activity.Record) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, rec)
}

// begin atomically claims the in-flight slot and snapshots pending into a
// batch, clearing it. It returns ok=false when a publish attempt is
// already in flight or there is nothing to publish.
func (q *commitQueue) begin() ([]activity.Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inFlight || len(q.pending) == 0 {
		return nil, false
	}
	q.inFlight = true
	batch := q.pending
	q.pending = nil
	return batch, true
}

// finish releases the in-flight slot. A non-nil restore is prepended to
// pending in its original order, ahead of anything enqueued during the
// attempt. The return value reports whether pending is non-empty, so the
// caller can schedule another drain.
func (q *commitQueue) finish(restore []activity.Record) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(restore) > 0 {
		q.pending = append(restore[:len(restore):len(restore)], q.pending...)
	}
	q.inFlight = false
	return len(q.pending) > 0
}

// snapshot returns a copy of pending for status queries and tests.
func (q *commitQueue) snapshot() []activity.Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]activity.Record, len(q.pending))
	copy(out, q.pending)
	return out
}

func (q *commitQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *commitQueue) inflight() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}
