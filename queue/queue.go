// Package queue provides the MPMC handoff queues used between the
// scheduler and the worker pool (ingress, completion, result, and — under
// P_OCC — validated transactions), built on the lock-free queue package
// retrieved alongside this repository's examples,
// github.com/hayabusa-cloud/lfq. Its Enqueue/Dequeue pair already matches
// §6's "push never blocks meaningfully / pop is non-blocking" contract.
package queue

import (
	"runtime"

	"github.com/hayabusa-cloud/lfq"
)

// Queue is a multi-producer multi-consumer FIFO of *T.
type Queue[T any] struct {
	q *lfq.MPMC[T]
}

// New returns a Queue with room for capacity pending items. capacity is
// rounded up to the lfq implementation's requirements (a power of two).
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{q: lfq.NewMPMC[T](capacity)}
}

// Push enqueues item. It does not return an error: while the queue is
// full it yields the processor and retries until the item fits, so it
// waits only as long as the queue stays full — handoff queues in this
// engine are sized well above steady-state depth.
func (q *Queue[T]) Push(item *T) {
	for {
		if err := q.q.Enqueue(item); err == nil || !lfq.IsWouldBlock(err) {
			return
		}
		runtime.Gosched()
	}
}

// Pop removes and returns the head item, or reports false if the queue is
// currently empty. Never blocks.
func (q *Queue[T]) Pop() (*T, bool) {
	item, err := q.q.Dequeue()
	if err != nil {
		return nil, false
	}
	return item, true
}
