// Package wpool wraps github.com/JekaMas/workerpool — the worker-pool
// dependency carried in the go-ethereum example's module graph — to
// satisfy the engine's worker-pool contract (§6): submit(task) and
// active() bool. The scheduler's own control loop, plus every ExecuteTxn
// and ValidateOCCP dispatch, runs as a task submitted here.
package wpool

import (
	"sync/atomic"

	"github.com/JekaMas/workerpool"
)

// Pool runs nullary tasks on a fixed number of worker goroutines.
type Pool struct {
	wp     *workerpool.WorkerPool
	active atomic.Bool
}

// New returns a Pool with size worker goroutines.
func New(size int) *Pool {
	p := &Pool{wp: workerpool.New(size)}
	p.active.Store(true)
	return p
}

// Submit schedules task to run on a worker. Safe to call concurrently.
func (p *Pool) Submit(task func()) {
	p.wp.Submit(task)
}

// Active reports whether the pool is still accepting and running tasks.
// It flips to false as soon as Stop is called, before pending work drains.
func (p *Pool) Active() bool {
	return p.active.Load()
}

// Stop flips the pool inactive. Long-running tasks that poll Active() in a
// loop — the scheduler's own control loop among them — observe this and
// return, which is what lets a subsequent Wait complete.
func (p *Pool) Stop() {
	p.active.Store(false)
}

// Wait blocks until every submitted task, including ones submitted while
// waiting, has finished running.
func (p *Pool) Wait() {
	p.wp.StopWait()
}
