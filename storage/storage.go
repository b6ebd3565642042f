// Package storage implements the in-memory key-value store the transaction
// engine executes against: a plain map guarded by one RWMutex plus a
// per-Engine logical clock, matching the Storage interface the core
// consumes (§6 of the design): read(k)→value?, write(k,v), timestamp(k).
//
// This is deliberately minimal rather than built on a third-party KV
// library: the engine's data model (§3) treats the store as an opaque
// Key→Value map with a monotone per-key write timestamp, nothing more, and
// persistence is an explicit non-goal.
package storage

import (
	"sync"
	"sync/atomic"

	"github.com/cortado-db/txnproc/txn"
)

type entry struct {
	value     txn.Value
	present   bool
	timestamp uint64
}

// Engine is a concurrency-safe in-memory key-value store with per-key
// logical timestamps. The logical clock is a single monotonically
// increasing counter shared by all writes, so ts(write) is comparable
// across keys.
type Engine struct {
	mu    sync.RWMutex
	data  map[txn.Key]*entry
	clock atomic.Uint64
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{
		data: make(map[txn.Key]*entry),
	}
}

// Read returns the value stored for key and whether it is present. An
// absent key is normal (§7): it is simply omitted from the caller's reads.
func (e *Engine) Read(key txn.Key) (txn.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.data[key]
	if !ok || !ent.present {
		return nil, false
	}
	return ent.value, true
}

// Write stores value under key and advances key's timestamp to a value at
// least as large as the engine's current logical time, per §6.
func (e *Engine) Write(key txn.Key, value txn.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts := e.clock.Add(1)
	ent, ok := e.data[key]
	if !ok {
		ent = &entry{}
		e.data[key] = ent
	}
	ent.value = value
	ent.present = true
	ent.timestamp = ts
}

// Timestamp returns the logical time of the most recent write to key, or 0
// ("never written") if key is unknown, per §6.
func (e *Engine) Timestamp(key txn.Key) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.data[key]
	if !ok {
		return 0
	}
	return ent.timestamp
}

// Now draws a fresh tick of the engine's logical clock, used by the
// scheduler to stamp a transaction's occ_start_time on OCC ingress and
// restart. Ticking on read (not just on write) keeps a freshly taken
// snapshot strictly ahead of every write already applied, so the ≥
// comparison in validation (§4.5) can never treat a transaction's own
// restart as conflicting with the very write that caused it.
func (e *Engine) Now() uint64 {
	return e.clock.Add(1)
}

// ApplyWrites writes every (key, value) pair buffered in t.Writes out to
// the engine, per §4.2's ApplyWrites(txn) lifecycle step.
func (e *Engine) ApplyWrites(t *txn.Txn) {
	for k, v := range t.Writes {
		e.Write(k, v)
	}
}
