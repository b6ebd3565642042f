// Package occ implements optimistic concurrency control validation: the
// serial-validation check shared by OCC and P_OCC (storage timestamps
// against a transaction's snapshot time), plus the active-set registry and
// per-pair conflict check P_OCC adds on top.
//
// Grounded on original_source/txn/txn_processor.cc (RunOCCScheduler,
// RunOCCParallelScheduler, ValidateOCCP) and, for the active set's
// copy-on-read snapshot shape, on the in-memory transaction engine example
// (other_examples, the deterministic-lock-order transaction manager) whose
// "no global state is modified until Commit" discipline this package
// mirrors for the active set's Insert/Erase/Snapshot operations.
package occ

import (
	"sync"

	"github.com/cortado-db/txnproc/txn"
)

// ActiveSet is the concurrent set of transactions currently executing or
// validating under P_OCC. Snapshot returns an owned copy rather than a
// live reference into the set's interior (§9 Design Notes: "model as
// either a copy-on-read concurrent set... do not share mutable references
// into its interior").
type ActiveSet struct {
	mu   sync.Mutex
	byID map[txn.ID]*txn.Txn
}

// NewActiveSet returns an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{byID: make(map[txn.ID]*txn.Txn)}
}

// Insert adds t to the active set.
func (s *ActiveSet) Insert(t *txn.Txn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[t.UniqueID] = t
}

// Erase removes t from the active set.
func (s *ActiveSet) Erase(t *txn.Txn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, t.UniqueID)
}

// Snapshot returns a point-in-time copy of the active set's members.
func (s *ActiveSet) Snapshot() []*txn.Txn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*txn.Txn, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	return out
}
