// Package txn defines the central transaction entity shared by the lock
// manager, the OCC validator, and the scheduler.
package txn

import "sync"

// Key is an opaque, comparable identifier into the key-value store.
type Key string

// Value is an opaque payload copied on read and write.
type Value any

// ID uniquely identifies a transaction. IDs are assigned at ingress,
// strictly increasing, and never reused.
type ID uint64

// Status is the lifecycle state of a transaction. Transitions are monotone
// forward within a single attempt; an OCC restart rewinds a transaction to
// Incomplete by re-running ExecuteTxn from scratch.
type Status int

const (
	// Incomplete means the transaction body has not finished running.
	Incomplete Status = iota
	// CompletedCommit means the body voted to commit.
	CompletedCommit
	// CompletedAbort means the body voted to abort.
	CompletedAbort
	// Committed means the scheduler applied the transaction's writes.
	Committed
	// Aborted means the scheduler discarded the transaction's writes.
	Aborted
)

func (s Status) String() string {
	switch s {
	case Incomplete:
		return "INCOMPLETE"
	case CompletedCommit:
		return "COMPLETED_C"
	case CompletedAbort:
		return "COMPLETED_A"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Body is the opaque transaction program. It reads from txn.Reads (already
// populated by the scheduler from the captured snapshot), populates
// txn.Writes, and must leave the transaction in CompletedCommit or
// CompletedAbort.
type Body func(t *Txn)

// Txn is the engine's central entity. A Txn is owned by exactly one
// component at a time — ingress queue, scheduler, worker, completion queue,
// scheduler again, result queue — so its fields are never written
// concurrently by two components at once. The mutex below only guards the
// handful of fields (Status, Validated) that the scheduler and a worker
// goroutine may legitimately touch across a handoff boundary.
type Txn struct {
	UniqueID ID

	ReadSet  map[Key]struct{}
	WriteSet map[Key]struct{}

	Reads  map[Key]Value
	Writes map[Key]Value

	Run Body

	// OCCStartTime is the logical timestamp captured when the transaction
	// enters OCC execution. Reset on every OCC restart.
	OCCStartTime uint64

	mu        sync.Mutex
	status    Status
	validated bool
}

// New constructs a Txn with the given id, read set, write set and body. The
// read and write sets need not be disjoint: a key in both is read, then
// possibly overwritten, then validated as a read conflict under OCC.
func New(id ID, readSet, writeSet []Key, body Body) *Txn {
	rs := make(map[Key]struct{}, len(readSet))
	for _, k := range readSet {
		rs[k] = struct{}{}
	}
	ws := make(map[Key]struct{}, len(writeSet))
	for _, k := range writeSet {
		ws[k] = struct{}{}
	}
	return &Txn{
		UniqueID: id,
		ReadSet:  rs,
		WriteSet: ws,
		Reads:    make(map[Key]Value),
		Writes:   make(map[Key]Value),
		Run:      body,
		status:   Incomplete,
	}
}

// Status returns the transaction's current lifecycle state.
func (t *Txn) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetStatus transitions the transaction to a new status.
func (t *Txn) SetStatus(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
}

// Validated reports whether the OCC parallel validator marked this
// transaction valid on its most recent validation pass.
func (t *Txn) Validated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.validated
}

// SetValidated is called by the parallel validator on validation completion.
func (t *Txn) SetValidated(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.validated = v
}

// ResetForRestart rewinds the transaction to Incomplete and clears the
// reads/writes populated by the previous (conflicting) attempt, in
// preparation for OCC re-execution from scratch.
func (t *Txn) ResetForRestart(startTime uint64) {
	t.mu.Lock()
	t.status = Incomplete
	t.mu.Unlock()
	t.Reads = make(map[Key]Value)
	t.Writes = make(map[Key]Value)
	t.OCCStartTime = startTime
}

// AllKeys returns the union of the read set and write set, the set of keys
// OCC validation and lock acquisition must consider.
func (t *Txn) AllKeys() []Key {
	seen := make(map[Key]struct{}, len(t.ReadSet)+len(t.WriteSet))
	keys := make([]Key, 0, len(t.ReadSet)+len(t.WriteSet))
	for k := range t.ReadSet {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range t.WriteSet {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}
