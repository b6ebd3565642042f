package scheduler

import "github.com/cortado-db/txnproc/txn"

// lockingIteration implements the common body of §4.4 (both LOCKING and
// LOCKING_EXCLUSIVE_ONLY, which differ only in which lockmgr.Manager
// variant Processor.lockManager holds): request locks for a newly
// ingressed transaction, finalize whatever has finished running, then
// dispatch everything the lock manager has just made ready.
//
// The ingress step is the scheduler's sole access to the lock manager for
// this transaction's lock requests, so lock acquisition order on any key
// matches the order transactions called WriteLock/ReadLock for that key —
// the determinism §4.4 promises.
func (p *Processor) lockingIteration() {
	if t, ok := p.ingress.Pop(); ok {
		p.beginLocking(t)
	}

	for {
		t, ok := p.completion.Pop()
		if !ok {
			break
		}
		p.finishLocking(t)
	}

	for {
		id, ok := p.ready.Pop()
		if !ok {
			break
		}
		t := p.lookup(*id)
		if t == nil {
			continue
		}
		p.pool.Submit(func() { p.executeTxn(t) })
	}
}

// beginLocking requests every lock t declares (read set first, then write
// set; the key order within each set is Go's unspecified map order, which
// does not affect the per-key queue order between transactions), and — if
// none of them blocked — appends t directly to
// the ready queue itself (it will otherwise be placed there by the lock
// manager's Release once its wait counter reaches zero).
func (p *Processor) beginLocking(t *txn.Txn) {
	blocked := 0
	for k := range t.ReadSet {
		if !p.lockManager.ReadLock(t.UniqueID, k) {
			blocked++
		}
	}
	for k := range t.WriteSet {
		if !p.lockManager.WriteLock(t.UniqueID, k) {
			blocked++
		}
	}
	if blocked == 0 {
		id := t.UniqueID
		p.ready.Push(&id)
	} else {
		for i := 0; i < blocked; i++ {
			p.metric.LockWaits.Inc()
		}
	}
}

// finishLocking releases every lock t held, then finalizes it exactly as
// SERIAL does.
func (p *Processor) finishLocking(t *txn.Txn) {
	for k := range t.ReadSet {
		p.lockManager.Release(t.UniqueID, k)
	}
	for k := range t.WriteSet {
		p.lockManager.Release(t.UniqueID, k)
	}

	p.requireCompleted(t)
	p.commitOrAbort(t)
	p.pushResult(t)
}
