package scheduler

import "github.com/cortado-db/txnproc/txn"

// runBody reads every key in readset ∪ writeset from storage into
// t.Reads, then runs the transaction body, which populates t.Writes and
// votes CompletedCommit or CompletedAbort.
func (p *Processor) runBody(t *txn.Txn) {
	for _, k := range t.AllKeys() {
		if v, ok := p.store.Read(k); ok {
			t.Reads[k] = v
		}
	}
	t.Run(t)
}

// executeTxn is the worker-side task of §4.2's ExecuteTxn(txn): run the
// body, then hand t to the completion queue. Used by every mode except
// SERIAL, which runs runBody inline without a worker hand-off.
func (p *Processor) executeTxn(t *txn.Txn) {
	p.runBody(t)
	p.completion.Push(t)
}

// commitOrAbort applies §4.2/§4.3's shared commit/abort finalization: on
// CompletedCommit, apply writes and mark Committed; on CompletedAbort,
// mark Aborted without touching storage. requireCompleted must already
// have been checked by the caller.
func (p *Processor) commitOrAbort(t *txn.Txn) {
	if t.Status() == txn.CompletedCommit {
		p.store.ApplyWrites(t)
		t.SetStatus(txn.Committed)
		p.metric.Committed.Inc()
	} else {
		t.SetStatus(txn.Aborted)
		p.metric.Aborted.Inc()
	}
}
