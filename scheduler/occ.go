package scheduler

import (
	"github.com/cortado-db/txnproc/occ"
	"github.com/cortado-db/txnproc/txn"
)

// occIteration implements §4.5 (OCC, serial validation): ingress dispatches
// execution with no locking; completion is validated one txn at a time on
// the scheduler thread, so serializability reduces to "no conflicting
// writer committed between my snapshot and my validation."
func (p *Processor) occIteration() {
	if t, ok := p.ingress.Pop(); ok {
		p.beginOCC(t)
	}

	for {
		t, ok := p.completion.Pop()
		if !ok {
			break
		}
		p.finishOCC(t)
	}
}

// beginOCC stamps t's snapshot time and dispatches it for execution on
// ingress. Restarts after a failed validation go through
// Txn.ResetForRestart and a fresh submit instead.
func (p *Processor) beginOCC(t *txn.Txn) {
	t.OCCStartTime = p.store.Now()
	p.pool.Submit(func() { p.executeTxn(t) })
}

func (p *Processor) finishOCC(t *txn.Txn) {
	p.requireCompleted(t)

	if t.Status() == txn.CompletedAbort {
		t.SetStatus(txn.Aborted)
		p.metric.Aborted.Inc()
		p.pushResult(t)
		return
	}

	if occ.Validate(t, p.store) {
		p.store.ApplyWrites(t)
		t.SetStatus(txn.Committed)
		p.metric.Committed.Inc()
		p.pushResult(t)
		return
	}

	p.metric.OCCRestart.Inc()
	t.ResetForRestart(p.store.Now())
	p.pool.Submit(func() { p.executeTxn(t) })
}
