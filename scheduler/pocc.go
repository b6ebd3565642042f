package scheduler

import (
	"github.com/cortado-db/txnproc/occ"
	"github.com/cortado-db/txnproc/txn"
)

// pOCCIteration implements §4.6 (P_OCC, parallel validation): ingress is
// identical to OCC; the completion drain snapshots the active set, inserts
// the candidate, and dispatches validation to a worker instead of
// validating inline; the validated drain applies the worker's verdict.
// Both drains are bounded per scheduler iteration (§4.6, "bounded to ≤ N/M
// pops") so one mode-starved iteration can't block the others indefinitely.
func (p *Processor) pOCCIteration() {
	if t, ok := p.ingress.Pop(); ok {
		p.beginOCC(t)
	}

	for i := 0; i < p.cfg.CompletionDrainLimit; i++ {
		t, ok := p.completion.Pop()
		if !ok {
			break
		}
		p.beginValidatePOCC(t)
	}

	for i := 0; i < p.cfg.ValidatedDrainLimit; i++ {
		t, ok := p.validated.Pop()
		if !ok {
			break
		}
		p.finishValidatePOCC(t)
	}
}

func (p *Processor) beginValidatePOCC(t *txn.Txn) {
	p.requireCompleted(t)

	if t.Status() == txn.CompletedAbort {
		t.SetStatus(txn.Aborted)
		p.metric.Aborted.Inc()
		p.pushResult(t)
		return
	}

	snapshot := p.activeSet.Snapshot()
	p.activeSet.Insert(t)
	p.pool.Submit(func() { p.validateOCCP(t, snapshot) })
}

// validateOCCP runs on a worker thread, per §4.6's ValidateOCCP: it
// applies writes inside the validator itself when valid, so a later
// validator's storage-timestamp check observes them, then hands the
// verdict to the validated queue regardless of outcome.
func (p *Processor) validateOCCP(t *txn.Txn, activeSnapshot []*txn.Txn) {
	valid := occ.ValidateParallel(t, activeSnapshot, p.store)
	t.SetValidated(valid)
	p.validated.Push(t)
}

func (p *Processor) finishValidatePOCC(t *txn.Txn) {
	p.activeSet.Erase(t)

	if t.Validated() {
		t.SetStatus(txn.Committed)
		p.metric.Committed.Inc()
		p.pushResult(t)
		return
	}

	p.metric.OCCRestart.Inc()
	t.ResetForRestart(p.store.Now())
	p.pool.Submit(func() { p.executeTxn(t) })
}
