package scheduler

// serialIteration implements §4.3 (SERIAL mode): pop one request, run its
// body inline (no worker hand-off, no concurrency — the baseline mode),
// then finalize and push the result.
func (p *Processor) serialIteration() {
	t, ok := p.ingress.Pop()
	if !ok {
		return
	}

	p.runBody(t)

	p.requireCompleted(t)
	p.commitOrAbort(t)
	p.pushResult(t)
}
