// Package metrics exposes Prometheus counters for the scheduler's
// commit/abort/restart traffic and for lock requests that had to wait.
// Instrumentation is ambient engineering, not one of the spec's excluded
// features (the Non-goals name durability and coordination, not
// observability), so it is wired in via
// github.com/prometheus/client_golang — the metrics dependency carried by
// the Gauth example repo — rather than left as a bare counter field.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups the counters the scheduler increments over a
// transaction's lifetime. Registering it is left to the caller (via
// Register) so a process embedding multiple engines can use distinct
// registries.
type Collectors struct {
	Committed  prometheus.Counter
	Aborted    prometheus.Counter
	OCCRestart prometheus.Counter
	LockWaits  prometheus.Counter
}

// New constructs a Collectors set labeled with mode (the CC mode name),
// unregistered.
func New(mode string) *Collectors {
	labels := prometheus.Labels{"mode": mode}
	return &Collectors{
		Committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "txnproc",
			Name:        "transactions_committed_total",
			Help:        "Number of transactions committed.",
			ConstLabels: labels,
		}),
		Aborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "txnproc",
			Name:        "transactions_aborted_total",
			Help:        "Number of transactions aborted (by body vote).",
			ConstLabels: labels,
		}),
		OCCRestart: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "txnproc",
			Name:        "occ_restarts_total",
			Help:        "Number of OCC/P_OCC validation failures that triggered a restart.",
			ConstLabels: labels,
		}),
		LockWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "txnproc",
			Name:        "lock_waits_total",
			Help:        "Number of lock requests that did not grant immediately.",
			ConstLabels: labels,
		}),
	}
}

// Register adds every collector in c to reg.
func (c *Collectors) Register(reg *prometheus.Registry) error {
	for _, coll := range []prometheus.Collector{c.Committed, c.Aborted, c.OCCRestart, c.LockWaits} {
		if err := reg.Register(coll); err != nil {
			return err
		}
	}
	return nil
}
