package lockmgr

import "github.com/cortado-db/txnproc/txn"

// ExclusiveOnly is the lock manager variant where every lock, shared or
// exclusive, is taken EXCLUSIVE — it serializes all access to a key.
// Grounded on LockManagerA in original_source/txn/lock_manager.cc.
type ExclusiveOnly struct {
	base
}

// WriteLock and ReadLock share identical behavior in this variant: both
// append an EXCLUSIVE request and grant only when it lands at the head of
// an empty queue.
func (m *ExclusiveOnly) WriteLock(id txn.ID, key txn.Key) bool {
	return m.enqueueExclusive(id, key)
}

func (m *ExclusiveOnly) ReadLock(id txn.ID, key txn.Key) bool {
	return m.enqueueExclusive(id, key)
}

func (m *ExclusiveOnly) enqueueExclusive(id txn.ID, key txn.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := m.lockTable[key]
	granted := len(reqs) == 0
	reqs = append(reqs, request{mode: Exclusive, txn: id, granted: granted})
	m.lockTable[key] = reqs

	if !granted {
		m.waitCounts[id]++
	}
	return granted
}

// Release removes every request for id on key. If id held the head (the
// sole holder under this variant), the new head — if any — becomes
// runnable: its wait counter is decremented and, if it reaches zero, it is
// pushed to the ready queue.
func (m *ExclusiveOnly) Release(id txn.ID, key txn.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining, wasFront, _ := m.removeAll(key, id)
	if wasFront && len(remaining) > 0 {
		m.wake(&remaining[0])
	}
}

// Status reports UNLOCKED if key's queue is empty, otherwise EXCLUSIVE
// with the sole head owner — this variant never holds a key SHARED.
func (m *ExclusiveOnly) Status(key txn.Key) (Status, []txn.ID) {
	return m.status(key)
}
