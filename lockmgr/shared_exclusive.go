package lockmgr

import "github.com/cortado-db/txnproc/txn"

// SharedExclusive is the lock manager variant where consecutive readers at
// the head of a key's queue may hold it together, while writers remain
// exclusive. Grounded on LockManagerB in
// original_source/txn/lock_manager.cc, with the release-wakeup logic
// corrected per §9 of the design: releasing a head writer wakes the full
// contiguous run of SHARED requests behind it, not just the requests that
// preceded the writer's own former queue position.
type SharedExclusive struct {
	base
}

// WriteLock appends an EXCLUSIVE request and grants it only if the queue
// was empty beforehand.
func (m *SharedExclusive) WriteLock(id txn.ID, key txn.Key) bool {
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

// ReadLock appends a SHARED request. It is granted if it lands at the
// head, or if every request already queued ahead of it is also SHARED.
func (m *SharedExclusive) ReadLock(id txn.ID, key txn.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := m.lockTable[key]
	granted := true
	for _, r := range reqs {
		if r.mode == Exclusive {
			granted = false
			break
		}
	}
	reqs = append(reqs, request{mode: Shared, txn: id, granted: granted})
	m.lockTable[key] = reqs

	if !granted {
		m.waitCounts[id]++
	}
	return granted
}

// Release removes every request for id on key and wakes successors per
// the rule in §4.1:
//
//   - if id held the head and the new head is EXCLUSIVE, wake that one
//     successor;
//   - else if id's removed request was EXCLUSIVE, every not-yet-granted
//     SHARED request in the new head's contiguous leading run is woken
//     together — this is what lets the reader block behind a released
//     writer proceed as a group;
//   - else (a SHARED lock was released while not at the head) nothing
//     wakes: waiters are still blocked by an earlier writer.
func (m *SharedExclusive) Release(id txn.ID, key txn.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining, wasFront, releasedMode := m.removeAll(key, id)
	if len(remaining) == 0 {
		return
	}

	switch {
	case wasFront && remaining[0].mode == Exclusive:
		m.wake(&remaining[0])
	case releasedMode == Exclusive:
		for i := range remaining {
			if remaining[i].mode != Shared {
				break
			}
			if !remaining[i].granted {
				m.wake(&remaining[i])
			}
		}
	}
}

// Status reports UNLOCKED if the queue is empty, EXCLUSIVE with the sole
// head owner if the head is a writer, or SHARED with the contiguous
// leading run of readers otherwise.
func (m *SharedExclusive) Status(key txn.Key) (Status, []txn.ID) {
	return m.status(key)
}
