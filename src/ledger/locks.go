package ledger

import "sync"

// positionLocks hands out one mutex per position id so state-changing
// operations against the same position are linearized while operations on
// different positions proceed in parallel. Entries are never evicted;
// positions are never deleted either.
type positionLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newPositionLocks() *positionLocks {
	return &positionLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *positionLocks) get(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}
