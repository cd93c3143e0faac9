package service

import (
	"sync"

	"github.com/google/uuid"
)

// checkLocks serializes mutations per check id. Entries are dropped once
// no goroutine holds or waits on them.
type checkLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*checkLock
}

type checkLock struct {
	mu   sync.Mutex
	refs int
}

func newCheckLocks() *checkLocks {
	return &checkLocks{locks: make(map[uuid.UUID]*checkLock)}
}

// lock blocks until the caller holds the lock for id and returns the
// matching unlock func
func (l *checkLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &checkLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// size returns the number of live entries
func (l *checkLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
