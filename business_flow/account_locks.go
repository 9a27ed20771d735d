package businessflow

import "sync"

// accountLocks serializes quota reservations per account. The map itself is
// guarded; individual account mutexes are held across the check-and-increment.
type accountLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *accountLocks) lock(accountID uint) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}

var (
	allocationMutex sync.Mutex
)

func lockAllocation() {
	allocationMutex.Lock()
}

func unlockAllocation() {
	allocationMutex.Unlock()
}
