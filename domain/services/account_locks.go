package services

import "sync"

// AccountLocks serializes balance mutations per account. Two concurrent
// mutations on the same account take turns; different accounts proceed fully
// in parallel. Locks are created lazily and kept for the process lifetime,
// bounded by the number of distinct accounts seen.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewAccountLocks creates an empty lock registry
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for an account and returns its unlock function
func (l *AccountLocks) Lock(accountID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
