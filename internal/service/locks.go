package service

import "sync"

// AccountLocker serializes balance and status mutations per account. Each
// account number maps to its own mutex, so unrelated accounts never contend.
type AccountLocker struct {
	mapMu sync.Mutex
	muMap map[string]*sync.Mutex
}

func NewAccountLocker() *AccountLocker {
	return &AccountLocker{muMap: make(map[string]*sync.Mutex)}
}

func (l *AccountLocker) get(accountNumber string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	mu, exists := l.muMap[accountNumber]
	if !exists {
		mu = &sync.Mutex{}
		l.muMap[accountNumber] = mu
	}
	return mu
}

// Lock acquires the account's mutex and returns the unlock func.
func (l *AccountLocker) Lock(accountNumber string) func() {
	mu := l.get(accountNumber)
	mu.Lock()
	return mu.Unlock
}

// LockPair acquires both accounts' mutexes in a global order (lower account
// number first) so two opposing transfers between the same pair cannot
// deadlock.
func (l *AccountLocker) LockPair(a, b string) func() {
	first, second := l.get(a), l.get(b)
	if a > b {
		first, second = second, first
	}

	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}
