package service

import "sync"

// matchLocks hands out one mutex per match id. Every mutation of a match's
// draft state, confirmation set, or persisted row goes through its lock;
// different matches proceed in parallel.
type matchLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newMatchLocks() *matchLocks {
	return &matchLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *matchLocks) get(matchID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[matchID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[matchID] = lock
	}
	return lock
}
