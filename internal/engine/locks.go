package engine

import "sync"

// idLocker hands out one mutex per ID so merges against the same primary
// serialize while merges against different primaries proceed in parallel.
// Mutexes are never removed; the set of merge primaries is small and
// bounded by the number of distinct records merged into.
type idLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newIDLocker() *idLocker {
	return &idLocker{locks: map[string]*sync.Mutex{}}
}

func (l *idLocker) lock(id string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
