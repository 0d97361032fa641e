package playout

import (
	"sync"

	"github.com/google/uuid"
)

// lockMap hands out one mutex per playout so at most one build runs
// per playout while different playouts build concurrently. Entries are
// never removed; the set of playouts is small and long-lived.
type lockMap struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newLockMap() *lockMap {
	return &lockMap{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (m *lockMap) get(id uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}
