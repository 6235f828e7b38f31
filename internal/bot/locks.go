package bot

import "sync"

// userLocks serializes message processing per user id. Different ids run
// concurrently; the same id is a strict read-modify-write sequence.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the given user id, creating it on first use.
func (l *userLocks) acquire(userID string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
