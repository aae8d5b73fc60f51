package index

import "sync"

// collectionLocks serializes indexing runs per collection. One run per
// collection at a time; a second concurrent run is rejected rather than
// queued, since re-indexing mid-run would race the fingerprint diff.
type collectionLocks struct {
	mu     sync.Mutex
	active map[string]bool
}

func newCollectionLocks() *collectionLocks {
	return &collectionLocks{active: make(map[string]bool)}
}

// TryLock claims the collection for an indexing run. Returns false if a run
// already holds it.
func (l *collectionLocks) TryLock(collectionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[collectionID] {
		return false
	}
	l.active[collectionID] = true
	return true
}

// Unlock releases the collection.
func (l *collectionLocks) Unlock(collectionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, collectionID)
}
