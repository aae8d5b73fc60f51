package index

import "sync"

// State is the observable phase of a collection's indexing run. Walking
// covers the streaming walk/chunk/embed-dispatch phase; Embedding is the
// drain of in-flight batches after the walk; Persisting is the final stale
// record sweep.
type State string

// Run states.
const (
	StateIdle       State = "idle"
	StateWalking    State = "walking"
	StateEmbedding  State = "embedding"
	StatePersisting State = "persisting"
	StateFailed     State = "failed"
)

// stateTracker records the per-collection run state.
type stateTracker struct {
	mu     sync.RWMutex
	states map[string]State
}

func newStateTracker() *stateTracker {
	return &stateTracker{states: make(map[string]State)}
}

func (t *stateTracker) set(collectionID string, s State) {
	t.mu.Lock()
	t.states[collectionID] = s
	t.mu.Unlock()
}

func (t *stateTracker) get(collectionID string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.states[collectionID]; ok {
		return s
	}
	return StateIdle
}
