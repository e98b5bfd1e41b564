package chat

import "sync"

// SessionTracker remembers the most recently observed assistant audio
// identifier so a multi-turn spoken exchange stays grounded without
// resending audio.
//
// The tracker has two states: empty, and holding the last id. It moves to
// the holding state whenever an assistant turn with a concrete audio id is
// observed — either supplied directly in the conversation or returned by a
// provider call. Only an explicit conversation clear resets it; switching
// the active model away from the voice model does not, because the tracked
// id refers to conversation state that survives a model switch.
//
// Safe for concurrent use.
type SessionTracker struct {
	mu     sync.Mutex
	lastID string
}

// Observe records id as the most recent assistant audio identifier.
// An empty id is ignored.
func (t *SessionTracker) Observe(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	t.lastID = id
	t.mu.Unlock()
}

// Last returns the most recently observed audio id, and whether one has
// been observed since the last Reset.
func (t *SessionTracker) Last() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastID, t.lastID != ""
}

// Reset returns the tracker to its empty state. Called on conversation clear.
func (t *SessionTracker) Reset() {
	t.mu.Lock()
	t.lastID = ""
	t.mu.Unlock()
}
