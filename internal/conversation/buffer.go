// Package conversation holds the in-memory turn history for one chat
// session. The buffer is append-only except for an explicit Clear; nothing
// is persisted across process restarts.
package conversation

import (
	"sync"

	"github.com/MrWong99/voxtalk/pkg/chat"
)

// Buffer is an ordered, mutex-guarded list of conversation turns. The
// interactive loop appends from its own goroutine while worker goroutines
// append provider replies, so every method takes the lock.
type Buffer struct {
	mu    sync.Mutex
	turns []chat.Turn
}

// Append adds a turn at the end of the conversation.
func (b *Buffer) Append(t chat.Turn) {
	b.mu.Lock()
	b.turns = append(b.turns, t)
	b.mu.Unlock()
}

// Snapshot returns a copy of the current turns. The copy is safe to hand to
// a provider call while other goroutines keep appending.
func (b *Buffer) Snapshot() []chat.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]chat.Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

// Len reports the number of buffered turns.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.turns)
}

// Clear empties the buffer. Callers owning session-scoped state (the voice
// session tracker) must reset it alongside.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.turns = nil
	b.mu.Unlock()
}
