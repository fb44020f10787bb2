package capture

import (
	"strings"
	"sync"
)

// Buffer holds the transcript for one listening cycle: committed text
// from finalized recognition chunks plus the engine's current interim
// hypothesis. The merged view is trimmed(committed + pending).
type Buffer struct {
	mu        sync.Mutex
	committed string
	pending   string
}

// SetPending replaces the interim hypothesis.
func (b *Buffer) SetPending(text string) {
	b.mu.Lock()
	b.pending = text
	b.mu.Unlock()
}

// AppendFinal commits a finalized chunk and clears the interim text.
func (b *Buffer) AppendFinal(text string) {
	b.mu.Lock()
	b.committed += text + " "
	b.pending = ""
	b.mu.Unlock()
}

// Merged returns the trimmed committed + pending view.
func (b *Buffer) Merged() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.committed + b.pending)
}

// Committed returns the finalized portion, trimmed.
func (b *Buffer) Committed() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.committed)
}

// Pending returns the current interim hypothesis.
func (b *Buffer) Pending() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Clear resets both parts.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.committed = ""
	b.pending = ""
	b.mu.Unlock()
}
