// Package transcript holds the append-only conversation log of a ticket and
// its plain-text rendering.
package transcript

import (
	"sync"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// Log is an append-only, insertion-ordered sequence of entries. It is safe
// for concurrent use; Seal turns further appends into no-ops.
type Log struct {
	mu      sync.RWMutex
	entries []domain.TranscriptEntry
	sealed  bool
}

// Append records an entry and reports whether it was accepted.
func (l *Log) Append(entry domain.TranscriptEntry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sealed {
		return false
	}
	l.entries = append(l.entries, entry)
	return true
}

// Seal stops the log from accepting entries and returns the final contents.
func (l *Log) Seal() []domain.TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sealed = true
	return append([]domain.TranscriptEntry(nil), l.entries...)
}

// Entries returns a copy of the current entries.
func (l *Log) Entries() []domain.TranscriptEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.TranscriptEntry(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
