package service

import (
	"sync"
	"time"
)

// DedupLedger tracks which message ids have already been accepted for
// publication within the retention window. Presence of an active entry is the
// sole authority on "already handled" when the same event arrives twice.
type DedupLedger struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

// NewDedupLedger creates a ledger with the given retention window.
func NewDedupLedger(retention time.Duration) *DedupLedger {
	return &DedupLedger{
		entries:   make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// TryAcquire atomically records the id if no active entry exists. Returns
// true on first acquisition, false for duplicates. Exactly one of N
// concurrent callers for the same id wins.
func (l *DedupLedger) TryAcquire(messageID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[messageID]; exists {
		return false
	}
	l.entries[messageID] = l.now()
	return true
}

// Sweep removes entries at or past the retention bound and returns how many
// were dropped. In-flight acquisitions are always fresh, so a swept
// entry is never one currently being processed.
func (l *DedupLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.retention)
	removed := 0
	for id, recordedAt := range l.entries {
		if !recordedAt.After(cutoff) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Size returns the number of active entries.
func (l *DedupLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
