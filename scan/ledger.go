package scan

import (
	"sync"

	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.Ledger = (*Ledger)(nil)

// Ledger is an exact in-memory set of processed ids.
// It is safe for concurrent use by multiple goroutines.
type Ledger struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{ids: make(map[string]struct{})}
}

// ShouldProcess reports whether id has not been marked yet.
func (l *Ledger) ShouldProcess(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[id]
	return !ok
}

// MarkProcessed records id.
func (l *Ledger) MarkProcessed(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[id] = struct{}{}
}

// Reset forgets every id.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = make(map[string]struct{})
}

// Len returns the number of marked ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}
