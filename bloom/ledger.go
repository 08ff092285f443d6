// Package bloom provides an approximate muffle.Ledger backed by a Bloom
// filter. It trades a small false positive rate, where an unseen unit is
// treated as already evaluated, for constant memory on endless feeds.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.Ledger = (*Ledger)(nil)

// Ledger sizing defaults.
const (
	DefaultCapacity = 10000
	DefaultFPRate   = 0.001
)

// Ledger records processed ids in a Bloom filter.
// It is safe for concurrent use by multiple goroutines.
type Ledger struct {
	n      uint
	fpRate float64

	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewLedger creates a Ledger sized for n expected ids with the given false
// positive rate.
func NewLedger(n uint, fpRate float64) *Ledger {
	return &Ledger{
		n:      n,
		fpRate: fpRate,
		f:      bloom.NewWithEstimates(n, fpRate),
	}
}

// ShouldProcess reports whether id has definitely not been marked.
func (l *Ledger) ShouldProcess(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.f.TestString(id)
}

// MarkProcessed records id.
func (l *Ledger) MarkProcessed(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.f.AddString(id)
}

// Reset forgets every id.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.f.ClearAll()
}

// Len returns the approximate number of marked ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.f.ApproximatedSize())
}
