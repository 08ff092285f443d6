package mock

import "github.com/fwojciec/muffle"

var _ muffle.Ledger = (*Ledger)(nil)

// Ledger is a mock implementation of muffle.Ledger.
type Ledger struct {
	ShouldProcessFn func(id string) bool
	MarkProcessedFn func(id string)
	ResetFn         func()
	LenFn           func() int
}

func (l *Ledger) ShouldProcess(id string) bool {
	return l.ShouldProcessFn(id)
}

func (l *Ledger) MarkProcessed(id string) {
	l.MarkProcessedFn(id)
}

func (l *Ledger) Reset() {
	l.ResetFn()
}

func (l *Ledger) Len() int {
	return l.LenFn()
}
