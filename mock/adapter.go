package mock

import (
	"github.com/fwojciec/muffle"
)

var _ muffle.Adapter = (*Adapter)(nil)

// Adapter is a mock implementation of muffle.Adapter.
type Adapter struct {
	SiteFn          func() muffle.Site
	MatchFn         func(hostname string) bool
	CandidatesFn    func(doc muffle.Document) []muffle.Candidate
	RemovalTargetFn func(el muffle.Element) muffle.Element
	RemoveFn        func(target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error
	AdjustLayoutFn  func(doc muffle.Document) error
}

func (a *Adapter) Site() muffle.Site {
	return a.SiteFn()
}

func (a *Adapter) Match(hostname string) bool {
	return a.MatchFn(hostname)
}

func (a *Adapter) Candidates(doc muffle.Document) []muffle.Candidate {
	return a.CandidatesFn(doc)
}

func (a *Adapter) RemovalTarget(el muffle.Element) muffle.Element {
	return a.RemovalTargetFn(el)
}

func (a *Adapter) Remove(target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error {
	return a.RemoveFn(target, word, sched, notify)
}

func (a *Adapter) AdjustLayout(doc muffle.Document) error {
	return a.AdjustLayoutFn(doc)
}

var _ muffle.AdapterRegistry = (*AdapterRegistry)(nil)

// AdapterRegistry is a mock implementation of muffle.AdapterRegistry.
type AdapterRegistry struct {
	ResolveFn func(hostname string) muffle.Adapter
	ResetFn   func()
}

func (r *AdapterRegistry) Resolve(hostname string) muffle.Adapter {
	return r.ResolveFn(hostname)
}

func (r *AdapterRegistry) Reset() {
	r.ResetFn()
}
