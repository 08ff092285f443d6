package site

import (
	"sync"

	"github.com/fwojciec/muffle"
)

var _ muffle.AdapterRegistry = (*Registry)(nil)

// Registry resolves hostnames to site adapters. Adapters are tried in
// registration order and the first match wins; the fallback adapter handles
// every hostname no adapter claims. The resolution is memoized until Reset.
type Registry struct {
	fallback muffle.Adapter

	mu       sync.Mutex
	adapters []muffle.Adapter
	resolved muffle.Adapter
}

// NewRegistry creates a Registry with the given fallback adapter.
func NewRegistry(fallback muffle.Adapter) *Registry {
	return &Registry{fallback: fallback}
}

// NewDefaultRegistry returns a Registry with the reddit, youtube and
// linkedin adapters registered in that order and Generic as the fallback.
func NewDefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(NewGeneric(opts...))
	r.Register(NewReddit(opts...))
	r.Register(NewYouTube(opts...))
	r.Register(NewLinkedIn(opts...))
	return r
}

// Register appends an adapter. Adapters registered earlier take precedence.
func (r *Registry) Register(adapter muffle.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, adapter)
}

// Resolve returns the adapter for hostname. Once resolved, the same adapter
// is returned for every hostname until Reset is called.
func (r *Registry) Resolve(hostname string) muffle.Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return r.resolved
	}
	r.resolved = r.match(hostname)
	return r.resolved
}

// Lookup returns the adapter for hostname without memoizing the result.
func (r *Registry) Lookup(hostname string) muffle.Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match(hostname)
}

// Reset forgets the memoized adapter.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = nil
}

// List returns the sites of all registered adapters in order.
func (r *Registry) List() []muffle.Site {
	r.mu.Lock()
	defer r.mu.Unlock()
	sites := make([]muffle.Site, 0, len(r.adapters))
	for _, a := range r.adapters {
		sites = append(sites, a.Site())
	}
	return sites
}

// match returns the first adapter claiming hostname. A panicking adapter
// resolves to the fallback. Must be called with mu held.
func (r *Registry) match(hostname string) (adapter muffle.Adapter) {
	defer func() {
		if recover() != nil {
			adapter = r.fallback
		}
	}()
	for _, a := range r.adapters {
		if a.Match(hostname) {
			return a
		}
	}
	return r.fallback
}
