package site_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/goquery"
	"github.com/fwojciec/muffle/mock"
	"github.com/stretchr/testify/require"
)

// newDocument parses html served from hostname.
func newDocument(t *testing.T, hostname, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocument(hostname, html)
	require.NoError(t, err)
	return doc
}

// recorder collects removals reported by adapters.
type recorder struct {
	mu       sync.Mutex
	removals []muffle.Removal
}

func (r *recorder) notify(removal muffle.Removal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removals = append(r.removals, removal)
}

func (r *recorder) all() []muffle.Removal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]muffle.Removal(nil), r.removals...)
}

// manualScheduler records callbacks so tests can fire them on demand.
type manualScheduler struct {
	mu     sync.Mutex
	every  []func(context.Context)
	after  []func(context.Context)
	delays []time.Duration
}

func (s *manualScheduler) scheduler() *mock.Scheduler {
	return &mock.Scheduler{
		EveryFn: func(_ time.Duration, fn func(context.Context)) func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.every = append(s.every, fn)
			return func() {}
		},
		AfterFn: func(d time.Duration, fn func(context.Context)) func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.after = append(s.after, fn)
			s.delays = append(s.delays, d)
			return func() {}
		},
		FinallyFn: func(d time.Duration, fn func(context.Context)) func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.after = append(s.after, fn)
			s.delays = append(s.delays, d)
			return func() {}
		},
	}
}

// fireAfter runs and forgets every pending one-shot callback.
func (s *manualScheduler) fireAfter() {
	s.mu.Lock()
	fns := s.after
	s.after = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn(context.Background())
	}
}

// fireEvery runs every periodic callback once.
func (s *manualScheduler) fireEvery() {
	s.mu.Lock()
	fns := append(([]func(context.Context))(nil), s.every...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(context.Background())
	}
}
