// Package scan implements the reprocessing engine: the scan pass over a live
// document, the mutation observer that schedules passes, the timer owner and
// the in-memory state the engine consults before every pass.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.Scheduler = (*Scheduler)(nil)

// Scheduler owns every timer of a page. Stop cancels all registered
// callbacks at once; callbacks registered afterwards never run. Finally
// callbacks are the exception: they run no later than Stop.
// Scheduler is safe for concurrent use by multiple goroutines.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	nextID  int
	active  map[int]func()
}

// NewScheduler returns a Scheduler whose callbacks receive a context derived
// from ctx. Cancelling ctx stops the scheduler.
func NewScheduler(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		active: make(map[int]func()),
	}
	context.AfterFunc(ctx, s.Stop)
	return s
}

// Every calls fn every interval until the returned function is called or
// the scheduler stops. Calls never overlap.
func (s *Scheduler) Every(interval time.Duration, fn func(ctx context.Context)) (cancel func()) {
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	id, ok := s.register(stop)
	if !ok {
		return func() {}
	}

	go func() {
		defer s.unregister(id)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				fn(s.ctx)
			}
		}
	}()

	return func() {
		stop()
		s.unregister(id)
	}
}

// After calls fn once after d unless the returned function is called or the
// scheduler stops first.
func (s *Scheduler) After(d time.Duration, fn func(ctx context.Context)) (cancel func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}

	id, ok := s.register(stop)
	if !ok {
		return func() {}
	}

	mu.Lock()
	timer = time.AfterFunc(d, func() {
		s.unregister(id)
		if s.ctx.Err() != nil {
			return
		}
		fn(s.ctx)
	})
	mu.Unlock()

	return func() {
		stop()
		s.unregister(id)
	}
}

// Finally calls fn once after d. When the scheduler stops first, fn runs
// synchronously during Stop, and when it has already stopped, fn runs right
// away. Either way fn runs at most once.
func (s *Scheduler) Finally(d time.Duration, fn func(ctx context.Context)) (cancel func()) {
	var (
		once  sync.Once
		mu    sync.Mutex
		timer *time.Timer
	)
	run := func() { once.Do(func() { fn(s.ctx) }) }
	stopTimer := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}

	id, ok := s.register(func() {
		stopTimer()
		run()
	})
	if !ok {
		run()
		return func() {}
	}

	mu.Lock()
	timer = time.AfterFunc(d, func() {
		s.unregister(id)
		run()
	})
	mu.Unlock()

	return func() {
		stopTimer()
		once.Do(func() {})
		s.unregister(id)
	}
}

// Stop cancels every callback and runs the pending Finally callbacks. It is safe to call more than once and from
// within a callback.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	s.stopped = true
	stops := make([]func(), 0, len(s.active))
	for id, stop := range s.active {
		stops = append(stops, stop)
		delete(s.active, id)
	}
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// Active returns the number of callbacks that may still run.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *Scheduler) register(stop func()) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, false
	}
	id := s.nextID
	s.nextID++
	s.active[id] = stop
	return id, true
}

func (s *Scheduler) unregister(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}
