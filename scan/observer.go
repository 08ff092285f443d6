package scan

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/muffle"
)

// Observer defaults.
const (
	DefaultFrame            = 16 * time.Millisecond
	DefaultAppShellInterval = 100 * time.Millisecond
	DefaultAppShellTimeout  = 10 * time.Second
	DefaultLivenessInterval = 10 * time.Second
)

// Observer watches a document for structural changes and schedules scan
// passes. Mutations observed within one frame coalesce into a single pass;
// mutations arriving during a pass schedule a fresh one afterwards.
type Observer struct {
	// Processor runs the passes. Required.
	Processor *Processor
	// Document is the page being watched. Required.
	Document muffle.Document
	// Mutations reports structural changes. Required.
	Mutations muffle.MutationSource
	// Scheduler owns the observer's timers. Required.
	Scheduler *Scheduler
	// Liveness is checked periodically when set; a dead host tears the
	// observer down.
	Liveness muffle.LivenessChecker
	// OnTeardown is called once after teardown.
	OnTeardown func()
	Logger     *slog.Logger

	Frame            time.Duration
	AppShellInterval time.Duration
	AppShellTimeout  time.Duration
	LivenessInterval time.Duration

	started    atomic.Bool
	closed     atomic.Bool
	setup      sync.Once
	teardown   sync.Once
	finish     sync.Once
	pending    chan struct{}
	done       chan struct{}
	disconnect func()
	stopped    chan struct{}
}

func (o *Observer) channels() {
	o.setup.Do(func() {
		o.pending = make(chan struct{}, 1)
		o.done = make(chan struct{})
		o.stopped = make(chan struct{})
	})
}

// Start runs the first pass, subscribes to mutations and installs the
// startup poll and the liveness check. It returns an error when called more
// than once.
func (o *Observer) Start(ctx context.Context) error {
	if o.closed.Load() {
		return muffle.Errorf(muffle.ECLOSED, "observer torn down")
	}
	if !o.started.CompareAndSwap(false, true) {
		return muffle.Errorf(muffle.EINVALID, "observer already started")
	}
	o.defaults()
	o.channels()

	if _, err := o.Processor.Force(ctx); err != nil {
		o.Logger.Warn("initial scan failed", "err", err)
	}

	o.disconnect = o.Mutations.Observe(o.schedule)
	o.startAppShellPoll(ctx)
	if o.Liveness != nil {
		o.Scheduler.Every(o.LivenessInterval, func(ctx context.Context) {
			if !o.Liveness.Alive(ctx) {
				o.Logger.Warn("host is gone, tearing down")
				o.Teardown()
			}
		})
	}

	go o.loop(ctx)
	return nil
}

// Teardown disconnects mutation observation and stops the scheduler, which
// finishes pending Finally callbacks before OnTeardown runs. It is safe to
// call more than once, before Start, and from within a callback.
func (o *Observer) Teardown() {
	o.channels()
	o.teardown.Do(func() {
		o.closed.Store(true)
		defer func() {
			if r := recover(); r != nil && o.Logger != nil {
				o.Logger.Warn("teardown recovered", "panic", r)
			}
		}()
		close(o.done)
		if !o.started.Load() {
			o.markStopped()
		}
		if o.disconnect != nil {
			o.disconnect()
		}
		if o.Scheduler != nil {
			o.Scheduler.Stop()
		}
		if o.OnTeardown != nil {
			o.OnTeardown()
		}
	})
}

// Done returns a channel closed once the scan loop has exited. It may be
// called before Start; an observer torn down without starting is done at
// teardown.
func (o *Observer) Done() <-chan struct{} {
	o.channels()
	return o.stopped
}

func (o *Observer) markStopped() {
	o.finish.Do(func() { close(o.stopped) })
}

// schedule moves the observer to ScanScheduled. Requests made while a scan
// is already scheduled coalesce.
func (o *Observer) schedule() {
	select {
	case o.pending <- struct{}{}:
	default:
	}
}

func (o *Observer) loop(ctx context.Context) {
	defer o.markStopped()

	frame := time.NewTimer(o.Frame)
	frame.Stop()
	defer frame.Stop()

	for {
		select {
		case <-o.done:
			return
		case <-ctx.Done():
			o.Teardown()
			return
		case <-o.pending:
		}

		frame.Reset(o.Frame)
		select {
		case <-o.done:
			return
		case <-ctx.Done():
			o.Teardown()
			return
		case <-frame.C:
		}

		// Everything that arrived during the frame is covered by this pass.
		select {
		case <-o.pending:
		default:
		}

		if _, err := o.Processor.Scan(ctx); err != nil && ctx.Err() == nil {
			o.Logger.Warn("scan failed", "err", err)
		}
	}
}

// startAppShellPoll waits for the adapter's application shell, if any, and
// runs a pass once it has mounted. The poll gives up after AppShellTimeout.
func (o *Observer) startAppShellPoll(ctx context.Context) {
	shell, ok := o.Processor.Adapter().(muffle.AppShell)
	if !ok {
		return
	}
	selector := shell.AppShellSelector()
	if o.Document.Has(selector) {
		return
	}

	var (
		mu     sync.Mutex
		cancel func()
		done   bool
	)
	begin := time.Now()
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		done = true
		if cancel != nil {
			cancel()
		}
	}

	c := o.Scheduler.Every(o.AppShellInterval, func(ctx context.Context) {
		if o.Document.Has(selector) {
			finish()
			o.Logger.Debug("app shell mounted", "selector", selector, "after", time.Since(begin))
			if _, err := o.Processor.Force(ctx); err != nil {
				o.Logger.Warn("scan failed", "err", err)
			}
			return
		}
		if time.Since(begin) >= o.AppShellTimeout {
			finish()
			o.Logger.Debug("app shell poll gave up", "selector", selector)
		}
	})

	mu.Lock()
	cancel = c
	if done {
		cancel()
	}
	mu.Unlock()
}

func (o *Observer) defaults() {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Frame <= 0 {
		o.Frame = DefaultFrame
	}
	if o.AppShellInterval <= 0 {
		o.AppShellInterval = DefaultAppShellInterval
	}
	if o.AppShellTimeout <= 0 {
		o.AppShellTimeout = DefaultAppShellTimeout
	}
	if o.LivenessInterval <= 0 {
		o.LivenessInterval = DefaultLivenessInterval
	}
}
