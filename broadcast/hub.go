// Package broadcast provides an in-process muffle.Broadcaster connecting the
// engines of every page watched by one process.
package broadcast

import (
	"context"
	"slices"
	"sync"

	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.Broadcaster = (*Hub)(nil)

// DefaultQueueSize is the number of undelivered notifications buffered per
// subscriber. Notifications beyond it are dropped.
const DefaultQueueSize = 64

// Hub fans notifications out to every subscriber. Each subscriber receives
// notifications in publish order on its own goroutine, so a slow subscriber
// never blocks a publisher.
// Hub is safe for concurrent use by multiple goroutines.
type Hub struct {
	queueSize int

	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool
}

type subscription struct {
	queue chan muffle.Notification
	done  chan struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		queueSize: DefaultQueueSize,
		subs:      make(map[int]*subscription),
	}
}

// Publish queues n for every subscriber. Delivery is best effort: a
// subscriber whose queue is full misses n.
func (h *Hub) Publish(ctx context.Context, n muffle.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return muffle.Errorf(muffle.ECLOSED, "broadcast hub closed")
	}

	n.Words = slices.Clone(n.Words)
	for _, sub := range h.subs {
		select {
		case sub.queue <- n:
		default:
		}
	}
	return nil
}

// Subscribe calls fn for every notification published after it returns,
// until the returned function is called.
func (h *Hub) Subscribe(fn func(muffle.Notification)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}

	sub := &subscription{
		queue: make(chan muffle.Notification, h.queueSize),
		done:  make(chan struct{}),
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = sub

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case n := <-sub.queue:
				fn(n)
			}
		}
	}()

	return func() {
		h.mu.Lock()
		_, ok := h.subs[id]
		delete(h.subs, id)
		h.mu.Unlock()
		if ok {
			close(sub.done)
		}
	}
}

// Close stops delivery to every subscriber. Later publishes fail with
// ECLOSED.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.done)
		delete(h.subs, id)
	}
	return nil
}
