package mock

import (
	"context"

	"github.com/fwojciec/muffle"
)

var _ muffle.Broadcaster = (*Broadcaster)(nil)

// Broadcaster is a mock implementation of muffle.Broadcaster.
type Broadcaster struct {
	PublishFn   func(ctx context.Context, n muffle.Notification) error
	SubscribeFn func(fn func(muffle.Notification)) func()
}

func (b *Broadcaster) Publish(ctx context.Context, n muffle.Notification) error {
	return b.PublishFn(ctx, n)
}

func (b *Broadcaster) Subscribe(fn func(muffle.Notification)) func() {
	return b.SubscribeFn(fn)
}
