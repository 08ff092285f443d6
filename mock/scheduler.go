package mock

import (
	"context"
	"time"

	"github.com/fwojciec/muffle"
)

var _ muffle.Scheduler = (*Scheduler)(nil)

// Scheduler is a mock implementation of muffle.Scheduler.
type Scheduler struct {
	EveryFn   func(interval time.Duration, fn func(ctx context.Context)) func()
	AfterFn   func(d time.Duration, fn func(ctx context.Context)) func()
	FinallyFn func(d time.Duration, fn func(ctx context.Context)) func()
}

func (s *Scheduler) Every(interval time.Duration, fn func(ctx context.Context)) func() {
	return s.EveryFn(interval, fn)
}

func (s *Scheduler) After(d time.Duration, fn func(ctx context.Context)) func() {
	return s.AfterFn(d, fn)
}

func (s *Scheduler) Finally(d time.Duration, fn func(ctx context.Context)) func() {
	return s.FinallyFn(d, fn)
}
