package mock

import (
	"context"

	"github.com/fwojciec/muffle"
)

var _ muffle.StatsRecorder = (*StatsRecorder)(nil)

// StatsRecorder is a mock implementation of muffle.StatsRecorder.
type StatsRecorder struct {
	RecordRemovalFn func(ctx context.Context, word string, site muffle.Site) error
	ResetSessionFn  func(ctx context.Context) error
	FlushFn         func(ctx context.Context) error
}

func (r *StatsRecorder) RecordRemoval(ctx context.Context, word string, site muffle.Site) error {
	return r.RecordRemovalFn(ctx, word, site)
}

func (r *StatsRecorder) ResetSession(ctx context.Context) error {
	return r.ResetSessionFn(ctx)
}

func (r *StatsRecorder) Flush(ctx context.Context) error {
	return r.FlushFn(ctx)
}
