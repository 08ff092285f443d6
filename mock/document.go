package mock

import (
	"context"

	"github.com/fwojciec/muffle"
)

var _ muffle.LivenessChecker = (*LivenessChecker)(nil)

// LivenessChecker is a mock implementation of muffle.LivenessChecker.
type LivenessChecker struct {
	AliveFn func(ctx context.Context) bool
}

func (c *LivenessChecker) Alive(ctx context.Context) bool {
	return c.AliveFn(ctx)
}

var _ muffle.MutationSource = (*MutationSource)(nil)

// MutationSource is a mock implementation of muffle.MutationSource.
type MutationSource struct {
	ObserveFn func(fn func()) func()
}

func (s *MutationSource) Observe(fn func()) func() {
	return s.ObserveFn(fn)
}
