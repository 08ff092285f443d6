package muffle

import (
	"context"
	"time"
)

// Scheduler owns every timer of a page. Stopping the scheduler cancels all
// callbacks registered on it.
type Scheduler interface {
	// Every calls fn every interval until cancelled.
	Every(interval time.Duration, fn func(ctx context.Context)) (cancel func())

	// After calls fn once after d unless cancelled first.
	After(d time.Duration, fn func(ctx context.Context)) (cancel func())

	// Finally calls fn once after d. When the scheduler stops first, fn runs
	// during the stop instead. Cancelling prevents the call.
	Finally(d time.Duration, fn func(ctx context.Context)) (cancel func())
}
