package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/muffle"
)

// Ensure RetryFetcher implements muffle.Fetcher at compile time.
var _ muffle.Fetcher = (*RetryFetcher)(nil)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryFetcher retries failed fetches with backoff. Missing pages and
// invalid requests are not retried.
type RetryFetcher struct {
	next   muffle.Fetcher
	delays []time.Duration
	logger *slog.Logger
}

// NewRetryFetcher wraps next. A nil delays slice uses DefaultRetryDelays.
func NewRetryFetcher(next muffle.Fetcher, delays []time.Duration, logger *slog.Logger) *RetryFetcher {
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RetryFetcher{next: next, delays: delays, logger: logger}
}

// Fetch tries once plus one retry per configured delay.
func (f *RetryFetcher) Fetch(ctx context.Context, url string) (string, error) {
	maxAttempts := len(f.delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		html, err := f.next.Fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		switch muffle.ErrorCode(err) {
		case muffle.ENOTFOUND, muffle.EINVALID:
			return "", err
		}
		if attempt >= maxAttempts-1 {
			break
		}

		f.logger.Warn("retrying fetch", "url", url, "attempt", attempt+2, "err", err)

		timer := time.NewTimer(f.delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return "", lastErr
}

// Close delegates to the wrapped fetcher.
func (f *RetryFetcher) Close() error {
	return f.next.Close()
}
