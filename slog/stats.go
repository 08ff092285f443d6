package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/muffle"
)

// Ensure LoggingRecorder implements muffle.StatsRecorder.
var _ muffle.StatsRecorder = (*LoggingRecorder)(nil)

// LoggingRecorder wraps a StatsRecorder with logging.
type LoggingRecorder struct {
	next   muffle.StatsRecorder
	logger *slog.Logger
}

// NewLoggingRecorder creates a new LoggingRecorder.
func NewLoggingRecorder(next muffle.StatsRecorder, logger *slog.Logger) *LoggingRecorder {
	return &LoggingRecorder{next: next, logger: logger}
}

// RecordRemoval delegates to the wrapped recorder and logs failures.
func (r *LoggingRecorder) RecordRemoval(ctx context.Context, word string, site muffle.Site) (err error) {
	defer func() {
		if err != nil {
			r.logger.Warn("stats record",
				"word", word,
				"site", site,
				"err", err,
			)
		}
	}()
	return r.next.RecordRemoval(ctx, word, site)
}

// ResetSession delegates to the wrapped recorder and logs the operation.
func (r *LoggingRecorder) ResetSession(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		r.logger.Info("stats session reset",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.ResetSession(ctx)
}

// Flush delegates to the wrapped recorder and logs the operation.
func (r *LoggingRecorder) Flush(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		r.logger.Debug("stats flush",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Flush(ctx)
}
