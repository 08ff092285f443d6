package slog

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/fwojciec/muffle"
)

// Ensure LoggingStorage implements muffle.Storage.
var _ muffle.Storage = (*LoggingStorage)(nil)

// LoggingStorage wraps a Storage with debug logging.
type LoggingStorage struct {
	next   muffle.Storage
	logger *slog.Logger
}

// NewLoggingStorage creates a new LoggingStorage.
func NewLoggingStorage(next muffle.Storage, logger *slog.Logger) *LoggingStorage {
	return &LoggingStorage{next: next, logger: logger}
}

// Get delegates to the wrapped storage and logs the keys read.
func (s *LoggingStorage) Get(ctx context.Context, keys ...string) (values map[string]json.RawMessage, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("storage get",
			"keys", keys,
			"found", len(values),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Get(ctx, keys...)
}

// Set delegates to the wrapped storage and logs the keys written.
func (s *LoggingStorage) Set(ctx context.Context, values map[string]json.RawMessage) (err error) {
	defer func(begin time.Time) {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		s.logger.Debug("storage set",
			"keys", keys,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Set(ctx, values)
}
