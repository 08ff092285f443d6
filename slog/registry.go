// Package slog provides logging decorators for muffle services.
package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/muffle"
)

// Ensure LoggingRegistry implements muffle.AdapterRegistry.
var _ muffle.AdapterRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps an AdapterRegistry with logging for site resolution.
type LoggingRegistry struct {
	next   muffle.AdapterRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next muffle.AdapterRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// Resolve delegates to the wrapped registry and logs the resolved site.
func (r *LoggingRegistry) Resolve(hostname string) muffle.Adapter {
	begin := time.Now()
	adapter := r.next.Resolve(hostname)
	r.logger.Debug("site resolution",
		"hostname", hostname,
		"site", adapter.Site(),
		"duration", time.Since(begin),
	)
	return adapter
}

// Reset delegates to the wrapped registry.
func (r *LoggingRegistry) Reset() {
	r.logger.Debug("site resolution reset")
	r.next.Reset()
}
