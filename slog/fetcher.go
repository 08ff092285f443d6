package slog

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/muffle"
)

// Ensure LoggingFetcher implements muffle.Fetcher.
var _ muffle.Fetcher = (*LoggingFetcher)(nil)

// SiteLookup reports which adapter handles a hostname.
type SiteLookup interface {
	Lookup(hostname string) muffle.Adapter
}

// LoggingFetcher wraps a Fetcher with logging. Every fetch is logged with
// the site whose adapter will filter the page, so a page that falls through
// to the generic adapter is visible before the scan runs.
type LoggingFetcher struct {
	next   muffle.Fetcher
	sites  SiteLookup
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next muffle.Fetcher, sites SiteLookup, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, sites: sites, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, rawURL string) (html string, err error) {
	site := f.site(rawURL)
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		f.logger.Log(ctx, level, "fetch",
			"url", rawURL,
			"site", site,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, rawURL)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

func (f *LoggingFetcher) site(rawURL string) muffle.Site {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return muffle.SiteGeneric
	}
	return f.sites.Lookup(u.Hostname()).Site()
}
