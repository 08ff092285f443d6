package muffle

import (
	"context"
	"time"
)

// Stats holds removal counters. The same shape is used for the aggregate
// counters and the per-session counters.
type Stats struct {
	TotalBlocked int            `json:"totalBlocked"`
	SiteStats    map[string]int `json:"siteStats"`
	WordStats    map[string]int `json:"wordStats"`
	TimeStarted  int64          `json:"timeStarted"`
}

// NewStats returns empty counters started at now.
func NewStats(now time.Time) Stats {
	return Stats{
		SiteStats:   make(map[string]int),
		WordStats:   make(map[string]int),
		TimeStarted: now.UnixMilli(),
	}
}

// Add counts one removal of word on site.
func (s *Stats) Add(word string, site Site) {
	if s.SiteStats == nil {
		s.SiteStats = make(map[string]int)
	}
	if s.WordStats == nil {
		s.WordStats = make(map[string]int)
	}
	s.TotalBlocked++
	s.SiteStats[string(site)]++
	s.WordStats[word]++
}

// StatsRecorder persists removal counters. The core only calls
// RecordRemoval and must not depend on how the recorder batches writes.
type StatsRecorder interface {
	// RecordRemoval counts one removal of word on site.
	RecordRemoval(ctx context.Context, word string, site Site) error

	// ResetSession clears the per-session counters.
	ResetSession(ctx context.Context) error

	// Flush writes any pending counters to storage.
	Flush(ctx context.Context) error
}
