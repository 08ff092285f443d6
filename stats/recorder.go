// Package stats persists removal counters. Aggregate counters are batched;
// session counters are written on every removal.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.StatsRecorder = (*Recorder)(nil)

// Batching defaults.
const (
	DefaultBatchSize     = 10
	DefaultFlushInterval = 5 * time.Second
)

// Recorder counts removals in memory and persists them to storage under
// muffle.KeyBlockStats and muffle.KeySessionStats.
// Recorder is safe for concurrent use by multiple goroutines.
type Recorder struct {
	storage   muffle.Storage
	batchSize int
	interval  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	loaded  bool
	total   muffle.Stats
	session muffle.Stats
	pending int
	timer   *time.Timer
	closed  bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithBatchSize sets the number of pending updates that triggers a flush.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		r.batchSize = n
	}
}

// WithFlushInterval sets how long pending updates may wait for a flush.
func WithFlushInterval(d time.Duration) Option {
	return func(r *Recorder) {
		r.interval = d
	}
}

// WithClock sets the clock used to stamp new counters.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder returns a Recorder backed by storage.
func NewRecorder(storage muffle.Storage, opts ...Option) *Recorder {
	r := &Recorder{
		storage:   storage,
		batchSize: DefaultBatchSize,
		interval:  DefaultFlushInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordRemoval counts one removal of word on site. The session counters
// are written immediately; aggregate counters are flushed once the batch is
// full or the flush interval elapses.
func (r *Recorder) RecordRemoval(ctx context.Context, word string, site muffle.Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return muffle.Errorf(muffle.ECLOSED, "stats recorder closed")
	}
	if err := r.load(ctx); err != nil {
		return err
	}

	r.total.Add(word, site)
	r.session.Add(word, site)
	r.pending++

	if err := r.write(ctx, muffle.KeySessionStats, r.session); err != nil {
		return err
	}
	if r.pending >= r.batchSize {
		return r.flush(ctx)
	}
	if r.timer == nil {
		r.timer = time.AfterFunc(r.interval, r.flushLater)
	}
	return nil
}

// ResetSession replaces the session counters with empty ones.
func (r *Recorder) ResetSession(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return err
	}
	r.session = muffle.NewStats(r.now())
	return r.write(ctx, muffle.KeySessionStats, r.session)
}

// Flush writes pending aggregate counters.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush(ctx)
}

// Close flushes pending counters. Later removals are rejected.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.flush(ctx)
}

// Snapshot returns copies of the aggregate and session counters.
func (r *Recorder) Snapshot(ctx context.Context) (total, session muffle.Stats, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return muffle.Stats{}, muffle.Stats{}, err
	}
	return clone(r.total), clone(r.session), nil
}

func (r *Recorder) flushLater() {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Errors surface on the next explicit Flush, which retries the write.
	_ = r.flush(context.Background())
}

// flush must be called with mu held.
func (r *Recorder) flush(ctx context.Context) error {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.pending == 0 {
		return nil
	}
	if err := r.write(ctx, muffle.KeyBlockStats, r.total); err != nil {
		return err
	}
	r.pending = 0
	return nil
}

// load reads stored counters once. Must be called with mu held.
func (r *Recorder) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	values, err := r.storage.Get(ctx, muffle.KeyBlockStats, muffle.KeySessionStats)
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	r.total = r.decode(values[muffle.KeyBlockStats])
	r.session = r.decode(values[muffle.KeySessionStats])
	r.loaded = true
	return nil
}

func (r *Recorder) decode(raw json.RawMessage) muffle.Stats {
	s := muffle.NewStats(r.now())
	if len(raw) == 0 {
		return s
	}
	var stored muffle.Stats
	if err := json.Unmarshal(raw, &stored); err != nil {
		return s
	}
	if stored.TimeStarted == 0 {
		stored.TimeStarted = s.TimeStarted
	}
	if stored.SiteStats == nil {
		stored.SiteStats = s.SiteStats
	}
	if stored.WordStats == nil {
		stored.WordStats = s.WordStats
	}
	return stored
}

func (r *Recorder) write(ctx context.Context, key string, s muffle.Stats) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.storage.Set(ctx, map[string]json.RawMessage{key: raw}); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func clone(s muffle.Stats) muffle.Stats {
	out := s
	out.SiteStats = make(map[string]int, len(s.SiteStats))
	for k, v := range s.SiteStats {
		out.SiteStats[k] = v
	}
	out.WordStats = make(map[string]int, len(s.WordStats))
	for k, v := range s.WordStats {
		out.WordStats[k] = v
	}
	return out
}
