package scan

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/muffle"
	"golang.org/x/time/rate"
)

// Processor defaults.
const (
	DefaultThrottle  = 100 * time.Millisecond
	DefaultLedgerCap = 5000
)

// digestLength is the number of bytes of candidate text hashed into a ledger
// key.
const digestLength = 1000

// markedSelector matches elements already removed, hidden or dimmed.
var markedSelector = "[" + muffle.MarkerAttr + "]"

// Processor runs scan passes over a single document: candidate discovery,
// matching, removal target resolution, ledger bookkeeping and removal.
//
// Passes never overlap. Throttled passes are dropped, not queued.
type Processor struct {
	document  muffle.Document
	registry  muffle.AdapterRegistry
	ledger    muffle.Ledger
	settings  func() muffle.Settings
	scheduler muffle.Scheduler
	stats     muffle.StatsRecorder
	matcher   *muffle.Matcher
	logger    *slog.Logger
	onRemoval func(muffle.RemovalRecord)

	ledgerCap   int
	scanGeneric bool

	limiter  *rate.Limiter
	scanning atomic.Bool
	count    atomic.Int64

	// Owned by the goroutine holding the scanning guard.
	lastHeight int
	wordsKey   string

	pollMu    sync.Mutex
	poller    muffle.Poller
	pollerEnv muffle.PollEnv
}

// Option configures a Processor.
type Option func(*Processor)

// WithThrottle sets the minimum interval between two throttled passes.
func WithThrottle(d time.Duration) Option {
	return func(p *Processor) {
		p.limiter = newLimiter(d)
	}
}

// WithLedger replaces the default exact ledger.
func WithLedger(l muffle.Ledger) Option {
	return func(p *Processor) {
		p.ledger = l
	}
}

// WithLedgerCap sets the ledger size above which it is cleared on the next
// page height growth.
func WithLedgerCap(n int) Option {
	return func(p *Processor) {
		p.ledgerCap = n
	}
}

// WithStats sets the recorder notified of every removal.
func WithStats(r muffle.StatsRecorder) Option {
	return func(p *Processor) {
		p.stats = r
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// WithScanGeneric enables scanning pages no site adapter claims.
func WithScanGeneric(enabled bool) Option {
	return func(p *Processor) {
		p.scanGeneric = enabled
	}
}

// WithRemovalHook registers fn to receive every removal record.
func WithRemovalHook(fn func(muffle.RemovalRecord)) Option {
	return func(p *Processor) {
		p.onRemoval = fn
	}
}

// WithMatcher sets the word matcher.
func WithMatcher(m *muffle.Matcher) Option {
	return func(p *Processor) {
		p.matcher = m
	}
}

// NewProcessor returns a Processor for doc. settings is consulted before
// every pass; sched receives delayed removals and adapter loops.
func NewProcessor(doc muffle.Document, registry muffle.AdapterRegistry, settings func() muffle.Settings, sched muffle.Scheduler, opts ...Option) *Processor {
	p := &Processor{
		document:  doc,
		registry:  registry,
		ledger:    NewLedger(),
		settings:  settings,
		scheduler: sched,
		matcher:   muffle.NewMatcher(),
		logger:    slog.New(slog.DiscardHandler),
		ledgerCap: DefaultLedgerCap,
		limiter:   newLimiter(DefaultThrottle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Adapter returns the adapter resolved for the document.
func (p *Processor) Adapter() muffle.Adapter {
	return p.registry.Resolve(p.document.Hostname())
}

// Scan runs one pass unless the engine is disabled, another pass is in
// flight or the previous pass started less than the throttle interval ago.
// It returns the number of removals initiated.
func (p *Processor) Scan(ctx context.Context) (int, error) {
	return p.run(ctx, true)
}

// Force runs one pass ignoring the throttle. It still honours the enabled
// flag and the reentrancy guard.
func (p *Processor) Force(ctx context.Context) (int, error) {
	return p.run(ctx, false)
}

// Removals returns the number of removals reported so far.
func (p *Processor) Removals() int {
	return int(p.count.Load())
}

func (p *Processor) run(ctx context.Context, throttle bool) (int, error) {
	settings := p.settings()
	if !settings.Enabled || len(settings.Words) == 0 {
		return 0, nil
	}
	if !p.scanning.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer p.scanning.Store(false)

	if throttle && !p.limiter.Allow() {
		return 0, nil
	}
	return p.scan(ctx, settings)
}

func (p *Processor) scan(ctx context.Context, settings muffle.Settings) (int, error) {
	adapter := p.Adapter()
	if adapter.Site() == muffle.SiteGeneric && !p.scanGeneric {
		return 0, nil
	}

	if key := strings.Join(settings.Words, "\x00"); key != p.wordsKey {
		p.wordsKey = key
		p.ledger.Reset()
	}
	p.boundLedger()

	if p.pollerActive(adapter) {
		p.poller.Process(p.pollerEnv)
		return 0, nil
	}

	if err := adapter.AdjustLayout(p.document); err != nil {
		p.logger.Warn("layout adjustment failed", "site", adapter.Site(), "err", err)
	}

	notify := p.notifier(ctx)
	removed := 0
	for _, c := range adapter.Candidates(p.document) {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		el := c.Element
		if el == nil || !el.Connected() || el.Closest(markedSelector) != nil {
			continue
		}

		key := ledgerKey(c)
		if !p.ledger.ShouldProcess(key) {
			continue
		}

		word, ok := p.matcher.FindMatch(c.Text, settings.Words)
		if !ok {
			p.ledger.MarkProcessed(key)
			continue
		}

		target := adapter.RemovalTarget(el)
		if target == nil || target.IsBody() {
			target = el
		}
		if target.IsBody() {
			p.ledger.MarkProcessed(key)
			continue
		}
		if _, marked := target.Attr(muffle.MarkerAttr); marked {
			continue
		}

		if err := adapter.Remove(target, word, p.scheduler, notify); err != nil {
			p.ledger.MarkProcessed(key)
			p.logger.Warn("removal failed",
				"site", adapter.Site(),
				"tag", target.Tag(),
				"word", word,
				"err", err,
			)
			continue
		}
		removed++
	}
	return removed, nil
}

// boundLedger clears the ledger once it has grown past its cap and the page
// has grown since the previous pass.
func (p *Processor) boundLedger() {
	height := p.document.Height()
	grew := height > p.lastHeight
	p.lastHeight = height
	if grew && p.ledger.Len() > p.ledgerCap {
		p.logger.Debug("ledger cleared", "size", p.ledger.Len(), "height", height)
		p.ledger.Reset()
	}
}

// pollerActive installs the adapter's custom loop on first use and reports
// whether it replaces the standard pipeline.
func (p *Processor) pollerActive(adapter muffle.Adapter) bool {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	if p.poller != nil {
		return true
	}
	poller, ok := adapter.(muffle.Poller)
	if !ok {
		return false
	}
	env := muffle.PollEnv{
		Document:  p.document,
		Scheduler: p.scheduler,
		Settings:  p.settings,
		Notify:    p.notifier(context.Background()),
		Logger:    p.logger,
	}
	if !poller.Install(env) {
		return false
	}
	p.logger.Info("custom loop installed", "site", adapter.Site())
	p.poller = poller
	p.pollerEnv = env
	return true
}

// notifier returns the callback adapters call once per removal. Delayed
// removals outlive the pass, so the callback does not inherit cancellation.
func (p *Processor) notifier(ctx context.Context) muffle.RemovalFunc {
	ctx = context.WithoutCancel(ctx)
	return func(r muffle.Removal) {
		record := muffle.RemovalRecord{
			Site:    r.Site,
			Word:    r.Word,
			Snippet: muffle.Snippet(r.Text),
			Count:   int(p.count.Add(1)),
		}
		if r.Element != nil {
			record.Tag = r.Element.Tag()
			record.Classes = r.Element.ClassName()
		}

		p.logger.Info("removed",
			"site", record.Site,
			"tag", record.Tag,
			"classes", record.Classes,
			"word", record.Word,
			"text", record.Snippet,
			"count", record.Count,
		)

		// A delayed removal can land after filtering was switched off.
		if p.stats != nil && p.settings().Enabled {
			if err := p.stats.RecordRemoval(ctx, record.Word, record.Site); err != nil {
				p.logger.Warn("stats update failed", "word", record.Word, "err", err)
			}
		}
		if p.onRemoval != nil {
			p.onRemoval(record)
		}
	}
}

// ledgerKey combines the candidate's identity with a digest of its text, so
// a unit whose content changes after first sight is evaluated again.
func ledgerKey(c muffle.Candidate) string {
	text := c.Text
	if len(text) > digestLength {
		text = text[:digestLength]
	}
	return c.Identity + "#" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}
