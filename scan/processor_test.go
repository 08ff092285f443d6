package scan_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/goquery"
	"github.com/fwojciec/muffle/mock"
	"github.com/fwojciec/muffle/scan"
	"github.com/fwojciec/muffle/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forumPage = `<html><body><div id="feed">
<div class="thing" data-fullname="t3_1"><a class="title">Musk launches new rocket</a></div>
<div class="thing" data-fullname="t3_2"><a class="title">Gardening tips</a></div>
</div></body></html>`

const videoPage = `<html><body><ytd-app><div id="contents">
<ytd-rich-item-renderer><a id="video-title-link" href="/watch?v=1">Trumpet lessons for beginners</a></ytd-rich-item-renderer>
</div></ytd-app></body></html>`

const oldForumPage = `<html><body><div id="siteTable">
<div class="thing" data-fullname="t3_a"><div class="entry"><a class="title">Rogan episode</a></div></div>
<div class="thing" data-fullname="t3_b"><div class="entry"><a class="title">Gardening</a></div></div>
</div></body></html>`

func newDocument(t *testing.T, hostname, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocument(hostname, html)
	require.NoError(t, err)
	return doc
}

func settingsOf(words ...string) func() muffle.Settings {
	return func() muffle.Settings { return muffle.Settings{Enabled: true, Words: words} }
}

// records collects removal records.
type records struct {
	mu   sync.Mutex
	list []muffle.RemovalRecord
}

func (r *records) add(rec muffle.RemovalRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, rec)
}

func (r *records) all() []muffle.RemovalRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]muffle.RemovalRecord(nil), r.list...)
}

// newProcessor builds a processor over doc with immediate removals.
func newProcessor(t *testing.T, doc muffle.Document, settings func() muffle.Settings, opts ...scan.Option) (*scan.Processor, *records) {
	t.Helper()
	sched := scan.NewScheduler(context.Background())
	t.Cleanup(sched.Stop)
	rec := &records{}
	opts = append([]scan.Option{scan.WithRemovalHook(rec.add)}, opts...)
	registry := site.NewDefaultRegistry(site.WithFadeDuration(0))
	return scan.NewProcessor(doc, registry, settings, sched, opts...), rec
}

func TestProcessor_ForumPostRemoved(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", forumPage)
	p, rec := newProcessor(t, doc, settingsOf("musk"))

	n, err := p.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, doc.Has(`[data-fullname="t3_1"]`))
	assert.True(t, doc.Has(`[data-fullname="t3_2"]`))
	removals := rec.all()
	require.Len(t, removals, 1)
	assert.Equal(t, "musk", removals[0].Word)
	assert.Equal(t, muffle.SiteReddit, removals[0].Site)
	assert.Equal(t, "div", removals[0].Tag)
	assert.Equal(t, "thing", removals[0].Classes)
	assert.Equal(t, "Musk launches new rocket", removals[0].Snippet)
	assert.Equal(t, 1, removals[0].Count)
	assert.Equal(t, 1, p.Removals())
}

func TestProcessor_Idempotent(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", forumPage)
	p, rec := newProcessor(t, doc, settingsOf("musk"))

	_, err := p.Force(context.Background())
	require.NoError(t, err)
	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, rec.all(), 1)
}

func TestProcessor_BoundaryAvoidsFalsePositive(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.youtube.com", videoPage)
	p, rec := newProcessor(t, doc, settingsOf("trump"))

	n, err := p.Scan(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, rec.all())
	assert.True(t, doc.Has("ytd-rich-item-renderer"))
}

func TestProcessor_DisabledShortCircuit(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", forumPage)
	var resolved atomic.Bool
	registry := &mock.AdapterRegistry{
		ResolveFn: func(string) muffle.Adapter {
			resolved.Store(true)
			return site.NewReddit()
		},
	}
	stats := &mock.StatsRecorder{
		RecordRemovalFn: func(context.Context, string, muffle.Site) error {
			t.Fatal("stats must not be updated while disabled")
			return nil
		},
	}
	disabled := func() muffle.Settings { return muffle.Settings{Enabled: false, Words: []string{"musk"}} }
	p := scan.NewProcessor(doc, registry, disabled, nil, scan.WithStats(stats))

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, resolved.Load())
	assert.True(t, doc.Has(`[data-fullname="t3_1"]`))
}

// countingAdapter wraps Generic-like behaviour with call counting.
func countingAdapter(doc *goquery.Document, calls *atomic.Int32, block chan struct{}) *mock.Adapter {
	generic := site.NewGeneric()
	return &mock.Adapter{
		SiteFn: func() muffle.Site { return "test" },
		CandidatesFn: func(d muffle.Document) []muffle.Candidate {
			calls.Add(1)
			if block != nil {
				<-block
			}
			return generic.Candidates(d)
		},
		RemovalTargetFn: generic.RemovalTarget,
		RemoveFn:        generic.Remove,
		AdjustLayoutFn:  func(muffle.Document) error { return nil },
	}
}

func registryFor(a muffle.Adapter) *mock.AdapterRegistry {
	return &mock.AdapterRegistry{ResolveFn: func(string) muffle.Adapter { return a }}
}

func TestProcessor_Throttle(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p>hello</p></body>`)
	var calls atomic.Int32
	p := scan.NewProcessor(doc, registryFor(countingAdapter(doc, &calls, nil)), settingsOf("musk"), nil,
		scan.WithThrottle(time.Hour))

	_, err := p.Scan(context.Background())
	require.NoError(t, err)
	_, err = p.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second request is dropped")

	_, err = p.Force(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load(), "forced pass ignores the throttle")
}

func TestProcessor_NotReentrant(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p>hello</p></body>`)
	var calls atomic.Int32
	block := make(chan struct{})
	p := scan.NewProcessor(doc, registryFor(countingAdapter(doc, &calls, block)), settingsOf("musk"), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Force(context.Background())
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	close(block)
	<-done
	assert.Equal(t, int32(1), calls.Load())
}

func TestProcessor_RemovalErrorsAreSkipped(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p id="a">Elon one</p><p id="b">Elon two</p></body>`)
	generic := site.NewGeneric()
	adapter := &mock.Adapter{
		SiteFn:          func() muffle.Site { return "test" },
		CandidatesFn:    generic.Candidates,
		RemovalTargetFn: generic.RemovalTarget,
		RemoveFn: func(target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error {
			if target.ID() == "a" {
				return errors.New("node detached")
			}
			return generic.Remove(target, word, sched, notify)
		},
		AdjustLayoutFn: func(muffle.Document) error { return errors.New("layout broke") },
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := scan.NewProcessor(doc, registryFor(adapter), settingsOf("elon"), nil, scan.WithLogger(logger))

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, doc.Has("#a"))
	assert.False(t, doc.Has("#b"))
	output := buf.String()
	assert.Contains(t, output, "removal failed")
	assert.Contains(t, output, `err="node detached"`)
	assert.Contains(t, output, "layout adjustment failed")
	assert.Contains(t, output, "count=1")
}

func TestProcessor_ContentChangeIsReevaluated(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p id="p">hello</p></body>`)
	p, rec := newProcessor(t, doc, settingsOf("elon"), scan.WithScanGeneric(true))

	n, err := p.Force(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = doc.Append("#p", " Elon")
	require.NoError(t, err)
	n, err = p.Force(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, doc.Has("#p"))
	assert.Len(t, rec.all(), 1)
}

func TestProcessor_DuplicateContentIsRemovedEverywhere(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p>Elon</p><p>Elon</p></body>`)
	p, _ := newProcessor(t, doc, settingsOf("elon"), scan.WithScanGeneric(true))

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, doc.Has("p"))
}

func TestProcessor_GenericSkippedByDefault(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p>Elon</p></body>`)
	p, _ := newProcessor(t, doc, settingsOf("elon"))

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, doc.Has("p"))
}

func TestProcessor_SkipsMarkedElements(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", `<body>
<div class="thing" data-fullname="t3_1" data-muffled="dimmed"><a class="title">Musk</a></div>
</body>`)
	p, rec := newProcessor(t, doc, settingsOf("musk"))

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, rec.all())
}

func TestProcessor_StatsRecorded(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", forumPage)
	var (
		mu    sync.Mutex
		words []string
	)
	stats := &mock.StatsRecorder{
		RecordRemovalFn: func(_ context.Context, word string, s muffle.Site) error {
			mu.Lock()
			defer mu.Unlock()
			words = append(words, word+"@"+string(s))
			return errors.New("storage down")
		},
	}
	var buf bytes.Buffer
	p, _ := newProcessor(t, doc, settingsOf("gardening", "musk"),
		scan.WithStats(stats), scan.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	mu.Lock()
	assert.Equal(t, []string{"musk@reddit", "gardening@reddit"}, words)
	mu.Unlock()
	assert.Contains(t, buf.String(), "stats update failed")
}

func TestProcessor_DelayedRemovalAfterDisableSkipsStats(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", `<html><body><article class="Post"><h3>Musk news</h3></article></body></html>`)
	var enabled atomic.Bool
	enabled.Store(true)
	settings := func() muffle.Settings {
		return muffle.Settings{Enabled: enabled.Load(), Words: []string{"musk"}}
	}
	var updates atomic.Int32
	stats := &mock.StatsRecorder{
		RecordRemovalFn: func(context.Context, string, muffle.Site) error {
			updates.Add(1)
			return nil
		},
	}
	sched := scan.NewScheduler(context.Background())
	t.Cleanup(sched.Stop)
	rec := &records{}
	registry := site.NewDefaultRegistry(site.WithFadeDuration(50 * time.Millisecond))
	p := scan.NewProcessor(doc, registry, settings, sched, scan.WithStats(stats), scan.WithRemovalHook(rec.add))

	n, err := p.Force(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	enabled.Store(false)

	assert.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), updates.Load())
	assert.False(t, doc.Has("article.Post"))
}

func TestProcessor_LedgerBound(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p>hello</p></body>`)
	var resets atomic.Int32
	ledger := &mock.Ledger{
		ShouldProcessFn: func(string) bool { return true },
		MarkProcessedFn: func(string) {},
		ResetFn:         func() { resets.Add(1) },
		LenFn:           func() int { return 10 },
	}
	var calls atomic.Int32
	p := scan.NewProcessor(doc, registryFor(countingAdapter(doc, &calls, nil)), settingsOf("musk"), nil,
		scan.WithLedger(ledger), scan.WithLedgerCap(5))

	_, err := p.Force(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), resets.Load(), "word list seen for the first time and page grew")

	_, err = p.Force(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), resets.Load(), "page did not grow")

	_, err = doc.Append("body", "<p>more</p>")
	require.NoError(t, err)
	_, err = p.Force(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), resets.Load())
}

func TestProcessor_WordChangeResetsLedger(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", forumPage)
	words := []string{"elon"}
	var mu sync.Mutex
	settings := func() muffle.Settings {
		mu.Lock()
		defer mu.Unlock()
		return muffle.Settings{Enabled: true, Words: words}
	}
	p, rec := newProcessor(t, doc, settings)

	n, err := p.Force(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	mu.Lock()
	words = []string{"gardening"}
	mu.Unlock()
	n, err = p.Force(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, rec.all(), 1)
	assert.Equal(t, "gardening", rec.all()[0].Word)
}

func TestProcessor_CustomLoop(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "old.reddit.com", oldForumPage)
	p, rec := newProcessor(t, doc, settingsOf("rogan"))

	n, err := p.Force(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n, "the custom loop reports through notify only")
	removals := rec.all()
	require.Len(t, removals, 1)
	assert.Equal(t, "rogan", removals[0].Word)
	assert.Len(t, doc.Find("."+site.RedditHiddenClass), 1)
}
