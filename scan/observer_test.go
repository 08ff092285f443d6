package scan_test

import (
	"context"
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

// newObserver builds an observer over doc with immediate removals.
func newObserver(t *testing.T, doc *goquery.Document, words ...string) (*scan.Observer, *records) {
	t.Helper()
	sched := scan.NewScheduler(context.Background())
	rec := &records{}
	registry := site.NewDefaultRegistry(site.WithFadeDuration(0))
	p := scan.NewProcessor(doc, registry, settingsOf(words...), sched,
		scan.WithRemovalHook(rec.add), scan.WithScanGeneric(true), scan.WithThrottle(time.Millisecond))
	o := &scan.Observer{
		Processor: p,
		Document:  doc,
		Mutations: doc,
		Scheduler: sched,
		Liveness:  doc,
		Frame:     time.Millisecond,
	}
	t.Cleanup(o.Teardown)
	return o, rec
}

func TestObserver_Start(t *testing.T) {
	t.Parallel()

	t.Run("runs the first pass before returning", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.reddit.com", forumPage)
		o, rec := newObserver(t, doc, "musk")

		require.NoError(t, o.Start(context.Background()))

		assert.Len(t, rec.all(), 1)
		assert.False(t, doc.Has(`[data-fullname="t3_1"]`))
	})

	t.Run("rejects a second start", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.reddit.com", forumPage)
		o, _ := newObserver(t, doc, "musk")
		require.NoError(t, o.Start(context.Background()))

		err := o.Start(context.Background())

		assert.Equal(t, muffle.EINVALID, muffle.ErrorCode(err))
	})

	t.Run("rejects start after teardown", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.reddit.com", forumPage)
		o, _ := newObserver(t, doc, "musk")
		o.Teardown()

		err := o.Start(context.Background())

		assert.Equal(t, muffle.ECLOSED, muffle.ErrorCode(err))
	})
}

func TestObserver_ScansAppendedContent(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", forumPage)
	o, rec := newObserver(t, doc, "musk", "elon")
	require.NoError(t, o.Start(context.Background()))

	_, err := doc.Append("#feed", `<div class="thing" data-fullname="t3_3"><a class="title">Elon tweets again</a></div>`)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(rec.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, doc.Has(`[data-fullname="t3_3"]`))
	assert.True(t, doc.Has(`[data-fullname="t3_2"]`))
}

func TestObserver_CoalescesMutations(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "example.com", `<body><p>hello</p></body>`)
	var calls atomic.Int32
	var fire func()
	mutations := &mock.MutationSource{
		ObserveFn: func(fn func()) func() {
			fire = fn
			return func() {}
		},
	}
	sched := scan.NewScheduler(context.Background())
	p := scan.NewProcessor(doc, registryFor(countingAdapter(doc, &calls, nil)), settingsOf("musk"), sched)
	o := &scan.Observer{
		Processor: p,
		Document:  doc,
		Mutations: mutations,
		Scheduler: sched,
		Frame:     20 * time.Millisecond,
	}
	defer o.Teardown()
	require.NoError(t, o.Start(context.Background()))
	require.Equal(t, int32(1), calls.Load())

	for range 50 {
		fire()
	}

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestObserver_Teardown(t *testing.T) {
	t.Parallel()

	t.Run("is idempotent and stops every timer", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.youtube.com", `<body><div id="page"></div></body>`)
		sched := scan.NewScheduler(context.Background())
		var teardowns atomic.Int32
		p := scan.NewProcessor(doc, site.NewDefaultRegistry(), settingsOf("musk"), sched)
		o := &scan.Observer{
			Processor:  p,
			Document:   doc,
			Mutations:  doc,
			Scheduler:  sched,
			Liveness:   doc,
			OnTeardown: func() { teardowns.Add(1) },
		}
		require.NoError(t, o.Start(context.Background()))
		require.Equal(t, 2, sched.Active(), "app shell poll and liveness check")

		assert.NotPanics(t, o.Teardown)
		assert.NotPanics(t, o.Teardown)

		assert.Zero(t, sched.Active())
		assert.Equal(t, int32(1), teardowns.Load())
		select {
		case <-o.Done():
		case <-time.After(time.Second):
			t.Fatal("scan loop still running")
		}
	})

	t.Run("before start is safe", func(t *testing.T) {
		t.Parallel()

		o := &scan.Observer{}

		assert.NotPanics(t, o.Teardown)
		assert.NotPanics(t, o.Teardown)
	})

	t.Run("done obtained before start closes when the loop exits", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.reddit.com", forumPage)
		o, _ := newObserver(t, doc, "musk")
		done := o.Done()
		require.NotNil(t, done)
		require.NoError(t, o.Start(context.Background()))

		o.Teardown()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scan loop still running")
		}
	})

	t.Run("done closes on teardown without start", func(t *testing.T) {
		t.Parallel()

		o := &scan.Observer{}
		done := o.Done()

		o.Teardown()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("done never closed")
		}
	})

	t.Run("pending fades are reported before teardown completes", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.reddit.com", `<html><body><article class="Post"><h3>Musk news</h3></article></body></html>`)
		sched := scan.NewScheduler(context.Background())
		rec := &records{}
		registry := site.NewDefaultRegistry(site.WithFadeDuration(time.Hour))
		p := scan.NewProcessor(doc, registry, settingsOf("musk"), sched, scan.WithRemovalHook(rec.add))
		var atTeardown int
		o := &scan.Observer{
			Processor:  p,
			Document:   doc,
			Mutations:  doc,
			Scheduler:  sched,
			OnTeardown: func() { atTeardown = len(rec.all()) },
		}
		require.NoError(t, o.Start(context.Background()))
		require.Empty(t, rec.all())

		o.Teardown()

		assert.Equal(t, 1, atTeardown)
		assert.Len(t, rec.all(), 1)
		assert.False(t, doc.Has("article.Post"))
	})

	t.Run("context cancellation tears down", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.reddit.com", forumPage)
		o, _ := newObserver(t, doc, "musk")
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, o.Start(ctx))

		cancel()

		select {
		case <-o.Done():
		case <-time.After(time.Second):
			t.Fatal("scan loop still running")
		}
	})
}

func TestObserver_LivenessFailureTearsDown(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, "www.reddit.com", forumPage)
	sched := scan.NewScheduler(context.Background())
	p := scan.NewProcessor(doc, site.NewDefaultRegistry(), settingsOf("musk"), sched)
	torn := make(chan struct{})
	o := &scan.Observer{
		Processor:        p,
		Document:         doc,
		Mutations:        doc,
		Scheduler:        sched,
		Liveness:         &mock.LivenessChecker{AliveFn: func(context.Context) bool { return false }},
		LivenessInterval: 5 * time.Millisecond,
		OnTeardown:       func() { close(torn) },
	}
	require.NoError(t, o.Start(context.Background()))

	select {
	case <-torn:
	case <-time.After(time.Second):
		t.Fatal("observer was not torn down")
	}
	assert.Zero(t, sched.Active())
}

func TestObserver_AppShellPoll(t *testing.T) {
	t.Parallel()

	t.Run("scans once the shell mounts", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.youtube.com", `<body><div id="page"></div></body>`)
		sched := scan.NewScheduler(context.Background())
		rec := &records{}
		p := scan.NewProcessor(doc, site.NewDefaultRegistry(site.WithFadeDuration(0)), settingsOf("rogan"), sched,
			scan.WithRemovalHook(rec.add))
		quiet := &mock.MutationSource{ObserveFn: func(func()) func() { return func() {} }}
		o := &scan.Observer{
			Processor:        p,
			Document:         doc,
			Mutations:        quiet,
			Scheduler:        sched,
			AppShellInterval: 5 * time.Millisecond,
		}
		defer o.Teardown()
		require.NoError(t, o.Start(context.Background()))
		require.Equal(t, 1, sched.Active())

		_, err := doc.Append("#page", `<ytd-app><ytd-video-renderer>Rogan podcast clip</ytd-video-renderer></ytd-app>`)
		require.NoError(t, err)

		assert.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, time.Millisecond)
		assert.Eventually(t, func() bool { return sched.Active() == 0 }, time.Second, time.Millisecond)
	})

	t.Run("gives up after the timeout", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.youtube.com", `<body></body>`)
		sched := scan.NewScheduler(context.Background())
		p := scan.NewProcessor(doc, site.NewDefaultRegistry(), settingsOf("rogan"), sched)
		o := &scan.Observer{
			Processor:        p,
			Document:         doc,
			Mutations:        doc,
			Scheduler:        sched,
			AppShellInterval: 5 * time.Millisecond,
			AppShellTimeout:  20 * time.Millisecond,
		}
		defer o.Teardown()
		require.NoError(t, o.Start(context.Background()))

		assert.Eventually(t, func() bool { return sched.Active() == 0 }, time.Second, time.Millisecond)
	})

	t.Run("is skipped when the shell is already mounted", func(t *testing.T) {
		t.Parallel()

		doc := newDocument(t, "www.youtube.com", videoPage)
		sched := scan.NewScheduler(context.Background())
		p := scan.NewProcessor(doc, site.NewDefaultRegistry(), settingsOf("rogan"), sched)
		o := &scan.Observer{Processor: p, Document: doc, Mutations: doc, Scheduler: sched}
		defer o.Teardown()

		require.NoError(t, o.Start(context.Background()))

		assert.Zero(t, sched.Active())
	})
}
