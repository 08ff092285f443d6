//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/rod"
	"github.com/fwojciec/muffle/scan"
	"github.com/fwojciec/muffle/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `<!DOCTYPE html>
<html>
<body>
<div id="feed">
	<p class="post" data-id="1">Musk buys another company</p>
	<p class="post" data-id="2">Gardening tips for spring</p>
</div>
</body>
</html>`

func attach(t *testing.T) (*rod.Document, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(feed))
	}))

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)

	page, err := manager.OpenPage(context.Background(), srv.URL)
	require.NoError(t, err)

	doc, err := rod.Attach(context.Background(), page)
	require.NoError(t, err)

	return doc, func() {
		_ = doc.Close()
		_ = page.Close()
		_ = manager.Close()
		srv.Close()
	}
}

func TestDocument_Queries(t *testing.T) {
	t.Parallel()

	doc, cleanup := attach(t)
	defer cleanup()

	assert.Equal(t, "127.0.0.1", doc.Hostname())
	assert.True(t, doc.Has("#feed"))
	assert.False(t, doc.Has("[[["))
	assert.Empty(t, doc.Find("[[["))
	assert.Positive(t, doc.Height())

	posts := doc.Find("p.post")
	require.Len(t, posts, 2)
	assert.Equal(t, "p", posts[0].Tag())
	assert.Equal(t, "Musk buys another company", posts[0].Text())
	assert.True(t, posts[0].HasClass("post"))
	id, ok := posts[0].Attr("data-id")
	assert.True(t, ok)
	assert.Equal(t, "1", id)

	parent := posts[0].Parent()
	require.NotNil(t, parent)
	assert.Equal(t, "feed", parent.ID())
	assert.NotNil(t, posts[0].Closest("#feed"))
	assert.Nil(t, posts[0].Closest("nav"))
	assert.True(t, posts[0].Equal(doc.Find("p.post")[0]))
	assert.True(t, doc.Body().IsBody())
}

func TestDocument_Mutators(t *testing.T) {
	t.Parallel()

	doc, cleanup := attach(t)
	defer cleanup()

	post := doc.Find("p.post")[1]
	require.NoError(t, post.SetStyle("opacity", "0.2"))
	require.NoError(t, post.SetAttr(muffle.MarkerAttr, "dimmed"))
	require.NoError(t, post.AddClass("muffled"))

	assert.True(t, doc.Has(`[data-muffled="dimmed"].muffled`))

	require.NoError(t, post.Remove())
	assert.False(t, post.Connected())
	assert.Equal(t, muffle.EINVALID, muffle.ErrorCode(post.Remove()))
}

func TestDocument_ObserveReportsInsertions(t *testing.T) {
	t.Parallel()

	doc, cleanup := attach(t)
	defer cleanup()

	changed := make(chan struct{}, 1)
	disconnect := doc.Observe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer disconnect()

	_, err := doc.Page().Eval(`() => document.getElementById("feed").insertAdjacentHTML("beforeend", "<p class='post'>New</p>")`)
	require.NoError(t, err)

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("mutation was not reported")
	}
}

func TestDocument_AliveUntilNavigation(t *testing.T) {
	t.Parallel()

	doc, cleanup := attach(t)
	defer cleanup()

	assert.True(t, doc.Alive(context.Background()))

	require.NoError(t, doc.Page().Navigate("about:blank"))
	require.NoError(t, doc.Page().WaitLoad())

	assert.False(t, doc.Alive(context.Background()))
}

func TestDocument_ObserverRemovesMatches(t *testing.T) {
	t.Parallel()

	doc, cleanup := attach(t)
	defer cleanup()

	ctx := context.Background()
	sched := scan.NewScheduler(ctx)
	settings := func() muffle.Settings {
		return muffle.Settings{Enabled: true, Words: []string{"musk"}}
	}
	processor := scan.NewProcessor(doc, site.NewDefaultRegistry(), settings, sched, scan.WithScanGeneric(true))
	observer := &scan.Observer{
		Processor: processor,
		Document:  doc,
		Mutations: doc,
		Scheduler: sched,
		Liveness:  doc,
	}
	require.NoError(t, observer.Start(ctx))
	defer observer.Teardown()

	assert.Len(t, doc.Find("p.post"), 1)

	_, err := doc.Page().Eval(`() => document.getElementById("feed").insertAdjacentHTML("beforeend", "<p class='post'>Elon and Musk again</p>")`)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return processor.Removals() == 2
	}, 5*time.Second, 50*time.Millisecond)
	assert.Len(t, doc.Find("p.post"), 1)
}
