package site

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/muffle"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var (
	_ muffle.Adapter = (*Reddit)(nil)
	_ muffle.Poller  = (*Reddit)(nil)
)

// Reddit selectors.
const (
	// redditOldUIMarker is only present on the classic UI.
	redditOldUIMarker = "#siteTable"

	redditCandidates = `div.thing, [data-fullname], article.Post, article[data-testid="post-container"], ` +
		`div[data-testid="post"], shreddit-post, shreddit-comment, .Post, [data-test-id="post-content"], .link, .comment, .Comment`
	redditOldUICandidates = "#siteTable > .thing, #siteTable .title, #siteTable .md"

	redditPosts   = "#siteTable > .thing, .sitetable > .thing, .linklisting > .thing, .link, .entry"
	redditTitle   = "a.title"
	redditContent = ".md, .usertext-body"

	redditLayoutBackground = ".ListingLayout-backgroundContainer"
	redditLayoutContent    = ".ListingLayout-contentContainer"
)

// RedditHiddenClass is added to posts hidden by the classic UI loop.
const RedditHiddenClass = "muffle-removed"

// RedditPseudoIDAttr stores the content-derived id of posts that carry no
// site id.
const RedditPseudoIDAttr = "data-muffle-id"

// Reddit poll intervals.
const (
	RedditHeightInterval = time.Second
	RedditInitialDelay   = 100 * time.Millisecond
)

// pseudoIDLength is the number of characters of title and body in a
// pseudo id.
const pseudoIDLength = 20

// Reddit is the forum style adapter. On the classic UI it bypasses the
// standard pipeline with its own polling loop, because appended listing pages
// do not produce observable mutations reliably.
type Reddit struct {
	host    hostMatcher
	remover remover

	mu         sync.Mutex
	processed  map[string]struct{}
	wordsKey   string
	lastHeight int
}

// NewReddit returns the reddit adapter.
func NewReddit(opts ...Option) *Reddit {
	o := buildOptions(opts)
	return &Reddit{
		host:      newHostMatcher("reddit.com"),
		remover:   remover{site: muffle.SiteReddit, fade: o.fade},
		processed: make(map[string]struct{}),
	}
}

// Site returns muffle.SiteReddit.
func (a *Reddit) Site() muffle.Site { return muffle.SiteReddit }

// Match reports whether hostname is reddit.com or one of its subdomains.
func (a *Reddit) Match(hostname string) bool { return a.host.Match(hostname) }

// Candidates returns posts and comments.
func (a *Reddit) Candidates(doc muffle.Document) []muffle.Candidate {
	selector := redditCandidates
	if doc.Has(redditOldUIMarker) {
		selector = redditOldUICandidates
	}
	return candidates(doc, selector, redditIdentity)
}

// RemovalTarget returns the enclosing post or comment container.
func (a *Reddit) RemovalTarget(el muffle.Element) muffle.Element {
	return walkToBoundary(el, isRedditBoundary)
}

// Remove dims comments and fades everything else. Classic UI posts are
// hidden.
func (a *Reddit) Remove(target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error {
	return a.remover.apply(redditStrategy(target), target, word, sched, notify)
}

// AdjustLayout widens the listing container so removed posts do not leave the
// feed squeezed into a narrow column.
func (a *Reddit) AdjustLayout(doc muffle.Document) error {
	for _, el := range doc.Find(redditLayoutBackground) {
		if err := el.SetStyle("max-width", "none"); err != nil {
			return err
		}
		if err := el.SetStyle("padding", "0 24px"); err != nil {
			return err
		}
	}
	for _, el := range doc.Find(redditLayoutContent) {
		if err := el.SetStyle("margin", "0 auto"); err != nil {
			return err
		}
		if err := el.SetStyle("max-width", "1200px"); err != nil {
			return err
		}
	}
	return nil
}

// Install takes over processing on the classic UI. It registers a page
// height check and an initial pass on env.Scheduler.
func (a *Reddit) Install(env muffle.PollEnv) bool {
	if !env.Document.Has(redditOldUIMarker) {
		return false
	}

	a.mu.Lock()
	a.lastHeight = env.Document.Height()
	a.mu.Unlock()

	env.Scheduler.Every(RedditHeightInterval, func(context.Context) {
		height := env.Document.Height()
		a.mu.Lock()
		grew := height > a.lastHeight
		a.lastHeight = height
		a.mu.Unlock()
		if grew {
			a.Process(env)
		}
	})
	env.Scheduler.After(RedditInitialDelay, func(context.Context) {
		a.Process(env)
	})
	return true
}

// Process runs one pass over classic UI posts, checking the title first and
// the body second. Each post is evaluated once per word list.
func (a *Reddit) Process(env muffle.PollEnv) {
	settings := env.Settings()
	if !settings.Enabled || len(settings.Words) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if key := strings.Join(settings.Words, "\x00"); key != a.wordsKey {
		a.wordsKey = key
		a.processed = make(map[string]struct{})
	}

	for _, el := range env.Document.Find(redditPosts) {
		post := el
		if thing := el.Closest(".thing"); thing != nil {
			post = thing
		}
		if _, ok := post.Attr(muffle.MarkerAttr); ok {
			continue
		}

		title := firstText(post, redditTitle)
		body := firstText(post, redditContent)
		id := a.postID(post, title, body)
		if _, ok := a.processed[id]; ok {
			continue
		}

		word, ok := muffle.FindMatch(title, settings.Words)
		if !ok {
			word, ok = muffle.FindMatch(body, settings.Words)
		}
		if ok {
			if err := a.hide(post, title, body, word, env.Notify); err != nil {
				if env.Logger != nil {
					env.Logger.Warn("removal failed", "site", muffle.SiteReddit, "word", word, "err", err)
				}
				continue
			}
		}

		// A post whose title has not rendered yet is read again next pass.
		if strings.TrimSpace(title) != "" || ok {
			a.processed[id] = struct{}{}
		}
	}
}

// hide marks and hides post, then reports it. A post that could not be hidden
// is not reported.
func (a *Reddit) hide(post muffle.Element, title, body, word string, notify muffle.RemovalFunc) error {
	if err := post.SetAttr(muffle.MarkerAttr, Hide.String()); err != nil {
		return err
	}
	if err := post.AddClass(RedditHiddenClass); err != nil {
		return err
	}
	if err := post.SetStyle("display", "none"); err != nil {
		return err
	}
	if notify != nil {
		notify(muffle.Removal{
			Element: post,
			Site:    muffle.SiteReddit,
			Text:    strings.TrimSpace(title + " " + body),
			Word:    word,
		})
	}
	return nil
}

// postID prefers the site id, then the element id, then a pseudo id derived
// from content, then a random id. Must be called with mu held.
func (a *Reddit) postID(post muffle.Element, title, body string) string {
	if id := identity(post, "data-fullname", RedditPseudoIDAttr); id != "" {
		return id
	}
	var id string
	if strings.TrimSpace(title) != "" || strings.TrimSpace(body) != "" {
		id = "pseudo-" + truncate(title, pseudoIDLength) + "-" + truncate(body, pseudoIDLength)
	} else {
		id = uuid.NewString()
	}
	_ = post.SetAttr(RedditPseudoIDAttr, id)
	return id
}

func isRedditBoundary(el muffle.Element) bool {
	switch el.Tag() {
	case "article", "shreddit-post", "shreddit-comment":
		return true
	}
	if hasAnyClass(el, "thing", "Post", "comment", "Comment") {
		return true
	}
	if _, ok := el.Attr("data-fullname"); ok {
		return true
	}
	v, _ := el.Attr("data-testid")
	return el.Tag() == "div" && v == "post-container"
}

func redditStrategy(target muffle.Element) Strategy {
	switch {
	case target.HasClass("thing") && target.Closest(redditOldUIMarker) != nil && !target.HasClass("comment"):
		return Hide
	case target.Tag() == "shreddit-comment", hasAnyClass(target, "comment", "Comment"):
		return Dim
	default:
		return Fade
	}
}

func redditIdentity(el muffle.Element) string {
	return identity(el, "data-fullname", "thingid")
}

// firstText returns the trimmed text of the first descendant of el matching
// selector.
func firstText(el muffle.Element, selector string) string {
	found := el.Find(selector)
	if len(found) == 0 {
		return ""
	}
	return strings.TrimSpace(found[0].Text())
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
