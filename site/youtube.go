package site

import (
	"strings"

	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var (
	_ muffle.Adapter  = (*YouTube)(nil)
	_ muffle.AppShell = (*YouTube)(nil)
)

const (
	youtubeCandidates = "ytd-video-renderer, ytd-comment-renderer, ytd-compact-video-renderer, " +
		"ytd-grid-video-renderer, ytd-rich-item-renderer"
	youtubeAppShell = "ytd-app"
	youtubeLinks    = "a#video-title-link, a#video-title, a#thumbnail"
)

// YouTube is the video feed style adapter.
type YouTube struct {
	host    hostMatcher
	remover remover
}

// NewYouTube returns the youtube adapter.
func NewYouTube(opts ...Option) *YouTube {
	o := buildOptions(opts)
	return &YouTube{
		host:    newHostMatcher("youtube.com"),
		remover: remover{site: muffle.SiteYouTube, fade: o.fade},
	}
}

// Site returns muffle.SiteYouTube.
func (a *YouTube) Site() muffle.Site { return muffle.SiteYouTube }

// Match reports whether hostname is youtube.com or one of its subdomains.
func (a *YouTube) Match(hostname string) bool { return a.host.Match(hostname) }

// AppShellSelector returns the element YouTube mounts once its application
// shell is ready.
func (a *YouTube) AppShellSelector() string { return youtubeAppShell }

// Candidates returns video cards and comments.
func (a *YouTube) Candidates(doc muffle.Document) []muffle.Candidate {
	return candidates(doc, youtubeCandidates, youtubeIdentity)
}

// RemovalTarget returns the nearest ytd- renderer, or the #content container
// of the primary column.
func (a *YouTube) RemovalTarget(el muffle.Element) muffle.Element {
	return walkToBoundary(el, func(cur muffle.Element) bool {
		if strings.HasPrefix(cur.Tag(), "ytd-") {
			return true
		}
		return cur.ID() == "content" && cur.Closest("#primary") != nil
	})
}

// Remove dims comments and fades video cards.
func (a *YouTube) Remove(target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error {
	strategy := Fade
	if target.Tag() == "ytd-comment-renderer" {
		strategy = Dim
	}
	return a.remover.apply(strategy, target, word, sched, notify)
}

// AdjustLayout does nothing for YouTube.
func (a *YouTube) AdjustLayout(muffle.Document) error { return nil }

// youtubeIdentity uses the video link, which is stable across re-renders.
func youtubeIdentity(el muffle.Element) string {
	for _, link := range el.Find(youtubeLinks) {
		if href, ok := link.Attr("href"); ok && href != "" {
			return href
		}
	}
	return el.ID()
}
