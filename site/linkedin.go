package site

import (
	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.Adapter = (*LinkedIn)(nil)

const linkedinCandidates = ".feed-shared-update-v2, .feed-shared-post, .comments-comment-item, .feed-shared-article"

var linkedinBoundaries = []string{
	"feed-shared-update-v2",
	"feed-shared-post",
	"comments-comment-item",
	"feed-shared-article",
}

// LinkedIn is the professional feed style adapter.
type LinkedIn struct {
	host    hostMatcher
	remover remover
}

// NewLinkedIn returns the linkedin adapter.
func NewLinkedIn(opts ...Option) *LinkedIn {
	o := buildOptions(opts)
	return &LinkedIn{
		host:    newHostMatcher("linkedin.com"),
		remover: remover{site: muffle.SiteLinkedIn, fade: o.fade},
	}
}

// Site returns muffle.SiteLinkedIn.
func (a *LinkedIn) Site() muffle.Site { return muffle.SiteLinkedIn }

// Match reports whether hostname is linkedin.com or one of its subdomains.
func (a *LinkedIn) Match(hostname string) bool { return a.host.Match(hostname) }

// Candidates returns feed updates, shared articles and comments.
func (a *LinkedIn) Candidates(doc muffle.Document) []muffle.Candidate {
	return candidates(doc, linkedinCandidates, func(el muffle.Element) string {
		return identity(el, "data-urn", "data-id")
	})
}

// RemovalTarget returns the enclosing feed update or comment.
func (a *LinkedIn) RemovalTarget(el muffle.Element) muffle.Element {
	return walkToBoundary(el, func(cur muffle.Element) bool {
		return hasAnyClass(cur, linkedinBoundaries...)
	})
}

// Remove dims comments and fades feed updates.
func (a *LinkedIn) Remove(target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error {
	strategy := Fade
	if target.HasClass("comments-comment-item") {
		strategy = Dim
	}
	return a.remover.apply(strategy, target, word, sched, notify)
}

// AdjustLayout does nothing for LinkedIn.
func (a *LinkedIn) AdjustLayout(muffle.Document) error { return nil }
