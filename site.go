package muffle

import "log/slog"

// Site identifies which adapter handles a page.
type Site string

// Supported sites. Reddit is forum style, YouTube is video feed style and
// LinkedIn is professional feed style.
const (
	SiteGeneric  Site = "generic"
	SiteReddit   Site = "reddit"
	SiteYouTube  Site = "youtube"
	SiteLinkedIn Site = "linkedin"
)

// Candidate is an element selected for inspection during a scan pass,
// together with the text the adapter extracted from it. Candidates are
// produced fresh on every pass and never persisted.
type Candidate struct {
	Element Element
	Text    string

	// Identity is a stable site-assigned identifier when one exists.
	Identity string
}

// Adapter is the per-site strategy for discovering candidates, resolving the
// unit to remove and removing it.
type Adapter interface {
	// Site returns the adapter's tag.
	Site() Site

	// Match reports whether the adapter handles hostname.
	Match(hostname string) bool

	// Candidates returns the elements likely to represent a post, comment or
	// card. It must not mutate the document.
	Candidates(doc Document) []Candidate

	// RemovalTarget walks from el towards the root and returns the first
	// ancestor recognised as a content boundary. It returns el when no
	// boundary exists below the body, and never returns the body itself.
	RemovalTarget(el Element) Element

	// Remove removes, hides or dims target and calls notify exactly once,
	// possibly after a visual transition scheduled on sched.
	Remove(target Element, word string, sched Scheduler, notify RemovalFunc) error

	// AdjustLayout applies cosmetic container fixes once per scan pass.
	AdjustLayout(doc Document) error
}

// Poller is implemented by adapters that bypass the standard pipeline on
// pages whose content arrives without observable mutations.
type Poller interface {
	// Install reports whether the page needs the custom loop and, if so,
	// registers the adapter's periodic callbacks on env.Scheduler.
	Install(env PollEnv) bool

	// Process runs one pass of the custom loop.
	Process(env PollEnv)
}

// PollEnv is what a Poller needs from the engine.
type PollEnv struct {
	Document  Document
	Scheduler Scheduler
	Settings  func() Settings
	Notify    RemovalFunc

	// Logger receives failures the loop skips over. Nil discards them.
	Logger *slog.Logger
}

// AppShell is implemented by adapters for sites that mount their own
// application shell after load. The engine polls for the marker before the
// first meaningful scan.
type AppShell interface {
	AppShellSelector() string
}

// AdapterRegistry resolves a hostname to exactly one Adapter.
type AdapterRegistry interface {
	// Resolve returns the adapter for hostname. The result is memoized until
	// Reset is called.
	Resolve(hostname string) Adapter

	// Reset forgets the memoized adapter.
	Reset()
}
