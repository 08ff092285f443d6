package site

import (
	"strings"

	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.Adapter = (*Generic)(nil)

// genericSelector is the most permissive candidate selector.
const genericSelector = "body *"

// skippedTags never carry visible text worth matching.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"head":     true,
}

// Generic is the fallback adapter for pages no site adapter claims. It
// inspects the own text of every element and deletes matches outright.
type Generic struct {
	remover remover
}

// NewGeneric returns the fallback adapter.
func NewGeneric(opts ...Option) *Generic {
	o := buildOptions(opts)
	return &Generic{remover: remover{site: muffle.SiteGeneric, fade: o.fade}}
}

// Site returns muffle.SiteGeneric.
func (a *Generic) Site() muffle.Site { return muffle.SiteGeneric }

// Match never claims a hostname; Generic is only used as a fallback.
func (a *Generic) Match(string) bool { return false }

// Candidates returns every element under the body that has text of its own.
func (a *Generic) Candidates(doc muffle.Document) []muffle.Candidate {
	var out []muffle.Candidate
	for _, el := range doc.Find(genericSelector) {
		if skippedTags[el.Tag()] {
			continue
		}
		text := el.OwnText()
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, muffle.Candidate{Element: el, Text: text, Identity: el.ID()})
	}
	return out
}

// RemovalTarget returns el itself.
func (a *Generic) RemovalTarget(el muffle.Element) muffle.Element {
	return el
}

// Remove deletes target immediately.
func (a *Generic) Remove(target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error {
	return a.remover.apply(Delete, target, word, sched, notify)
}

// AdjustLayout does nothing for generic pages.
func (a *Generic) AdjustLayout(muffle.Document) error { return nil }
