package site

import (
	"strings"

	"github.com/fwojciec/muffle"
)

// walkToBoundary returns the first inclusive ancestor of el for which
// isBoundary holds, stopping before the body. It returns el when no boundary
// is found.
func walkToBoundary(el muffle.Element, isBoundary func(muffle.Element) bool) muffle.Element {
	for cur := el; cur != nil && !cur.IsBody(); cur = cur.Parent() {
		if isBoundary(cur) {
			return cur
		}
	}
	return el
}

// hasAnyClass reports whether el carries one of classes.
func hasAnyClass(el muffle.Element, classes ...string) bool {
	for _, c := range classes {
		if el.HasClass(c) {
			return true
		}
	}
	return false
}

// identity returns the first non-empty attribute of el among attrs, falling
// back to the element id.
func identity(el muffle.Element, attrs ...string) string {
	for _, a := range attrs {
		if v, ok := el.Attr(a); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return el.ID()
}

// candidates builds candidates for every element matching selector, using
// each element's full text content.
func candidates(doc muffle.Document, selector string, id func(muffle.Element) string) []muffle.Candidate {
	elements := doc.Find(selector)
	if len(elements) == 0 {
		return nil
	}
	out := make([]muffle.Candidate, 0, len(elements))
	for _, el := range elements {
		out = append(out, muffle.Candidate{
			Element:  el,
			Text:     el.Text(),
			Identity: id(el),
		})
	}
	return out
}
