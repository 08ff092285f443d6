// Package goquery provides an in-memory live document backed by an
// x/net/html tree and queried with goquery selectors. Structural changes made
// through the document notify its observers the way a browser
// MutationObserver would.
package goquery

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/muffle"
	"golang.org/x/net/html"
)

// Compile-time interface verification.
var (
	_ muffle.Document        = (*Document)(nil)
	_ muffle.MutationSource  = (*Document)(nil)
	_ muffle.LivenessChecker = (*Document)(nil)
)

// Document is an in-memory muffle.Document.
// Document is safe for concurrent use by multiple goroutines.
type Document struct {
	hostname string

	mu  sync.Mutex // guards the node tree
	doc *goquery.Document

	obsMu     sync.Mutex
	observers map[int]func()
	nextObs   int

	closed atomic.Bool
}

// NewDocument parses html as the page served from hostname.
func NewDocument(hostname, html string) (*Document, error) {
	return NewDocumentFromReader(hostname, strings.NewReader(html))
}

// NewDocumentFromReader parses the HTML read from r as the page served from
// hostname.
func NewDocumentFromReader(hostname string, r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, muffle.Errorf(muffle.EINVALID, "failed to parse HTML: %v", err)
	}
	return &Document{
		hostname:  hostname,
		doc:       doc,
		observers: make(map[int]func()),
	}, nil
}

// Hostname returns the host the document was loaded from.
func (d *Document) Hostname() string {
	return d.hostname
}

// Find returns all elements matching selector in document order.
func (d *Document) Find(selector string) []muffle.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(d.doc.Find(selector))
}

// Has reports whether at least one element matches selector.
func (d *Document) Has(selector string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Length() > 0
}

// Body returns the body element, or nil when the document has none.
func (d *Document) Body() muffle.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return nil
	}
	return &Element{doc: d, node: body.Get(0)}
}

// Height returns the number of element nodes under the body. The in-memory
// tree has no layout, so element count stands in for scroll height: it
// grows exactly when content is appended.
func (d *Document) Height() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return 0
	}
	return body.Find("*").Length()
}

// Append parses fragment and appends the resulting nodes to every element
// matching selector, then notifies observers. It returns the number of
// elements that received the fragment.
func (d *Document) Append(selector, fragment string) (int, error) {
	d.mu.Lock()
	targets := d.doc.Find(selector)
	count := 0
	var err error
	targets.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		parent := s.Get(0)
		var nodes []*html.Node
		nodes, err = html.ParseFragment(strings.NewReader(fragment), parent)
		if err != nil {
			return false
		}
		for _, n := range nodes {
			parent.AppendChild(n)
		}
		count++
		return true
	})
	d.mu.Unlock()

	if err != nil {
		return count, muffle.Errorf(muffle.EINVALID, "failed to parse fragment: %v", err)
	}
	if count > 0 {
		d.notify()
	}
	return count, nil
}

// HTML renders the current document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// Observe registers fn to be called after every structural change.
func (d *Document) Observe(fn func()) (disconnect func()) {
	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.obsMu.Lock()
			delete(d.observers, id)
			d.obsMu.Unlock()
		})
	}
}

// Alive reports whether the document has not been closed.
func (d *Document) Alive(_ context.Context) bool {
	return !d.closed.Load()
}

// Close marks the document as unloaded. Liveness checks fail afterwards.
func (d *Document) Close() error {
	d.closed.Store(true)
	return nil
}

// notify calls every observer. It must be called without mu held.
func (d *Document) notify() {
	d.obsMu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// wrap converts a selection into element references. Must be called with mu held.
func (d *Document) wrap(s *goquery.Selection) []muffle.Element {
	if s.Length() == 0 {
		return nil
	}
	elements := make([]muffle.Element, 0, s.Length())
	for _, n := range s.Nodes {
		elements = append(elements, &Element{doc: d, node: n})
	}
	return elements
}
