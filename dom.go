package muffle

import "context"

// MarkerAttr is set on every element muffle has removed, hidden or dimmed.
// Scans skip marked elements and anything inside them.
const MarkerAttr = "data-muffled"

// Document is a live document that can be queried and mutated while the
// page keeps changing underneath.
type Document interface {
	// Hostname returns the host of the page the document was loaded from.
	Hostname() string

	// Find returns all elements matching a CSS selector in document order.
	// An invalid selector yields no elements.
	Find(selector string) []Element

	// Has reports whether at least one element matches the selector.
	Has(selector string) bool

	// Body returns the body element, or nil when the document has none yet.
	Body() Element

	// Height returns the current scroll height of the document. Growth
	// between two calls indicates newly appended content.
	Height() int
}

// Element is a reference to a node in a live Document. Read methods return
// zero values when the element is no longer reachable.
type Element interface {
	// Tag returns the lowercase tag name.
	Tag() string

	// ID returns the element's id attribute.
	ID() string

	// Attr returns the value of an attribute and whether it is present.
	Attr(name string) (string, bool)

	// HasClass reports whether the class list contains name.
	HasClass(name string) bool

	// ClassName returns the raw class attribute.
	ClassName() string

	// Text returns the text content of the element and its descendants.
	Text() string

	// OwnText returns only the text of the element's direct text children.
	OwnText() string

	// Parent returns the parent element, or nil at the root.
	Parent() Element

	// Closest returns the nearest inclusive ancestor matching selector, or nil.
	Closest(selector string) Element

	// Find returns descendants matching selector in document order.
	Find(selector string) []Element

	// Matches reports whether the element matches selector.
	Matches(selector string) bool

	// IsBody reports whether the element is the document body.
	IsBody() bool

	// Connected reports whether the element is still attached to the document.
	Connected() bool

	// Equal reports whether both references point at the same node.
	Equal(other Element) bool

	// Remove detaches the element from the document.
	Remove() error

	// SetStyle sets an inline style property.
	SetStyle(property, value string) error

	// SetAttr sets an attribute value.
	SetAttr(name, value string) error

	// AddClass appends name to the class list.
	AddClass(name string) error
}

// MutationSource notifies subscribers about structural changes (child
// insertion or removal) anywhere under the document body.
type MutationSource interface {
	// Observe registers fn to be called after structural changes. fn must not
	// block. The returned function disconnects the subscription and is safe
	// to call more than once.
	Observe(fn func()) (disconnect func())
}

// LivenessChecker reports whether the host environment behind a document is
// still usable. A dead host terminates all activity for the page.
type LivenessChecker interface {
	Alive(ctx context.Context) bool
}
