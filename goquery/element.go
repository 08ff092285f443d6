package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/muffle"
	"golang.org/x/net/html"
)

// Compile-time interface verification.
var _ muffle.Element = (*Element)(nil)

// Element is a reference to a node of an in-memory Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Data)
}

// ID returns the element's id attribute.
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Attr returns the value of an attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return attr(e.node, name)
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	for _, c := range strings.Fields(e.ClassName()) {
		if c == name {
			return true
		}
	}
	return false
}

// ClassName returns the raw class attribute.
func (e *Element) ClassName() string {
	class, _ := e.Attr("class")
	return class
}

// Text returns the text content of the element and its descendants.
func (e *Element) Text() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.selection().Text()
}

// OwnText returns the text of the element's direct text children.
func (e *Element) OwnText() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var b strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Parent returns the parent element, or nil at the root.
func (e *Element) Parent() muffle.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return &Element{doc: e.doc, node: p}
}

// Closest returns the nearest inclusive ancestor matching selector, or nil.
func (e *Element) Closest(selector string) muffle.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	s := e.selection().Closest(selector)
	if s.Length() == 0 {
		return nil
	}
	return &Element{doc: e.doc, node: s.Get(0)}
}

// Find returns descendants matching selector in document order.
func (e *Element) Find(selector string) []muffle.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.wrap(e.selection().Find(selector))
}

// Matches reports whether the element matches selector.
func (e *Element) Matches(selector string) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.selection().Is(selector)
}

// IsBody reports whether the element is the document body.
func (e *Element) IsBody() bool {
	return e.node.Type == html.ElementNode && e.node.Data == "body"
}

// Connected reports whether the element is still attached to the document.
func (e *Element) Connected() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.DocumentNode {
			return true
		}
	}
	return false
}

// Equal reports whether other references the same node.
func (e *Element) Equal(other muffle.Element) bool {
	o, ok := other.(*Element)
	return ok && o != nil && o.node == e.node
}

// Remove detaches the element and notifies observers.
func (e *Element) Remove() error {
	e.doc.mu.Lock()
	parent := e.node.Parent
	if parent == nil {
		e.doc.mu.Unlock()
		return muffle.Errorf(muffle.EINVALID, "element <%s> is already detached", e.node.Data)
	}
	parent.RemoveChild(e.node)
	e.doc.mu.Unlock()

	e.doc.notify()
	return nil
}

// SetStyle sets an inline style property, replacing any previous value.
func (e *Element) SetStyle(property, value string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	style, _ := attr(e.node, "style")
	updated, err := setStyleProperty(style, property, value)
	if err != nil {
		return err
	}
	setAttr(e.node, "style", updated)
	return nil
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(name, value string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, name, value)
	return nil
}

// AddClass appends name to the class list unless already present.
func (e *Element) AddClass(name string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	class, _ := attr(e.node, "class")
	for _, c := range strings.Fields(class) {
		if c == name {
			return nil
		}
	}
	setAttr(e.node, "class", strings.TrimSpace(class+" "+name))
	return nil
}

// selection wraps the node for goquery traversal. Must be called with mu held.
func (e *Element) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.node).Selection
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
