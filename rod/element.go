package rod

import (
	"github.com/fwojciec/muffle"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Compile-time interface verification.
var _ muffle.Element = (*Element)(nil)

// Element is a reference to a node in a browser tab. Reads on a node that is
// gone return zero values.
type Element struct {
	doc *Document
	el  *rod.Element
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string {
	return e.str(`() => this.tagName.toLowerCase()`)
}

// ID returns the element's id attribute.
func (e *Element) ID() string {
	return e.str(`() => this.id`)
}

// Attr returns the value of an attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	return e.bool(`(c) => this.classList.contains(c)`, name)
}

// ClassName returns the raw class attribute.
func (e *Element) ClassName() string {
	return e.str(`() => this.getAttribute("class") || ""`)
}

// Text returns the text content of the element and its descendants.
func (e *Element) Text() string {
	return e.str(`() => this.textContent || ""`)
}

// OwnText returns the text of the element's direct text children.
func (e *Element) OwnText() string {
	return e.str(`() => Array.from(this.childNodes).filter(n => n.nodeType === Node.TEXT_NODE).map(n => n.textContent).join("")`)
}

// Parent returns the parent element, or nil at the root.
func (e *Element) Parent() muffle.Element {
	return e.elementByJS(`() => this.parentElement`)
}

// Closest returns the nearest inclusive ancestor matching selector, or nil.
func (e *Element) Closest(selector string) muffle.Element {
	return e.elementByJS(`(s) => { try { return this.closest(s) } catch (e) { return null } }`, selector)
}

// Find returns descendants matching selector in document order.
func (e *Element) Find(selector string) []muffle.Element {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil
	}
	return e.doc.wrap(els)
}

// Matches reports whether the element matches selector.
func (e *Element) Matches(selector string) bool {
	return e.bool(`(s) => { try { return this.matches(s) } catch (e) { return false } }`, selector)
}

// IsBody reports whether the element is the document body.
func (e *Element) IsBody() bool {
	return e.bool(`() => this === document.body`)
}

// Connected reports whether the element is still attached to the document.
func (e *Element) Connected() bool {
	return e.bool(`() => this.isConnected`)
}

// Equal reports whether other references the same node.
func (e *Element) Equal(other muffle.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	eq, err := e.el.Equal(o.el)
	return err == nil && eq
}

// Remove detaches the element from the document.
func (e *Element) Remove() error {
	if !e.Connected() {
		return muffle.Errorf(muffle.EINVALID, "element is already detached")
	}
	return e.el.Remove()
}

// SetStyle sets an inline style property.
func (e *Element) SetStyle(property, value string) error {
	_, err := e.el.Eval(`(p, v) => this.style.setProperty(p, v)`, property, value)
	return err
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(name, value string) error {
	_, err := e.el.Eval(`(n, v) => this.setAttribute(n, v)`, name, value)
	return err
}

// AddClass appends name to the class list.
func (e *Element) AddClass(name string) error {
	_, err := e.el.Eval(`(c) => this.classList.add(c)`, name)
	return err
}

func (e *Element) eval(js string, args ...any) *proto.RuntimeRemoteObject {
	res, err := e.el.Eval(js, args...)
	if err != nil {
		return nil
	}
	return res
}

func (e *Element) str(js string, args ...any) string {
	res := e.eval(js, args...)
	if res == nil || res.Value.Nil() {
		return ""
	}
	return res.Value.Str()
}

func (e *Element) bool(js string, args ...any) bool {
	res := e.eval(js, args...)
	return res != nil && res.Value.Bool()
}

func (e *Element) elementByJS(js string, args ...any) muffle.Element {
	el, err := e.el.ElementByJS(rod.Eval(js, args...))
	if err != nil {
		return nil
	}
	return &Element{doc: e.doc, el: el}
}
