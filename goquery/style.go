package goquery

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/fwojciec/muffle"
)

// Style returns the value of an inline style property, or "" when unset or
// when the style attribute cannot be parsed.
func (e *Element) Style(property string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	style, _ := attr(e.node, "style")
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return ""
	}
	for _, decl := range decls {
		if strings.EqualFold(decl.Property, property) {
			return decl.Value
		}
	}
	return ""
}

// setStyleProperty returns style with property set to value. Declaration
// order and priority are preserved; a new property is appended.
func setStyleProperty(style, property, value string) (string, error) {
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return "", muffle.Errorf(muffle.EINVALID, "invalid inline style: %v", err)
	}
	found := false
	for _, decl := range decls {
		if strings.EqualFold(decl.Property, property) {
			decl.Value = value
			found = true
		}
	}
	if !found {
		decls = append(decls, &css.Declaration{Property: property, Value: value})
	}

	parts := make([]string, 0, len(decls))
	for _, decl := range decls {
		parts = append(parts, decl.String())
	}
	return strings.Join(parts, " "), nil
}
