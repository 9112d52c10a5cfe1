package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a view over a single element node. Two Elements refer to the
// same DOM node exactly when their Node pointers are equal.
type Element struct {
	Node *html.Node
	doc  *Document
}

// Same reports whether both views point at the same underlying node.
func (e *Element) Same(o *Element) bool {
	return e != nil && o != nil && e.Node == o.Node
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return strings.ToLower(e.Node.Data)
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Attr returns an attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns an attribute value or a default when absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// HasAttr reports attribute presence.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, val string) {
	for i := range e.Node.Attr {
		if e.Node.Attr[i].Key == name {
			e.Node.Attr[i].Val = val
			return
		}
	}
	e.Node.Attr = append(e.Node.Attr, html.Attribute{Key: name, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	attrs := e.Node.Attr[:0]
	for _, a := range e.Node.Attr {
		if a.Key != name {
			attrs = append(attrs, a)
		}
	}
	e.Node.Attr = attrs
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	return strings.Fields(e.AttrOr("class", ""))
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	for _, c := range e.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends a class if not already present.
func (e *Element) AddClass(name string) {
	if e.HasClass(name) {
		return
	}
	cls := e.Classes()
	cls = append(cls, name)
	e.SetAttr("class", strings.Join(cls, " "))
}

// RemoveClass removes a class if present.
func (e *Element) RemoveClass(name string) {
	cls := e.Classes()
	out := cls[:0]
	for _, c := range cls {
		if c != name {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(out, " "))
}

// Text returns the concatenated text content of the subtree, with runs of
// whitespace collapsed.
func (e *Element) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.Node)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(text string) {
	for c := e.Node.FirstChild; c != nil; {
		next := c.NextSibling
		e.Node.RemoveChild(c)
		c = next
	}
	e.Node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// AppendText appends a text node child without touching existing children.
func (e *Element) AppendText(text string) {
	e.Node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Parent returns the parent element, or nil at the top of the tree.
func (e *Element) Parent() *Element {
	for n := e.Node.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// Children returns the direct element children.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Contains reports whether other sits inside this element's subtree.
// An element does not contain itself.
func (e *Element) Contains(other *Element) bool {
	if e == nil || other == nil {
		return false
	}
	for n := other.Node.Parent; n != nil; n = n.Parent {
		if n == e.Node {
			return true
		}
	}
	return false
}

// Detached reports whether the element no longer hangs off a parent chain
// that reaches the document root.
func (e *Element) Detached() bool {
	for n := e.Node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return false
		}
	}
	return true
}

// EachText walks every text node in the subtree and hands its trimmed text,
// along with the nearest enclosing element, to fn. Returning false stops the
// walk.
func (e *Element) EachText(fn func(owner *Element, text string) bool) {
	var walk func(n *html.Node, owner *html.Node) bool
	walk = func(n *html.Node, owner *html.Node) bool {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if !fn(e.doc.wrap(owner), text) {
					return false
				}
			}
			return true
		}
		next := owner
		if n.Type == html.ElementNode {
			next = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c, next) {
				return false
			}
		}
		return true
	}
	walk(e.Node, e.Node)
}

// Descendants returns every element in the subtree, self excluded, in
// document order.
func (e *Element) Descendants() []*Element {
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, e.doc.wrap(c))
			}
			walk(c)
		}
	}
	walk(e.Node)
	return out
}
