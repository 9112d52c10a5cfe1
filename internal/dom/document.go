// Package dom models a live page DOM in process, on top of golang.org/x/net/html.
// It exposes the handful of primitives a content-script style engine needs:
// selector queries, class and inline-style manipulation, structural mutation
// with observer notifications, and bubbling click dispatch.
package dom

import (
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns one parsed HTML tree plus the observer and click-handler
// registries for it. Documents are independent; nothing in this package is
// shared between two Document instances.
type Document struct {
	root   *html.Node
	logger *zap.Logger

	mu           sync.Mutex
	observers    map[int]func(MutationRecord)
	nextObserver int
	handlers     map[*html.Node]map[int]ClickHandler
	nextHandler  int
}

// Parse reads and parses an HTML document. The logger may be nil.
func Parse(r io.Reader, logger *zap.Logger) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Document{
		root:      root,
		logger:    logger.Named("dom"),
		observers: make(map[int]func(MutationRecord)),
		handlers:  make(map[*html.Node]map[int]ClickHandler),
	}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string, logger *zap.Logger) (*Document, error) {
	return Parse(strings.NewReader(s), logger)
}

// Render serializes the current tree back to HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Root returns the document root element (usually <html>).
func (d *Document) Root() *Element {
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return d.wrap(n)
		}
	}
	return d.wrap(d.root)
}

// Body returns the <body> element, or the root if the tree has none.
func (d *Document) Body() *Element {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	if body == nil {
		return d.Root()
	}
	return d.wrap(body)
}

// CreateElement builds a detached element owned by this document.
func (d *Document) CreateElement(tag string) *Element {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	return d.wrap(n)
}

// wrap returns an Element view over a node. Identity is carried by the node
// pointer, not the wrapper.
func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{Node: n, doc: d}
}

// Logger exposes the document's logger for components layered on top.
func (d *Document) Logger() *zap.Logger {
	return d.logger
}
