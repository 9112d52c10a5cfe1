package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
)

// Compiled selectors are cached process-wide; the selector tables driving the
// engine are small and fixed, so the cache never grows past a few dozen
// entries.
var selectorCache sync.Map // string -> cascadia.Selector

func compileSelector(expr string) (cascadia.Selector, bool) {
	if cached, ok := selectorCache.Load(expr); ok {
		if cached == nil {
			return nil, false
		}
		return cached.(cascadia.Selector), true
	}
	sel, err := cascadia.Compile(expr)
	if err != nil {
		selectorCache.Store(expr, nil)
		return nil, false
	}
	selectorCache.Store(expr, sel)
	return sel, true
}

// Find returns the first descendant matching the selector, or nil. A selector
// that fails to compile is logged and treated as matching nothing; probes
// against hostile markup must never raise.
func (e *Element) Find(expr string) *Element {
	sel, ok := compileSelector(expr)
	if !ok {
		e.doc.logger.Debug("selector failed to compile", zap.String("selector", expr))
		return nil
	}
	// MatchFirst considers the start node itself; walk children so the
	// search covers descendants only.
	for c := e.Node.FirstChild; c != nil; c = c.NextSibling {
		if n := sel.MatchFirst(c); n != nil {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// FindAll returns all descendants matching the selector, in document order.
func (e *Element) FindAll(expr string) []*Element {
	sel, ok := compileSelector(expr)
	if !ok {
		e.doc.logger.Debug("selector failed to compile", zap.String("selector", expr))
		return nil
	}
	var out []*Element
	for c := e.Node.FirstChild; c != nil; c = c.NextSibling {
		for _, n := range sel.MatchAll(c) {
			out = append(out, e.doc.wrap(n))
		}
	}
	return out
}

// Matches reports whether the element itself matches the selector.
func (e *Element) Matches(expr string) bool {
	sel, ok := compileSelector(expr)
	if !ok {
		return false
	}
	return sel.Match(e.Node)
}

// Closest returns the nearest element (self included) matching the selector,
// walking ancestors toward the root.
func (e *Element) Closest(expr string) *Element {
	sel, ok := compileSelector(expr)
	if !ok {
		return nil
	}
	for n := e.Node; n != nil; n = n.Parent {
		if sel.Match(n) {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// Find runs a selector over the whole document.
func (d *Document) Find(expr string) *Element {
	return d.Root().Find(expr)
}

// FindAll runs a selector over the whole document.
func (d *Document) FindAll(expr string) []*Element {
	return d.Root().FindAll(expr)
}
