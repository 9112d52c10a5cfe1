package dom

import "go.uber.org/zap"

// ClickHandler receives the click target. Handlers are bound to a node, not
// to a wrapper, so they survive re-wrapping of the same element.
type ClickHandler func(target *Element)

// OnClick registers a click handler on the element and returns its cancel
// function.
func (e *Element) OnClick(fn ClickHandler) func() {
	d := e.doc
	d.mu.Lock()
	id := d.nextHandler
	d.nextHandler++
	m := d.handlers[e.Node]
	if m == nil {
		m = make(map[int]ClickHandler)
		d.handlers[e.Node] = m
	}
	m[id] = fn
	d.mu.Unlock()

	node := e.Node
	return func() {
		d.mu.Lock()
		if m := d.handlers[node]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(d.handlers, node)
			}
		}
		d.mu.Unlock()
	}
}

// Click dispatches a click on the element, bubbling root-ward through every
// registered handler. A panicking handler is logged; the dispatch continues.
func (e *Element) Click() {
	d := e.doc
	target := e
	for n := e.Node; n != nil; n = n.Parent {
		d.mu.Lock()
		fns := make([]ClickHandler, 0, len(d.handlers[n]))
		for _, fn := range d.handlers[n] {
			fns = append(fns, fn)
		}
		d.mu.Unlock()

		for _, fn := range fns {
			func() {
				defer func() {
					if r := recover(); r != nil {
						d.logger.Error("click handler panicked", zap.Any("panic", r))
					}
				}()
				fn(target)
			}()
		}
	}
}

// DropHandlers removes every click handler bound to nodes inside the
// element's subtree, self included. Used when injected controls are torn
// down so stale handlers cannot fire from detached fragments.
func (e *Element) DropHandlers() {
	d := e.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, e.Node)
	for n := range d.handlers {
		for p := n.Parent; p != nil; p = p.Parent {
			if p == e.Node {
				delete(d.handlers, n)
				break
			}
		}
	}
}
