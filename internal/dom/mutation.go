package dom

import "go.uber.org/zap"

// MutationRecord describes one structural change: nodes attached to or
// detached from the tree. Only the top-level nodes of each change are listed;
// consumers scan descendants themselves.
type MutationRecord struct {
	Added   []*Element
	Removed []*Element
}

// Observe registers a subtree-change observer and returns its cancel
// function. Observers run synchronously on the mutating call; a panicking
// observer is logged and never unwinds into the mutator.
func (d *Document) Observe(fn func(MutationRecord)) func() {
	d.mu.Lock()
	id := d.nextObserver
	d.nextObserver++
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

func (d *Document) notify(rec MutationRecord) {
	d.mu.Lock()
	fns := make([]func(MutationRecord), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("mutation observer panicked", zap.Any("panic", r))
				}
			}()
			fn(rec)
		}()
	}
}

// AppendChild attaches child as the last child of e. A child already attached
// elsewhere is detached first (without a removal notification, matching
// browser move semantics).
func (e *Element) AppendChild(child *Element) {
	if child.Node.Parent != nil {
		child.Node.Parent.RemoveChild(child.Node)
	}
	e.Node.AppendChild(child.Node)
	e.doc.notify(MutationRecord{Added: []*Element{child}})
}

// InsertBefore attaches child immediately before ref, which must be a child
// of e. A nil ref appends.
func (e *Element) InsertBefore(child, ref *Element) {
	if ref == nil {
		e.AppendChild(child)
		return
	}
	if child.Node.Parent != nil {
		child.Node.Parent.RemoveChild(child.Node)
	}
	e.Node.InsertBefore(child.Node, ref.Node)
	e.doc.notify(MutationRecord{Added: []*Element{child}})
}

// Detach removes the element from its parent. Detaching an already-detached
// element is a no-op.
func (e *Element) Detach() {
	if e.Node.Parent == nil {
		return
	}
	e.Node.Parent.RemoveChild(e.Node)
	e.doc.notify(MutationRecord{Removed: []*Element{e}})
}
