package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"ordercloak/internal/dom"
)

// Watcher subscribes once to subtree-change notifications on the document
// and dispatches newly appeared or removed order roots. Mutation batches are
// queued and the flush is debounced, so a burst of host-page re-renders
// collapses into a single reconciliation pass.
type Watcher struct {
	doc      *dom.Document
	log      *zap.Logger
	debounce *Debouncer

	onDetected func(*dom.Element)
	onRemoved  func(*dom.Element)

	mu          sync.Mutex
	started     bool
	unsubscribe func()
	added       []*dom.Element
	removed     []*dom.Element
}

// NewWatcher wires a watcher to a document. Callbacks receive order roots
// only; descendant scanning and identity dedupe happen here.
func NewWatcher(doc *dom.Document, delay time.Duration, logger *zap.Logger, onDetected, onRemoved func(*dom.Element)) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		doc:        doc,
		log:        logger.Named("watcher"),
		debounce:   NewDebouncer(delay),
		onDetected: onDetected,
		onRemoved:  onRemoved,
	}
}

// Start subscribes to the document. Idempotent.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.unsubscribe = w.doc.Observe(w.enqueue)
	w.log.Debug("mutation watcher started")
}

// Stop detaches the subscription, cancels the debounce timer, and drops the
// pending queue. Idempotent; the timer will not fire after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	unsub := w.unsubscribe
	w.unsubscribe = nil
	w.added = nil
	w.removed = nil
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	w.debounce.Cancel()
	w.log.Debug("mutation watcher stopped")
}

func (w *Watcher) enqueue(rec dom.MutationRecord) {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.added = append(w.added, rec.Added...)
	w.removed = append(w.removed, rec.Removed...)
	w.mu.Unlock()

	w.debounce.Debounce(w.flush)
}

// flush runs once per debounced burst: dedupe by node identity, match order
// roots in each changed fragment (the node itself and all descendants), and
// dispatch. A panicking callback is logged and never kills the subscription.
func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	added := w.added
	removed := w.removed
	w.added = nil
	w.removed = nil
	w.mu.Unlock()

	if len(added) == 0 && len(removed) == 0 {
		return
	}
	w.log.Debug("mutation flush",
		zap.Int("added", len(added)), zap.Int("removed", len(removed)))

	for _, root := range collectOrderRoots(added) {
		w.safeDispatch(w.onDetected, root)
	}
	for _, root := range collectOrderRoots(removed) {
		w.safeDispatch(w.onRemoved, root)
	}
}

func (w *Watcher) safeDispatch(fn func(*dom.Element), el *dom.Element) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("watcher callback panicked", zap.Any("panic", r))
		}
	}()
	fn(el)
}

// collectOrderRoots dedupes changed elements by node identity and returns
// every order root among them and their descendants, preserving first-seen
// order.
func collectOrderRoots(els []*dom.Element) []*dom.Element {
	seen := make(map[*html.Node]struct{}, len(els))
	var roots []*dom.Element
	consider := func(el *dom.Element) {
		if _, dup := seen[el.Node]; dup {
			return
		}
		seen[el.Node] = struct{}{}
		if el.Matches(OrderRootSelector) {
			roots = append(roots, el)
		}
	}
	for _, el := range els {
		consider(el)
		for _, desc := range el.Descendants() {
			consider(desc)
		}
	}
	return roots
}
