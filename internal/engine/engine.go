// Package engine implements the adaptive placement and hide/show
// reconciliation engine for third-party order-history pages: format
// detection, control injection, the per-order hide/show state machine, and
// the debounced mutation watcher that keeps injected controls consistent
// while the host page rewrites itself.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ordercloak/internal/dom"
	"ordercloak/internal/types"
)

// Marker vocabulary. Everything this engine writes into the host page is
// namespaced so the remover can tell its own work from the page's.
const (
	// ClassHiddenMarker is carried by an order root whose details are hidden.
	// Its presence must always agree with the hidden-token set.
	ClassHiddenMarker = "ordercloak-details-hidden"
	// classHidingMarker brackets an in-flight hide pass and rejects
	// re-entrant hides for the same order.
	classHidingMarker = "ordercloak-hiding"
	// ClassControls marks the injected control container.
	ClassControls = "ordercloak-controls"
	// ClassOverlay marks the attribution/tag overlay under the status column.
	ClassOverlay = "ordercloak-overlay"
	// classSlot marks a container the injector synthesized itself and must
	// clean up when left empty.
	classSlot = "ordercloak-slot"
	// AttrRestore carries an element's pre-hide display value. It is the only
	// durable link between "hidden" and "what to restore to" and survives
	// page reloads that the in-memory record does not.
	AttrRestore = "data-ordercloak-restore"

	attrOrderID = "data-order-id"
	attrAction  = "data-action"

	actionHide = "hide"
	actionShow = "show"

	labelHide = "Hide details"
	labelShow = "Show details"
)

// OrderRootSelector matches the structural element of one order card across
// every known layout variant.
const OrderRootSelector = ".order-card, .js-order-card, .order-box-group"

// secondaryAnchorSelector is where a container is synthesized when neither
// placement container exists.
const secondaryAnchorSelector = ".order-header"

// defaultDebounce is the mutation watcher's quiet window.
const defaultDebounce = 150 * time.Millisecond

// HiddenToken returns the `{orderId}-details` token whose membership in the
// hidden set is the single source of truth for "are this order's details
// hidden".
func HiddenToken(orderID string) string {
	return orderID + "-details"
}

// Storage is the async persistence collaborator. Every call may fail and the
// engine never assumes success.
type Storage interface {
	GetOrderTags(ctx context.Context, orderID string) (*types.TagData, error)
	StoreOrderTags(ctx context.Context, orderID string, data types.TagData) error
	GetAllHiddenOrders(ctx context.Context) ([]types.HiddenOrder, error)
	PutHiddenOrder(ctx context.Context, rec types.HiddenOrder) error
	DeleteHiddenOrder(ctx context.Context, orderID string) error
	Get(ctx context.Context, key string) (string, error)
}

// Parser is the read-only order-card extraction collaborator.
type Parser interface {
	FindOrderRoots(doc *dom.Document) []*dom.Element
	ParseOrderCard(root *dom.Element) (*types.OrderRecord, error)
}

// DialogPayload is handed to the tagging dialog when a hide is requested.
type DialogPayload struct {
	OrderNumber string
	Existing    types.TagData
	OrderData   types.OrderRecord
}

// DialogConfirmation carries the user's confirmed tags back into the engine
// through ConfirmTags.
type DialogConfirmation struct {
	OrderNumber string
	Tags        []string
	Notes       string
}

// Dialog opens the tagging dialog anchored at an order's control. Open
// returns false when the dialog cannot be shown (for example, another dialog
// is already open). Confirmations are delivered to Engine.ConfirmTags keyed
// by order number; the engine accepts exactly one confirmation per open.
type Dialog interface {
	Open(payload DialogPayload, anchor *dom.Element) bool
}

// Callbacks are the caller-supplied notification hooks. Any of them may be
// nil.
type Callbacks struct {
	OnOrderHidden   func(orderID, kind string, data types.OrderRecord)
	OnOrderShown    func(orderID, kind string, data types.OrderRecord)
	OnOrderDetected func(el *dom.Element)
	OnOrderRemoved  func(orderID string, el *dom.Element)
}

// controlRecord is the per-order bookkeeping entry. The engine owns the
// injected control elements; the order root belongs to the host page.
type controlRecord struct {
	orderID     string
	root        *dom.Element
	container   *dom.Element
	control     *dom.Element
	synthesized *dom.Element
	cancelClick func()
	// hidden lists the elements this record has hidden, in hide order.
	// Appended to on each hide pass, cleared on show.
	hidden []*dom.Element
}

// pendingHide tracks an order waiting on its tagging-dialog confirmation.
type pendingHide struct {
	orderID string
	data    types.OrderRecord
}

// Options configure a new Engine.
type Options struct {
	Store     Storage
	Dialog    Dialog
	Parser    Parser
	Callbacks Callbacks
	Logger    *zap.Logger
	// Debounce overrides the mutation watcher's quiet window; zero means
	// the default.
	Debounce time.Duration
}

// Engine drives one page context. All registries are instance fields so
// multiple page contexts (and tests) run in isolation.
type Engine struct {
	mu  sync.Mutex
	doc *dom.Document
	log *zap.Logger

	store     Storage
	dialog    Dialog
	parser    Parser
	callbacks Callbacks

	controls     map[string]*controlRecord
	hiddenTokens map[string]struct{}
	usernames    map[string]string
	pending      map[string]*pendingHide

	watcher *Watcher
}

// New builds an engine bound to one document.
func New(doc *dom.Document, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		doc:          doc,
		log:          logger.Named("engine"),
		store:        opts.Store,
		dialog:       opts.Dialog,
		parser:       opts.Parser,
		callbacks:    opts.Callbacks,
		controls:     make(map[string]*controlRecord),
		hiddenTokens: make(map[string]struct{}),
		usernames:    make(map[string]string),
		pending:      make(map[string]*pendingHide),
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = defaultDebounce
	}
	e.watcher = NewWatcher(doc, delay, e.log, e.onRootDetected, e.onRootRemoved)
	return e
}

// SetDialog wires the tagging-dialog collaborator after construction. The
// dialog usually needs the engine as its confirmation sink, so it cannot be
// built first.
func (e *Engine) SetDialog(d Dialog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dialog = d
}

// Document returns the page this engine is bound to.
func (e *Engine) Document() *dom.Document {
	return e.doc
}

// IsHidden reports whether the order's details are currently hidden, judged
// by the hidden-token set.
func (e *Engine) IsHidden(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.hiddenTokens[HiddenToken(orderID)]
	return ok
}

// HiddenTokens returns a snapshot of the hidden-order token set.
func (e *Engine) HiddenTokens() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.hiddenTokens))
	for t := range e.hiddenTokens {
		out = append(out, t)
	}
	return out
}

// Username returns who most recently hid the order's details, or the
// attribution sentinel when nobody is recorded.
func (e *Engine) Username(orderID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if u, ok := e.usernames[orderID]; ok && u != "" {
		return u
	}
	return types.UnknownUser
}

// StartWatcher begins dispatching newly appeared and removed order roots.
// Idempotent.
func (e *Engine) StartWatcher() {
	e.watcher.Start()
}

// StopWatcher detaches the mutation subscription and drops pending batches.
// Idempotent.
func (e *Engine) StopWatcher() {
	e.watcher.Stop()
}

// Cleanup tears the engine down: watcher stopped, every injected control
// removed, all registries cleared. The engine can be discarded afterwards.
func (e *Engine) Cleanup() {
	e.watcher.Stop()

	e.mu.Lock()
	ids := make([]string, 0, len(e.controls))
	for id := range e.controls {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.Remove(id)
	}

	e.mu.Lock()
	e.controls = make(map[string]*controlRecord)
	e.hiddenTokens = make(map[string]struct{})
	e.usernames = make(map[string]string)
	e.pending = make(map[string]*pendingHide)
	e.mu.Unlock()
}

// onRootDetected is the watcher's added-root continuation: inject a control
// and notify the caller.
func (e *Engine) onRootDetected(root *dom.Element) {
	id := ExtractOrderID(root)
	if id != "" {
		if ok := e.Inject(root, id); !ok {
			e.log.Warn("control injection failed for detected order", zap.String("order_id", id))
		}
	}
	if e.callbacks.OnOrderDetected != nil {
		e.callbacks.OnOrderDetected(root)
	}
}

// onRootRemoved is the watcher's removed-root continuation: tear down the
// record so outstanding async continuations abort, then notify the caller.
func (e *Engine) onRootRemoved(root *dom.Element) {
	id := ExtractOrderID(root)
	if id == "" {
		return
	}
	e.mu.Lock()
	delete(e.pending, id)
	_, hadRecord := e.controls[id]
	e.mu.Unlock()
	if hadRecord {
		e.Remove(id)
	}
	if e.callbacks.OnOrderRemoved != nil {
		e.callbacks.OnOrderRemoved(id, root)
	}
}

// parseCard extracts order data through the parser collaborator, degrading
// to an identifier-only record when parsing fails or no parser is wired.
func (e *Engine) parseCard(orderID string, root *dom.Element) types.OrderRecord {
	if e.parser == nil || root == nil {
		return types.OrderRecord{OrderNumber: orderID}
	}
	rec, err := e.parser.ParseOrderCard(root)
	if err != nil || rec == nil {
		e.log.Debug("order card parse failed", zap.String("order_id", orderID), zap.Error(err))
		return types.OrderRecord{OrderNumber: orderID}
	}
	return *rec
}
