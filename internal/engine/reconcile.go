package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ordercloak/internal/dom"
	"ordercloak/internal/types"
)

// Per-order lifecycle: Visible (initial) and DetailsHidden. Hide routes
// through the tagging dialog and the store before any visual change; Show
// restores synchronously. Both are boundary-guarded: no exception escapes a
// public operation, and state is left in its last consistent configuration.

var (
	errAlreadyHidden  = errors.New("order details already hidden")
	errHideInProgress = errors.New("hide already in progress for order")
)

// Hide requests the Visible -> DetailsHidden transition for an order. It
// opens the tagging dialog and returns once the dialog is up; the visual
// change is applied when the confirmation arrives via ConfirmTags. A dialog
// collaborator that confirms synchronously completes the whole transition
// before Hide returns.
//
// Precondition violations (no control record, already hidden, hide already
// in flight) and a missing dialog collaborator abort with a warning; hiding
// never bypasses the tagging step.
func (e *Engine) Hide(ctx context.Context, orderID string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("hide panicked", zap.String("order_id", orderID), zap.Any("panic", r))
			ok = false
		}
	}()

	e.mu.Lock()
	rec, exists := e.controls[orderID]
	switch {
	case !exists:
		e.mu.Unlock()
		e.log.Warn("hide requested with no control record", zap.String("order_id", orderID))
		return false
	case rec.root.HasClass(ClassHiddenMarker):
		e.mu.Unlock()
		e.log.Warn("hide requested on already-hidden order", zap.String("order_id", orderID))
		return false
	case rec.root.HasClass(classHidingMarker):
		e.mu.Unlock()
		e.log.Warn("re-entrant hide rejected", zap.String("order_id", orderID))
		return false
	case e.pending[orderID] != nil:
		e.mu.Unlock()
		e.log.Warn("hide already awaiting dialog confirmation", zap.String("order_id", orderID))
		return false
	}
	dlg := e.dialog
	if dlg == nil {
		e.mu.Unlock()
		e.log.Warn("tagging dialog unavailable, hide aborted", zap.String("order_id", orderID))
		return false
	}
	root := rec.root
	anchor := rec.control
	e.mu.Unlock()

	data := e.parseCard(orderID, root)

	existing := types.TagData{}
	if e.store != nil {
		if stored, err := e.store.GetOrderTags(ctx, orderID); err != nil {
			e.log.Debug("stored tags unavailable", zap.String("order_id", orderID), zap.Error(err))
		} else if stored != nil {
			existing = *stored
		}
	}

	// The store round-trip may have outlived the order; re-validate before
	// committing to the dialog.
	e.mu.Lock()
	if _, still := e.controls[orderID]; !still {
		e.mu.Unlock()
		e.log.Debug("order disappeared while preparing hide", zap.String("order_id", orderID))
		return false
	}
	e.pending[orderID] = &pendingHide{orderID: orderID, data: data}
	e.mu.Unlock()

	payload := DialogPayload{OrderNumber: orderID, Existing: existing, OrderData: data}
	if !dlg.Open(payload, anchor) {
		e.mu.Lock()
		delete(e.pending, orderID)
		e.mu.Unlock()
		e.log.Warn("tagging dialog refused to open", zap.String("order_id", orderID))
		return false
	}
	return true
}

// ConfirmTags is the dialog collaborator's confirmation entry point, keyed
// by order number. Exactly one confirmation is accepted per open; late or
// unsolicited confirmations are dropped with a warning. The confirmation is
// persisted before any visual change, and the control record is re-validated
// after every store await so a vanished order aborts quietly.
func (e *Engine) ConfirmTags(ctx context.Context, conf DialogConfirmation) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("confirm panicked", zap.String("order_id", conf.OrderNumber), zap.Any("panic", r))
			ok = false
		}
	}()

	orderID := conf.OrderNumber

	e.mu.Lock()
	p := e.pending[orderID]
	delete(e.pending, orderID)
	e.mu.Unlock()
	if p == nil {
		e.log.Warn("unsolicited tag confirmation dropped", zap.String("order_id", orderID))
		return false
	}

	if e.store != nil {
		if err := e.store.StoreOrderTags(ctx, orderID, types.TagData{Tags: conf.Tags, Notes: conf.Notes}); err != nil {
			e.log.Error("persisting tags failed, hide aborted", zap.String("order_id", orderID), zap.Error(err))
			return false
		}
	}

	username := e.lookupUsername(ctx)

	data := p.data
	data.Tags = conf.Tags
	data.Notes = conf.Notes

	if e.store != nil {
		rec := types.HiddenOrder{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Kind:      types.KindDetails,
			OrderData: data,
			Username:  username,
			HiddenAt:  time.Now(),
		}
		if err := e.store.PutHiddenOrder(ctx, rec); err != nil {
			e.log.Error("persisting hidden-order record failed, hide aborted", zap.String("order_id", orderID), zap.Error(err))
			return false
		}
	}

	e.mu.Lock()
	rec, still := e.controls[orderID]
	if !still {
		e.mu.Unlock()
		e.log.Debug("order disappeared during store round-trip", zap.String("order_id", orderID))
		return false
	}
	err := e.performHideLocked(rec, username, conf.Tags)
	e.mu.Unlock()
	if err != nil {
		return false
	}

	if e.callbacks.OnOrderHidden != nil {
		e.callbacks.OnOrderHidden(orderID, types.KindDetails, data)
	}
	return true
}

// ReplayHide re-applies a stored hide against freshly rendered DOM, using
// the persisted tags and username. No click or dialog round-trip happens on
// this path.
func (e *Engine) ReplayHide(ctx context.Context, stored types.HiddenOrder) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("replay hide panicked", zap.String("order_id", stored.OrderID), zap.Any("panic", r))
			ok = false
		}
	}()

	username := stored.Username
	if username == "" {
		username = types.UnknownUser
	}

	e.mu.Lock()
	rec, exists := e.controls[stored.OrderID]
	if !exists {
		e.mu.Unlock()
		e.log.Warn("replay hide with no control record", zap.String("order_id", stored.OrderID))
		return false
	}
	err := e.performHideLocked(rec, username, stored.OrderData.Tags)
	e.mu.Unlock()
	if err != nil {
		return false
	}

	if e.callbacks.OnOrderHidden != nil {
		e.callbacks.OnOrderHidden(stored.OrderID, stored.Kind, stored.OrderData)
	}
	return true
}

// performHideLocked applies the visual hide. Caller holds e.mu. The
// in-progress marker brackets the whole pass and is cleared on every exit
// path; the hidden marker class and the hidden-order token flip in the same
// operation.
func (e *Engine) performHideLocked(rec *controlRecord, username string, tags []string) error {
	root := rec.root
	if root.HasClass(ClassHiddenMarker) {
		e.log.Warn("hide pass skipped, order already hidden", zap.String("order_id", rec.orderID))
		return errAlreadyHidden
	}
	if root.HasClass(classHidingMarker) {
		e.log.Warn("hide pass skipped, hide in progress", zap.String("order_id", rec.orderID))
		return errHideInProgress
	}

	root.AddClass(classHidingMarker)
	defer root.RemoveClass(classHidingMarker)

	sweepDetailGroups(rec)
	sweepOrderItems(rec)
	sweepBoilerplateText(rec)
	sweepActionControls(rec)
	restoreStatusColumn(rec, username, tags)

	rec.control.SetText(labelShow)
	rec.control.SetAttr(attrAction, actionShow)

	root.AddClass(ClassHiddenMarker)
	e.hiddenTokens[HiddenToken(rec.orderID)] = struct{}{}
	e.usernames[rec.orderID] = username

	e.log.Info("order details hidden",
		zap.String("order_id", rec.orderID),
		zap.Int("hidden_elements", len(rec.hidden)),
		zap.String("username", username))
	return nil
}

// Show drives DetailsHidden -> Visible: every recorded element is restored
// from its restoration attribute (stylesheet default when absent), the
// overlay is removed, marker class and token are cleared together, and the
// persisted hidden record is deleted.
func (e *Engine) Show(ctx context.Context, orderID string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("show panicked", zap.String("order_id", orderID), zap.Any("panic", r))
			ok = false
		}
	}()

	e.mu.Lock()
	rec, exists := e.controls[orderID]
	if !exists {
		e.mu.Unlock()
		e.log.Warn("show requested with no control record", zap.String("order_id", orderID))
		return false
	}
	root := rec.root
	if !root.HasClass(ClassHiddenMarker) {
		e.mu.Unlock()
		e.log.Warn("show requested on visible order", zap.String("order_id", orderID))
		return false
	}

	snapshot := append([]*dom.Element(nil), rec.hidden...)
	for _, el := range snapshot {
		unhideElement(rec, el)
	}
	rec.hidden = nil

	for _, overlay := range root.FindAll("." + ClassOverlay) {
		overlay.Detach()
	}

	root.RemoveClass(ClassHiddenMarker)
	delete(e.hiddenTokens, HiddenToken(orderID))
	delete(e.usernames, orderID)

	rec.control.SetText(labelHide)
	rec.control.SetAttr(attrAction, actionHide)

	data := e.parseCard(orderID, root)
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.DeleteHiddenOrder(ctx, orderID); err != nil {
			e.log.Warn("deleting hidden-order record failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	e.log.Info("order details shown", zap.String("order_id", orderID))
	if e.callbacks.OnOrderShown != nil {
		e.callbacks.OnOrderShown(orderID, types.KindDetails, data)
	}
	return true
}

// lookupUsername reads the configured username from the store, degrading to
// the attribution sentinel.
func (e *Engine) lookupUsername(ctx context.Context) string {
	if e.store == nil {
		return types.UnknownUser
	}
	name, err := e.store.Get(ctx, "username")
	if err != nil || name == "" {
		return types.UnknownUser
	}
	return name
}
