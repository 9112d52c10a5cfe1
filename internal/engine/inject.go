package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ordercloak/internal/dom"
)

// Inject builds the hide/show control for an order and inserts it exactly
// once. Repeated calls for the same order id are no-ops returning success,
// so overlapping observation events cannot double-insert. Any failure is
// caught, logged, and reported as false with no partial record retained.
func (e *Engine) Inject(root *dom.Element, orderID string) (ok bool) {
	var cleanup func()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("inject panicked",
				zap.String("order_id", orderID), zap.Any("panic", r))
			if cleanup != nil {
				cleanup()
			}
			ok = false
		}
	}()

	if root == nil || orderID == "" {
		e.log.Warn("inject called without a root or order id",
			zap.String("order_id", orderID))
		return false
	}

	e.mu.Lock()
	if _, exists := e.controls[orderID]; exists {
		e.mu.Unlock()
		return true
	}
	e.mu.Unlock()

	rec, err := e.buildAndPlace(root, orderID)
	if err != nil {
		e.log.Error("control injection failed",
			zap.String("order_id", orderID), zap.Error(err))
		return false
	}
	cleanup = func() { e.detachControl(rec) }

	e.mu.Lock()
	if _, exists := e.controls[orderID]; exists {
		// Raced with another injection for the same order; keep the first.
		e.mu.Unlock()
		e.detachControl(rec)
		return true
	}
	e.controls[orderID] = rec
	e.mu.Unlock()
	cleanup = nil

	e.log.Debug("control injected",
		zap.String("order_id", orderID),
		zap.String("format", Classify(root).String()))
	return true
}

// buildAndPlace constructs the control widget tree and inserts it following
// the placement cascade. The final fallback, appending to the order root,
// cannot fail.
func (e *Engine) buildAndPlace(root *dom.Element, orderID string) (*controlRecord, error) {
	doc := root.Document()
	if doc == nil {
		return nil, fmt.Errorf("order root has no document")
	}

	container := doc.CreateElement("div")
	container.AddClass(ClassControls)
	container.SetAttr(attrOrderID, orderID)

	list := doc.CreateElement("ul")
	container.AppendChild(list)
	item := doc.CreateElement("li")
	list.AppendChild(item)

	control := doc.CreateElement("a")
	control.SetAttr("href", "#")
	control.AddClass("ordercloak-hide-link")
	control.SetAttr(attrOrderID, orderID)
	control.SetAttr(attrAction, actionHide)
	control.SetText(labelHide)
	item.AppendChild(control)

	rec := &controlRecord{
		orderID:   orderID,
		root:      root,
		container: container,
		control:   control,
	}

	rec.cancelClick = control.OnClick(func(target *dom.Element) {
		e.handleControlClick(orderID, control)
	})

	strategy := ResolvePlacement(Classify(root))
	if strategy.Primary != "" {
		if host := root.Find(strategy.Primary); host != nil {
			host.AppendChild(container)
			return rec, nil
		}
	}
	if strategy.Fallback != "" {
		if host := root.Find(strategy.Fallback); host != nil {
			host.AppendChild(container)
			return rec, nil
		}
	}
	if anchor := root.Find(secondaryAnchorSelector); anchor != nil {
		slot := doc.CreateElement("div")
		slot.AddClass(classSlot)
		anchor.AppendChild(slot)
		slot.AppendChild(container)
		rec.synthesized = slot
		return rec, nil
	}
	root.AppendChild(container)
	return rec, nil
}

// handleControlClick fires on the injected control. It re-validates, at
// click time, that the control's stored order id matches the order root it
// is physically contained in; a stale handler surviving a DOM reshuffle is
// ignored with a warning.
func (e *Engine) handleControlClick(orderID string, control *dom.Element) {
	containing := control.Closest(OrderRootSelector)
	if containing != nil {
		if actual := ExtractOrderID(containing); actual != "" && actual != orderID {
			e.log.Warn("stale control click ignored",
				zap.String("control_order_id", orderID),
				zap.String("containing_order_id", actual))
			return
		}
	}

	ctx := context.Background()
	switch control.AttrOr(attrAction, actionHide) {
	case actionShow:
		e.Show(ctx, orderID)
	default:
		e.Hide(ctx, orderID)
	}
}

// Remove reverses an injection. Missing records are a successful no-op. Each
// detach step runs independently so one failure cannot strand the others;
// any failure is reported as false after all steps were attempted.
func (e *Engine) Remove(orderID string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("remove panicked",
				zap.String("order_id", orderID), zap.Any("panic", r))
			ok = false
		}
	}()

	e.mu.Lock()
	rec, exists := e.controls[orderID]
	if !exists {
		e.mu.Unlock()
		return true
	}
	delete(e.controls, orderID)
	delete(e.pending, orderID)
	e.mu.Unlock()

	failed := false
	step := func(name string, fn func()) {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("remove step failed",
					zap.String("order_id", orderID),
					zap.String("step", name), zap.Any("panic", r))
				failed = true
			}
		}()
		fn()
	}

	step("cancel-click", func() {
		if rec.cancelClick != nil {
			rec.cancelClick()
		}
	})
	step("detach", func() { e.detachControl(rec) })

	e.log.Debug("control removed", zap.String("order_id", orderID))
	return !failed
}

// detachControl detaches the control elements and deletes a synthesized
// container if it is now empty.
func (e *Engine) detachControl(rec *controlRecord) {
	if rec == nil {
		return
	}
	if rec.container != nil {
		rec.container.DropHandlers()
		rec.container.Detach()
	}
	if rec.synthesized != nil && len(rec.synthesized.Children()) == 0 {
		rec.synthesized.Detach()
	}
}

// ControlCount reports how many orders currently carry an injected control.
func (e *Engine) ControlCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.controls)
}
