package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ordercloak/internal/dom"
)

// RestoreFromStore replays previously-hidden orders against the current
// page, without a user click: read every hidden record, locate each order's
// root, inject a control if needed, and re-apply the hide with the stored
// tags and username. Orders no longer listed on the page, and orders already
// marked hidden, are skipped silently. Only the store read itself can fail
// the pass.
func (e *Engine) RestoreFromStore(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("no store configured")
	}
	records, err := e.store.GetAllHiddenOrders(ctx)
	if err != nil {
		return fmt.Errorf("read hidden orders: %w", err)
	}

	restored := 0
	for _, stored := range records {
		root := e.locateOrderRoot(stored.OrderID)
		if root == nil {
			e.log.Debug("hidden order not on page, skipped",
				zap.String("order_id", stored.OrderID))
			continue
		}
		if root.HasClass(ClassHiddenMarker) {
			continue
		}
		if !e.Inject(root, stored.OrderID) {
			e.log.Warn("restoration could not inject control",
				zap.String("order_id", stored.OrderID))
			continue
		}
		if e.ReplayHide(ctx, stored) {
			restored++
		}
	}
	e.log.Info("restoration pass complete",
		zap.Int("stored", len(records)), zap.Int("restored", restored))
	return nil
}

// locateOrderRoot finds the order root for an identifier on the current
// page: attribute-based selectors first, then a text-content scan over all
// order roots.
func (e *Engine) locateOrderRoot(orderID string) *dom.Element {
	sel := fmt.Sprintf(`[%s=%q]`, attrOrderID, orderID)
	for _, el := range e.doc.FindAll(sel) {
		if isOwnArtifact(el) {
			continue
		}
		if el.Matches(OrderRootSelector) {
			return el
		}
		if root := el.Closest(OrderRootSelector); root != nil {
			return root
		}
	}

	var roots []*dom.Element
	if e.parser != nil {
		roots = e.parser.FindOrderRoots(e.doc)
	} else {
		roots = e.doc.FindAll(OrderRootSelector)
	}
	for _, root := range roots {
		if ExtractOrderID(root) == orderID {
			return root
		}
	}
	return nil
}
