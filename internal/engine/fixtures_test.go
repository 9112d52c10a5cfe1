package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ordercloak/internal/dom"
)

// Markup variants covering the known order-history layouts. Kept as one
// order card each; tests that need a full listing compose them.

const modernCardHTML = `<html><body>
<div class="order-card" data-order-id="123-4567890-1234567">
  <div class="order-header">
    <span class="order-number-label">Order # <bdi class="order-number">123-4567890-1234567</bdi></span>
    <span class="order-total">$42.99</span>
    <span class="ship-to">Ship to Pat Doe</span>
    <a href="#">View order details</a>
  </div>
  <div class="order-card__content">
    <div class="order-status-col">
      <span class="delivery-status">Delivered June 3</span>
      <img src="status-icon.png" class="status-icon">
    </div>
    <div class="order-item" id="item-1">
      <img src="widget.jpg">
      <a class="item-link" href="/p/1">Widget Deluxe</a>
      <span class="item-price" style="display: flex">$42.99</span>
      <span class="item-qty">1</span>
    </div>
    <div class="shipment-item" id="item-2">
      <span class="shipment-status">Delivered</span>
      <img src="other.jpg">
    </div>
    <p class="return-note">Return or replace items: Eligible through July 3, 2026</p>
    <button class="track-package">Track package</button>
    <a class="buy-again" href="/buy">Buy it again</a>
  </div>
  <div class="order-card__actions"></div>
</div>
</body></html>`

const compactCardHTML = `<html><body>
<div class="js-order-card">
  <div class="order-header"><span class="order-id-value">D01-1234567-7654321</span></div>
  <div class="compact-card-row">
    <div class="order-status-col"><span class="shipment-status">Out for delivery</span></div>
    <div class="order-item"><img src="a.jpg"><span class="item-price">$5.00</span></div>
  </div>
  <div class="compact-card-actions"></div>
</div>
</body></html>`

const legacyTableHTML = `<html><body>
<div class="order-box-group">
  <span>Order BQX12345678901</span>
  <table class="order-legacy">
    <tr>
      <td class="order-status">Shipped</td>
      <td><img src="legacy.jpg"><span class="item-price">$9.99</span></td>
    </tr>
  </table>
  <div class="order-legacy-actions"></div>
</div>
</body></html>`

// headerOnlyCardHTML has no placement container at all, forcing the
// synthesized-slot path.
const headerOnlyCardHTML = `<html><body>
<div class="order-card" data-order-id="123-4567890-1234567">
  <div class="order-header"><span class="order-total">$3.00</span></div>
  <div><img src="x.jpg"></div>
</div>
</body></html>`

// bareCardHTML has neither placement container nor header, landing the
// control on the order root itself.
const bareCardHTML = `<html><body>
<div class="order-card" data-order-id="123-4567890-1234567"><img src="x.jpg"></div>
</body></html>`

func mustDoc(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(markup, nil)
	require.NoError(t, err)
	return doc
}

func orderRoot(t *testing.T, doc *dom.Document) *dom.Element {
	t.Helper()
	root := doc.Find(OrderRootSelector)
	require.NotNil(t, root, "fixture has no order root")
	return root
}

// injectModern parses the modern fixture and injects its control.
func injectModern(t *testing.T, e *Engine) (*dom.Element, string) {
	t.Helper()
	root := orderRoot(t, e.Document())
	id := ExtractOrderID(root)
	require.NotEmpty(t, id)
	require.True(t, e.Inject(root, id))
	return root, id
}
