package engine

import (
	"strings"

	"ordercloak/internal/dom"
)

// The hide pass is driven by fixed, ordered tables rather than branching
// code so the heuristics can be unit-tested and extended in one place.

// detailSelectorGroups are the detail-level element classes hidden by a
// details-hide pass, in pass order.
var detailSelectorGroups = []struct {
	name      string
	selectors []string
}{
	{"images", []string{"img", ".product-image"}},
	{"titles", []string{".product-title", "a.item-link"}},
	{"price-qty", []string{".item-price", ".item-qty"}},
	{"metadata", []string{".order-meta", ".gift-note"}},
}

// orderItemSelector matches whole order-item containers, which are hidden
// only when they carry no essential-status proof.
const orderItemSelector = ".order-item, .shipment-item"

// Essential-status markers: an order-item carrying one of these is never
// fully hidden, and the status column is never left hidden.
var essentialStatusSelector = ".delivery-status, .shipment-status, [data-delivery-state]"

var essentialStatusTexts = []string{
	"Delivered",
	"Arriving",
	"Shipped",
	"Return complete",
	"Out for delivery",
}

// Order-header preserve list. Distinct from the essential-status list: these
// protect the order's header information (total, ship-to, order number, the
// details/invoice links) from the action-control sweep.
var headerPreserveSelector = ".order-total, .ship-to, .order-number-label"

var headerPreserveTexts = []string{
	"View order details",
	"View invoice",
}

// boilerplatePhrases are known host-page notices whose containing element is
// detail-level content.
var boilerplatePhrases = []string{
	"Return or replace items",
	"Eligible through",
	"Auto-delivered",
	"Package was handed to resident",
	"Your return is complete",
}

var actionControlSelectors = []string{
	".order-action-btn",
	"button.track-package",
	"a.buy-again",
}

var actionTextFragments = []string{
	"Track package",
	"Buy it again",
	"Get product support",
	"Write a product review",
	"Leave seller feedback",
}

// statusColumnSelectors locate the always-visible status column per format.
var statusColumnSelectors = map[PageFormat]string{
	FormatModernCard:  ".order-status-col",
	FormatCompactCard: ".order-status-col",
	FormatLegacyTable: "td.order-status",
	FormatUnknown:     ".order-status-col",
}

// ownArtifactSelector matches anything this engine injected itself.
const ownArtifactSelector = "." + ClassControls + ", ." + ClassOverlay + ", ." + classSlot

func containsAny(text string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(text, f) {
			return true
		}
	}
	return false
}

// isOwnArtifact reports whether the element is, or sits inside, an injected
// control, overlay, or synthesized slot.
func isOwnArtifact(el *dom.Element) bool {
	return el.Closest(ownArtifactSelector) != nil
}

// hasEssentialStatus reports whether the element subtree carries a
// delivery/return/shipped indicator, by marker class or by status text.
func hasEssentialStatus(el *dom.Element) bool {
	if el.Matches(essentialStatusSelector) || el.Find(essentialStatusSelector) != nil {
		return true
	}
	return containsAny(el.Text(), essentialStatusTexts)
}

// inPreservedHeader reports whether the element belongs to the essential
// order-header region (totals, ship-to, order number, details/invoice
// links).
func inPreservedHeader(el *dom.Element) bool {
	if el.Closest(headerPreserveSelector) != nil {
		return true
	}
	return containsAny(el.Text(), headerPreserveTexts)
}

// hideElement reversibly hides one element for the given record: the current
// display value is captured into the restoration attribute, the element is
// display:none'd, and it is appended to the record's restoration list.
// Elements already hidden, already recorded, or belonging to the engine's
// own artifacts are skipped.
func hideElement(rec *controlRecord, el *dom.Element) bool {
	if el == nil || el.Same(rec.root) {
		return false
	}
	if el.HasAttr(AttrRestore) || el.IsHidden() {
		return false
	}
	if isOwnArtifact(el) {
		return false
	}
	el.SetAttr(AttrRestore, el.Display())
	el.SetDisplay("none")
	rec.hidden = append(rec.hidden, el)
	return true
}

// unhideElement restores one element: display from the restoration attribute
// when present, the stylesheet default otherwise. Absence of the attribute is
// not an error. The element is dropped from the record's restoration list.
func unhideElement(rec *controlRecord, el *dom.Element) {
	if v, ok := el.Attr(AttrRestore); ok {
		if v == dom.DefaultDisplay(el.Tag()) {
			el.ClearDisplay()
		} else {
			el.SetDisplay(v)
		}
		el.RemoveAttr(AttrRestore)
	} else {
		el.ClearDisplay()
	}
	out := rec.hidden[:0]
	for _, h := range rec.hidden {
		if !h.Same(el) {
			out = append(out, h)
		}
	}
	rec.hidden = out
}

// sweepDetailGroups hides every detail-level element under the order root.
func sweepDetailGroups(rec *controlRecord) {
	for _, group := range detailSelectorGroups {
		for _, sel := range group.selectors {
			for _, el := range rec.root.FindAll(sel) {
				hideElement(rec, el)
			}
		}
	}
}

// sweepOrderItems hides whole order-item containers, but never one that is
// carrying the only visible proof of delivery status.
func sweepOrderItems(rec *controlRecord) {
	for _, el := range rec.root.FindAll(orderItemSelector) {
		if hasEssentialStatus(el) {
			continue
		}
		hideElement(rec, el)
	}
}

// sweepBoilerplateText walks all text under the order root and hides the
// containing element of any known boilerplate phrase, unless that element or
// an ancestor carries an essential-status marker class.
func sweepBoilerplateText(rec *controlRecord) {
	var owners []*dom.Element
	rec.root.EachText(func(owner *dom.Element, text string) bool {
		if containsAny(text, boilerplatePhrases) {
			owners = append(owners, owner)
		}
		return true
	})
	for _, owner := range owners {
		if owner.Closest(essentialStatusSelector) != nil {
			continue
		}
		hideElement(rec, owner)
	}
}

// sweepActionControls hides the host page's per-order action controls,
// matched by selector or by button text, sparing the engine's own control
// and anything in the preserved header region.
func sweepActionControls(rec *controlRecord) {
	for _, sel := range actionControlSelectors {
		for _, el := range rec.root.FindAll(sel) {
			if inPreservedHeader(el) {
				continue
			}
			hideElement(rec, el)
		}
	}
	for _, el := range rec.root.FindAll("a, button, input") {
		if !containsAny(el.Text(), actionTextFragments) {
			continue
		}
		if inPreservedHeader(el) {
			continue
		}
		hideElement(rec, el)
	}
}

// restoreStatusColumn unconditionally restores anything the pass hid inside
// the format's status column, then appends the attribution/tag overlay
// beneath the status text. The overlay is appended even when nothing in the
// column was hidden, so tags show up for orders whose status never matched a
// detail selector.
func restoreStatusColumn(rec *controlRecord, username string, tags []string) {
	sel, ok := statusColumnSelectors[Classify(rec.root)]
	if !ok {
		sel = statusColumnSelectors[FormatUnknown]
	}
	col := rec.root.Find(sel)
	if col == nil {
		return
	}

	if col.HasAttr(AttrRestore) {
		unhideElement(rec, col)
	}
	for _, el := range col.Descendants() {
		if el.HasAttr(AttrRestore) {
			unhideElement(rec, el)
		}
	}

	for _, stale := range col.FindAll("." + ClassOverlay) {
		stale.Detach()
	}

	doc := col.Document()
	overlay := doc.CreateElement("div")
	overlay.AddClass(ClassOverlay)

	who := doc.CreateElement("span")
	who.AddClass("ordercloak-overlay-user")
	who.SetText("Hidden by " + username)
	overlay.AppendChild(who)

	if len(tags) > 0 {
		tagEl := doc.CreateElement("span")
		tagEl.AddClass("ordercloak-overlay-tags")
		tagEl.SetText(strings.Join(tags, ", "))
		overlay.AppendChild(tagEl)
	}
	col.AppendChild(overlay)
}
