// Package types holds the small record shapes shared between the engine and
// its collaborators (parser, store, dialog).
package types

import "time"

// OrderRecord is the structured view of one order card, as extracted by the
// parser collaborator.
type OrderRecord struct {
	OrderNumber string   `json:"orderNumber"`
	OrderDate   string   `json:"orderDate"`
	Total       string   `json:"total"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// TagData is the payload persisted per order by the tagging flow.
type TagData struct {
	Tags  []string `json:"tags"`
	Notes string   `json:"notes"`
}

// HiddenOrder is one persisted hidden-order record, replayed by the
// restoration bootstrapper after a page reload.
type HiddenOrder struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"orderId"`
	Kind      string      `json:"kind"`
	OrderData OrderRecord `json:"orderData"`
	Username  string      `json:"username"`
	HiddenAt  time.Time   `json:"hiddenAt"`
}

// KindDetails is the only hide kind the engine currently produces: the
// per-order "hide details" operation.
const KindDetails = "details"

// UnknownUser is the attribution sentinel used when no username is recorded.
const UnknownUser = "Unknown User"
