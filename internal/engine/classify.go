package engine

import "ordercloak/internal/dom"

// PageFormat is the fixed classification of an order root's layout variant.
type PageFormat int

const (
	FormatUnknown PageFormat = iota
	FormatModernCard
	FormatCompactCard
	FormatLegacyTable
)

func (f PageFormat) String() string {
	switch f {
	case FormatModernCard:
		return "modern-card"
	case FormatCompactCard:
		return "compact-card"
	case FormatLegacyTable:
		return "legacy-table"
	default:
		return "unknown"
	}
}

// formatMarkers is the priority-ordered probe table; the first matching
// marker wins.
var formatMarkers = []struct {
	selector string
	format   PageFormat
}{
	{".order-card__content", FormatModernCard},
	{".js-order-card, .compact-card-row", FormatCompactCard},
	{".order-box-group, table.order-legacy", FormatLegacyTable},
}

// Classify inspects an order root for distinguishing structural markers.
// Pure, side-effect free, and safe on detached fragments; any probing
// failure yields FormatUnknown.
func Classify(root *dom.Element) (format PageFormat) {
	defer func() {
		if r := recover(); r != nil {
			format = FormatUnknown
		}
	}()
	if root == nil {
		return FormatUnknown
	}
	for _, marker := range formatMarkers {
		if root.Matches(marker.selector) || root.Find(marker.selector) != nil {
			return marker.format
		}
	}
	return FormatUnknown
}
