package engine

// PlacementStrategy is the ordered pair of candidate insertion points for a
// format. Either selector may be empty. The injector's full cascade is
// primary, fallback, a synthesized container under the secondary anchor,
// then the order root itself, which always succeeds.
type PlacementStrategy struct {
	Primary  string
	Fallback string
}

var placements = map[PageFormat]PlacementStrategy{
	FormatModernCard:  {Primary: ".order-card__actions", Fallback: ".order-footer"},
	FormatCompactCard: {Primary: ".compact-card-actions", Fallback: ".order-actions-col"},
	FormatLegacyTable: {Primary: ".order-legacy-actions"},
}

// ResolvePlacement maps a format to its insertion points. Unknown formats map
// to the conservative default: no containers, leaving only the synthesized
// and root fallbacks. Pure lookup, no DOM queries.
func ResolvePlacement(format PageFormat) PlacementStrategy {
	return placements[format]
}
