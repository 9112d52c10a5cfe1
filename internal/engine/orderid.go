package engine

import (
	"regexp"
	"strings"

	"ordercloak/internal/dom"
)

// Order-id discovery is a two-step pipeline: collect candidates from an
// ordered strategy list (attribute probes first, then regex sweeps over the
// root's text), and validate each candidate before trusting it as a lookup
// key. The reject list runs before the accept list so free text that merely
// looks identifier-shaped (dates, status phrases) is thrown out early.

// idProbe tries one selector; a non-empty attr reads that attribute,
// otherwise the matched element's text is the candidate.
type idProbe struct {
	selector string
	attr     string
}

var idProbes = []idProbe{
	{selector: "[data-order-id]", attr: attrOrderID},
	{selector: ".order-id-value"},
	{selector: "bdi.order-number"},
}

var idTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}-\d{7}-\d{7}\b`),
	regexp.MustCompile(`\b[A-Za-z]\d{2}-\d{7}-\d{7}\b`),
	regexp.MustCompile(`\b[A-Z0-9]{12,19}\b`),
}

// rejectPatterns are evaluated before the accept list. Anything matching is
// free text, never an identifier.
var rejectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(day)?$`),
	regexp.MustCompile(`(?i)^(january|february|march|april|may|june|july|august|september|october|november|december)$`),
	regexp.MustCompile(`(?i)\b(arriving|delivered|shipped|returned|ordered|refunded|today|tomorrow|yesterday)\b`),
}

var acceptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{3}-\d{7}-\d{7}$`),
	regexp.MustCompile(`^[A-Za-z]\d{2}-\d{7}-\d{7}$`),
	regexp.MustCompile(`^[A-Z0-9]{12,19}$`),
}

// IsValidOrderID reports whether a candidate matches the vendor id grammar.
func IsValidOrderID(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || len(candidate) > 64 {
		return false
	}
	for _, re := range rejectPatterns {
		if re.MatchString(candidate) {
			return false
		}
	}
	for _, re := range acceptPatterns {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// ExtractOrderID pulls a validated order identifier out of an order root, or
// returns the empty string. Safe on detached fragments; probe failures are
// treated as not-found.
func ExtractOrderID(root *dom.Element) string {
	if root == nil {
		return ""
	}

	for _, probe := range idProbes {
		candidates := probeCandidates(root, probe)
		for _, c := range candidates {
			if IsValidOrderID(c) {
				return strings.TrimSpace(c)
			}
		}
	}

	// Regex fallback over the root's full text content.
	text := root.Text()
	for _, re := range idTextPatterns {
		for _, c := range re.FindAllString(text, -1) {
			if IsValidOrderID(c) {
				return c
			}
		}
	}
	return ""
}

func probeCandidates(root *dom.Element, probe idProbe) []string {
	var out []string
	read := func(el *dom.Element) {
		if probe.attr != "" {
			if v, ok := el.Attr(probe.attr); ok {
				out = append(out, v)
			}
			return
		}
		out = append(out, el.Text())
	}
	if root.Matches(probe.selector) {
		read(root)
	}
	for _, el := range root.FindAll(probe.selector) {
		read(el)
	}
	return out
}
