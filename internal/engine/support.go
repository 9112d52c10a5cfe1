package engine

import (
	"net/url"
	"strings"
)

// supportedPathFragments identify order-history pages this engine knows how
// to augment.
var supportedPathFragments = []string{
	"/order-history",
	"/your-orders",
	"/gp/css/order-history",
	"/orders",
}

// SupportsPage reports whether a page URL looks like an order-history
// listing. Malformed URLs are unsupported, never an error.
func SupportsPage(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, fragment := range supportedPathFragments {
		if strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}
