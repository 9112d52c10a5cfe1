// Package parser extracts structured order data from order-history markup.
// It is read-only: nothing here mutates the page.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"ordercloak/internal/dom"
	"ordercloak/internal/types"
)

// rootSelector matches the structural element of one order card across the
// known layout variants.
const rootSelector = ".order-card, .js-order-card, .order-box-group"

var (
	orderNumberPattern = regexp.MustCompile(`\b(\d{3}-\d{7}-\d{7})\b`)
	totalPattern       = regexp.MustCompile(`[$€£]\s?\d[\d,]*\.?\d*`)
	datePattern        = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
)

// fieldProbes maps each record field to the selectors tried in order before
// falling back to a text scan.
var fieldProbes = struct {
	number []string
	date   []string
	total  []string
}{
	number: []string{"[data-order-id]", ".order-id-value", "bdi.order-number"},
	date:   []string{"[data-order-date]", ".order-date", ".order-placed-date"},
	total:  []string{"[data-order-total]", ".order-total .a-price", ".order-total", ".grand-total"},
}

// OrderParser reads order cards. Safe for concurrent use.
type OrderParser struct {
	log *zap.Logger
}

// New builds a parser.
func New(logger *zap.Logger) *OrderParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderParser{log: logger.Named("parser")}
}

// FindOrderRoots returns every order root in the document, in document order.
func (p *OrderParser) FindOrderRoots(doc *dom.Document) []*dom.Element {
	return doc.FindAll(rootSelector)
}

// ParseOrderCard extracts the order number, date, and total from one order
// root. The order number is required; date and total degrade to empty when
// the card does not carry them in a recognizable place.
func (p *OrderParser) ParseOrderCard(root *dom.Element) (*types.OrderRecord, error) {
	if root == nil {
		return nil, fmt.Errorf("nil order root")
	}
	sel := goquery.NewDocumentFromNode(root.Node).Selection

	rec := &types.OrderRecord{
		OrderNumber: p.extractNumber(root, sel),
		OrderDate:   p.extractDate(root, sel),
		Total:       p.extractTotal(root, sel),
	}
	if rec.OrderNumber == "" {
		return nil, fmt.Errorf("order card carries no recognizable order number")
	}
	return rec, nil
}

func (p *OrderParser) extractNumber(root *dom.Element, sel *goquery.Selection) string {
	if v := strings.TrimSpace(root.AttrOr("data-order-id", "")); v != "" {
		return v
	}
	for _, probe := range fieldProbes.number {
		hit := sel.Find(probe).First()
		if hit.Length() == 0 {
			continue
		}
		if v := strings.TrimSpace(hit.AttrOr("data-order-id", "")); v != "" {
			return v
		}
		if v := strings.TrimSpace(hit.Text()); v != "" {
			return v
		}
	}
	if m := orderNumberPattern.FindString(sel.Text()); m != "" {
		return m
	}
	return ""
}

func (p *OrderParser) extractDate(root *dom.Element, sel *goquery.Selection) string {
	if v := strings.TrimSpace(root.AttrOr("data-order-date", "")); v != "" {
		return v
	}
	for _, probe := range fieldProbes.date {
		hit := sel.Find(probe).First()
		if hit.Length() == 0 {
			continue
		}
		if v := strings.TrimSpace(hit.AttrOr("data-order-date", "")); v != "" {
			return v
		}
		if v := collapse(hit.Text()); v != "" {
			return v
		}
	}
	return datePattern.FindString(sel.Text())
}

func (p *OrderParser) extractTotal(root *dom.Element, sel *goquery.Selection) string {
	for _, probe := range fieldProbes.total {
		hit := sel.Find(probe).First()
		if hit.Length() == 0 {
			continue
		}
		if v := strings.TrimSpace(hit.AttrOr("data-order-total", "")); v != "" {
			return v
		}
		text := collapse(hit.Text())
		if m := totalPattern.FindString(text); m != "" {
			return m
		}
		if text != "" {
			return text
		}
	}
	return totalPattern.FindString(sel.Text())
}

// collapse squeezes runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
