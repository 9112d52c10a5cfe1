package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercloak/internal/dom"
	"ordercloak/internal/types"
)

const listingHTML = `<html><body>
<div class="order-card" data-order-id="123-4567890-1234567" data-order-date="June 1, 2026">
  <div class="order-header">
    <span class="order-date">June 1, 2026</span>
    <span class="order-total">Total: $42.99</span>
  </div>
</div>
<div class="js-order-card">
  <span class="order-id-value">D01-1234567-7654321</span>
  <span class="order-total">$5.00</span>
</div>
<div class="unrelated-card"></div>
</body></html>`

func TestFindOrderRoots(t *testing.T) {
	doc, err := dom.ParseString(listingHTML, nil)
	require.NoError(t, err)

	roots := New(nil).FindOrderRoots(doc)
	require.Len(t, roots, 2)
	assert.Equal(t, "123-4567890-1234567", roots[0].AttrOr("data-order-id", ""))
}

func TestParseOrderCard(t *testing.T) {
	doc, err := dom.ParseString(listingHTML, nil)
	require.NoError(t, err)
	p := New(nil)
	roots := p.FindOrderRoots(doc)
	require.Len(t, roots, 2)

	rec, err := p.ParseOrderCard(roots[0])
	require.NoError(t, err)
	assert.Equal(t, "123-4567890-1234567", rec.OrderNumber)
	assert.Equal(t, "June 1, 2026", rec.OrderDate)
	assert.Equal(t, "$42.99", rec.Total)

	rec, err = p.ParseOrderCard(roots[1])
	require.NoError(t, err)
	assert.Equal(t, "D01-1234567-7654321", rec.OrderNumber)
	assert.Equal(t, "$5.00", rec.Total)
	assert.Empty(t, rec.OrderDate)
}

func TestParseOrderCardTextFallbacks(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>
		<div class="order-card">
			Order placed December 12, 2025, number 123-4567890-1234567, total $19.50
		</div>
	</body></html>`, nil)
	require.NoError(t, err)
	p := New(nil)

	rec, err := p.ParseOrderCard(p.FindOrderRoots(doc)[0])
	require.NoError(t, err)
	want := &types.OrderRecord{
		OrderNumber: "123-4567890-1234567",
		OrderDate:   "December 12, 2025",
		Total:       "$19.50",
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("parsed record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOrderCardWithoutNumberFails(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><div class="order-card"><span>no id here</span></div></body></html>`, nil)
	require.NoError(t, err)
	p := New(nil)

	_, err = p.ParseOrderCard(p.FindOrderRoots(doc)[0])
	assert.Error(t, err)
}

func TestParseNilRoot(t *testing.T) {
	_, err := New(nil).ParseOrderCard(nil)
	assert.Error(t, err)
}
