package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageHTML = `<html><body>
<div id="outer" class="box outer">
  <p id="para" style="color: red">Hello <b>world</b></p>
  <ul>
    <li class="item">one</li>
    <li class="item special">two</li>
  </ul>
</div>
</body></html>`

func parsePage(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(pageHTML, nil)
	require.NoError(t, err)
	return doc
}

func TestSelectorQueries(t *testing.T) {
	doc := parsePage(t)

	outer := doc.Find("#outer")
	require.NotNil(t, outer)
	assert.Equal(t, "div", outer.Tag())

	items := doc.FindAll("li.item")
	require.Len(t, items, 2)
	assert.Equal(t, "one", items[0].Text())

	assert.True(t, items[1].Matches(".special"))
	assert.False(t, items[0].Matches(".special"))

	// Find covers descendants only, never the start node.
	assert.Nil(t, outer.Find("#outer"))

	// Closest includes self, then walks ancestors.
	special := doc.Find(".special")
	assert.True(t, special.Closest(".special").Same(special))
	assert.True(t, special.Closest(".box").Same(outer))
	assert.Nil(t, special.Closest(".missing"))
}

func TestBadSelectorMatchesNothing(t *testing.T) {
	doc := parsePage(t)
	assert.Nil(t, doc.Find("li["))
	assert.Empty(t, doc.FindAll("li["))
	assert.False(t, doc.Find("#outer").Matches("li["))
	assert.Nil(t, doc.Find("#outer").Closest("li["))
}

func TestTextCollapsesWhitespace(t *testing.T) {
	doc, err := ParseString(`<html><body><div>  a
		b   <span> c </span></div></body></html>`, nil)
	require.NoError(t, err)
	assert.Equal(t, "a b c", doc.Find("div").Text())
}

func TestClassManipulation(t *testing.T) {
	doc := parsePage(t)
	el := doc.Find("#outer")

	assert.True(t, el.HasClass("box"))
	el.AddClass("active")
	el.AddClass("active") // no duplicate
	assert.Equal(t, []string{"box", "outer", "active"}, el.Classes())

	el.RemoveClass("outer")
	assert.False(t, el.HasClass("outer"))

	el.RemoveClass("box")
	el.RemoveClass("active")
	assert.False(t, el.HasAttr("class"), "empty class list drops the attribute")
}

func TestStyleRoundTrip(t *testing.T) {
	doc := parsePage(t)
	p := doc.Find("#para")

	// Other declarations survive display edits.
	p.SetDisplay("none")
	assert.True(t, p.IsHidden())
	color, ok := p.StyleProp("color")
	require.True(t, ok)
	assert.Equal(t, "red", color)

	p.ClearDisplay()
	assert.False(t, p.IsHidden())
	assert.Equal(t, "block", p.Display(), "p reverts to its stylesheet default")
	assert.Equal(t, "color: red", p.AttrOr("style", ""))

	// An element with only a display declaration loses the attribute.
	li := doc.Find("li")
	li.SetDisplay("none")
	li.ClearDisplay()
	assert.False(t, li.HasAttr("style"))
	assert.Equal(t, "list-item", li.Display())
}

func TestDefaultDisplay(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"div", "block"},
		{"li", "list-item"},
		{"td", "table-cell"},
		{"tr", "table-row"},
		{"span", "inline"},
		{"img", "inline"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultDisplay(tt.tag), tt.tag)
	}
}

func TestMutationObservers(t *testing.T) {
	doc := parsePage(t)
	var added, removed []*Element
	cancel := doc.Observe(func(rec MutationRecord) {
		added = append(added, rec.Added...)
		removed = append(removed, rec.Removed...)
	})

	child := doc.CreateElement("div")
	doc.Body().AppendChild(child)
	require.Len(t, added, 1)
	assert.True(t, added[0].Same(child))

	child.Detach()
	require.Len(t, removed, 1)
	child.Detach() // already detached, no second record
	assert.Len(t, removed, 1)

	cancel()
	doc.Body().AppendChild(child)
	assert.Len(t, added, 1, "cancelled observer must not fire")
}

func TestAppendChildMoveSemantics(t *testing.T) {
	doc := parsePage(t)
	var added, removed int
	doc.Observe(func(rec MutationRecord) {
		added += len(rec.Added)
		removed += len(rec.Removed)
	})

	para := doc.Find("#para")
	ul := doc.Find("ul")
	ul.AppendChild(para)

	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed, "a move reports no removal")
	assert.True(t, para.Parent().Same(ul))
}

func TestObserverPanicDoesNotUnwind(t *testing.T) {
	doc := parsePage(t)
	fired := false
	doc.Observe(func(MutationRecord) { panic("observer exploded") })
	doc.Observe(func(MutationRecord) { fired = true })

	require.NotPanics(t, func() {
		doc.Body().AppendChild(doc.CreateElement("div"))
	})
	assert.True(t, fired, "remaining observers still run")
}

func TestClickBubbling(t *testing.T) {
	doc := parsePage(t)
	var order []string
	b := doc.Find("b")
	para := doc.Find("#para")
	outer := doc.Find("#outer")

	para.OnClick(func(target *Element) {
		order = append(order, "para")
		assert.True(t, target.Same(b), "bubbled handler still sees the original target")
	})
	cancelOuter := outer.OnClick(func(*Element) { order = append(order, "outer") })

	b.Click()
	assert.Equal(t, []string{"para", "outer"}, order)

	cancelOuter()
	order = nil
	b.Click()
	assert.Equal(t, []string{"para"}, order)
}

func TestDropHandlers(t *testing.T) {
	doc := parsePage(t)
	clicks := 0
	inner := doc.Find("b")
	inner.OnClick(func(*Element) { clicks++ })

	doc.Find("#outer").DropHandlers()
	inner.Click()
	assert.Equal(t, 0, clicks)
}

func TestClickHandlerPanicContinuesDispatch(t *testing.T) {
	doc := parsePage(t)
	fired := false
	b := doc.Find("b")
	b.OnClick(func(*Element) { panic("handler exploded") })
	doc.Find("#para").OnClick(func(*Element) { fired = true })

	require.NotPanics(t, func() { b.Click() })
	assert.True(t, fired)
}

func TestRenderRoundTrip(t *testing.T) {
	doc := parsePage(t)
	doc.Find("#para").SetAttr("data-x", "1")

	var sb strings.Builder
	require.NoError(t, doc.Render(&sb))
	out := sb.String()
	assert.Contains(t, out, `data-x="1"`)
	assert.Contains(t, out, `id="outer"`)

	reparsed, err := ParseString(out, nil)
	require.NoError(t, err)
	assert.NotNil(t, reparsed.Find(`#para[data-x="1"]`))
}

func TestContainsAndDetached(t *testing.T) {
	doc := parsePage(t)
	outer := doc.Find("#outer")
	para := doc.Find("#para")

	assert.True(t, outer.Contains(para))
	assert.False(t, para.Contains(outer))
	assert.False(t, outer.Contains(outer), "an element does not contain itself")

	assert.False(t, para.Detached())
	para.Detach()
	assert.True(t, para.Detached())
}

func TestEachText(t *testing.T) {
	doc := parsePage(t)
	owners := map[string]string{}
	doc.Find("#para").EachText(func(owner *Element, text string) bool {
		owners[text] = owner.Tag()
		return true
	})
	assert.Equal(t, map[string]string{"Hello": "p", "world": "b"}, owners)
}
