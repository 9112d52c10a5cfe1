package dom

import "strings"

// styleProp is one declaration from an inline style attribute. Order is
// preserved when the attribute is rewritten.
type styleProp struct {
	name  string
	value string
}

func parseStyle(raw string) []styleProp {
	var props []styleProp
	for _, decl := range strings.Split(raw, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		props = append(props, styleProp{
			name:  strings.ToLower(strings.TrimSpace(name)),
			value: strings.TrimSpace(value),
		})
	}
	return props
}

func formatStyle(props []styleProp) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, p.name+": "+p.value)
	}
	return strings.Join(parts, "; ")
}

// StyleProp returns an inline style declaration value, if declared.
func (e *Element) StyleProp(name string) (string, bool) {
	for _, p := range parseStyle(e.AttrOr("style", "")) {
		if p.name == name {
			return p.value, true
		}
	}
	return "", false
}

// SetStyleProp sets an inline style declaration, preserving the others.
func (e *Element) SetStyleProp(name, value string) {
	props := parseStyle(e.AttrOr("style", ""))
	for i := range props {
		if props[i].name == name {
			props[i].value = value
			e.SetAttr("style", formatStyle(props))
			return
		}
	}
	props = append(props, styleProp{name: name, value: value})
	e.SetAttr("style", formatStyle(props))
}

// RemoveStyleProp drops an inline declaration; the attribute itself is
// removed once empty.
func (e *Element) RemoveStyleProp(name string) {
	props := parseStyle(e.AttrOr("style", ""))
	out := props[:0]
	for _, p := range props {
		if p.name != name {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", formatStyle(out))
}

// displayDefaults maps tags to their stylesheet-default display value.
// Anything absent renders inline. Minimal table in the Operetta style: only
// what layout-affecting decisions here depend on.
var displayDefaults = map[string]string{
	"html": "block", "body": "block", "div": "block", "p": "block",
	"section": "block", "article": "block", "header": "block",
	"footer": "block", "nav": "block", "aside": "block", "main": "block",
	"form": "block", "fieldset": "block", "blockquote": "block",
	"pre": "block", "hr": "block", "address": "block", "figure": "block",
	"h1": "block", "h2": "block", "h3": "block", "h4": "block",
	"h5": "block", "h6": "block",
	"ul": "block", "ol": "block", "dl": "block", "dd": "block",
	"dt": "block", "li": "list-item",
	"table": "table", "thead": "table-header-group",
	"tbody": "table-row-group", "tfoot": "table-footer-group",
	"tr": "table-row", "td": "table-cell", "th": "table-cell",
	"caption": "table-caption", "col": "table-column",
	"colgroup": "table-column-group",
}

// DefaultDisplay returns the stylesheet-default display for a tag.
func DefaultDisplay(tag string) string {
	if d, ok := displayDefaults[strings.ToLower(tag)]; ok {
		return d
	}
	return "inline"
}

// Display resolves the element's effective display value: the inline
// declaration when present, otherwise the per-tag default.
func (e *Element) Display() string {
	if v, ok := e.StyleProp("display"); ok {
		return v
	}
	return DefaultDisplay(e.Tag())
}

// SetDisplay writes an inline display declaration.
func (e *Element) SetDisplay(value string) {
	e.SetStyleProp("display", value)
}

// ClearDisplay removes the inline display declaration, reverting the element
// to its stylesheet default.
func (e *Element) ClearDisplay() {
	e.RemoveStyleProp("display")
}

// IsHidden reports whether the element's own display resolves to none. It
// does not consult ancestors.
func (e *Element) IsHidden() bool {
	return e.Display() == "none"
}
