// internal/dom/style.go
package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ComputedStyle is the slice of computed style the engine actually consults.
type ComputedStyle struct {
	Display    string
	Visibility string
	Opacity    float64
}

// Visible applies the standard three-way check used everywhere a "is this
// actually rendered" decision is made.
func (cs ComputedStyle) Visible() bool {
	return cs.Display != "none" && cs.Visibility != "hidden" && cs.Opacity > 0
}

// Rect is a viewport-relative box in CSS pixels.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// StyleResolver supplies computed styles for snapshot nodes. Implementations
// back this with live-page metrics (browser adapter) or inline attributes
// (offline snapshots and tests).
type StyleResolver interface {
	Style(n *html.Node) ComputedStyle
}

// GeometryResolver supplies layout boxes. The second return mirrors
// offsetParent semantics: false means the node generates no box at all, which
// is how stale loader elements are told apart from active ones.
type GeometryResolver interface {
	BoundingBox(n *html.Node) (Rect, bool)
}

// -- Inline-attribute resolvers --
//
// The default resolvers read inline style="" declarations and the hidden
// attribute. They are exact for serialized snapshots that inline their
// computed state and are the fixture mechanism for tests; live pages use the
// browser adapter's annotated resolvers instead.

type InlineStyles struct{}

func (InlineStyles) Style(n *html.Node) ComputedStyle {
	cs := ComputedStyle{Display: "", Visibility: "visible", Opacity: 1}
	if n == nil {
		return cs
	}
	if n.Type == html.TextNode {
		return InlineStyles{}.Style(ParentElement(n))
	}
	if HasAttr(n, "hidden") {
		cs.Display = "none"
		return cs
	}
	decls := parseInlineStyle(Attr(n, "style"))
	if v, ok := decls["display"]; ok {
		cs.Display = v
	}
	if v, ok := decls["visibility"]; ok {
		cs.Visibility = v
	}
	if v, ok := decls["opacity"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cs.Opacity = f
		}
	}
	return cs
}

// InlineGeometry derives boxes from inline left/top/width/height declarations.
// A node whose own or ancestor display is none has no box.
type InlineGeometry struct {
	Styles StyleResolver
}

func (g InlineGeometry) BoundingBox(n *html.Node) (Rect, bool) {
	if n == nil {
		return Rect{}, false
	}
	if n.Type == html.TextNode {
		return g.BoundingBox(ParentElement(n))
	}
	styles := g.Styles
	if styles == nil {
		styles = InlineStyles{}
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if IsElement(cur) && styles.Style(cur).Display == "none" {
			return Rect{}, false
		}
	}
	decls := parseInlineStyle(Attr(n, "style"))
	px := func(key string) float64 {
		v := strings.TrimSuffix(decls[key], "px")
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return Rect{X: px("left"), Y: px("top"), Width: px("width"), Height: px("height")}, true
}

func parseInlineStyle(style string) map[string]string {
	decls := make(map[string]string)
	for _, part := range strings.Split(style, ";") {
		k, v, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		decls[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return decls
}
