// internal/dom/document.go
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is the engine's view of one page snapshot: the parsed light DOM,
// any shadow roots materialized from declarative <template shadowrootmode>
// children, the host-supplied style/geometry capabilities, and the native
// readiness value observed at capture time.
type Document struct {
	Root       *html.Node
	ReadyState string

	Styles   StyleResolver
	Geometry GeometryResolver

	// shadowRoots maps a host element to its detached shadow subtree root.
	shadowRoots map[*html.Node]*html.Node
	hosts       map[*html.Node]*html.Node
}

// Option mutates a Document during construction.
type Option func(*Document)

// WithStyles overrides the default inline-attribute style resolver.
func WithStyles(s StyleResolver) Option {
	return func(d *Document) { d.Styles = s }
}

// WithGeometry overrides the default inline-attribute geometry resolver.
func WithGeometry(g GeometryResolver) Option {
	return func(d *Document) { d.Geometry = g }
}

// WithReadyState records the page's document.readyState at capture time.
func WithReadyState(state string) Option {
	return func(d *Document) { d.ReadyState = state }
}

// Parse reads an HTML snapshot and builds a Document. Declarative shadow DOM
// templates are detached from the light tree and registered against their host,
// the same materialization the browser performs at parse time.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return FromNode(root, opts...), nil
}

// FromNode wraps an already parsed tree.
func FromNode(root *html.Node, opts ...Option) *Document {
	doc := &Document{
		Root:        root,
		ReadyState:  "complete",
		Styles:      InlineStyles{},
		shadowRoots: make(map[*html.Node]*html.Node),
		hosts:       make(map[*html.Node]*html.Node),
	}
	doc.Geometry = InlineGeometry{Styles: doc.Styles}
	for _, opt := range opts {
		opt(doc)
	}
	doc.materializeShadowRoots(root)
	return doc
}

// materializeShadowRoots detaches <template shadowrootmode=...> children and
// records them as shadow roots. One pass handles nesting: the walk sees every
// template, outer and inner, before any of them is detached.
func (d *Document) materializeShadowRoots(root *html.Node) {
	var hosts []*html.Node
	var templates []*html.Node
	Descendants(root, func(n *html.Node) bool {
		if Tag(n) == "template" && HasAttr(n, "shadowrootmode") {
			if host := ParentElement(n); host != nil {
				hosts = append(hosts, host)
				templates = append(templates, n)
			}
		}
		return true
	})
	for i, tmpl := range templates {
		host := hosts[i]
		if tmpl.Parent != nil {
			tmpl.Parent.RemoveChild(tmpl)
		}
		d.shadowRoots[host] = tmpl
		d.hosts[tmpl] = host
	}
}

// ShadowRoot returns the shadow subtree attached to host, or nil.
func (d *Document) ShadowRoot(host *html.Node) *html.Node {
	return d.shadowRoots[host]
}

// ShadowHost returns the host element of a shadow root, or nil for light-DOM
// roots.
func (d *Document) ShadowHost(root *html.Node) *html.Node {
	return d.hosts[root]
}

// Roots returns the light root followed by every shadow root, the full set of
// query scopes for whole-document operations.
func (d *Document) Roots() []*html.Node {
	roots := []*html.Node{d.Root}
	// Deterministic order: walk the light tree and append shadow roots in host
	// document order, recursing into nested roots.
	var appendRoots func(scope *html.Node)
	appendRoots = func(scope *html.Node) {
		Descendants(scope, func(n *html.Node) bool {
			if sr, ok := d.shadowRoots[n]; ok {
				roots = append(roots, sr)
				appendRoots(sr)
			}
			return true
		})
	}
	appendRoots(d.Root)
	return roots
}

// ScopeRoot returns the query scope n lives in: its enclosing shadow root, or
// the light root.
func (d *Document) ScopeRoot(n *html.Node) *html.Node {
	top := n
	for top.Parent != nil {
		top = top.Parent
	}
	if _, ok := d.hosts[top]; ok {
		return top
	}
	return d.Root
}

// ShadowDepth counts shadow boundaries between the light DOM and n.
func (d *Document) ShadowDepth(n *html.Node) int {
	depth := 0
	scope := d.ScopeRoot(n)
	for {
		host := d.hosts[scope]
		if host == nil {
			return depth
		}
		depth++
		scope = d.ScopeRoot(host)
	}
}

// Style resolves the computed style of n through the document's resolver.
func (d *Document) Style(n *html.Node) ComputedStyle {
	if d.Styles == nil {
		return ComputedStyle{Visibility: "visible", Opacity: 1}
	}
	return d.Styles.Style(n)
}

// BoundingBox resolves the layout box of n through the document's resolver.
func (d *Document) BoundingBox(n *html.Node) (Rect, bool) {
	if d.Geometry == nil {
		return Rect{}, false
	}
	return d.Geometry.BoundingBox(n)
}

// Rendered reports whether n is visible in the strict sense used by the
// readiness gate: live computed style plus an actual layout box.
func (d *Document) Rendered(n *html.Node) bool {
	if !d.Style(n).Visible() {
		return false
	}
	_, ok := d.BoundingBox(n)
	return ok
}

// ElementByID finds the element with the given id, searching the light DOM
// first and then shadow roots in document order.
func (d *Document) ElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	for _, root := range d.Roots() {
		var found *html.Node
		Descendants(root, func(n *html.Node) bool {
			if ID(n) == id {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Tables returns every <table> in the light DOM in document order, the basis
// for ordinal table identifiers.
func (d *Document) Tables() []*html.Node {
	var tables []*html.Node
	for _, root := range d.Roots() {
		Descendants(root, func(n *html.Node) bool {
			if Tag(n) == "table" {
				tables = append(tables, n)
			}
			return true
		})
	}
	return tables
}

// InputValue reads the current value of a form element the way the live DOM
// exposes it: the value attribute for inputs, the selected option (or first
// option) for selects, and text content for textareas and contenteditable.
func InputValue(n *html.Node) string {
	switch Tag(n) {
	case "select":
		var fallback string
		for i, opt := range optionNodes(n) {
			if i == 0 {
				fallback = optionValue(opt)
			}
			if HasAttr(opt, "selected") {
				return optionValue(opt)
			}
		}
		return fallback
	case "textarea":
		return InnerText(n)
	case "input":
		return Attr(n, "value")
	default:
		if strings.EqualFold(Attr(n, "contenteditable"), "true") || (HasAttr(n, "contenteditable") && Attr(n, "contenteditable") == "") {
			return InnerText(n)
		}
		return Attr(n, "value")
	}
}

func optionNodes(sel *html.Node) []*html.Node {
	var opts []*html.Node
	Descendants(sel, func(n *html.Node) bool {
		if Tag(n) == "option" {
			opts = append(opts, n)
		}
		return true
	})
	return opts
}

func optionValue(opt *html.Node) string {
	if HasAttr(opt, "value") {
		return Attr(opt, "value")
	}
	return InnerText(opt)
}
