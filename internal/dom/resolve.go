// internal/dom/resolve.go
package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
)

// Resolve re-resolves one Selector against the document, searching the light
// DOM first and then each shadow root in document order. It returns the first
// matching node or an error when the selector matches nothing or fails to
// compile.
func (d *Document) Resolve(sel schemas.Selector) (*html.Node, error) {
	switch sel.Kind {
	case schemas.SelectorID:
		id := strings.TrimPrefix(sel.Value, "#")
		if n := d.ElementByID(id); n != nil {
			return n, nil
		}
		return nil, fmt.Errorf("no element with id %q", id)
	case schemas.SelectorCSS:
		matcher, err := cascadia.ParseGroup(sel.Value)
		if err != nil {
			return nil, fmt.Errorf("compiling css selector %q: %w", sel.Value, err)
		}
		for _, root := range d.Roots() {
			if n := cascadia.Query(root, matcher); n != nil {
				return n, nil
			}
		}
		return nil, fmt.Errorf("css selector %q matched nothing", sel.Value)
	case schemas.SelectorXPath:
		// Compile once; the expression is evaluated against every root.
		expr, err := xpath.Compile(sel.Value)
		if err != nil {
			return nil, fmt.Errorf("compiling xpath %q: %w", sel.Value, err)
		}
		for _, root := range d.Roots() {
			if n := htmlquery.QuerySelector(root, expr); n != nil {
				return n, nil
			}
		}
		return nil, fmt.Errorf("xpath %q matched nothing", sel.Value)
	default:
		return nil, fmt.Errorf("unknown selector kind %q", sel.Kind)
	}
}

// ResolveAny tries each selector in order and returns the first hit, the
// retry-in-order contract of Fingerprint.Selectors.
func (d *Document) ResolveAny(selectors []schemas.Selector) (*html.Node, error) {
	var lastErr error
	for _, sel := range selectors {
		n, err := d.Resolve(sel)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty selector list")
	}
	return nil, lastErr
}

// QuerySelectorAll runs a CSS selector group over one root, returning matches
// in document order. Invalid selectors yield an error rather than a panic so
// configured allow-lists can contain entries the resolver cannot compile.
func QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error) {
	matcher, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("compiling css selector %q: %w", selector, err)
	}
	return cascadia.QueryAll(root, matcher), nil
}

// QuerySelector returns the first match of a CSS selector group under root.
func QuerySelector(root *html.Node, selector string) (*html.Node, error) {
	matcher, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("compiling css selector %q: %w", selector, err)
	}
	return cascadia.Query(root, matcher), nil
}
