// internal/dom/dom.go
package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// -- Node helpers --
//
// Thin, allocation-light accessors over *html.Node. Everything in the analyzer
// packages goes through these instead of poking at html.Node internals.

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Tag returns the lowercase tag name of an element node, or "" otherwise.
func Tag(n *html.Node) string {
	if !IsElement(n) {
		return ""
	}
	return strings.ToLower(n.Data)
}

// Attr returns the value of the named attribute, or "" if absent.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	return htmlquery.SelectAttr(n, key)
}

// HasAttr reports whether the attribute exists, regardless of its value.
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute value in place.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, key) {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// ID returns the element's id attribute.
func ID(n *html.Node) string { return Attr(n, "id") }

// Classes returns the class attribute split into tokens.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass reports whether the element carries the exact class token.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// HasClassContaining reports whether any class token contains the fragment.
func HasClassContaining(n *html.Node, fragment string) bool {
	for _, c := range Classes(n) {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

// AddClass appends a class token if not already present.
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	existing := Attr(n, "class")
	if existing == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", existing+" "+class)
}

// RemoveClass strips a class token, deleting the attribute when it empties.
func RemoveClass(n *html.Node, class string) {
	kept := make([]string, 0, 4)
	for _, c := range Classes(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// InnerText returns the node's text content with surrounding whitespace trimmed.
func InnerText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// ParentElement walks up to the nearest element ancestor, skipping non-element
// nodes.
func ParentElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// Closest returns the nearest ancestor-or-self element satisfying pred,
// matching the DOM closest() contract.
func Closest(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if IsElement(cur) && pred(cur) {
			return cur
		}
	}
	return nil
}

// ClosestTag returns the nearest ancestor-or-self with one of the given
// lowercase tag names.
func ClosestTag(n *html.Node, tags ...string) *html.Node {
	return Closest(n, func(e *html.Node) bool {
		t := Tag(e)
		for _, want := range tags {
			if t == want {
				return true
			}
		}
		return false
	})
}

// PrevElementSibling returns the closest preceding sibling element.
func PrevElementSibling(n *html.Node) *html.Node {
	for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type == html.ElementNode {
			return prev
		}
	}
	return nil
}

// ElementChildren collects the direct element children in document order.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// SameTagOrdinal returns the 1-based position of n among its siblings sharing
// its tag name, the ordinal XPath's [] index uses.
func SameTagOrdinal(n *html.Node) int {
	tag := Tag(n)
	index := 1
	for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type == html.ElementNode && Tag(prev) == tag {
			index++
		}
	}
	return index
}

// Descendants walks the subtree rooted at n in document order, invoking visit
// for every element node. Returning false from visit stops the walk.
func Descendants(n *html.Node, visit func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(cur *html.Node) bool {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if !visit(c) {
					return false
				}
			}
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(n)
}

// DescendantsSkip walks like Descendants, but returning false from visit skips
// the element's subtree and continues with its siblings instead of stopping
// the walk. Use it when a match consumes everything beneath it.
func DescendantsSkip(n *html.Node, visit func(*html.Node) bool) {
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && !visit(c) {
				continue
			}
			walk(c)
		}
	}
	walk(n)
}

// TextNodes collects every non-empty text node under n in document order.
func TextNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Contains reports whether ancestor contains n (or is n itself).
func Contains(ancestor, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}
