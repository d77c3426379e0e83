// internal/analyzer/locator/css.go
package locator

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/internal/dom"
)

// cssPathMaxDepth bounds the ancestor walk; five segments disambiguate every
// page observed so far without welding the path to the whole document
// structure.
const cssPathMaxDepth = 5

// CSSPath builds an ID-first CSS selector for n. Without an id it walks
// ancestors collecting tag plus up to two stable class tokens and an
// nth-of-type disambiguator, stopping at the first ancestor with an id or at
// the depth bound.
func (c *Chain) CSSPath(n *html.Node) string {
	if !dom.IsElement(n) {
		return ""
	}
	if id := dom.ID(n); id != "" {
		return "#" + cssEscape(id)
	}

	var parts []string
	for cur := n; dom.IsElement(cur); cur = dom.ParentElement(cur) {
		if id := dom.ID(cur); id != "" && cur != n {
			parts = append(parts, "#"+cssEscape(id))
			break
		}
		parts = append(parts, c.cssSegment(cur))
		if len(parts) >= cssPathMaxDepth {
			break
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// cssSegment renders one path segment: tag, stable classes, and nth-of-type
// when same-tag siblings would otherwise collide.
func (c *Chain) cssSegment(n *html.Node) string {
	seg := dom.Tag(n)
	stable := c.stableClasses(n)
	if len(stable) > 2 {
		stable = stable[:2]
	}
	for _, class := range stable {
		seg += "." + cssEscape(class)
	}
	if c.sameTagSiblingCount(n) > 1 {
		seg += fmt.Sprintf(":nth-of-type(%d)", dom.SameTagOrdinal(n))
	}
	return seg
}

// stableClasses drops class tokens minted by framework build tooling; they do
// not survive a redeploy.
func (c *Chain) stableClasses(n *html.Node) []string {
	prefixes := c.heur.GeneratedClassPrefixes
	var stable []string
	for _, class := range dom.Classes(n) {
		generated := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(class, prefix) {
				generated = true
				break
			}
		}
		if !generated {
			stable = append(stable, class)
		}
	}
	return stable
}

func (c *Chain) sameTagSiblingCount(n *html.Node) int {
	parent := dom.ParentElement(n)
	if parent == nil {
		return 1
	}
	count := 0
	for _, sib := range dom.ElementChildren(parent) {
		if dom.Tag(sib) == dom.Tag(n) {
			count++
		}
	}
	return count
}

// cssEscape covers the identifier characters that actually occur in the wild:
// whitespace and CSS metacharacters get a backslash. Full serialization per
// the CSSOM spec is not needed for selectors this generator emits.
func cssEscape(ident string) string {
	var b strings.Builder
	for _, r := range ident {
		switch {
		case r == ' ' || r == '#' || r == '.' || r == ':' || r == '[' || r == ']' || r == '>' || r == '+' || r == '~' || r == '"' || r == '\'' || r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
