// internal/analyzer/locator/xpath.go
package locator

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/internal/dom"
)

// XPathLiteral quotes s for embedding in an XPath expression. Values mixing
// both quote characters need the concat() form; everything else gets plain
// quotes.
func XPathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// PositionalXPath builds the guaranteed-fallback selector: the recursively
// resolved parent path plus the element's tag and same-tag sibling ordinal.
// It deliberately ignores ids, which on the target pages are frequently
// auto-generated and churn between sessions.
func PositionalXPath(n *html.Node) string {
	if n == nil || !dom.IsElement(n) {
		return ""
	}
	var segments []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		tag := dom.Tag(cur)
		if tag == "" {
			continue
		}
		segments = append(segments, fmt.Sprintf("%s[%d]", tag, dom.SameTagOrdinal(cur)))
	}
	if len(segments) == 0 {
		return ""
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return "/" + strings.Join(segments, "/")
}

// attrXPath builds //tag[@attr=value] for exact attribute anchoring.
func attrXPath(n *html.Node, attr, value string) string {
	return fmt.Sprintf("//%s[@%s=%s]", dom.Tag(n), attr, XPathLiteral(value))
}
