// internal/analyzer/locator/locator.go
//
// The selector strategy chain. Given a node it produces an ordered set of
// candidate locators, each independently re-resolvable against the same
// snapshot. Strategies are pure functions evaluated in priority order; every
// candidate that survives round-trip verification is kept, so the first entry
// is the primary locator and the rest are fallbacks.
package locator

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

// Chain generates selectors for nodes of one document snapshot.
type Chain struct {
	doc  *dom.Document
	heur config.HeuristicsConfig
}

// New builds a chain bound to a snapshot.
func New(doc *dom.Document, heur config.HeuristicsConfig) *Chain {
	return &Chain{doc: doc, heur: heur}
}

// strategy produces one candidate XPath, or "" when it does not apply.
type strategy func(n *html.Node) string

// Locate returns the ordered candidate selectors for n. The result is empty
// only for detached nodes; callers must treat that as a fatal per-element
// failure and skip the element rather than abort the batch.
func (c *Chain) Locate(n *html.Node) []schemas.Selector {
	if !dom.IsElement(n) || dom.ParentElement(n) == nil {
		return nil
	}

	var out []schemas.Selector
	rank := 0
	add := func(kind schemas.SelectorKind, value string) {
		out = append(out, schemas.Selector{Kind: kind, Value: value, Confidence: rank})
		rank++
	}

	// An id that round-trips to exactly this node beats everything: it is the
	// only locator that survives arbitrary re-parenting.
	if id := dom.ID(n); id != "" && c.doc.ElementByID(id) == n {
		add(schemas.SelectorID, "#"+id)
	}

	strategies := []strategy{
		c.ariaLabelXPath,
		c.placeholderXPath,
		c.labelAnchoredXPath,
		c.tablePositionXPath,
		c.gridPositionXPath,
		c.positionalXPath,
	}
	for _, s := range strategies {
		expr := s(n)
		if expr == "" {
			continue
		}
		if !c.verifies(schemas.Selector{Kind: schemas.SelectorXPath, Value: expr}, n) {
			continue
		}
		add(schemas.SelectorXPath, expr)
	}

	// The CSS path is generated independently and stored alongside; it is
	// never the primary locator because the positional XPath above always
	// verifies first.
	if css := c.CSSPath(n); css != "" {
		add(schemas.SelectorCSS, css)
	}
	return out
}

// verifies re-resolves the selector through the document's full search order
// and accepts it only when the first hit is the captured node.
func (c *Chain) verifies(sel schemas.Selector, n *html.Node) bool {
	found, err := c.doc.Resolve(sel)
	return err == nil && found == n
}

// -- XPath strategies, in decreasing reliability --

func (c *Chain) ariaLabelXPath(n *html.Node) string {
	if v := dom.Attr(n, "aria-label"); v != "" {
		return attrXPath(n, "aria-label", v)
	}
	return ""
}

func (c *Chain) placeholderXPath(n *html.Node) string {
	if v := dom.Attr(n, "placeholder"); v != "" {
		return attrXPath(n, "placeholder", v)
	}
	return ""
}

// labelAnchoredXPath anchors on the text of the enclosing framework form-item
// label. Auto-generated DOM ids churn between sessions; visible label text is
// what the page's own users navigate by, so it survives redesigns far better.
func (c *Chain) labelAnchoredXPath(n *html.Node) string {
	rules := c.heur.FormItemContainers
	if len(rules) == 0 {
		rules = config.DefaultFormItemRules()
	}
	for _, rule := range rules {
		item := dom.Closest(n, func(e *html.Node) bool { return dom.HasClass(e, rule.Container) })
		if item == nil {
			continue
		}
		var labelText string
		dom.Descendants(item, func(e *html.Node) bool {
			if dom.HasClass(e, rule.Label) {
				labelText = dom.InnerText(e)
				return false
			}
			return true
		})
		if labelText == "" {
			continue
		}
		return fmt.Sprintf(`//*[contains(@class,%s)][.//*[contains(@class,%s)][normalize-space()=%s]]//%s`,
			XPathLiteral(rule.Container), XPathLiteral(rule.Label), XPathLiteral(labelText), dom.Tag(n))
	}
	return ""
}

// tablePositionXPath addresses the element through its row/cell ordinals
// inside the enclosing <table>.
func (c *Chain) tablePositionXPath(n *html.Node) string {
	cell := dom.ClosestTag(n, "td", "th")
	if cell == nil {
		return ""
	}
	row := dom.ClosestTag(cell, "tr")
	table := dom.ClosestTag(cell, "table")
	if row == nil || table == nil {
		return ""
	}

	anchor := ""
	if id := dom.ID(table); id != "" {
		anchor = fmt.Sprintf("//table[@id=%s]", XPathLiteral(id))
	} else {
		scope := c.doc.ScopeRoot(n)
		ordinal := 0
		dom.Descendants(scope, func(e *html.Node) bool {
			if dom.Tag(e) == "table" {
				ordinal++
				if e == table {
					return false
				}
			}
			return true
		})
		if ordinal == 0 {
			return ""
		}
		anchor = fmt.Sprintf("(//table)[%d]", ordinal)
	}

	rowOrdinal := 0
	dom.Descendants(table, func(e *html.Node) bool {
		if dom.Tag(e) == "tr" {
			rowOrdinal++
			if e == row {
				return false
			}
		}
		return true
	})
	if rowOrdinal == 0 {
		return ""
	}

	return fmt.Sprintf("(%s//tr)[%d]/%s[%d]//%s",
		anchor, rowOrdinal, dom.Tag(cell), dom.SameTagOrdinal(cell), dom.Tag(n))
}

// gridPositionXPath does the same for virtualized grids that render rows as
// classed <div>s instead of table markup.
func (c *Chain) gridPositionXPath(n *html.Node) string {
	rowClass, gridRow := c.closestByClassList(n, c.heur.GridRowClasses)
	if gridRow == nil {
		return ""
	}
	cellClass, gridCell := c.closestByClassList(n, c.heur.GridCellClasses)
	if gridCell == nil || !dom.Contains(gridRow, gridCell) {
		return ""
	}

	scope := c.doc.ScopeRoot(n)
	rowOrdinal := 0
	dom.Descendants(scope, func(e *html.Node) bool {
		if dom.HasClass(e, rowClass) {
			rowOrdinal++
			if e == gridRow {
				return false
			}
		}
		return true
	})
	cellOrdinal := 0
	dom.Descendants(gridRow, func(e *html.Node) bool {
		if dom.HasClass(e, cellClass) {
			cellOrdinal++
			if e == gridCell {
				return false
			}
		}
		return true
	})
	if rowOrdinal == 0 || cellOrdinal == 0 {
		return ""
	}

	return fmt.Sprintf(`((//*[contains(@class,%s)])[%d]//*[contains(@class,%s)])[%d]//%s`,
		XPathLiteral(rowClass), rowOrdinal, XPathLiteral(cellClass), cellOrdinal, dom.Tag(n))
}

func (c *Chain) closestByClassList(n *html.Node, classes []string) (string, *html.Node) {
	for _, class := range classes {
		if e := dom.Closest(n, func(a *html.Node) bool { return dom.HasClass(a, class) }); e != nil {
			return class, e
		}
	}
	return "", nil
}

// positionalXPath is the guaranteed fallback. Inside a shadow root the path is
// relative to the root template; in the light DOM it is absolute.
func (c *Chain) positionalXPath(n *html.Node) string {
	scope := c.doc.ScopeRoot(n)
	if scope == c.doc.Root {
		return PositionalXPath(n)
	}
	var segments []string
	for cur := n; cur != nil && cur != scope && cur.Type == html.ElementNode; cur = cur.Parent {
		segments = append(segments, fmt.Sprintf("%s[%d]", dom.Tag(cur), dom.SameTagOrdinal(cur)))
	}
	if len(segments) == 0 {
		return ""
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return "./" + strings.Join(segments, "/")
}
