// internal/analyzer/pick.go
//
// Pick assembly: turning a committed double-click target into a PickResult.
// The interaction surface stays mechanical; everything semantic about a pick
// -- the fingerprint, the dedicated header search, sibling detection -- lives
// here.
package analyzer

import (
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer/locator"
	"github.com/18999029117-create/weaver/internal/analyzer/pagectx"
	"github.com/18999029117-create/weaver/internal/dom"
)

// Header candidates longer than this are body text, not headers.
const maxHeaderRunes = 60

// How many ancestor levels the out-of-table header search climbs.
const headerSearchLevels = 4

// assemblePick is the AssembleFunc handed to the interaction surface. It runs
// on the event path, so the geometric label fallback is disabled; the header
// search and sibling walk below are cheap ancestor/column scans.
func (e *Engine) assemblePick(doc *dom.Document, n *html.Node) (*schemas.PickResult, error) {
	pass := e.newPass(doc)
	pass.proximityLabels = false

	fp, err := pass.fingerprint(n, doc.ShadowDepth(n))
	if err != nil {
		return nil, err
	}

	result := &schemas.PickResult{Fingerprint: fp}
	result.ParentHeader = e.parentHeader(doc, n)

	siblings := e.siblingInputs(doc, n, pass.chain)
	result.SiblingCount = len(siblings)
	if len(siblings) >= 2 {
		result.HasSiblings = true
		result.Siblings = siblings
	}
	return result, nil
}

// parentHeader is the dedicated header search run at commit time. Inside a
// table it is the column header; elsewhere it climbs a few ancestor levels
// looking for a heading-like element immediately preceding the input's
// subtree. Empty when nothing qualifies.
func (e *Engine) parentHeader(doc *dom.Document, n *html.Node) string {
	if header, ok := pagectx.HeaderText(doc, n); ok {
		return header
	}

	ancestor := n
	for level := 0; level < headerSearchLevels; level++ {
		ancestor = dom.ParentElement(ancestor)
		if ancestor == nil {
			return ""
		}
		for sib := dom.PrevElementSibling(ancestor); sib != nil; sib = dom.PrevElementSibling(sib) {
			if !headingLike(sib) {
				continue
			}
			text := dom.InnerText(sib)
			if text == "" || len([]rune(text)) > maxHeaderRunes {
				continue
			}
			return text
		}
	}
	return ""
}

func headingLike(n *html.Node) bool {
	switch dom.Tag(n) {
	case "h1", "h2", "h3", "h4", "h5", "h6", "label", "legend", "th", "dt":
		return true
	case "span", "div", "p":
		for _, marker := range []string{"title", "header", "label", "head"} {
			if dom.HasClassContaining(n, marker) {
				return true
			}
		}
	}
	return false
}

// siblingInputs finds the picked element's peers: same-column inputs when the
// element sits in a table or classed grid, otherwise same-name inputs within
// the nearest form. The picked element itself is never in the list.
func (e *Engine) siblingInputs(doc *dom.Document, n *html.Node, chain *locator.Chain) []schemas.SiblingRef {
	if refs := e.columnSiblings(n, chain); refs != nil {
		return refs
	}
	if refs := e.gridSiblings(n, chain); refs != nil {
		return refs
	}
	return e.namedSiblings(doc, n, chain)
}

// columnSiblings collects the first interactive element of the same-ordinal
// cell in every other row of the enclosing table. A nil return means "not in a
// table"; an empty slice means "in a table, column has no peers".
func (e *Engine) columnSiblings(n *html.Node, chain *locator.Chain) []schemas.SiblingRef {
	cell := dom.ClosestTag(n, "td", "th")
	if cell == nil {
		return nil
	}
	row := dom.ClosestTag(cell, "tr")
	table := dom.ClosestTag(cell, "table")
	if row == nil || table == nil {
		return nil
	}
	col := cellOrdinal(row, cell)

	refs := []schemas.SiblingRef{}
	dom.Descendants(table, func(tr *html.Node) bool {
		if dom.Tag(tr) != "tr" || tr == row {
			return true
		}
		peer := cellAt(tr, col)
		if peer == nil {
			return true
		}
		if input := firstEditableDescendant(peer); input != nil && input != n {
			refs = e.appendRef(refs, input, chain)
		}
		return true
	})
	return refs
}

// gridSiblings does the same walk over classed div grids: the cell ordinal
// inside the enclosing grid row, matched against every other row carrying the
// same row class under the row's parent scope.
func (e *Engine) gridSiblings(n *html.Node, chain *locator.Chain) []schemas.SiblingRef {
	var rowClass string
	var gridRow *html.Node
	for _, class := range e.heur.GridRowClasses {
		if r := dom.Closest(n, func(a *html.Node) bool { return dom.HasClass(a, class) }); r != nil {
			rowClass, gridRow = class, r
			break
		}
	}
	if gridRow == nil {
		return nil
	}
	var cellClass string
	var gridCell *html.Node
	for _, class := range e.heur.GridCellClasses {
		if c := dom.Closest(n, func(a *html.Node) bool { return dom.HasClass(a, class) }); c != nil && dom.Contains(gridRow, c) {
			cellClass, gridCell = class, c
			break
		}
	}
	if gridCell == nil {
		return nil
	}

	col := 0
	dom.Descendants(gridRow, func(c *html.Node) bool {
		if dom.HasClass(c, cellClass) {
			if c == gridCell {
				return false
			}
			col++
		}
		return true
	})

	scope := dom.ParentElement(gridRow)
	if scope == nil {
		return nil
	}
	refs := []schemas.SiblingRef{}
	dom.Descendants(scope, func(r *html.Node) bool {
		if !dom.HasClass(r, rowClass) || r == gridRow {
			return true
		}
		ordinal := 0
		var peer *html.Node
		dom.Descendants(r, func(c *html.Node) bool {
			if dom.HasClass(c, cellClass) {
				if ordinal == col {
					peer = c
					return false
				}
				ordinal++
			}
			return true
		})
		if peer != nil {
			if input := firstEditableDescendant(peer); input != nil && input != n {
				refs = e.appendRef(refs, input, chain)
			}
		}
		// Rows do not nest, so descending into a matched row cannot match
		// again; keep walking to reach the remaining rows.
		return true
	})
	return refs
}

// namedSiblings collects other interactive elements sharing the picked
// element's name attribute, scoped to the nearest <form> (or the element's
// root scope when the page has no form markup).
func (e *Engine) namedSiblings(doc *dom.Document, n *html.Node, chain *locator.Chain) []schemas.SiblingRef {
	name := dom.Attr(n, "name")
	if name == "" {
		return []schemas.SiblingRef{}
	}
	scope := dom.ClosestTag(n, "form")
	if scope == nil {
		scope = doc.ScopeRoot(n)
	}

	refs := []schemas.SiblingRef{}
	dom.Descendants(scope, func(peer *html.Node) bool {
		if peer != n && isInteractive(peer) && dom.Attr(peer, "name") == name {
			refs = e.appendRef(refs, peer, chain)
		}
		return true
	})
	return refs
}

func (e *Engine) appendRef(refs []schemas.SiblingRef, input *html.Node, chain *locator.Chain) []schemas.SiblingRef {
	selectors := chain.Locate(input)
	if len(selectors) == 0 {
		return refs
	}
	return append(refs, schemas.SiblingRef{
		Selectors:   selectors,
		DOMID:       dom.ID(input),
		Placeholder: dom.Attr(input, "placeholder"),
	})
}

// cellOrdinal is the cell's 0-based ordinal among the row's td/th children.
func cellOrdinal(row, cell *html.Node) int {
	index := 0
	for _, child := range dom.ElementChildren(row) {
		switch dom.Tag(child) {
		case "td", "th":
			if child == cell {
				return index
			}
			index++
		}
	}
	return 0
}

// cellAt returns the row's td/th child at the given ordinal, or nil.
func cellAt(row *html.Node, ordinal int) *html.Node {
	index := 0
	for _, child := range dom.ElementChildren(row) {
		switch dom.Tag(child) {
		case "td", "th":
			if index == ordinal {
				return child
			}
			index++
		}
	}
	return nil
}
