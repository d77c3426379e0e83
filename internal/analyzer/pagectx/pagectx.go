// internal/analyzer/pagectx/pagectx.go
//
// Structural context extraction: table/grid membership and enclosing
// modal/dialog detection. Table and dialog context are independent; an element
// may carry either, both, or neither.
package pagectx

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

// TableInfo resolves table membership for n, or nil when n is not inside a
// <td>/<th>. Indices are the 0-based ordinals the DOM itself exposes.
func TableInfo(doc *dom.Document, n *html.Node) *schemas.TableContext {
	cell := dom.ClosestTag(n, "td", "th")
	if cell == nil {
		return nil
	}
	row := dom.ClosestTag(cell, "tr")
	if row == nil {
		return nil
	}
	table := dom.ClosestTag(cell, "table")

	info := &schemas.TableContext{
		RowIndex: rowIndexOf(table, row),
		ColIndex: cellIndexOf(row, cell),
	}
	if table != nil {
		info.TableID = tableIdentifier(doc, table)
		if header, ok := headerTextAt(table, row, info.ColIndex); ok {
			info.HeaderText = header
		}
	}
	return info
}

// HeaderText resolves the column header for an element inside a table cell,
// for use as a label source. The bool reports whether a header was found.
func HeaderText(doc *dom.Document, n *html.Node) (string, bool) {
	cell := dom.ClosestTag(n, "td", "th")
	if cell == nil {
		return "", false
	}
	row := dom.ClosestTag(cell, "tr")
	table := dom.ClosestTag(cell, "table")
	if row == nil || table == nil {
		return "", false
	}
	return headerTextAt(table, row, cellIndexOf(row, cell))
}

// DialogTitle walks the ordered modal-container conventions and returns the
// title text of the innermost enclosing dialog, the rule's generic name when
// the dialog has no title element, or "" when n is not inside any dialog.
func DialogTitle(n *html.Node, rules []config.DialogRule) string {
	if len(rules) == 0 {
		rules = config.DefaultDialogRules()
	}
	for _, rule := range rules {
		matcher, err := cascadia.ParseGroup(rule.Container)
		if err != nil {
			continue
		}
		container := dom.Closest(n, func(e *html.Node) bool { return matcher.Match(e) })
		if container == nil {
			continue
		}
		if rule.Title != "" {
			if title, err := dom.QuerySelector(container, rule.Title); err == nil && title != nil {
				if text := dom.InnerText(title); text != "" {
					return text
				}
			}
		}
		return rule.Name
	}
	return ""
}

// rowIndexOf returns the row's 0-based ordinal among every <tr> of the table
// (all sections, document order), matching HTMLTableRowElement.rowIndex. When
// the row sits outside a <table> (fragment markup) the ordinal is relative to
// the row's parent.
func rowIndexOf(table, row *html.Node) int {
	scope := table
	if scope == nil {
		scope = dom.ParentElement(row)
		if scope == nil {
			return 0
		}
	}
	index := 0
	found := false
	dom.Descendants(scope, func(e *html.Node) bool {
		if dom.Tag(e) == "tr" {
			if e == row {
				found = true
				return false
			}
			index++
		}
		return true
	})
	if !found {
		return 0
	}
	return index
}

// cellIndexOf returns the cell's 0-based ordinal among the row's <td>/<th>
// children, matching HTMLTableCellElement.cellIndex.
func cellIndexOf(row, cell *html.Node) int {
	index := 0
	for _, child := range dom.ElementChildren(row) {
		tag := dom.Tag(child)
		if tag != "td" && tag != "th" {
			continue
		}
		if child == cell {
			return index
		}
		index++
	}
	return 0
}

// tableIdentifier derives a stable id for the table: its id, else its class,
// else an ordinal among all tables on the page.
func tableIdentifier(doc *dom.Document, table *html.Node) string {
	if id := dom.ID(table); id != "" {
		return id
	}
	if class := dom.Attr(table, "class"); class != "" {
		return class
	}
	for i, t := range doc.Tables() {
		if t == table {
			return fmt.Sprintf("table_%d", i)
		}
	}
	return "table_0"
}

// headerTextAt resolves the header text for a column: the first <thead> row's
// cell at that index, else the table's literal first row when it is distinct
// from the element's own row.
func headerTextAt(table, ownRow *html.Node, colIndex int) (string, bool) {
	var headerRow *html.Node
	dom.Descendants(table, func(e *html.Node) bool {
		if dom.Tag(e) == "thead" {
			dom.Descendants(e, func(r *html.Node) bool {
				if dom.Tag(r) == "tr" {
					headerRow = r
					return false
				}
				return true
			})
			return false
		}
		return true
	})
	if headerRow == nil {
		// Fall back to the table's first row, but only when structurally
		// distinct from the element's own row: a single-row table has no
		// header to speak of.
		dom.Descendants(table, func(r *html.Node) bool {
			if dom.Tag(r) == "tr" {
				headerRow = r
				return false
			}
			return true
		})
		if headerRow == ownRow {
			return "", false
		}
	}
	if headerRow == nil {
		return "", false
	}

	index := 0
	for _, child := range dom.ElementChildren(headerRow) {
		tag := dom.Tag(child)
		if tag != "td" && tag != "th" {
			continue
		}
		if index == colIndex {
			text := dom.InnerText(child)
			return text, text != ""
		}
		index++
	}
	return "", false
}
