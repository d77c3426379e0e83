// internal/analyzer/interactive.go
package analyzer

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/internal/dom"
)

// Input types that never take data entry: structural, click-actions, or file
// pickers the engine must not touch.
var excludedInputTypes = map[string]bool{
	"hidden": true, "button": true, "submit": true,
	"reset": true, "image": true, "file": true,
}

var editableRoles = map[string]bool{
	"textbox": true, "combobox": true, "spinbutton": true,
}

// isInteractive is the scanner's allow-list: native inputs minus the excluded
// types, select, textarea, contenteditable, and the editable ARIA roles.
func isInteractive(n *html.Node) bool {
	switch dom.Tag(n) {
	case "input":
		return !excludedInputTypes[strings.ToLower(dom.Attr(n, "type"))]
	case "select", "textarea":
		return true
	}
	if isContentEditable(n) {
		return true
	}
	return editableRoles[strings.ToLower(dom.Attr(n, "role"))]
}

// isContentEditable treats contenteditable="" the same as "true", matching the
// DOM's interpretation of the bare attribute.
func isContentEditable(n *html.Node) bool {
	if !dom.HasAttr(n, "contenteditable") {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(dom.Attr(n, "contenteditable")))
	return v == "true" || v == ""
}

// inputKind reports the value downstream fill logic dispatches on: the native
// input type (defaulted the way the DOM does) or the tag name.
func inputKind(n *html.Node) string {
	if dom.Tag(n) == "input" {
		if t := strings.ToLower(dom.Attr(n, "type")); t != "" {
			return t
		}
		return "text"
	}
	return dom.Tag(n)
}
