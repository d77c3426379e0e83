// internal/analyzer/autocomplete.go
package analyzer

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

// harvestAutocomplete is the scanner's second, independent pass: transient
// floating option lists (suggestion panels, dropdown portals) that a plain
// interactive-element sweep misses because they live outside the form markup.
// Each visible option becomes a fingerprint-like record pointing back at the
// input it belongs to, so a typed value can be correlated with its resolved
// suggestion downstream.
func (p *scanPass) harvestAutocomplete() {
	rules := p.engine.heur.AutocompletePanels
	if len(rules) == 0 {
		rules = config.DefaultAutocompleteRules()
	}

	// Panels inside shadow roots are as real as light-DOM ones; query every
	// root the way the interactive sweep covers them.
	for _, rule := range rules {
		for _, root := range p.doc.Roots() {
			panels, err := dom.QuerySelectorAll(root, rule.Panel)
			if err != nil {
				p.engine.log.Debug("autocomplete panel selector did not compile",
					zap.String("selector", rule.Panel), zap.Error(err))
				break
			}
			for _, panel := range panels {
				if !p.panelVisible(panel, rule) {
					continue
				}
				associated := p.associatedInputSelector(panel, rule)
				p.harvestPanel(panel, rule, associated)
			}
		}
	}
}

// datalists are display:none by UA convention yet their options are live
// suggestions, so they bypass the visibility check.
func (p *scanPass) panelVisible(panel *html.Node, rule config.AutocompleteRule) bool {
	if dom.Tag(panel) == "datalist" {
		return true
	}
	style := p.doc.Style(panel)
	return style.Display != "none" && style.Visibility != "hidden"
}

func (p *scanPass) harvestPanel(panel *html.Node, rule config.AutocompleteRule, associated string) {
	options, err := dom.QuerySelectorAll(panel, rule.Option)
	if err != nil {
		p.engine.log.Debug("autocomplete option selector did not compile",
			zap.String("selector", rule.Option), zap.Error(err))
		return
	}
	for _, opt := range options {
		if dom.Tag(panel) != "datalist" {
			style := p.doc.Style(opt)
			if style.Display == "none" || style.Visibility == "hidden" {
				continue
			}
		}
		text := dom.InnerText(opt)
		if text == "" {
			text = dom.Attr(opt, "value")
		}
		if text == "" {
			continue
		}

		selectors := p.chain.Locate(opt)
		if len(selectors) == 0 {
			continue
		}
		fp := schemas.Fingerprint{
			Index:                len(p.batch),
			Selectors:            selectors,
			Tag:                  dom.Tag(opt),
			InputKind:            dom.Tag(opt),
			ClassList:            dom.Classes(opt),
			Label:                schemas.Label{Text: text, Source: schemas.LabelFallback},
			IsAutocompleteOption: true,
			AssociatedInput:      associated,
			OptionText:           text,
			ShadowDepth:          p.doc.ShadowDepth(opt),
			CapturedAt:           time.Now(),
		}
		if box, ok := p.doc.BoundingBox(opt); ok {
			fp.Geometry = roundRect(box)
		}
		p.batch = append(p.batch, fp)
	}
}

// associatedInputSelector resolves the back-reference from a floating panel to
// its owning input. Panels are often portaled to <body>, so the enclosing
// wrapper is tried first and ARIA/datalist wiring second.
func (p *scanPass) associatedInputSelector(panel *html.Node, rule config.AutocompleteRule) string {
	if rule.InputWrapper != "" {
		wrapper := dom.Closest(panel, func(e *html.Node) bool { return dom.HasClass(e, rule.InputWrapper) })
		if wrapper != nil {
			if input := firstEditableDescendant(wrapper); input != nil {
				if sels := p.chain.Locate(input); len(sels) > 0 {
					return sels[0].Value
				}
			}
		}
	}

	panelID := dom.ID(panel)
	if panelID == "" {
		return ""
	}
	var owner *html.Node
	for _, root := range p.doc.Roots() {
		dom.Descendants(root, func(n *html.Node) bool {
			if dom.Attr(n, "aria-controls") == panelID ||
				dom.Attr(n, "aria-owns") == panelID ||
				dom.Attr(n, "list") == panelID {
				owner = n
				return false
			}
			return true
		})
		if owner != nil {
			break
		}
	}
	if owner == nil {
		return ""
	}
	if sels := p.chain.Locate(owner); len(sels) > 0 {
		return sels[0].Value
	}
	return ""
}

func firstEditableDescendant(root *html.Node) *html.Node {
	var found *html.Node
	dom.Descendants(root, func(n *html.Node) bool {
		if isInteractive(n) {
			found = n
			return false
		}
		return true
	})
	return found
}
