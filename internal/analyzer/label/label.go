// internal/analyzer/label/label.go
//
// Best-effort human label inference. Strategies run in fixed priority order,
// first non-empty result wins; the ordering encodes decreasing reliability.
// Explicit semantic association is trusted over geometry because redesigns
// move pixels but rarely break for= wiring; the visual-proximity walk is the
// most failure-prone and the most expensive, so it runs last and only in scan
// mode.
package label

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer/pagectx"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

// Engine infers labels for nodes of one document snapshot.
type Engine struct {
	doc  *dom.Document
	heur config.HeuristicsConfig
}

// New builds a label engine bound to a snapshot.
func New(doc *dom.Document, heur config.HeuristicsConfig) *Engine {
	return &Engine{doc: doc, heur: heur}
}

type attempt struct {
	source schemas.LabelSource
	infer  func(n *html.Node) string
}

// Infer runs the strategy chain. Text is always present in the sense of the
// data model: the final fallback degrades through placeholder, name and id
// before settling on the empty string. allowProximity gates the geometric
// fallback, which only batch scans pay for.
func (e *Engine) Infer(n *html.Node, allowProximity bool) schemas.Label {
	attempts := []attempt{
		{schemas.LabelExplicitFor, e.explicitFor},
		{schemas.LabelWrapping, e.wrappingLabel},
		{schemas.LabelAria, e.ariaLabel},
		{schemas.LabelAriaLabelledBy, e.ariaLabelledBy},
		{schemas.LabelSibling, e.adjacentSibling},
		{schemas.LabelFormItem, e.formItem},
		{schemas.LabelTableHeader, e.tableHeader},
	}
	if allowProximity {
		attempts = append(attempts, attempt{schemas.LabelProximity, e.proximity})
	}

	for _, a := range attempts {
		text := strings.TrimSpace(a.infer(n))
		if text == "" || e.isGenericPrompt(text) {
			continue
		}
		return schemas.Label{Text: text, Source: a.source}
	}
	return schemas.Label{Text: e.fallback(n), Source: schemas.LabelFallback}
}

// isGenericPrompt rejects placeholder prompts posing as field names; they are
// demoted so a later strategy (or the fallback) can do better.
func (e *Engine) isGenericPrompt(text string) bool {
	for _, prompt := range e.heur.GenericPrompts {
		if text == prompt {
			return true
		}
	}
	return false
}

// -- Strategies --

// explicitFor resolves label[for=id].
func (e *Engine) explicitFor(n *html.Node) string {
	id := dom.ID(n)
	if id == "" {
		return ""
	}
	scope := e.doc.ScopeRoot(n)
	var text string
	dom.Descendants(scope, func(el *html.Node) bool {
		if dom.Tag(el) == "label" && dom.Attr(el, "for") == id {
			text = dom.InnerText(el)
			return false
		}
		return true
	})
	return text
}

// wrappingLabel uses an ancestor <label>, with the node's own text and current
// value stripped out of the computed text.
func (e *Engine) wrappingLabel(n *html.Node) string {
	wrapper := dom.ClosestTag(n, "label")
	if wrapper == nil || wrapper == n {
		return ""
	}
	text := dom.InnerText(wrapper)
	if own := dom.InnerText(n); own != "" {
		text = strings.ReplaceAll(text, own, "")
	}
	if value := dom.InputValue(n); value != "" {
		text = strings.ReplaceAll(text, value, "")
	}
	return text
}

func (e *Engine) ariaLabel(n *html.Node) string {
	return dom.Attr(n, "aria-label")
}

// ariaLabelledBy resolves the space-separated id list against the document.
func (e *Engine) ariaLabelledBy(n *html.Node) string {
	refs := strings.Fields(dom.Attr(n, "aria-labelledby"))
	if len(refs) == 0 {
		return ""
	}
	var parts []string
	for _, id := range refs {
		if target := e.doc.ElementByID(id); target != nil {
			if text := dom.InnerText(target); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}

// adjacentSibling accepts an immediately preceding label or span.
func (e *Engine) adjacentSibling(n *html.Node) string {
	prev := dom.PrevElementSibling(n)
	if prev == nil {
		return ""
	}
	if tag := dom.Tag(prev); tag != "label" && tag != "span" {
		return ""
	}
	return dom.InnerText(prev)
}

// formItem looks up the nearest framework form-item container and reads its
// label child, trimming trailing colon/asterisk punctuation in both ASCII and
// full-width forms.
func (e *Engine) formItem(n *html.Node) string {
	rules := e.heur.FormItemContainers
	if len(rules) == 0 {
		rules = config.DefaultFormItemRules()
	}
	for _, rule := range rules {
		item := dom.Closest(n, func(el *html.Node) bool { return dom.HasClass(el, rule.Container) })
		if item == nil {
			continue
		}
		var text string
		dom.Descendants(item, func(el *html.Node) bool {
			if dom.HasClass(el, rule.Label) {
				text = dom.InnerText(el)
				return false
			}
			return true
		})
		if text != "" {
			return trimLabelPunctuation(text)
		}
	}
	return ""
}

// tableHeader correlates the element's column against the table header row.
func (e *Engine) tableHeader(n *html.Node) string {
	text, _ := pagectx.HeaderText(e.doc, n)
	return text
}

// fallback degrades through placeholder, name and id; generic prompts are
// skipped here too so a "请输入" placeholder does not shadow a usable name.
func (e *Engine) fallback(n *html.Node) string {
	for _, candidate := range []string{dom.Attr(n, "placeholder"), dom.Attr(n, "name"), dom.ID(n)} {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && !e.isGenericPrompt(candidate) {
			return candidate
		}
	}
	return ""
}

// trimLabelPunctuation strips trailing colons and asterisks, ASCII and
// full-width, plus surrounding whitespace.
func trimLabelPunctuation(text string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ":：*＊"))
}
