package locator_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer/locator"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

func newChain(t *testing.T, markup string) (*locator.Chain, *dom.Document) {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return locator.New(doc, config.NewDefaultConfig().Heuristics), doc
}

func mustElement(t *testing.T, doc *dom.Document, id string) *html.Node {
	t.Helper()
	n := doc.ElementByID(id)
	require.NotNil(t, n, "fixture element %q", id)
	return n
}

func TestLocateIDFirst(t *testing.T) {
	t.Parallel()
	chain, doc := newChain(t, `<form><input id="email" name="email"></form>`)
	target := mustElement(t, doc, "email")

	selectors := chain.Locate(target)
	require.NotEmpty(t, selectors)

	assert.Equal(t, schemas.SelectorID, selectors[0].Kind)
	assert.Equal(t, "#email", selectors[0].Value)
	assert.Equal(t, 0, selectors[0].Confidence)
}

func TestLocateSkipsDuplicateID(t *testing.T) {
	t.Parallel()
	// Two elements share an id; the id selector would resolve to the first,
	// so the second element must not claim it.
	chain, doc := newChain(t, `<input id="dup"><div><input id="dup" name="second"></div>`)

	var second *html.Node
	dom.Descendants(doc.Root, func(n *html.Node) bool {
		if dom.Attr(n, "name") == "second" {
			second = n
			return false
		}
		return true
	})
	require.NotNil(t, second)

	selectors := chain.Locate(second)
	require.NotEmpty(t, selectors)
	assert.NotEqual(t, schemas.SelectorID, selectors[0].Kind)
}

func TestLocateEverySelectorRoundTrips(t *testing.T) {
	t.Parallel()
	markup := `
		<div class="el-form-item"><div class="el-form-item__label">用户名</div>
			<input aria-label="Username" placeholder="Enter name">
		</div>
		<table id="grid"><thead><tr><th>Qty</th></tr></thead>
			<tbody><tr><td><input name="qty"></td></tr></tbody>
		</table>
		<select id="unit"><option>kg</option></select>`
	chain, doc := newChain(t, markup)

	var targets []*html.Node
	dom.Descendants(doc.Root, func(n *html.Node) bool {
		switch dom.Tag(n) {
		case "input", "select":
			targets = append(targets, n)
		}
		return true
	})
	require.NotEmpty(t, targets)

	for _, target := range targets {
		selectors := chain.Locate(target)
		require.NotEmpty(t, selectors, "tag %s", dom.Tag(target))
		for _, sel := range selectors {
			// The CSS path is stored unverified by design; every other
			// candidate must resolve back to exactly the captured node.
			if sel.Kind == schemas.SelectorCSS {
				continue
			}
			found, err := doc.Resolve(sel)
			require.NoError(t, err, "selector %q", sel.Value)
			assert.Equal(t, target, found, "selector %q resolved a different node", sel.Value)
		}
	}
}

func TestLocateIsDeterministic(t *testing.T) {
	t.Parallel()
	chain, doc := newChain(t, `
		<div class="ant-form-item"><div class="ant-form-item-label">Amount</div>
			<input placeholder="0.00">
		</div>`)

	var target *html.Node
	dom.Descendants(doc.Root, func(n *html.Node) bool {
		if dom.Tag(n) == "input" {
			target = n
			return false
		}
		return true
	})
	require.NotNil(t, target)

	first := chain.Locate(target)
	second := chain.Locate(target)
	assert.Empty(t, cmp.Diff(first, second), "repeated Locate calls must agree")
}

func TestLocateStrategyOrder(t *testing.T) {
	t.Parallel()
	chain, doc := newChain(t, `<input id="field" aria-label="Amount" placeholder="0.00">`)
	target := mustElement(t, doc, "field")

	selectors := chain.Locate(target)
	require.GreaterOrEqual(t, len(selectors), 4)

	assert.Equal(t, schemas.SelectorID, selectors[0].Kind)
	assert.Contains(t, selectors[1].Value, "aria-label")
	assert.Contains(t, selectors[2].Value, "placeholder")
	assert.Equal(t, schemas.SelectorCSS, selectors[len(selectors)-1].Kind)

	for i, sel := range selectors {
		assert.Equal(t, i, sel.Confidence, "confidence must be the emission rank")
	}
}

func TestLocateTablePosition(t *testing.T) {
	t.Parallel()
	chain, doc := newChain(t, `
		<table id="items">
			<tr><th>Name</th><th>Qty</th></tr>
			<tr><td><input name="n1"></td><td><input name="q1"></td></tr>
			<tr><td><input name="n2"></td><td><input name="q2"></td></tr>
		</table>`)

	var target *html.Node
	dom.Descendants(doc.Root, func(n *html.Node) bool {
		if dom.Attr(n, "name") == "q2" {
			target = n
			return false
		}
		return true
	})
	require.NotNil(t, target)

	selectors := chain.Locate(target)
	var tableXPath string
	for _, sel := range selectors {
		if sel.Kind == schemas.SelectorXPath && strings.Contains(sel.Value, `@id="items"`) {
			tableXPath = sel.Value
			break
		}
	}
	require.NotEmpty(t, tableXPath, "expected a table-anchored xpath, got %v", selectors)

	found, err := doc.Resolve(schemas.Selector{Kind: schemas.SelectorXPath, Value: tableXPath})
	require.NoError(t, err)
	assert.Equal(t, target, found)
}

func TestLocateDetachedNode(t *testing.T) {
	t.Parallel()
	chain, _ := newChain(t, `<input id="field">`)
	detached := &html.Node{Type: html.ElementNode, Data: "input"}
	assert.Empty(t, chain.Locate(detached))
}

func TestCSSPathGeneratedClassesExcluded(t *testing.T) {
	t.Parallel()
	chain, doc := newChain(t, `
		<div class="form-row css-1x2y3z"><span class="ng-pristine wrapper"><input name="f"></span></div>`)

	var target *html.Node
	dom.Descendants(doc.Root, func(n *html.Node) bool {
		if dom.Tag(n) == "input" {
			target = n
			return false
		}
		return true
	})
	require.NotNil(t, target)

	css := chain.CSSPath(target)
	assert.NotContains(t, css, "css-1x2y3z")
	assert.NotContains(t, css, "ng-pristine")
	assert.Contains(t, css, "form-row")
	assert.Contains(t, css, "wrapper")
}

func TestXPathLiteral(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`has "quotes"`, `'has "quotes"'`},
		{`it's quoted`, `"it's quoted"`},
		{`mix "of' both`, `concat("mix ", '"', "of' both")`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, locator.XPathLiteral(tc.in), tc.in)
	}
}
