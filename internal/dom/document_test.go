package dom_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/dom"
)

func parseDoc(t *testing.T, markup string, opts ...dom.Option) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(markup), opts...)
	require.NoError(t, err)
	return doc
}

func TestParseMaterializesDeclarativeShadowRoots(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<div id="host">
			<template shadowrootmode="open">
				<input id="inner">
				<div id="nested-host">
					<template shadowrootmode="open">
						<input id="deep">
					</template>
				</div>
			</template>
		</div>`)

	host := doc.ElementByID("host")
	require.NotNil(t, host)

	sr := doc.ShadowRoot(host)
	require.NotNil(t, sr, "template should be registered as a shadow root")
	assert.Equal(t, host, doc.ShadowHost(sr))

	// The template must be detached from the light tree.
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		assert.NotEqual(t, "template", dom.Tag(c))
	}

	// Light root plus two shadow roots.
	assert.Len(t, doc.Roots(), 3)

	inner := doc.ElementByID("inner")
	require.NotNil(t, inner, "lookup should pierce shadow roots")
	assert.Equal(t, 1, doc.ShadowDepth(inner))

	deep := doc.ElementByID("deep")
	require.NotNil(t, deep)
	assert.Equal(t, 2, doc.ShadowDepth(deep))

	light := doc.ElementByID("host")
	assert.Equal(t, 0, doc.ShadowDepth(light))
}

func TestScopeRoot(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<div id="light"></div>
		<div id="host"><template shadowrootmode="open"><input id="shadowed"></template></div>`)

	light := doc.ElementByID("light")
	require.NotNil(t, light)
	assert.Equal(t, doc.Root, doc.ScopeRoot(light))

	shadowed := doc.ElementByID("shadowed")
	require.NotNil(t, shadowed)
	assert.NotEqual(t, doc.Root, doc.ScopeRoot(shadowed))
	assert.Equal(t, doc.ShadowRoot(doc.ElementByID("host")), doc.ScopeRoot(shadowed))
}

func TestInputValue(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<input id="plain" value="hello">
		<input id="empty">
		<textarea id="area">multi
line</textarea>
		<select id="selected"><option value="a">A</option><option value="b" selected>B</option></select>
		<select id="unselected"><option value="x">X</option><option value="y">Y</option></select>
		<div id="editable" contenteditable="true">typed text</div>`)

	tests := []struct {
		id   string
		want string
	}{
		{"plain", "hello"},
		{"empty", ""},
		{"area", "multi\nline"},
		{"selected", "b"},
		{"unselected", "x"},
		{"editable", "typed text"},
	}
	for _, tc := range tests {
		n := doc.ElementByID(tc.id)
		require.NotNil(t, n, tc.id)
		assert.Equal(t, tc.want, dom.InputValue(n), tc.id)
	}
}

func TestResolveSelectorKinds(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<form>
			<input id="username" name="user" placeholder="Account">
			<input name="other">
		</form>`)

	target := doc.ElementByID("username")
	require.NotNil(t, target)

	tests := []struct {
		name string
		sel  schemas.Selector
	}{
		{"id", schemas.Selector{Kind: schemas.SelectorID, Value: "#username"}},
		{"css", schemas.Selector{Kind: schemas.SelectorCSS, Value: `input[name="user"]`}},
		{"xpath", schemas.Selector{Kind: schemas.SelectorXPath, Value: `//input[@placeholder="Account"]`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			found, err := doc.Resolve(tc.sel)
			require.NoError(t, err)
			assert.Equal(t, target, found)
		})
	}

	_, err := doc.Resolve(schemas.Selector{Kind: schemas.SelectorCSS, Value: ".missing"})
	assert.Error(t, err)
}

func TestResolveSearchesShadowRoots(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<div id="host"><template shadowrootmode="open"><input class="inner-field"></template></div>`)

	found, err := doc.Resolve(schemas.Selector{Kind: schemas.SelectorCSS, Value: ".inner-field"})
	require.NoError(t, err)
	assert.Equal(t, "input", dom.Tag(found))
}

func TestResolveAnyFallsThrough(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<input id="field">`)

	found, err := doc.ResolveAny([]schemas.Selector{
		{Kind: schemas.SelectorCSS, Value: ".does-not-exist"},
		{Kind: schemas.SelectorID, Value: "#field"},
	})
	require.NoError(t, err)
	assert.Equal(t, doc.ElementByID("field"), found)

	_, err = doc.ResolveAny(nil)
	assert.Error(t, err)
}

func TestInlineGeometryHiddenAncestor(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<div style="display:none"><input id="hidden-child" style="width:100px;height:20px"></div>
		<input id="visible" style="left:10px;top:20px;width:100px;height:30px">`)

	_, ok := doc.BoundingBox(doc.ElementByID("hidden-child"))
	assert.False(t, ok, "descendant of display:none must report no box")

	box, ok := doc.BoundingBox(doc.ElementByID("visible"))
	require.True(t, ok)
	assert.Equal(t, dom.Rect{X: 10, Y: 20, Width: 100, Height: 30}, box)
	assert.Equal(t, 110.0, box.Right())
	assert.Equal(t, 50.0, box.Bottom())
}

func TestRenderedRequiresVisibleStyleAndBox(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<div id="shown" style="width:10px;height:10px">x</div>
		<div id="invisible" style="visibility:hidden;width:10px;height:10px">x</div>
		<div id="transparent" style="opacity:0">x</div>`)

	assert.True(t, doc.Rendered(doc.ElementByID("shown")))
	assert.False(t, doc.Rendered(doc.ElementByID("invisible")))
	assert.False(t, doc.Rendered(doc.ElementByID("transparent")))
}

func TestDescendantsSkip(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<ul>
			<li class="hit"><a class="hit">one</a></li>
			<li><a class="hit">two</a></li>
		</ul>
		<div class="hit">three</div>`)

	var full, skipped []string
	dom.Descendants(doc.Root, func(n *html.Node) bool {
		if dom.HasClass(n, "hit") {
			full = append(full, dom.Tag(n))
		}
		return true
	})
	dom.DescendantsSkip(doc.Root, func(n *html.Node) bool {
		if dom.HasClass(n, "hit") {
			skipped = append(skipped, dom.Tag(n))
			return false
		}
		return true
	})

	assert.Equal(t, []string{"li", "a", "a", "div"}, full)
	assert.Equal(t, []string{"li", "a", "div"}, skipped,
		"a match consumes its subtree but the walk continues past it")
}
