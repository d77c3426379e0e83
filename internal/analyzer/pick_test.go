package analyzer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer"
	"github.com/18999029117-create/weaver/internal/analyzer/picker"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

const consigneeTable = `
	<table id="consignees">
		<thead><tr><th>收货人</th><th>电话</th></tr></thead>
		<tbody>
			<tr><td><input name="name" id="n1"></td><td><input name="phone" id="p1"></td></tr>
			<tr><td><input name="name" id="n2"></td><td><input name="phone" id="p2"></td></tr>
			<tr><td><input name="name" id="n3"></td><td><input name="phone" id="p3"></td></tr>
		</tbody>
	</table>`

func pickOn(t *testing.T, engine *analyzer.Engine, doc *dom.Document, id string) *schemas.PickResult {
	t.Helper()
	target := doc.ElementByID(id)
	require.NotNil(t, target, "fixture element %q", id)
	engine.Surface().Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: target})
	return engine.GetAndClearPickedElement()
}

func newPickEngine(t *testing.T) *analyzer.Engine {
	t.Helper()
	engine := analyzer.New(config.NewDefaultConfig().Heuristics, nil, zaptest.NewLogger(t))
	engine.SetPickMode(true)
	engine.Surface().SetFlashDuration(time.Millisecond)
	t.Cleanup(engine.Surface().WaitFlashes)
	return engine
}

func TestPickColumnSiblings(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, consigneeTable)
	engine := newPickEngine(t)

	picked := pickOn(t, engine, doc, "p2")
	require.NotNil(t, picked)

	assert.Equal(t, "p2", picked.DOMID)
	assert.Equal(t, "电话", picked.ParentHeader)
	assert.True(t, picked.HasSiblings)
	assert.Equal(t, 2, picked.SiblingCount)

	var ids []string
	for _, sib := range picked.Siblings {
		ids = append(ids, sib.DOMID)
	}
	assert.ElementsMatch(t, []string{"p1", "p3"}, ids, "same-column inputs of the other rows")
}

func TestPickMailboxTakeAndClear(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, consigneeTable)
	engine := newPickEngine(t)

	picked := pickOn(t, engine, doc, "n1")
	require.NotNil(t, picked)
	assert.Nil(t, engine.GetAndClearPickedElement(), "second take must return nil")
}

func TestPickMailboxOverwrite(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, consigneeTable)
	engine := newPickEngine(t)

	engine.Surface().Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: doc.ElementByID("n1")})
	engine.Surface().Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: doc.ElementByID("p3")})

	picked := engine.GetAndClearPickedElement()
	require.NotNil(t, picked)
	assert.Equal(t, "p3", picked.DOMID, "an unconsumed pick is overwritten by the next commit")
	assert.Nil(t, engine.GetAndClearPickedElement())
}

func TestPickIgnoredWhenModeOff(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, consigneeTable)
	engine := analyzer.New(config.NewDefaultConfig().Heuristics, nil, zaptest.NewLogger(t))

	engine.Surface().Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: doc.ElementByID("n1")})
	assert.Nil(t, engine.GetAndClearPickedElement())
}

func TestPickRejectsNonInputTargets(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<label id="lbl">Name</label>
		<h2 id="head">Form</h2>`+consigneeTable)
	engine := newPickEngine(t)

	for _, id := range []string{"lbl", "head", "consignees"} {
		engine.Surface().Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: doc.ElementByID(id)})
		assert.Nil(t, engine.GetAndClearPickedElement(), "double-click on %q must not commit", id)
	}
}

func TestPickNamedSiblingsInForm(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<form>
			<input name="sku" id="s1">
			<input name="sku" id="s2">
			<input name="sku" id="s3">
			<input name="other" id="o1">
		</form>
		<form><input name="sku" id="elsewhere"></form>`)
	engine := newPickEngine(t)

	picked := pickOn(t, engine, doc, "s2")
	require.NotNil(t, picked)

	assert.True(t, picked.HasSiblings)
	assert.Equal(t, 2, picked.SiblingCount, "same-name inputs scoped to the nearest form")
	var ids []string
	for _, sib := range picked.Siblings {
		ids = append(ids, sib.DOMID)
	}
	assert.ElementsMatch(t, []string{"s1", "s3"}, ids)
}

func TestPickSingleSiblingNotReported(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<table><tr><td>Qty</td><td>Unit</td></tr>
			<tr><td><input id="qty"></td><td><input id="unit"></td></tr>
		</table>`)
	engine := newPickEngine(t)

	picked := pickOn(t, engine, doc, "qty")
	require.NotNil(t, picked)
	assert.False(t, picked.HasSiblings)
	assert.Zero(t, picked.SiblingCount)
	assert.Empty(t, picked.Siblings)
}

func TestPickParentHeaderOutsideTable(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<div class="form-section">
			<h3 class="section-title">收货信息</h3>
			<div><input id="addr" name="address"></div>
		</div>`)
	engine := newPickEngine(t)

	picked := pickOn(t, engine, doc, "addr")
	require.NotNil(t, picked)
	assert.Equal(t, "收货信息", picked.ParentHeader)
}

func TestPickLabelSkipsProximity(t *testing.T) {
	t.Parallel()
	// Geometric neighbor exists, but pick assembly runs without the proximity
	// fallback; the name attribute is the expected label.
	doc := parseDoc(t, `<div>
		<span style="left:10px;top:100px;width:60px;height:20px">Consignee</span>
		<input id="f" name="receiver" style="left:90px;top:100px;width:200px;height:22px">
	</div>`)
	engine := newPickEngine(t)

	picked := pickOn(t, engine, doc, "f")
	require.NotNil(t, picked)
	assert.Equal(t, "receiver", picked.Label.Text)
	assert.Equal(t, schemas.LabelFallback, picked.Label.Source)
}

func TestPickHoverHighlightInvariant(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, consigneeTable)
	engine := newPickEngine(t)
	surface := engine.Surface()

	first := doc.ElementByID("n1")
	second := doc.ElementByID("n2")

	surface.Handle(doc, picker.Event{Kind: picker.MouseOver, Target: first})
	assert.True(t, dom.HasClass(first, picker.HoverClass))

	surface.Handle(doc, picker.Event{Kind: picker.MouseOver, Target: second})
	assert.False(t, dom.HasClass(first, picker.HoverClass), "at most one element carries the hover class")
	assert.True(t, dom.HasClass(second, picker.HoverClass))
	assert.Equal(t, second, surface.Hovered())

	surface.Handle(doc, picker.Event{Kind: picker.MouseOut, Target: second})
	assert.False(t, dom.HasClass(second, picker.HoverClass))
	assert.Nil(t, surface.Hovered())
}

func TestPickGridSiblings(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `
		<div class="grid-body">
			<div class="vxe-body--row">
				<div class="vxe-body--column"><input id="a1"></div>
				<div class="vxe-body--column"><input id="b1"></div>
			</div>
			<div class="vxe-body--row">
				<div class="vxe-body--column"><input id="a2"></div>
				<div class="vxe-body--column"><input id="b2"></div>
			</div>
			<div class="vxe-body--row">
				<div class="vxe-body--column"><input id="a3"></div>
				<div class="vxe-body--column"><input id="b3"></div>
			</div>
			<div class="vxe-body--row">
				<div class="vxe-body--column"><input id="a4"></div>
				<div class="vxe-body--column"><input id="b4"></div>
			</div>
		</div>`)
	engine := newPickEngine(t)

	picked := pickOn(t, engine, doc, "b2")
	require.NotNil(t, picked)

	assert.True(t, picked.HasSiblings)
	assert.Equal(t, 3, picked.SiblingCount, "every other grid row contributes its same-ordinal cell")
	var ids []string
	for _, sib := range picked.Siblings {
		ids = append(ids, sib.DOMID)
	}
	assert.ElementsMatch(t, []string{"b1", "b3", "b4"}, ids)
}
