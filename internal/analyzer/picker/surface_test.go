package picker_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer/picker"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingMirror captures class replay calls for assertions.
type recordingMirror struct {
	mu      sync.Mutex
	added   []string
	removed []string
}

func (m *recordingMirror) ClassAdded(_ *html.Node, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, class)
}

func (m *recordingMirror) ClassRemoved(_ *html.Node, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, class)
}

func (m *recordingMirror) snapshot() ([]string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.added...), append([]string(nil), m.removed...)
}

func tagAssemble(doc *dom.Document, n *html.Node) (*schemas.PickResult, error) {
	return &schemas.PickResult{Fingerprint: schemas.Fingerprint{Tag: dom.Tag(n), DOMID: dom.ID(n)}}, nil
}

func newSurface(t *testing.T, assemble picker.AssembleFunc, mirror picker.Mirror) *picker.Surface {
	t.Helper()
	s := picker.New(config.NewDefaultConfig().Heuristics, assemble, mirror, zaptest.NewLogger(t))
	s.SetFlashDuration(time.Millisecond)
	t.Cleanup(s.WaitFlashes)
	return s
}

func parseDoc(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestSurfaceIgnoresEventsWhenDisabled(t *testing.T) {
	doc := parseDoc(t, `<input id="f">`)
	s := newSurface(t, tagAssemble, nil)

	s.Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: doc.ElementByID("f")})
	assert.Nil(t, s.TakePicked())
	assert.Nil(t, s.Hovered())
}

func TestSurfaceCommitPublishesAndFlashes(t *testing.T) {
	doc := parseDoc(t, `<input id="f">`)
	s := newSurface(t, tagAssemble, nil)
	s.SetPickMode(true)

	target := doc.ElementByID("f")
	s.Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: target})

	picked := s.TakePicked()
	require.NotNil(t, picked)
	assert.Equal(t, "f", picked.DOMID)
	assert.Nil(t, s.TakePicked(), "take must clear the slot")

	assert.True(t, dom.HasClass(target, picker.FlashClass))
	s.WaitFlashes()
	assert.False(t, dom.HasClass(target, picker.FlashClass))
}

func TestSurfaceAssembleFailureDropsPick(t *testing.T) {
	doc := parseDoc(t, `<input id="f">`)
	failing := func(*dom.Document, *html.Node) (*schemas.PickResult, error) {
		return nil, errors.New("assembly broke")
	}
	s := newSurface(t, failing, nil)
	s.SetPickMode(true)

	s.Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: doc.ElementByID("f")})
	assert.Nil(t, s.TakePicked())
	assert.False(t, dom.HasClass(doc.ElementByID("f"), picker.FlashClass), "a failed pick must not flash")
}

func TestSurfaceHoverOnWrapperChild(t *testing.T) {
	doc := parseDoc(t, `
		<div class="el-input"><span id="decoration">icon</span></div>
		<p id="plain">text</p>`)
	s := newSurface(t, tagAssemble, nil)
	s.SetPickMode(true)

	// A child of a framework input wrapper is hoverable.
	deco := doc.ElementByID("decoration")
	s.Handle(doc, picker.Event{Kind: picker.MouseOver, Target: deco})
	assert.Equal(t, deco, s.Hovered())

	// But not committable: a double-click on it must not pick.
	s.Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: deco})
	assert.Nil(t, s.TakePicked())

	// Unrelated elements are not hoverable at all.
	s.Handle(doc, picker.Event{Kind: picker.MouseOut, Target: deco})
	s.Handle(doc, picker.Event{Kind: picker.MouseOver, Target: doc.ElementByID("plain")})
	assert.Nil(t, s.Hovered())
}

func TestSurfaceDisablingClearsHover(t *testing.T) {
	doc := parseDoc(t, `<input id="f">`)
	s := newSurface(t, tagAssemble, nil)
	s.SetPickMode(true)

	target := doc.ElementByID("f")
	s.Handle(doc, picker.Event{Kind: picker.MouseOver, Target: target})
	require.True(t, dom.HasClass(target, picker.HoverClass))

	s.SetPickMode(false)
	assert.False(t, dom.HasClass(target, picker.HoverClass))
	assert.Nil(t, s.Hovered())
	assert.False(t, s.PickMode())
}

func TestSurfaceMirrorsClassMutations(t *testing.T) {
	doc := parseDoc(t, `<input id="a"><input id="b">`)
	mirror := &recordingMirror{}
	s := newSurface(t, tagAssemble, mirror)
	s.SetPickMode(true)

	s.Handle(doc, picker.Event{Kind: picker.MouseOver, Target: doc.ElementByID("a")})
	s.Handle(doc, picker.Event{Kind: picker.MouseOver, Target: doc.ElementByID("b")})
	s.Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: doc.ElementByID("b")})
	s.WaitFlashes()

	added, removed := mirror.snapshot()
	assert.Equal(t, []string{picker.HoverClass, picker.HoverClass, picker.FlashClass}, added)
	// The first hover is removed by the second, the flash by its timer.
	assert.Equal(t, []string{picker.HoverClass, picker.FlashClass}, removed)
}

func TestSurfaceStrictInputPredicate(t *testing.T) {
	doc := parseDoc(t, `
		<input id="text">
		<input id="hidden" type="hidden">
		<input id="submit" type="submit">
		<select id="sel"></select>
		<textarea id="area"></textarea>
		<div id="editable" contenteditable></div>
		<div id="combo" role="combobox"></div>
		<label id="lbl">Label</label>
		<table><tr><th id="header">H</th></tr></table>
		<div id="plain"></div>`)
	s := newSurface(t, tagAssemble, nil)
	s.SetPickMode(true)

	committable := map[string]bool{
		"text": true, "hidden": false, "submit": false,
		"sel": true, "area": true, "editable": true, "combo": true,
		"lbl": false, "header": false, "plain": false,
	}
	for id, want := range committable {
		target := doc.ElementByID(id)
		require.NotNil(t, target, id)
		s.Handle(doc, picker.Event{Kind: picker.DoubleClick, Target: target})
		got := s.TakePicked() != nil
		assert.Equal(t, want, got, "commit behavior for %q", id)
	}
}
