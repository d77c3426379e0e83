// internal/analyzer/picker/surface.go
//
// The interaction surface: a small state machine over host-delivered hover and
// double-click events. States run idle -> hovering -> (flashing) -> idle, with
// an orthogonal pick-mode flag gating all behavior. Each handler run is atomic;
// toggling pick mode off takes effect on the next event, there is no in-flight
// operation to cancel.
package picker

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

// CSS classes applied as transient visual feedback. The style rules behind
// them are injected by the browser adapter.
const (
	HoverClass = "weaver-hover-highlight"
	FlashClass = "weaver-flash"
)

// DefaultFlashDuration covers three pulses of the flash animation plus the
// settle delay.
const DefaultFlashDuration = 1200 * time.Millisecond

// EventKind identifies a relayed DOM event.
type EventKind int

const (
	MouseOver EventKind = iota
	MouseOut
	DoubleClick
)

// Event is one host-relayed interaction event. The host is responsible for
// suppressing the default browser action and bubbling of committed
// double-clicks on the live page.
type Event struct {
	Kind   EventKind
	Target *html.Node
}

// AssembleFunc builds the PickResult for a committed element. Provided by the
// analyzer so the surface stays free of fingerprinting logic.
type AssembleFunc func(doc *dom.Document, n *html.Node) (*schemas.PickResult, error)

// Mirror receives class mutations so a live-page adapter can replay them.
type Mirror interface {
	ClassAdded(n *html.Node, class string)
	ClassRemoved(n *html.Node, class string)
}

// Surface owns hover highlighting, pick commits, and the mailbox.
type Surface struct {
	heur     config.HeuristicsConfig
	assemble AssembleFunc
	log      *zap.Logger

	enabled atomic.Bool
	mailbox Mailbox

	mu      sync.Mutex
	hovered *html.Node
	mirror  Mirror

	flashDuration time.Duration
	flashWG       sync.WaitGroup
}

// New builds a surface. mirror may be nil for snapshot-only operation.
func New(heur config.HeuristicsConfig, assemble AssembleFunc, mirror Mirror, log *zap.Logger) *Surface {
	if log == nil {
		log = zap.NewNop()
	}
	return &Surface{
		heur:          heur,
		assemble:      assemble,
		mirror:        mirror,
		log:           log,
		flashDuration: DefaultFlashDuration,
	}
}

// SetPickMode toggles the global pick-mode flag.
func (s *Surface) SetPickMode(enabled bool) {
	s.enabled.Store(enabled)
	if !enabled {
		s.clearHover()
	}
}

// PickMode reports the current flag.
func (s *Surface) PickMode() bool { return s.enabled.Load() }

// TakePicked atomically returns and clears the pending pick result.
func (s *Surface) TakePicked() *schemas.PickResult { return s.mailbox.Take() }

// Handle dispatches one relayed event.
func (s *Surface) Handle(doc *dom.Document, ev Event) {
	if !s.enabled.Load() || ev.Target == nil {
		return
	}
	switch ev.Kind {
	case MouseOver:
		s.handleMouseOver(ev.Target)
	case MouseOut:
		s.handleMouseOut(ev.Target)
	case DoubleClick:
		s.handleDoubleClick(doc, ev.Target)
	}
}

// handleMouseOver highlights input-like targets. Any previously hovered node
// loses its outline first, so at most one element carries the hover class at
// any instant.
func (s *Surface) handleMouseOver(n *html.Node) {
	if !s.isInputLike(n) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hovered == n {
		return
	}
	if s.hovered != nil {
		s.removeClass(s.hovered, HoverClass)
	}
	s.addClass(n, HoverClass)
	s.hovered = n
}

// handleMouseOut removes the outline unconditionally for the event target and
// clears the tracked reference only when it matches.
func (s *Surface) handleMouseOut(n *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeClass(n, HoverClass)
	if s.hovered == n {
		s.hovered = nil
	}
}

// handleDoubleClick commits a pick: assemble, publish to the mailbox
// (overwriting any unconsumed value), and flash.
func (s *Surface) handleDoubleClick(doc *dom.Document, n *html.Node) {
	if !s.isStrictInput(n) {
		return
	}
	result, err := s.assemble(doc, n)
	if err != nil {
		s.log.Warn("pick assembly failed", zap.String("tag", dom.Tag(n)), zap.Error(err))
		return
	}
	s.mailbox.Put(result)
	s.flash(n)
}

// flash applies the pulse class and schedules its removal on a deferred timer
// outside the pick call stack; the timer only strips a CSS class and has no
// data dependency on anything else.
func (s *Surface) flash(n *html.Node) {
	s.mu.Lock()
	s.addClass(n, FlashClass)
	s.mu.Unlock()

	s.flashWG.Add(1)
	time.AfterFunc(s.flashDuration, func() {
		defer s.flashWG.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.removeClass(n, FlashClass)
	})
}

// FlashNode applies the flash pulse to an externally resolved node, the
// best-effort feedback path behind flashElements.
func (s *Surface) FlashNode(n *html.Node) { s.flash(n) }

// SetFlashDuration overrides the flash length; used by tests.
func (s *Surface) SetFlashDuration(d time.Duration) { s.flashDuration = d }

// WaitFlashes blocks until pending flash timers have fired; used by tests.
func (s *Surface) WaitFlashes() { s.flashWG.Wait() }

// Hovered returns the currently highlighted node, if any.
func (s *Surface) Hovered() *html.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hovered
}

func (s *Surface) clearHover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hovered != nil {
		s.removeClass(s.hovered, HoverClass)
		s.hovered = nil
	}
}

func (s *Surface) addClass(n *html.Node, class string) {
	dom.AddClass(n, class)
	if s.mirror != nil {
		s.mirror.ClassAdded(n, class)
	}
}

func (s *Surface) removeClass(n *html.Node, class string) {
	dom.RemoveClass(n, class)
	if s.mirror != nil {
		s.mirror.ClassRemoved(n, class)
	}
}

// -- Target predicates --

// isInputLike is the hover predicate: native inputs, contenteditable, editable
// ARIA roles, framework input wrappers, or a child of such a wrapper.
func (s *Surface) isInputLike(n *html.Node) bool {
	if s.isStrictInput(n) {
		return true
	}
	wrappers := s.heur.InputWrapperClasses
	if len(wrappers) == 0 {
		wrappers = config.DefaultInputWrapperClasses()
	}
	for _, class := range wrappers {
		if dom.HasClass(n, class) {
			return true
		}
	}
	if parent := dom.ParentElement(n); parent != nil {
		for _, class := range wrappers {
			if dom.HasClass(parent, class) {
				return true
			}
		}
	}
	return false
}

// isStrictInput is the commit predicate: only genuinely editable elements, so
// a double-click on a header or label never produces a pick.
func (s *Surface) isStrictInput(n *html.Node) bool {
	switch dom.Tag(n) {
	case "input":
		t := strings.ToLower(dom.Attr(n, "type"))
		return t != "hidden" && t != "button" && t != "submit" && t != "reset" && t != "image" && t != "file"
	case "select", "textarea":
		return true
	case "label", "th", "h1", "h2", "h3", "h4", "h5", "h6":
		return false
	}
	if v := strings.ToLower(strings.TrimSpace(dom.Attr(n, "contenteditable"))); dom.HasAttr(n, "contenteditable") && (v == "true" || v == "") {
		return true
	}
	switch strings.ToLower(dom.Attr(n, "role")) {
	case "textbox", "combobox", "spinbutton":
		return true
	}
	return false
}
