// internal/analyzer/label/proximity.go
package label

import (
	"math"
	"strings"

	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/internal/dom"
)

// Bucket priorities: a label to the left of a field is the dominant layout
// convention, above comes second, right is rare. The shared-container bonus
// halves the priority number so text inside the same card/panel/form section
// outranks closer text from an unrelated section.
const (
	priorityLeft  = 1.0
	priorityAbove = 2.0
	priorityRight = 3.0
)

type proximityCandidate struct {
	text     string
	priority float64
	distance float64
}

// proximity is the last-resort geometric strategy: walk every text node in the
// document, bucket the ones near the target into left/above/right candidates,
// and pick the best-scoring one.
func (e *Engine) proximity(n *html.Node) string {
	target, ok := e.doc.BoundingBox(n)
	if !ok || target.Width <= 0 {
		return ""
	}
	prox := e.heur.Proximity
	section := e.enclosingSection(n)

	var best *proximityCandidate
	for _, root := range e.doc.Roots() {
		for _, textNode := range dom.TextNodes(root) {
			text := strings.TrimSpace(textNode.Data)
			if text == "" || len([]rune(text)) > prox.MaxTextLength {
				continue
			}
			holder := dom.ParentElement(textNode)
			if holder == nil || dom.Contains(n, textNode) {
				continue
			}
			if tag := dom.Tag(holder); tag == "script" || tag == "style" {
				continue
			}
			box, ok := e.doc.BoundingBox(textNode)
			if !ok {
				continue
			}

			cand, ok := classify(box, target, prox.LeftRadius, prox.AboveRadius, prox.RightRadius, prox.CrossGap)
			if !ok {
				continue
			}
			cand.text = text
			if section != nil && dom.Contains(section, textNode) {
				cand.priority /= 2
			}
			if best == nil || cand.priority < best.priority ||
				(cand.priority == best.priority && cand.distance < best.distance) {
				c := cand
				best = &c
			}
		}
	}
	if best == nil {
		return ""
	}
	return best.text
}

// classify buckets a text box against the target box. The cross-axis gap keeps
// a left-hand candidate from being picked off a different row entirely.
func classify(box, target dom.Rect, leftRadius, aboveRadius, rightRadius, crossGap float64) (proximityCandidate, bool) {
	verticalGap := axisGap(box.Y, box.Bottom(), target.Y, target.Bottom())
	horizontalGap := axisGap(box.X, box.Right(), target.X, target.Right())

	switch {
	case box.Right() <= target.X && target.X-box.Right() <= leftRadius && verticalGap <= crossGap:
		return proximityCandidate{priority: priorityLeft, distance: euclid(target.X-box.Right(), verticalGap)}, true
	case box.Bottom() <= target.Y && target.Y-box.Bottom() <= aboveRadius && horizontalGap <= crossGap:
		return proximityCandidate{priority: priorityAbove, distance: euclid(horizontalGap, target.Y-box.Bottom())}, true
	case box.X >= target.Right() && box.X-target.Right() <= rightRadius && verticalGap <= crossGap:
		return proximityCandidate{priority: priorityRight, distance: euclid(box.X-target.Right(), verticalGap)}, true
	}
	return proximityCandidate{}, false
}

// axisGap is the separation between two intervals on one axis, zero when they
// overlap.
func axisGap(aStart, aEnd, bStart, bEnd float64) float64 {
	gap := math.Max(aStart, bStart) - math.Min(aEnd, bEnd)
	if gap < 0 {
		return 0
	}
	return gap
}

func euclid(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}

// enclosingSection finds the nearest ancestor that looks like a layout
// container (section, card, panel, form) for the shared-container bonus.
func (e *Engine) enclosingSection(n *html.Node) *html.Node {
	fragments := e.heur.Proximity.ContainerClassFragments
	return dom.Closest(dom.ParentElement(n), func(el *html.Node) bool {
		tag := dom.Tag(el)
		if tag == "section" || tag == "form" || tag == "fieldset" {
			return true
		}
		for _, fragment := range fragments {
			if dom.HasClassContaining(el, fragment) {
				return true
			}
		}
		return false
	})
}
