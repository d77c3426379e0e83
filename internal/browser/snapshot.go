// internal/browser/snapshot.go
//
// Snapshot capture: one Evaluate round-trip annotates every element with a
// serial attribute, collects its computed style and layout box, and serializes
// the DOM with declarative shadow roots. The Go side parses the markup and
// joins the metrics back on the serial, so the analyzer sees live style and
// geometry without any further CDP traffic.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/internal/dom"
)

// SerialAttr is the join key between the serialized markup and the metrics
// map. It is minted fresh on every snapshot.
const SerialAttr = "data-weaver-serial"

const snapshotScript = `(() => {
	const metrics = {};
	let serial = 0;
	const visit = (root) => {
		for (const el of root.querySelectorAll('*')) {
			const key = String(serial++);
			el.setAttribute('` + SerialAttr + `', key);
			const cs = window.getComputedStyle(el);
			const r = el.getBoundingClientRect();
			metrics[key] = {
				display: cs.display,
				visibility: cs.visibility,
				opacity: parseFloat(cs.opacity) || 0,
				x: r.x, y: r.y, width: r.width, height: r.height,
				attached: el.offsetParent !== null || cs.position === 'fixed'
			};
			if (el.shadowRoot) visit(el.shadowRoot);
		}
	};
	visit(document);

	let markup = '';
	const docEl = document.documentElement;
	if (docEl.getHTML) {
		markup = docEl.getHTML({serializableShadowRoots: true});
	} else if (docEl.getInnerHTML) {
		markup = docEl.getInnerHTML({includeShadowRoots: true});
	} else {
		markup = docEl.outerHTML;
	}
	return {html: markup, readyState: document.readyState, metrics: metrics};
})()`

type elementMetrics struct {
	Display    string  `json:"display"`
	Visibility string  `json:"visibility"`
	Opacity    float64 `json:"opacity"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Attached   bool    `json:"attached"`
}

type snapshotPayload struct {
	HTML       string                    `json:"html"`
	ReadyState string                    `json:"readyState"`
	Metrics    map[string]elementMetrics `json:"metrics"`
}

// Snapshot captures the current page as a Document with live style and
// geometry resolvers attached.
func (s *Session) Snapshot(ctx context.Context) (*dom.Document, error) {
	snapCtx, cancel := context.WithTimeout(ctx, s.cfg.SnapshotTimeout)
	defer cancel()

	var payload snapshotPayload
	if err := s.runActions(snapCtx, chromedp.Evaluate(snapshotScript, &payload)); err != nil {
		return nil, fmt.Errorf("capturing snapshot: %w", err)
	}

	doc, err := dom.Parse(strings.NewReader(payload.HTML),
		dom.WithReadyState(payload.ReadyState),
		dom.WithStyles(liveStyles{metrics: payload.Metrics}),
		dom.WithGeometry(liveGeometry{metrics: payload.Metrics}),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return doc, nil
}

// SerialIndex maps every annotated element of a snapshot back to its serial,
// the lookup the event pump and class mirror use.
func SerialIndex(doc *dom.Document) map[string]*html.Node {
	index := make(map[string]*html.Node)
	for _, root := range doc.Roots() {
		dom.Descendants(root, func(n *html.Node) bool {
			if key := dom.Attr(n, SerialAttr); key != "" {
				index[key] = n
			}
			return true
		})
	}
	return index
}

// liveStyles resolves computed style from the annotate-and-join metrics.
// Elements without a serial (injected after the snapshot, or text-level nodes)
// fall back to inline-attribute resolution.
type liveStyles struct {
	metrics map[string]elementMetrics
}

func (l liveStyles) Style(n *html.Node) dom.ComputedStyle {
	m, ok := l.metrics[dom.Attr(n, SerialAttr)]
	if !ok {
		return dom.InlineStyles{}.Style(n)
	}
	return dom.ComputedStyle{
		Display:    m.Display,
		Visibility: m.Visibility,
		Opacity:    m.Opacity,
	}
}

// liveGeometry resolves layout boxes from the same metrics. An element reports
// no box when the live page gave it no layout (detached from the render tree
// with zero extent).
type liveGeometry struct {
	metrics map[string]elementMetrics
}

func (l liveGeometry) BoundingBox(n *html.Node) (dom.Rect, bool) {
	m, ok := l.metrics[dom.Attr(n, SerialAttr)]
	if !ok {
		return dom.Rect{}, false
	}
	if !m.Attached && m.Width == 0 && m.Height == 0 {
		return dom.Rect{}, false
	}
	return dom.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}, true
}
