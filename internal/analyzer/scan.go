// internal/analyzer/scan.go
package analyzer

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer/label"
	"github.com/18999029117-create/weaver/internal/analyzer/locator"
	"github.com/18999029117-create/weaver/internal/analyzer/pagectx"
	"github.com/18999029117-create/weaver/internal/dom"
)

// scanPass holds the per-invocation state of one traversal: the snapshot, the
// strategy engines bound to it, and the accumulating batch.
type scanPass struct {
	engine *Engine
	doc    *dom.Document
	chain  *locator.Chain
	labels *label.Engine
	batch  []schemas.Fingerprint

	// proximityLabels enables the geometric label fallback. On for batch
	// scans, off for per-event pick assembly where latency matters more than
	// label recall.
	proximityLabels bool
}

func (e *Engine) newPass(doc *dom.Document) *scanPass {
	return &scanPass{
		engine:          e,
		doc:             doc,
		chain:           locator.New(doc, e.heur),
		labels:          label.New(doc, e.heur),
		batch:           []schemas.Fingerprint{},
		proximityLabels: true,
	}
}

// run walks the light DOM and, bounded by the configured depth, descends into
// shadow roots; then harvests transient autocomplete panels in a second pass.
func (p *scanPass) run() []schemas.Fingerprint {
	p.scanRoot(p.doc.Root, 0)
	p.harvestAutocomplete()
	return p.batch
}

// scanRoot captures every interactive element under root, then recurses into
// shadow roots while depth permits. The bound is a latency cap against
// pathological custom-element graphs; two levels cover all observed real-world
// nesting.
func (p *scanPass) scanRoot(root *html.Node, shadowDepth int) {
	var candidates []*html.Node
	dom.Descendants(root, func(n *html.Node) bool {
		if isInteractive(n) {
			candidates = append(candidates, n)
		}
		return true
	})

	for _, n := range candidates {
		style := p.doc.Style(n)
		if style.Display == "none" || style.Visibility == "hidden" {
			continue
		}
		p.capture(n, shadowDepth)
	}

	if shadowDepth < p.engine.heur.MaxShadowDepth {
		dom.Descendants(root, func(n *html.Node) bool {
			if sr := p.doc.ShadowRoot(n); sr != nil {
				p.scanRoot(sr, shadowDepth+1)
			}
			return true
		})
	}
}

// capture assembles one fingerprint. A failing element is logged and skipped;
// it must never abort the batch.
func (p *scanPass) capture(n *html.Node, shadowDepth int) {
	defer func() {
		if r := recover(); r != nil {
			p.engine.log.Warn("element capture panicked",
				zap.Int("index", len(p.batch)), zap.String("tag", dom.Tag(n)), zap.Any("panic", r))
		}
	}()

	fp, err := p.fingerprint(n, shadowDepth)
	if err != nil {
		p.engine.log.Warn("element skipped",
			zap.Int("index", len(p.batch)), zap.String("tag", dom.Tag(n)), zap.Error(err))
		return
	}
	p.batch = append(p.batch, fp)
}

// fingerprint combines the strategy engines into one record.
func (p *scanPass) fingerprint(n *html.Node, shadowDepth int) (schemas.Fingerprint, error) {
	selectors := p.chain.Locate(n)
	if len(selectors) == 0 {
		return schemas.Fingerprint{}, fmt.Errorf("no selector could be generated (detached node)")
	}

	fp := schemas.Fingerprint{
		Index:        len(p.batch),
		Selectors:    selectors,
		Tag:          dom.Tag(n),
		InputKind:    inputKind(n),
		Name:         dom.Attr(n, "name"),
		DOMID:        dom.ID(n),
		ClassList:    dom.Classes(n),
		Placeholder:  dom.Attr(n, "placeholder"),
		CurrentValue: dom.InputValue(n),
		Label:        p.labels.Infer(n, p.proximityLabels),
		ShadowDepth:  shadowDepth,
		State: schemas.ElementState{
			Disabled: dom.HasAttr(n, "disabled"),
			Readonly: dom.HasAttr(n, "readonly"),
			Required: dom.HasAttr(n, "required"),
		},
		TableContext: pagectx.TableInfo(p.doc, n),
		DialogTitle:  pagectx.DialogTitle(n, p.engine.heur.DialogContainers),
		CapturedAt:   time.Now(),
	}
	if box, ok := p.doc.BoundingBox(n); ok {
		fp.Geometry = roundRect(box)
	}
	return fp, nil
}

func roundRect(r dom.Rect) schemas.Rect {
	return schemas.Rect{
		X:      int(math.Round(r.X)),
		Y:      int(math.Round(r.Y)),
		Width:  int(math.Round(r.Width)),
		Height: int(math.Round(r.Height)),
	}
}
