// internal/analyzer/readiness/readiness.go
//
// The pre-scan gate. A scan that runs while an async framework is still
// mounting returns a false-empty or false-partial batch, which downstream
// mapping would happily consume; the gate turns that into an explicit
// "loading" sentinel the host can retry on.
package readiness

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/internal/dom"
)

// Status is the gate's verdict. Loader carries the matched selector (or the
// readyState diagnostic) when Ready is false.
type Status struct {
	Ready  bool
	Loader string
}

// Gate checks one snapshot against the ordered loading-convention list.
type Gate struct {
	selectors []string
	log       *zap.Logger
}

// New builds a gate over the configured loader selectors.
func New(selectors []string, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{selectors: selectors, log: log}
}

// Check runs once, synchronously, with no polling. The first loader selector
// that matches a *rendered* element short-circuits; matches that are merely
// present in the DOM but hidden are stale leftovers and must not block a scan.
// Only after the selector sweep does the native readyState get a say.
func (g *Gate) Check(doc *dom.Document) Status {
	for _, selector := range g.selectors {
		matches, err := dom.QuerySelectorAll(doc.Root, selector)
		if err != nil {
			// Configured conventions may outrun the selector engine; skip, do
			// not fail the gate.
			g.log.Debug("loader selector did not compile", zap.String("selector", selector), zap.Error(err))
			continue
		}
		if firstRendered(doc, matches) != nil {
			return Status{Ready: false, Loader: selector}
		}
	}

	if doc.ReadyState != "complete" {
		return Status{Ready: false, Loader: "document.readyState=" + doc.ReadyState}
	}
	return Status{Ready: true}
}

func firstRendered(doc *dom.Document, nodes []*html.Node) *html.Node {
	for _, n := range nodes {
		if doc.Rendered(n) {
			return n
		}
	}
	return nil
}
