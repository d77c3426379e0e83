// internal/analyzer/analyzer.go
//
// The engine facade. One Engine serves one page session: batch scans, the
// interactive pick surface, and the visual flash feedback all go through it.
// Every entry point is synchronous and total -- a scan returns exactly one
// ScanResult, never a partial batch and never a propagated panic.
package analyzer

import (
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer/picker"
	"github.com/18999029117-create/weaver/internal/analyzer/readiness"
	"github.com/18999029117-create/weaver/internal/config"
	"github.com/18999029117-create/weaver/internal/dom"
)

// Engine ties the strategy chains, the readiness gate, and the interaction
// surface together behind the host-facing operations.
type Engine struct {
	heur config.HeuristicsConfig
	log  *zap.Logger

	gate    *readiness.Gate
	surface *picker.Surface
}

// New builds an engine. mirror may be nil when no live page is attached (pure
// snapshot analysis and tests).
func New(heur config.HeuristicsConfig, mirror picker.Mirror, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	heur.Normalize()
	e := &Engine{heur: heur, log: log}
	e.gate = readiness.New(heur.LoaderSelectors, log)
	e.surface = picker.New(heur, e.assemblePick, mirror, log)
	return e
}

// ScanPage analyzes one snapshot and returns the batch of fingerprints. The
// readiness gate runs first; a page still mounting yields a "loading" result
// the host should retry, not an empty batch. Any panic inside the traversal is
// converted into an "error" result carrying the stack.
func (e *Engine) ScanPage(doc *dom.Document) (result schemas.ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("scan panicked", zap.Any("panic", r))
			result = schemas.ScanResult{
				Status:   schemas.ScanError,
				Error:    fmt.Sprintf("scan panicked: %v", r),
				Stack:    string(debug.Stack()),
				Elements: []schemas.Fingerprint{},
			}
		}
	}()

	if doc == nil {
		return schemas.ScanResult{
			Status:   schemas.ScanError,
			Error:    "nil document",
			Elements: []schemas.Fingerprint{},
		}
	}

	if status := e.gate.Check(doc); !status.Ready {
		e.log.Info("page not ready, scan deferred", zap.String("loader", status.Loader))
		return schemas.ScanResult{
			Status:   schemas.ScanLoading,
			Loader:   status.Loader,
			Elements: []schemas.Fingerprint{},
		}
	}

	batch := e.newPass(doc).run()
	result = schemas.ScanResult{
		Status:   schemas.ScanOK,
		BatchID:  uuid.NewString(),
		Elements: batch,
	}
	e.log.Info("scan complete",
		zap.String("batch_id", result.BatchID),
		zap.Int("elements", len(batch)))
	return result
}

// SetPickMode toggles interactive picking on the surface.
func (e *Engine) SetPickMode(enabled bool) {
	e.surface.SetPickMode(enabled)
	e.log.Debug("pick mode set", zap.Bool("enabled", enabled))
}

// GetAndClearPickedElement returns the pending pick result and clears the
// mailbox slot; nil when nothing has been picked since the last call.
func (e *Engine) GetAndClearPickedElement() *schemas.PickResult {
	return e.surface.TakePicked()
}

// Surface exposes the interaction surface so the host event pump can feed it.
func (e *Engine) Surface() *picker.Surface { return e.surface }

// FlashElements resolves each raw selector string and pulses the flash class
// on every hit. Selectors arrive from the host without a declared kind, so
// each string is tried as an id, then CSS, then XPath. Misses are logged and
// skipped; the return value is the number of elements actually flashed.
func (e *Engine) FlashElements(doc *dom.Document, selectors []string) int {
	flashed := 0
	for _, raw := range selectors {
		n := e.resolveLoose(doc, raw)
		if n == nil {
			e.log.Debug("flash selector matched nothing", zap.String("selector", raw))
			continue
		}
		e.surface.FlashNode(n)
		flashed++
	}
	return flashed
}

func (e *Engine) resolveLoose(doc *dom.Document, raw string) *html.Node {
	for _, kind := range []schemas.SelectorKind{schemas.SelectorID, schemas.SelectorCSS, schemas.SelectorXPath} {
		if n, err := doc.Resolve(schemas.Selector{Kind: kind, Value: raw}); err == nil {
			return n
		}
	}
	return nil
}
