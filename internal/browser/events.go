// internal/browser/events.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/18999029117-create/weaver/internal/analyzer/picker"
	"github.com/18999029117-create/weaver/internal/dom"
)

const drainEventsScript = "(window.__weaverEvents || []).splice(0)"

type relayedEvent struct {
	Type   string `json:"type"`
	Serial string `json:"serial"`
}

// PumpEvents drains the page's relay queue at the configured poll cadence and
// feeds each event to the interaction surface, resolving the relayed serial
// against the given snapshot. It blocks until ctx is canceled; events whose
// serial is not in the snapshot (page mutated since capture) are dropped.
func (s *Session) PumpEvents(ctx context.Context, doc *dom.Document, surface *picker.Surface) error {
	index := SerialIndex(doc)
	limiter := rate.NewLimiter(rate.Every(s.cfg.PickPollInterval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		var events []relayedEvent
		if err := s.runActions(ctx, chromedp.Evaluate(drainEventsScript, &events)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("draining event relay: %w", err)
		}

		for _, ev := range events {
			target, ok := index[ev.Serial]
			if !ok {
				continue
			}
			var kind picker.EventKind
			switch ev.Type {
			case "mouseover":
				kind = picker.MouseOver
			case "mouseout":
				kind = picker.MouseOut
			case "dblclick":
				kind = picker.DoubleClick
			default:
				continue
			}
			surface.Handle(doc, picker.Event{Kind: kind, Target: target})
		}
	}
}
