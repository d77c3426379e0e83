// internal/browser/dialogs.go
//
// Native dialog handling. A blocking alert/confirm/prompt freezes the CDP
// event loop and with it every snapshot and pick poll, so the session both
// overrides the dialog functions in-page (recording what would have been
// shown) and answers any dialog that still surfaces at the protocol level.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const dialogOverrideScript = `(() => {
	if (window.__weaverDialogGuard) { return; }
	window.__weaverDialogGuard = true;
	window.__weaverDialogs = [];
	window.__weaverNativeDialogs = {alert: window.alert, confirm: window.confirm, prompt: window.prompt};
	const record = (kind, message) => {
		window.__weaverDialogs.push({kind: kind, message: String(message), at: Date.now()});
		if (window.__weaverDialogs.length > 64) { window.__weaverDialogs.shift(); }
	};
	window.alert = (m) => { record('alert', m); };
	window.confirm = (m) => { record('confirm', m); return true; };
	window.prompt = (m, d) => { record('prompt', m); return d === undefined ? '' : String(d); };
})()`

// DialogRecord is one suppressed native dialog, drained via DrainDialogs.
type DialogRecord struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// GuardDialogs installs the in-page overrides persistently (they survive
// navigation) and registers a protocol-level listener that accepts any dialog
// the overrides did not catch.
func (s *Session) GuardDialogs(ctx context.Context) error {
	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(dialogOverrideScript).Do(c)
		return err
	}))
	if err != nil {
		return fmt.Errorf("installing dialog overrides: %w", err)
	}

	// Covers dialogs raised before the override script ran (e.g. inline
	// scripts during the initial document parse).
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if dialog, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			s.logger.Warn("native dialog suppressed",
				zap.String("type", string(dialog.Type)),
				zap.String("message", dialog.Message))
			go func() {
				handleCtx, cancel := context.WithTimeout(Detach(s.ctx), s.cfg.SnapshotTimeout)
				defer cancel()
				if err := chromedp.Run(handleCtx, page.HandleJavaScriptDialog(true)); err != nil {
					s.logger.Debug("dialog handling failed", zap.Error(err))
				}
			}()
		}
	})

	// Apply the overrides to the already-loaded document as well.
	return s.runActions(ctx, chromedp.Evaluate(dialogOverrideScript+"; true", nil))
}

// DrainDialogs returns and clears the dialogs recorded by the overrides since
// the last call.
func (s *Session) DrainDialogs(ctx context.Context) ([]DialogRecord, error) {
	var records []DialogRecord
	script := "(window.__weaverDialogs || []).splice(0)"
	if err := s.runActions(ctx, chromedp.Evaluate(script, &records)); err != nil {
		return nil, fmt.Errorf("draining dialog records: %w", err)
	}
	return records, nil
}
