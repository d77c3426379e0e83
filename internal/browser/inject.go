// internal/browser/inject.go
//
// Page-side assets for interactive picking: the highlight/flash stylesheet, a
// serial-based element lookup that pierces open shadow roots, and the event
// relay queue the Go pump drains. Injection is idempotent per document.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/18999029117-create/weaver/internal/analyzer/picker"
)

const assetsScript = `(() => {
	if (window.__weaverAssets) { return true; }
	window.__weaverAssets = true;
	window.__weaverPickMode = false;
	window.__weaverEvents = [];

	const style = document.createElement('style');
	style.id = '__weaver_style';
	style.textContent = ` + "`" + `
		.` + picker.HoverClass + ` { outline: 2px solid #ff4d4f !important; outline-offset: 1px !important; }
		@keyframes __weaver_pulse {
			0%, 100% { background-color: transparent; }
			50% { background-color: #fff566; }
		}
		.` + picker.FlashClass + ` { animation: __weaver_pulse 300ms ease-in-out 3 !important; }
		#__weaver_badge {
			position: fixed; top: 8px; right: 8px; z-index: 2147483647;
			padding: 4px 10px; border-radius: 4px; display: none;
			background: #ff4d4f; color: #fff; font: 12px/1.6 sans-serif;
			pointer-events: none;
		}
	` + "`" + `;
	(document.head || document.documentElement).appendChild(style);

	const badge = document.createElement('div');
	badge.id = '__weaver_badge';
	badge.textContent = 'weaver: double-click a field';
	(document.body || document.documentElement).appendChild(badge);

	window.__weaverBySerial = (key) => {
		const find = (root) => {
			const hit = root.querySelector('[` + SerialAttr + `="' + key + '"]');
			if (hit) { return hit; }
			for (const el of root.querySelectorAll('*')) {
				if (el.shadowRoot) {
					const nested = find(el.shadowRoot);
					if (nested) { return nested; }
				}
			}
			return null;
		};
		return find(document);
	};

	const push = (type, target) => {
		if (!window.__weaverPickMode || !target || !target.getAttribute) { return; }
		const key = target.getAttribute('` + SerialAttr + `');
		if (key === null) { return; }
		window.__weaverEvents.push({type: type, serial: key});
		if (window.__weaverEvents.length > 256) { window.__weaverEvents.shift(); }
	};

	document.addEventListener('mouseover', (e) => push('mouseover', e.target), true);
	document.addEventListener('mouseout', (e) => push('mouseout', e.target), true);
	document.addEventListener('dblclick', (e) => {
		if (!window.__weaverPickMode) { return; }
		push('dblclick', e.target);
		e.preventDefault();
		e.stopPropagation();
	}, true);

	return true;
})()`

// EnsurePickerAssets installs the stylesheet and event relay into the current
// document. Safe to call repeatedly; subsequent calls are no-ops.
func (s *Session) EnsurePickerAssets(ctx context.Context) error {
	var installed bool
	if err := s.runActions(ctx, chromedp.Evaluate(assetsScript, &installed)); err != nil {
		return fmt.Errorf("injecting picker assets: %w", err)
	}
	return nil
}

// SetPickMode mirrors the engine's pick-mode flag into the page so the relay
// only queues events while picking is active, and toggles the corner badge.
func (s *Session) SetPickMode(ctx context.Context, enabled bool) error {
	script := fmt.Sprintf(`(() => {
		window.__weaverPickMode = %t;
		const badge = document.getElementById('__weaver_badge');
		if (badge) { badge.style.display = %t ? 'block' : 'none'; }
		return true;
	})()`, enabled, enabled)
	var ok bool
	if err := s.runActions(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("setting page pick mode: %w", err)
	}
	return nil
}
