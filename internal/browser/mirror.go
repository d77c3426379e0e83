// internal/browser/mirror.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/internal/dom"
)

const mirrorTimeout = 2 * time.Second

// Mirror replays snapshot-side class mutations onto the live page, keyed by
// the serial attribute. Failures are logged and swallowed: highlighting is
// best-effort feedback and must never break a pick.
func (s *Session) Mirror() *ClassMirror {
	return &ClassMirror{session: s}
}

// ClassMirror implements picker.Mirror over the session.
type ClassMirror struct {
	session *Session
}

func (m *ClassMirror) ClassAdded(n *html.Node, class string) {
	m.apply(n, class, "add")
}

func (m *ClassMirror) ClassRemoved(n *html.Node, class string) {
	m.apply(n, class, "remove")
}

func (m *ClassMirror) apply(n *html.Node, class, op string) {
	serial := dom.Attr(n, SerialAttr)
	if serial == "" {
		return
	}
	script := fmt.Sprintf(
		`(() => { const el = window.__weaverBySerial && window.__weaverBySerial(%q); if (el) { el.classList[%q](%q); } return true; })()`,
		serial, op, class)

	ctx, cancel := context.WithTimeout(Detach(m.session.ctx), mirrorTimeout)
	defer cancel()
	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		m.session.logger.Debug("class mirror failed",
			zap.String("serial", serial), zap.String("op", op), zap.Error(err))
	}
}
