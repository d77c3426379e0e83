// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/18999029117-create/weaver/internal/config"
)

// Session owns one browser tab: the allocator, the CDP context, and the
// injected page assets. All semantic analysis happens in Go over snapshots;
// the session's job is navigation, snapshot capture, and relaying events and
// class mutations across the CDP boundary.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	allocCancel context.CancelFunc

	logger *zap.Logger
	cfg    config.BrowserConfig

	closeOnce sync.Once
}

// NewSession attaches to a remote DevTools endpoint when cfg.RemoteURL is set,
// otherwise launches a fresh browser instance. The returned session is
// connected and ready to navigate.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.New().String()
	log := logger.With(zap.String("session_id", sessionID))

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		log.Info("attaching to remote browser", zap.String("url", cfg.RemoteURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, opts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		id:          sessionID,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      log,
		cfg:         cfg,
	}

	// Establish the target connection before anything else touches the
	// session, so a bad endpoint fails here rather than mid-scan.
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("connecting browser target: %w", err)
	}

	log.Info("browser session established", zap.Bool("remote", cfg.RemoteURL != ""))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Context exposes the session's CDP context for listeners.
func (s *Session) Context() context.Context { return s.ctx }

// Navigate loads a URL and waits for the body to be ready, bounded by the
// configured navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	s.logger.Info("navigating", zap.String("url", url))
	if err := s.runActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Close tears the tab and, when launched locally, the browser process down.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("closing browser session")
		if s.cancel != nil {
			s.cancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
	})
}

// runActions executes chromedp actions under both the session lifetime and the
// caller's deadline.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}
