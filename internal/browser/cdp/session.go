// File: internal/browser/cdp/session.go
package cdp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser"
	"github.com/hexbolt9/limpet-cli/internal/config"
)

// Ensure Session implements the driver contract.
var _ browser.Page = (*Session)(nil)

const (
	clickTimeout      = 30 * time.Second
	textTimeout       = 10 * time.Second
	shotTimeout       = 20 * time.Second
	defaultNavTimeout = 90 * time.Second
)

// Session is one open tab driven over the Chrome DevTools Protocol.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	return &Session{
		id:     sessionID,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("session").With(zap.String("session_id", sessionID)),
	}, nil
}

// attachTarget forces the tab to be created and CDP connected.
func (s *Session) attachTarget(ctx context.Context) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx); err != nil {
		return fmt.Errorf("failed to attach browser target: %w", err)
	}
	return nil
}

// Navigate loads the URL and waits for the page to stabilize.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL.", zap.String("url", url))

	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavTimeout
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		if opCtx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", opCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}

	// Stabilize: body ready plus the configured quiet period.
	if err := chromedp.Run(opCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if opCtx.Err() != nil {
			return opCtx.Err()
		}
		s.logger.Warn("Page stabilization failed after navigation (non-critical).", zap.Error(err))
	}
	if s.cfg.PostLoadWait > 0 {
		if err := s.Sleep(opCtx, s.cfg.PostLoadWait); err != nil {
			return err
		}
	}
	return nil
}

// WaitAttached blocks until the selector matches a node present in the
// DOM, or the timeout expires.
func (s *Session) WaitAttached(ctx context.Context, locator string, timeout time.Duration) error {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	waitCtx, waitCancel := context.WithTimeout(opCtx, timeout)
	defer waitCancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(locator, chromedp.ByQuery)); err != nil {
		if waitCtx.Err() == context.DeadlineExceeded && opCtx.Err() == nil {
			return fmt.Errorf("element %q not attached within %s: %w", locator, timeout, err)
		}
		return fmt.Errorf("wait for %q failed: %w", locator, err)
	}
	return nil
}

// Click clicks the matched element. The normal path scrolls the
// element into view and respects visibility; the forced path fires a
// DOM-level click that bypasses hit-testing and occlusion entirely.
func (s *Session) Click(ctx context.Context, locator string, force bool) error {
	s.logger.Debug("Attempting to click element.", zap.String("locator", locator), zap.Bool("force", force))

	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	clickCtx, clickCancel := context.WithTimeout(opCtx, clickTimeout)
	defer clickCancel()

	if force {
		return s.forcedClick(clickCtx, locator)
	}

	action := chromedp.Tasks{
		chromedp.ScrollIntoView(locator, chromedp.ByQuery),
		chromedp.WaitVisible(locator, chromedp.ByQuery),
		chromedp.Click(locator, chromedp.ByQuery),
	}
	if err := chromedp.Run(clickCtx, action); err != nil {
		return fmt.Errorf("click action failed for selector %q: %w", locator, err)
	}
	return nil
}

func (s *Session) forcedClick(ctx context.Context, locator string) error {
	script := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) { return false; }
		el.click();
		return true;
	})()`, locator)

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("forced click failed for selector %q: %w", locator, err)
	}
	if !clicked {
		return fmt.Errorf("forced click: no element matches selector %q", locator)
	}
	return nil
}

// Fill replaces the value of the matched input element.
func (s *Session) Fill(ctx context.Context, locator, value string) error {
	s.logger.Debug("Filling element.", zap.String("locator", locator), zap.Int("value_length", len(value)))

	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	fillCtx, fillCancel := context.WithTimeout(opCtx, clickTimeout)
	defer fillCancel()

	action := chromedp.Tasks{
		chromedp.ScrollIntoView(locator, chromedp.ByQuery),
		chromedp.WaitVisible(locator, chromedp.ByQuery),
		chromedp.Clear(locator, chromedp.ByQuery),
		chromedp.SendKeys(locator, value, chromedp.ByQuery),
	}
	if err := chromedp.Run(fillCtx, action); err != nil {
		return fmt.Errorf("fill action failed for selector %q: %w", locator, err)
	}
	return nil
}

// Text returns the text content of the matched element.
func (s *Session) Text(ctx context.Context, locator string) (string, error) {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	textCtx, textCancel := context.WithTimeout(opCtx, textTimeout)
	defer textCancel()

	var out string
	if err := chromedp.Run(textCtx, chromedp.Text(locator, &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("text read failed for selector %q: %w", locator, err)
	}
	return out, nil
}

// Screenshot captures the viewport as PNG and writes it to path.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	shotCtx, shotCancel := context.WithTimeout(opCtx, shotTimeout)
	defer shotCancel()

	var buf []byte
	capture := chromedp.ActionFunc(func(c context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(c)
		return err
	})
	if err := chromedp.Run(shotCtx, capture); err != nil {
		return fmt.Errorf("screenshot capture failed: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	s.logger.Debug("Screenshot written.", zap.String("path", path))
	return nil
}

// Sleep pauses cooperatively, honoring both the session lifetime and
// the caller's context.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-opCtx.Done():
		return opCtx.Err()
	}
}

// Close terminates the tab. Safe to call more than once.
func (s *Session) Close(_ context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// combineContext derives a context from the session context (keeping
// its chromedp target values) that is additionally cancelled when the
// operational context ends.
func combineContext(sessionCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(sessionCtx)
	if opCtx == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(opCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
