// File: internal/browser/pw/session.go
package pw

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser"
	"github.com/hexbolt9/limpet-cli/internal/config"
)

const (
	clickTimeout = 30 * time.Second
	textTimeout  = 10 * time.Second
)

// Session wraps a playwright page behind the engine-neutral contract.
type Session struct {
	id     string
	page   playwright.Page
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	isClosed bool
}

var _ browser.Page = (*Session)(nil)

func newSession(page playwright.Page, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	sessionID := uuid.New().String()
	return &Session{
		id:     sessionID,
		page:   page,
		cfg:    cfg,
		logger: logger.Named("session").With(zap.String("session_id", sessionID)),
	}
}

// ms converts a duration into the float milliseconds playwright wants.
func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

// Navigate loads the URL, waiting for DOMContentLoaded plus the
// configured quiet period.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("Navigating to URL.", zap.String("url", url))

	opts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}
	if s.cfg.NavigationTimeout > 0 {
		opts.Timeout = playwright.Float(ms(s.cfg.NavigationTimeout))
	}
	if _, err := s.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	if s.cfg.PostLoadWait > 0 {
		return s.Sleep(ctx, s.cfg.PostLoadWait)
	}
	return nil
}

// WaitAttached blocks until the selector matches a node in the DOM.
func (s *Session) WaitAttached(ctx context.Context, locator string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.WaitForSelector(locator, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		return fmt.Errorf("element %q not attached within %s: %w", locator, timeout, err)
	}
	return nil
}

// Click clicks the matched element; with force, playwright skips its
// actionability checks.
func (s *Session) Click(ctx context.Context, locator string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("Attempting to click element.", zap.String("locator", locator), zap.Bool("force", force))

	err := s.page.Locator(locator).Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(force),
		Timeout: playwright.Float(ms(clickTimeout)),
	})
	if err != nil {
		return fmt.Errorf("click action failed for selector %q: %w", locator, err)
	}
	return nil
}

// Fill replaces the value of the matched input element.
func (s *Session) Fill(ctx context.Context, locator, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("Filling element.", zap.String("locator", locator), zap.Int("value_length", len(value)))

	err := s.page.Locator(locator).Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(ms(clickTimeout)),
	})
	if err != nil {
		return fmt.Errorf("fill action failed for selector %q: %w", locator, err)
	}
	return nil
}

// Text returns the text content of the matched element.
func (s *Session) Text(ctx context.Context, locator string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := s.page.Locator(locator).TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(ms(textTimeout)),
	})
	if err != nil {
		return "", fmt.Errorf("text read failed for selector %q: %w", locator, err)
	}
	return text, nil
}

// Screenshot captures the viewport as PNG and writes it to path.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	}); err != nil {
		return fmt.Errorf("screenshot capture failed: %w", err)
	}
	s.logger.Debug("Screenshot written.", zap.String("path", path))
	return nil
}

// Sleep pauses cooperatively.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the page. Safe to call more than once.
func (s *Session) Close(_ context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}
