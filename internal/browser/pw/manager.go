// File: internal/browser/pw/manager.go

// Package pw is the playwright-go backed browser engine.
package pw

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser"
	"github.com/hexbolt9/limpet-cli/internal/config"
)

const (
	installTimeout = 5 * time.Minute
	launchTimeout  = 60 * time.Second
)

// Manager handles the Playwright driver lifecycle and page creation.
// The driver is started lazily on the first NewPage call.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	pw      *playwright.Playwright
	browser playwright.Browser

	pages []browser.Page
	mu    sync.Mutex

	initOnce sync.Once
	initErr  error
}

// NewManager creates a playwright manager with deferred initialization.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("pw_manager"),
	}
}

func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.Info("Initializing Playwright and launching browser.")

		if err := m.ensureInstallation(ctx); err != nil {
			m.initErr = err
			return
		}

		pw, err := playwright.Run()
		if err != nil {
			m.initErr = fmt.Errorf("failed to start playwright driver: %w", err)
			return
		}
		m.pw = pw

		launchOptions := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(m.cfg.Headless),
			Args:     m.cfg.Args,
			Timeout:  playwright.Float(launchTimeout.Seconds() * 1000),
		}
		if m.cfg.ExecutablePath != "" {
			launchOptions.ExecutablePath = playwright.String(m.cfg.ExecutablePath)
		}

		b, err := pw.Chromium.Launch(launchOptions)
		if err != nil {
			pw.Stop()
			m.initErr = fmt.Errorf("failed to launch browser instance: %w", err)
			return
		}
		m.browser = b

		m.logger.Info("Playwright browser launched.", zap.String("browser_version", b.Version()))
	})
	return m.initErr
}

// ensureInstallation downloads the chromium driver bundle if missing.
// The install call blocks, so it runs under its own timeout.
func (m *Manager) ensureInstallation(ctx context.Context) error {
	installCtx, installCancel := context.WithTimeout(ctx, installTimeout)
	defer installCancel()

	installErrChan := make(chan error, 1)
	go func() {
		options := &playwright.RunOptions{Browsers: []string{"chromium"}}
		if err := playwright.Install(options); err != nil {
			installErrChan <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		installErrChan <- nil
	}()

	select {
	case err := <-installErrChan:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for playwright installation: %w", installCtx.Err())
	}
}

// NewPage opens a fresh page.
func (m *Manager) NewPage(ctx context.Context) (browser.Page, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	page, err := m.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s := newSession(page, m.cfg, m.logger)

	m.mu.Lock()
	m.pages = append(m.pages, s)
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", s.id))
	return s, nil
}

// Shutdown closes all pages, the browser, and the driver.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.pw == nil {
		m.logger.Debug("Manager never initialized, nothing to shut down.")
		return nil
	}

	m.mu.Lock()
	pages := m.pages
	m.pages = nil
	m.mu.Unlock()

	for _, p := range pages {
		if err := p.Close(ctx); err != nil {
			m.logger.Warn("Error closing page during shutdown.", zap.Error(err))
		}
	}

	var shutdownErr error
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.logger.Error("Failed to close browser instance.", zap.Error(err))
			shutdownErr = fmt.Errorf("failed to close browser: %w", err)
		}
	}
	if err := m.pw.Stop(); err != nil {
		m.logger.Error("Failed to stop Playwright driver.", zap.Error(err))
		if shutdownErr == nil {
			shutdownErr = fmt.Errorf("failed to stop playwright driver: %w", err)
		}
	}

	m.logger.Info("Browser manager shutdown complete.")
	return shutdownErr
}
