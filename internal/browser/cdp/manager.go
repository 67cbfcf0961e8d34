// File: internal/browser/cdp/manager.go

// Package cdp is the chromedp-backed browser engine.
package cdp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser"
	"github.com/hexbolt9/limpet-cli/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the Chrome exec allocator and the sessions opened from
// it. The browser process is started lazily on the first NewPage call.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup

	initOnce sync.Once
	initErr  error
}

// NewManager creates a chromedp manager. Initialization is deferred
// until the first page is requested.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("cdp_manager"),
		sessions: make(map[string]*Session),
	}
}

// initialize builds the exec allocator from configuration.
func (m *Manager) initialize() error {
	m.initOnce.Do(func() {
		m.logger.Info("Starting Chrome exec allocator.",
			zap.Bool("headless", m.cfg.Headless),
			zap.String("executable", m.cfg.ExecutablePath))

		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if !m.cfg.Headless {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		if m.cfg.ExecutablePath != "" {
			opts = append(opts, chromedp.ExecPath(m.cfg.ExecutablePath))
		}
		for _, arg := range m.cfg.Args {
			name, value := splitArg(arg)
			opts = append(opts, chromedp.Flag(name, value))
		}

		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})
	return m.initErr
}

// splitArg converts a raw "--name=value" browser argument into the
// name/value pair chromedp.Flag expects. Bare flags become boolean.
func splitArg(arg string) (string, any) {
	arg = strings.TrimLeft(arg, "-")
	if name, value, found := strings.Cut(arg, "="); found {
		return name, value
	}
	return arg, true
}

// NewPage opens a new tab as an isolated Session.
func (m *Manager) NewPage(ctx context.Context) (browser.Page, error) {
	if err := m.initialize(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	s, err := newSession(tabCtx, tabCancel, m.cfg, m.logger)
	if err != nil {
		tabCancel()
		return nil, err
	}

	m.wg.Add(1)
	s.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, s.id)
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", s.id))
	}

	// Materialize the target so the first real action does not pay the
	// tab startup cost. Honors the caller's context.
	if err := s.attachTarget(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", s.id))
	return s, nil
}

// Shutdown closes all sessions and stops the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.allocCtx == nil {
		m.logger.Debug("Manager never initialized, nothing to shut down.")
		return nil
	}

	m.mu.RLock()
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.RUnlock()

	for _, s := range sessionsToClose {
		go func(s *Session) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error closing session during shutdown.",
					zap.String("session_id", s.id), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close, forcing shutdown.", zap.Error(ctx.Err()))
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Grace period expired waiting for sessions to close.")
	}

	m.allocCancel()
	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
