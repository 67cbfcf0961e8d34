// File: cmd/helpers.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser"
	"github.com/hexbolt9/limpet-cli/internal/browser/engine"
	"github.com/hexbolt9/limpet-cli/internal/observability"
	"github.com/hexbolt9/limpet-cli/internal/resilient"
)

const shutdownGrace = 10 * time.Second

// newSession builds the configured engine's manager and opens a page.
// The returned cleanup shuts both down.
func newSession(ctx context.Context) (browser.Page, func(), error) {
	logger := observability.GetLogger()

	mgr, err := engine.NewManager(appCfg.Browser, logger)
	if err != nil {
		return nil, nil, err
	}

	page, err := mgr.NewPage(ctx)
	if err != nil {
		shutdown(mgr, logger)
		return nil, nil, fmt.Errorf("failed to open browser page: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := page.Close(shutdownCtx); err != nil {
			logger.Warn("Page close failed.", zap.Error(err))
		}
		shutdown(mgr, logger)
	}
	return page, cleanup, nil
}

func shutdown(mgr browser.Manager, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := mgr.Shutdown(ctx); err != nil {
		logger.Warn("Browser shutdown failed.", zap.Error(err))
	}
}

// newClicker builds the resilient clicker from the loaded config.
func newClicker(page browser.Page) *resilient.Clicker {
	return resilient.New(page, observability.GetLogger(),
		resilient.WithSettleInterval(appCfg.Clicker.SettleInterval),
		resilient.WithBackoffInterval(appCfg.Clicker.BackoffInterval),
	)
}
