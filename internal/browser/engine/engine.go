// File: internal/browser/engine/engine.go

// Package engine selects a browser backend from configuration.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser"
	"github.com/hexbolt9/limpet-cli/internal/browser/cdp"
	"github.com/hexbolt9/limpet-cli/internal/browser/mock"
	"github.com/hexbolt9/limpet-cli/internal/browser/pw"
	"github.com/hexbolt9/limpet-cli/internal/config"
)

// NewManager builds the manager for the configured engine.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) (browser.Manager, error) {
	switch cfg.Engine {
	case config.EngineChromedp:
		return cdp.NewManager(cfg, logger), nil
	case config.EnginePlaywright:
		return pw.NewManager(cfg, logger), nil
	case config.EngineMock:
		return mock.NewManager(), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Engine)
	}
}
