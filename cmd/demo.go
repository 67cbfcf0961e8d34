// File: cmd/demo.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hexbolt9/limpet-cli/internal/fixtures"
	"github.com/hexbolt9/limpet-cli/internal/flow"
	"github.com/hexbolt9/limpet-cli/internal/observability"
	"github.com/hexbolt9/limpet-cli/internal/runner"
)

var demoOpts struct {
	addr   string
	output string
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Serve the built-in demo pages and run the demo flows against them.",
	Long: `Demo starts a local server with two deliberately awkward pages (a
lazily opening menu behind a hamburger button, and a login form) and
runs the built-in flows against them. It is the quickest way to watch
the retry and fallback behavior end to end.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoOpts.addr, "addr", "127.0.0.1:0", "listen address for the demo server")
	demoCmd.Flags().StringVarP(&demoOpts.output, "output", "o", "", "report directory (default from config)")
	rootCmd.AddCommand(demoCmd)
}

// exportFlow exercises every locator strategy for the same two
// elements: name attribute, id, aria-label, class and data-testid.
func exportFlow(base string) string {
	return fmt.Sprintf(`
name: demo export
steps:
  - navigate: %s/%s
  - click:
      locator: 'button[name="hamburger"]'
      fallbacks: ['#hamburger-btn', 'button[aria-label="Open menu"]', '[data-testid="hamburger-menu"]']
  - click:
      locator: 'button[name="export"]'
      fallbacks: ['#export-btn', '[data-testid="export-button"]', 'button.export-btn']
  - assertText:
      locator: '#status'
      equals: 'Export complete!'
`, base, fixtures.MockWebsite)
}

func loginFlow(base string) string {
	return fmt.Sprintf(`
name: demo login
steps:
  - navigate: %s/%s
  - fill:
      locator: '#email'
      value: demo@example.com
  - fill:
      locator: '#password'
      value: hunter2
  - click:
      locator: '[data-testid="login-button"]'
      fallbacks: ['#login-btn']
  - waitFor: '#welcome'
  - assertText:
      locator: '#welcome'
      equals: 'Welcome back!'
`, base, fixtures.MockLogin)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	reportDir := demoOpts.output
	if reportDir == "" {
		reportDir = appCfg.Report.Dir
	}

	srv, err := fixtures.NewServer(demoOpts.addr)
	if err != nil {
		return err
	}
	srv.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Demo server shutdown failed.", zap.Error(err))
		}
	}()
	logger.Info("Demo server listening.", zap.String("base_url", srv.BaseURL()))

	docs := []string{exportFlow(srv.BaseURL()), loginFlow(srv.BaseURL())}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]string, len(docs))
	failures := make([]bool, len(docs))

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			f, err := flow.Parse([]byte(doc))
			if err != nil {
				return err
			}

			page, cleanup, err := newSession(gctx)
			if err != nil {
				return err
			}
			defer cleanup()

			r := runner.New(page, newClicker(page), appCfg.Clicker, appCfg.Browser.Engine, logger)
			run := r.Run(gctx, f)

			reportPath := run.DefaultPath(reportDir)
			if err := run.WriteFile(reportPath, appCfg.Report.Pretty); err != nil {
				return err
			}

			results[i] = fmt.Sprintf("%s: %s (report: %s)", f.Name, run.Status, reportPath)
			failures[i] = !run.Passed()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	var failed int
	for i, line := range results {
		fmt.Fprintln(cmd.OutOrStdout(), line)
		if failures[i] {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d demo flows failed", failed, len(docs))
	}
	return nil
}
