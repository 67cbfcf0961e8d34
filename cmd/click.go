// File: cmd/click.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/observability"
)

var clickOpts struct {
	url        string
	locators   []string
	timeout    time.Duration
	attempts   int
	screenshot string
}

var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Click a single element, with retries and locator fallbacks.",
	Long: `Click navigates to a URL and clicks the first locator that works.
Passing --locator more than once builds an ordered fallback chain: each
candidate gets the full retry budget before the next one is tried.`,
	Example: `  limpet click --url https://app.example.com \
      --locator 'button[name="export"]' \
      --locator '#export-btn' \
      --locator '[data-testid="export-button"]'`,
	RunE: runClick,
}

func init() {
	clickCmd.Flags().StringVar(&clickOpts.url, "url", "", "page to navigate to before clicking")
	clickCmd.Flags().StringArrayVarP(&clickOpts.locators, "locator", "l", nil, "CSS locator; repeat to build a fallback chain")
	clickCmd.Flags().DurationVar(&clickOpts.timeout, "timeout", 0, "per-attempt attach timeout (default from config)")
	clickCmd.Flags().IntVar(&clickOpts.attempts, "attempts", 0, "attempts per locator (default from config)")
	clickCmd.Flags().StringVar(&clickOpts.screenshot, "screenshot", "", "write a screenshot to this path after a successful click")
	clickCmd.MarkFlagRequired("locator")
	rootCmd.AddCommand(clickCmd)
}

func runClick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	timeout := clickOpts.timeout
	if timeout <= 0 {
		timeout = appCfg.Clicker.Timeout
	}
	attempts := clickOpts.attempts
	if attempts <= 0 {
		attempts = appCfg.Clicker.MaxAttempts
	}

	page, cleanup, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if clickOpts.url != "" {
		if err := page.Navigate(ctx, clickOpts.url); err != nil {
			return err
		}
	}

	clicker := newClicker(page)
	cr := clicker.ClickWithFallbackChain(ctx, clickOpts.locators, timeout, attempts)
	used, ok := cr.Used()
	if !ok {
		return fmt.Errorf("no candidate locator could be clicked (%d tried)", len(cr.Candidates))
	}

	logger.Info("Click succeeded.",
		zap.String("locator", used.Locator),
		zap.Int("attempts", used.Attempts),
		zap.Bool("forced", used.Forced))
	fmt.Fprintf(cmd.OutOrStdout(), "clicked %q (attempt %d, forced=%t)\n",
		used.Locator, used.Attempts, used.Forced)

	if clickOpts.screenshot != "" {
		if err := page.Screenshot(ctx, clickOpts.screenshot); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "screenshot written to %s\n", clickOpts.screenshot)
	}
	return nil
}
