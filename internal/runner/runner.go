// File: internal/runner/runner.go

// Package runner executes parsed flows step by step against a browser
// page, routing every click through the resilient primitive and
// collecting a structured report.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser"
	"github.com/hexbolt9/limpet-cli/internal/config"
	"github.com/hexbolt9/limpet-cli/internal/flow"
	"github.com/hexbolt9/limpet-cli/internal/report"
	"github.com/hexbolt9/limpet-cli/internal/resilient"
)

// Runner drives one page through one flow at a time.
type Runner struct {
	page    browser.Page
	clicker *resilient.Clicker
	cfg     config.ClickerConfig
	engine  string
	logger  *zap.Logger
}

// New creates a runner. The engine name is recorded in reports only.
func New(page browser.Page, clicker *resilient.Clicker, cfg config.ClickerConfig, engine string, logger *zap.Logger) *Runner {
	return &Runner{
		page:    page,
		clicker: clicker,
		cfg:     cfg,
		engine:  engine,
		logger:  logger.Named("runner"),
	}
}

// Run executes the flow. The first failing step fails the run; steps
// after it are recorded as skipped.
func (r *Runner) Run(ctx context.Context, f *flow.Flow) *report.Run {
	run := report.NewRun(f.Name, r.engine)
	r.logger.Info("Starting flow.", zap.String("flow", f.Name), zap.Int("steps", len(f.Steps)))

	failed := false
	for i, step := range f.Steps {
		if failed {
			run.AddStep(report.StepResult{
				Type:   step.Type(),
				Detail: step.Detail(),
				Status: report.StatusSkipped,
			})
			continue
		}
		if err := ctx.Err(); err != nil {
			failed = true
			run.AddStep(report.StepResult{
				Type:   step.Type(),
				Detail: step.Detail(),
				Status: report.StatusFailed,
				Error:  err.Error(),
			})
			continue
		}

		start := time.Now()
		result := r.runStep(ctx, &step)
		result.Type = step.Type()
		result.Detail = step.Detail()
		result.DurationMS = time.Since(start).Milliseconds()

		if result.Status == report.StatusFailed {
			failed = true
			r.logger.Warn("Step failed.",
				zap.Int("step", i+1),
				zap.String("type", result.Type),
				zap.String("detail", result.Detail),
				zap.String("error", result.Error))
		} else {
			r.logger.Debug("Step passed.",
				zap.Int("step", i+1),
				zap.String("type", result.Type),
				zap.String("detail", result.Detail))
		}
		run.AddStep(result)
	}

	run.Finish()
	r.logger.Info("Flow finished.",
		zap.String("flow", f.Name),
		zap.String("status", string(run.Status)),
		zap.Int64("duration_ms", run.DurationMS))
	return run
}

func (r *Runner) runStep(ctx context.Context, step *flow.Step) report.StepResult {
	switch {
	case step.Navigate != nil:
		return statusOf(r.page.Navigate(ctx, step.Navigate.URL))
	case step.Click != nil:
		return r.runClick(ctx, step.Click)
	case step.WaitFor != nil:
		timeout := step.WaitFor.Timeout.Std()
		if timeout <= 0 {
			timeout = r.cfg.Timeout
		}
		return statusOf(r.page.WaitAttached(ctx, step.WaitFor.Locator, timeout))
	case step.Fill != nil:
		return statusOf(r.page.Fill(ctx, step.Fill.Locator, step.Fill.Value))
	case step.AssertText != nil:
		return r.runAssertText(ctx, step.AssertText)
	case step.Screenshot != nil:
		return statusOf(r.page.Screenshot(ctx, step.Screenshot.Path))
	case step.Sleep != nil:
		return statusOf(r.page.Sleep(ctx, step.Sleep.Duration.Std()))
	default:
		return report.StepResult{Status: report.StatusFailed, Error: "empty step"}
	}
}

// runClick resolves per-step overrides against the configured defaults
// and dispatches single locators to the retry path and chains to the
// fallback path.
func (r *Runner) runClick(ctx context.Context, step *flow.ClickStep) report.StepResult {
	timeout := step.Timeout.Std()
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}
	attempts := step.Attempts
	if attempts <= 0 {
		attempts = r.cfg.MaxAttempts
	}

	if len(step.Fallbacks) == 0 {
		res := r.clicker.ClickWithRetry(ctx, step.Locator, timeout, attempts)
		out := report.StepResult{
			Status:      report.StatusPassed,
			Attempts:    res.Attempts,
			Forced:      res.Forced,
			UsedLocator: res.Locator,
		}
		if !res.Success {
			out.Status = report.StatusFailed
			out.UsedLocator = ""
			out.Error = clickError(res)
		}
		return out
	}

	cr := r.clicker.ClickWithFallbackChain(ctx, step.Chain(), timeout, attempts)
	if used, ok := cr.Used(); ok {
		return report.StepResult{
			Status:      report.StatusPassed,
			Attempts:    used.Attempts,
			Forced:      used.Forced,
			UsedLocator: used.Locator,
		}
	}

	parts := make([]string, 0, len(cr.Candidates))
	for _, candidate := range cr.Candidates {
		parts = append(parts, fmt.Sprintf("%s: %s", candidate.Locator, clickError(candidate)))
	}
	return report.StepResult{
		Status: report.StatusFailed,
		Error:  fmt.Sprintf("all candidates exhausted: %s", strings.Join(parts, "; ")),
	}
}

func (r *Runner) runAssertText(ctx context.Context, step *flow.AssertTextStep) report.StepResult {
	text, err := r.page.Text(ctx, step.Locator)
	if err != nil {
		return report.StepResult{Status: report.StatusFailed, Error: err.Error()}
	}
	switch {
	case step.Equals != "" && text != step.Equals:
		return report.StepResult{
			Status: report.StatusFailed,
			Error:  fmt.Sprintf("text of %q is %q, expected %q", step.Locator, text, step.Equals),
		}
	case step.Contains != "" && !strings.Contains(text, step.Contains):
		return report.StepResult{
			Status: report.StatusFailed,
			Error:  fmt.Sprintf("text of %q is %q, expected it to contain %q", step.Locator, text, step.Contains),
		}
	}
	return report.StepResult{Status: report.StatusPassed}
}

func clickError(res resilient.Result) string {
	if res.LastErr != nil {
		return fmt.Sprintf("%s after %d attempts: %s", res.Outcome, res.Attempts, res.LastErr)
	}
	return fmt.Sprintf("%s after %d attempts", res.Outcome, res.Attempts)
}

func statusOf(err error) report.StepResult {
	if err != nil {
		return report.StepResult{Status: report.StatusFailed, Error: err.Error()}
	}
	return report.StepResult{Status: report.StatusPassed}
}
