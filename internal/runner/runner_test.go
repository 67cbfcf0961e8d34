// File: internal/runner/runner_test.go
package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser/mock"
	"github.com/hexbolt9/limpet-cli/internal/config"
	"github.com/hexbolt9/limpet-cli/internal/flow"
	"github.com/hexbolt9/limpet-cli/internal/report"
	"github.com/hexbolt9/limpet-cli/internal/resilient"
	"github.com/hexbolt9/limpet-cli/internal/runner"
)

func newRunner(page *mock.Page) *runner.Runner {
	cfg := config.ClickerConfig{
		Timeout:         50 * time.Millisecond,
		MaxAttempts:     3,
		SettleInterval:  time.Millisecond,
		BackoffInterval: time.Millisecond,
	}
	clicker := resilient.New(page, zap.NewNop(),
		resilient.WithSettleInterval(cfg.SettleInterval),
		resilient.WithBackoffInterval(cfg.BackoffInterval),
	)
	return runner.New(page, clicker, cfg, config.EngineMock, zap.NewNop())
}

func parseFlow(t *testing.T, doc string) *flow.Flow {
	t.Helper()
	f, err := flow.Parse([]byte(doc))
	require.NoError(t, err)
	return f
}

func TestRunHappyPathFlow(t *testing.T) {
	page := mock.NewPage()
	page.SetScript(`button[name="hamburger"]`, mock.Script{})
	page.SetScript("#export-btn", mock.Script{})
	page.SetScript("#status", mock.Script{Text: "Export complete!"})

	f := parseFlow(t, `
name: export
steps:
  - navigate: http://127.0.0.1:8931/mock_website.html
  - click: 'button[name="hamburger"]'
  - waitFor: '#export-btn'
  - click: '#export-btn'
  - assertText:
      locator: '#status'
      contains: Export complete
  - screenshot: out/done.png
`)

	run := newRunner(page).Run(context.Background(), f)

	assert.True(t, run.Passed())
	require.Len(t, run.Steps, 6)
	for _, step := range run.Steps {
		assert.Equal(t, report.StatusPassed, step.Status, step.Type)
	}
	assert.Equal(t, []string{"http://127.0.0.1:8931/mock_website.html"}, page.Navigated())
	assert.Equal(t, []string{"out/done.png"}, page.Screenshots())
}

func TestRunClickRecordsChainMetadata(t *testing.T) {
	page := mock.NewPage()
	// First candidate never attaches, second needs the forced path.
	page.SetScript("#hamburger-btn", mock.Script{
		ClickErrs: []error{mock.ErrIntercepted},
		ForceErrs: []error{nil},
	})

	f := parseFlow(t, `
steps:
  - click:
      locator: 'button[name="hamburger"]'
      fallbacks: ['#hamburger-btn']
      attempts: 2
`)

	run := newRunner(page).Run(context.Background(), f)

	require.Len(t, run.Steps, 1)
	step := run.Steps[0]
	assert.Equal(t, report.StatusPassed, step.Status)
	assert.Equal(t, "#hamburger-btn", step.UsedLocator)
	assert.True(t, step.Forced)
	assert.Equal(t, 1, step.Attempts)
	assert.Equal(t, 2, page.CallsFor(`button[name="hamburger"]`).Waits,
		"the primary locator got its full per-locator budget first")
}

func TestRunFailingStepSkipsTheRest(t *testing.T) {
	page := mock.NewPage()
	page.SetScript("#ok", mock.Script{})

	f := parseFlow(t, `
name: broken
steps:
  - click: '#ok'
  - click: '#missing'
  - screenshot: out/never.png
  - sleep: 10ms
`)

	run := newRunner(page).Run(context.Background(), f)

	assert.False(t, run.Passed())
	require.Len(t, run.Steps, 4)
	assert.Equal(t, report.StatusPassed, run.Steps[0].Status)
	assert.Equal(t, report.StatusFailed, run.Steps[1].Status)
	assert.Contains(t, run.Steps[1].Error, "not_found")
	assert.Equal(t, report.StatusSkipped, run.Steps[2].Status)
	assert.Equal(t, report.StatusSkipped, run.Steps[3].Status)
	assert.Empty(t, page.Screenshots(), "skipped steps never reach the driver")
}

func TestRunChainExhaustionListsEveryCandidate(t *testing.T) {
	page := mock.NewPage()

	f := parseFlow(t, `
steps:
  - click:
      locator: '#a'
      fallbacks: ['#b']
      attempts: 1
`)

	run := newRunner(page).Run(context.Background(), f)

	require.Len(t, run.Steps, 1)
	step := run.Steps[0]
	assert.Equal(t, report.StatusFailed, step.Status)
	assert.Contains(t, step.Error, "#a")
	assert.Contains(t, step.Error, "#b")
	assert.Empty(t, step.UsedLocator)
}

func TestRunAssertTextEquals(t *testing.T) {
	page := mock.NewPage()
	page.SetScript("#status", mock.Script{Text: "Welcome, user@example.com!"})

	pass := parseFlow(t, `
steps:
  - assertText:
      locator: '#status'
      equals: 'Welcome, user@example.com!'
`)
	fail := parseFlow(t, `
steps:
  - assertText:
      locator: '#status'
      equals: 'Welcome, someone else!'
`)

	assert.True(t, newRunner(page).Run(context.Background(), pass).Passed())

	run := newRunner(page).Run(context.Background(), fail)
	assert.False(t, run.Passed())
	assert.Contains(t, run.Steps[0].Error, "expected")
}

func TestRunFillStep(t *testing.T) {
	page := mock.NewPage()
	page.SetScript("#email", mock.Script{})

	f := parseFlow(t, `
steps:
  - fill:
      locator: '#email'
      value: user@example.com
`)

	run := newRunner(page).Run(context.Background(), f)

	assert.True(t, run.Passed())
	assert.Equal(t, "user@example.com", page.FilledValue("#email"))
}

func TestRunCancelledContextSkipsRemainingSteps(t *testing.T) {
	page := mock.NewPage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := parseFlow(t, `
steps:
  - navigate: https://example.com
  - sleep: 10ms
`)

	run := newRunner(page).Run(ctx, f)

	assert.False(t, run.Passed())
	assert.Zero(t, page.TotalCalls())
}
