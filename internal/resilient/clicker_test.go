// File: internal/resilient/clicker_test.go
package resilient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/browser/mock"
	"github.com/hexbolt9/limpet-cli/internal/resilient"
)

const testTimeout = 50 * time.Millisecond

// newClicker keeps the pauses tiny so retry tests stay fast.
func newClicker(page *mock.Page) *resilient.Clicker {
	return resilient.New(page, zap.NewNop(),
		resilient.WithSettleInterval(time.Millisecond),
		resilient.WithBackoffInterval(time.Millisecond),
	)
}

func TestClickWithRetryFirstAttemptSucceeds(t *testing.T) {
	page := mock.NewPage()
	page.SetScript("#export-btn", mock.Script{})

	res := newClicker(page).ClickWithRetry(context.Background(), "#export-btn", testTimeout, 3)

	assert.True(t, res.Success)
	assert.Equal(t, resilient.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Forced)

	calls := page.CallsFor("#export-btn")
	assert.Equal(t, 1, calls.Waits, "no extra cycle after a confirmed success")
	assert.Equal(t, 1, calls.Clicks)
	assert.Equal(t, 0, calls.ForcedClicks)
}

func TestClickWithRetryAlwaysFailingPerformsExactlyMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 2, 4} {
		page := mock.NewPage()
		page.SetScript("#flaky", mock.Script{
			ClickErrs: repeatErr(mock.ErrIntercepted, maxAttempts),
			ForceErrs: repeatErr(mock.ErrDetached, maxAttempts),
		})

		res := newClicker(page).ClickWithRetry(context.Background(), "#flaky", testTimeout, maxAttempts)

		assert.False(t, res.Success)
		assert.Equal(t, resilient.OutcomeTransient, res.Outcome)
		assert.Equal(t, maxAttempts, res.Attempts)
		assert.ErrorIs(t, res.LastErr, mock.ErrDetached)

		calls := page.CallsFor("#flaky")
		assert.Equal(t, maxAttempts, calls.Waits)
		assert.Equal(t, maxAttempts, calls.Clicks)
		assert.Equal(t, maxAttempts, calls.ForcedClicks)
	}
}

func TestClickWithRetrySucceedsOnAttemptKStopsImmediately(t *testing.T) {
	const k = 3
	page := mock.NewPage()
	page.SetScript("#late", mock.Script{
		// Two full failed cycles, then a clean click.
		ClickErrs: []error{mock.ErrIntercepted, mock.ErrIntercepted, nil},
		ForceErrs: []error{mock.ErrDetached, mock.ErrDetached},
	})

	res := newClicker(page).ClickWithRetry(context.Background(), "#late", testTimeout, 5)

	assert.True(t, res.Success)
	assert.Equal(t, k, res.Attempts)
	assert.False(t, res.Forced)

	calls := page.CallsFor("#late")
	assert.Equal(t, k, calls.Waits, "exactly k cycles, no k+1-th attempt")
	assert.Equal(t, k, calls.Clicks)
	assert.Equal(t, k-1, calls.ForcedClicks)
}

func TestClickWithRetryWaitFailureBurnsAttempt(t *testing.T) {
	page := mock.NewPage()
	// Attaches only on the third wait; clicks cleanly afterwards.
	page.SetScript("#slow", mock.Script{AttachAfter: 2})

	res := newClicker(page).ClickWithRetry(context.Background(), "#slow", testTimeout, 3)

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)

	calls := page.CallsFor("#slow")
	assert.Equal(t, 3, calls.Waits)
	assert.Equal(t, 1, calls.Clicks, "click runs only once the wait succeeds")
}

func TestClickWithRetryForcedClickSecondChance(t *testing.T) {
	page := mock.NewPage()
	page.SetScript("#covered", mock.Script{
		ClickErrs: []error{mock.ErrIntercepted},
		ForceErrs: []error{nil},
	})

	res := newClicker(page).ClickWithRetry(context.Background(), "#covered", testTimeout, 3)

	assert.True(t, res.Success)
	assert.True(t, res.Forced, "success came from the forced path")
	assert.Equal(t, 1, res.Attempts, "forced click is a second chance within the same attempt")

	calls := page.CallsFor("#covered")
	assert.Equal(t, 1, calls.Clicks)
	assert.Equal(t, 1, calls.ForcedClicks)
}

func TestClickWithRetryAllInterceptedRecordsForcedAttempts(t *testing.T) {
	page := mock.NewPage()
	page.SetScript("#blocked", mock.Script{
		ClickErrs: repeatErr(mock.ErrIntercepted, 3),
		ForceErrs: repeatErr(mock.ErrIntercepted, 3),
	})

	res := newClicker(page).ClickWithRetry(context.Background(), "#blocked", testTimeout, 3)

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, page.CallsFor("#blocked").ForcedClicks, "one forced attempt per cycle")
	assert.ErrorIs(t, res.LastErr, mock.ErrIntercepted)
}

func TestClickWithRetryNeverAttaches(t *testing.T) {
	page := mock.NewPage()
	// No script installed: the locator never matches.

	res := newClicker(page).ClickWithRetry(context.Background(), "#ghost", testTimeout, 2)

	assert.False(t, res.Success)
	assert.Equal(t, resilient.OutcomeNotFound, res.Outcome)
	assert.Equal(t, 2, res.Attempts)

	calls := page.CallsFor("#ghost")
	assert.Equal(t, 2, calls.Waits)
	assert.Equal(t, 0, calls.Clicks, "no click without a successful attach wait")
}

func TestClickWithRetryRejectsInvalidArguments(t *testing.T) {
	cases := []struct {
		name        string
		locator     string
		timeout     time.Duration
		maxAttempts int
	}{
		{"empty locator", "", testTimeout, 1},
		{"zero timeout", "#ok", 0, 1},
		{"negative timeout", "#ok", -time.Second, 1},
		{"zero attempts", "#ok", testTimeout, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := mock.NewPage()
			page.SetScript("#ok", mock.Script{})

			res := newClicker(page).ClickWithRetry(context.Background(), tc.locator, tc.timeout, tc.maxAttempts)

			assert.False(t, res.Success)
			assert.Equal(t, resilient.OutcomeInvalid, res.Outcome)
			assert.Zero(t, page.TotalCalls(), "invalid calls must not touch the driver")
		})
	}
}

func TestFallbackChainEmptyChainMakesZeroDriverCalls(t *testing.T) {
	page := mock.NewPage()

	cr := newClicker(page).ClickWithFallbackChain(context.Background(), nil, testTimeout, 3)

	assert.False(t, cr.Success)
	assert.Equal(t, -1, cr.UsedIndex)
	assert.Empty(t, cr.Candidates)
	assert.Zero(t, page.TotalCalls())
}

func TestFallbackChainUsesFirstWorkingCandidateInOrder(t *testing.T) {
	const perLocator = 2
	page := mock.NewPage()
	// Candidates 1 and 2 exist but never click; candidate 3 works;
	// candidate 4 must stay untouched.
	page.SetScript("#a", mock.Script{
		ClickErrs: repeatErr(mock.ErrIntercepted, perLocator),
		ForceErrs: repeatErr(mock.ErrIntercepted, perLocator),
	})
	page.SetScript("#b", mock.Script{
		ClickErrs: repeatErr(mock.ErrDetached, perLocator),
		ForceErrs: repeatErr(mock.ErrDetached, perLocator),
	})
	page.SetScript("#c", mock.Script{})
	page.SetScript("#d", mock.Script{})

	chain := []string{"#a", "#b", "#c", "#d"}
	cr := newClicker(page).ClickWithFallbackChain(context.Background(), chain, testTimeout, perLocator)

	require.True(t, cr.Success)
	assert.Equal(t, 2, cr.UsedIndex)
	assert.Equal(t, "#c", cr.UsedLocator)
	require.Len(t, cr.Candidates, 3, "the chain stops at the winner")

	assert.Equal(t, perLocator, page.CallsFor("#a").Waits, "dead candidates get the full retry budget")
	assert.Equal(t, perLocator, page.CallsFor("#b").Waits)
	assert.Equal(t, 1, page.CallsFor("#c").Waits)
	assert.Equal(t, mock.Calls{}, page.CallsFor("#d"), "candidates after the winner are never invoked")

	used, ok := cr.Used()
	require.True(t, ok)
	assert.Equal(t, "#c", used.Locator)
}

func TestFallbackChainScenarioForcedClickOnSecondCandidate(t *testing.T) {
	// Chain = [A(never attaches), B(attaches, click intercepted once,
	// force succeeds), C], two attempts per locator.
	page := mock.NewPage()
	page.SetScript("#b", mock.Script{
		ClickErrs: []error{mock.ErrIntercepted},
		ForceErrs: []error{nil},
	})
	page.SetScript("#c", mock.Script{})

	chain := []string{"#a", "#b", "#c"}
	cr := newClicker(page).ClickWithFallbackChain(context.Background(), chain, testTimeout, 2)

	require.True(t, cr.Success)
	assert.Equal(t, "#b", cr.UsedLocator)

	used, ok := cr.Used()
	require.True(t, ok)
	assert.True(t, used.Forced, "B succeeded through the forced-click path")

	assert.Equal(t, 2, page.CallsFor("#a").Waits, "A exhausted its attempts")
	assert.Equal(t, mock.Calls{}, page.CallsFor("#c"), "C untouched")
}

func TestFallbackChainExhaustedReportsEveryCandidate(t *testing.T) {
	page := mock.NewPage()

	chain := []string{"#x", "#y"}
	cr := newClicker(page).ClickWithFallbackChain(context.Background(), chain, testTimeout, 2)

	assert.False(t, cr.Success)
	assert.Equal(t, -1, cr.UsedIndex)
	require.Len(t, cr.Candidates, 2)
	for _, candidate := range cr.Candidates {
		assert.Equal(t, resilient.OutcomeNotFound, candidate.Outcome)
		assert.Equal(t, 2, candidate.Attempts)
	}

	_, ok := cr.Used()
	assert.False(t, ok)
}

func TestClickWithRetryStopsWhenContextCancelled(t *testing.T) {
	page := mock.NewPage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newClicker(page).ClickWithRetry(ctx, "#any", testTimeout, 5)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts, "a dead context must not burn the retry budget")
	assert.True(t, errors.Is(res.LastErr, context.Canceled) || res.LastErr != nil)
}

func repeatErr(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}
