// File: internal/resilient/clicker.go

// Package resilient implements the retrying, fallback-aware click
// primitive. It knows nothing about any concrete browser: the page is
// reached only through the Driver contract, and every outcome is a
// returned value, never an escalated error.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Driver is the slice of a browser page the clicker consumes.
type Driver interface {
	// WaitAttached blocks until the element matched by locator is
	// attached to the document, or the timeout expires.
	WaitAttached(ctx context.Context, locator string, timeout time.Duration) error
	// Click performs a click on the matched element. With force set,
	// interactability and occlusion checks are bypassed.
	Click(ctx context.Context, locator string, force bool) error
	// Sleep pauses cooperatively for the given duration.
	Sleep(ctx context.Context, d time.Duration) error
}

// Outcome classifies how a click call ended.
type Outcome string

const (
	// OutcomeSuccess means a click landed.
	OutcomeSuccess Outcome = "success"
	// OutcomeNotFound means the element never attached within the
	// per-attempt timeout.
	OutcomeNotFound Outcome = "element_not_found"
	// OutcomeTransient means the element attached but both the normal
	// and the forced click failed.
	OutcomeTransient Outcome = "transient_failure"
	// OutcomeInvalid means the call was rejected before touching the
	// driver (bad arguments, empty chain).
	OutcomeInvalid Outcome = "invalid"
)

// errInvalidArgs rejects calls before any driver interaction happens.
var errInvalidArgs = errors.New("locator must be non-empty, timeout positive and attempts at least 1")

// Result is the outcome of clicking a single locator. It exists only
// for the duration of one call; the clicker keeps no state between
// independent operations.
type Result struct {
	Locator  string
	Success  bool
	Outcome  Outcome
	Attempts int
	// Forced reports that the successful click came from the forced
	// second-chance path rather than the normal click.
	Forced  bool
	LastErr error
}

// ChainResult is the outcome of walking an ordered fallback chain.
type ChainResult struct {
	Success bool
	// UsedIndex is the zero-based index of the winning candidate, or
	// -1 when the whole chain was exhausted.
	UsedIndex   int
	UsedLocator string
	Candidates  []Result
}

// Used returns the Result of the winning candidate, if any.
func (cr ChainResult) Used() (Result, bool) {
	if !cr.Success || cr.UsedIndex < 0 || cr.UsedIndex >= len(cr.Candidates) {
		return Result{}, false
	}
	return cr.Candidates[cr.UsedIndex], true
}

// Clicker clicks elements despite transient UI flakiness (element not
// yet attached, overlay intercepting the click) and selector drift.
type Clicker struct {
	drv     Driver
	logger  *zap.Logger
	settle  time.Duration
	backoff time.Duration
}

// Option tunes a Clicker.
type Option func(*Clicker)

// WithSettleInterval sets the pause between a successful attach wait
// and the click, letting transient overlays and animations resolve.
func WithSettleInterval(d time.Duration) Option {
	return func(c *Clicker) { c.settle = d }
}

// WithBackoffInterval sets the fixed pause between failed attempts.
func WithBackoffInterval(d time.Duration) Option {
	return func(c *Clicker) { c.backoff = d }
}

// New creates a Clicker around the given driver.
func New(drv Driver, logger *zap.Logger, opts ...Option) *Clicker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Clicker{
		drv:     drv,
		logger:  logger,
		settle:  250 * time.Millisecond,
		backoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClickWithRetry attempts to click the element matched by locator,
// performing at most maxAttempts wait+click cycles. Each cycle waits
// up to timeout for the element to attach, settles briefly, clicks,
// and on any click failure retries once with a forced click before
// the attempt counts as failed. A fixed backoff separates attempts.
// Exhaustion is reported in the Result, never as an error.
func (c *Clicker) ClickWithRetry(ctx context.Context, locator string, timeout time.Duration, maxAttempts int) Result {
	res := Result{Locator: locator}

	if locator == "" || timeout <= 0 || maxAttempts < 1 {
		res.Outcome = OutcomeInvalid
		res.LastErr = errInvalidArgs
		c.logger.Warn("Rejecting click call with invalid arguments.",
			zap.String("locator", locator),
			zap.Duration("timeout", timeout),
			zap.Int("max_attempts", maxAttempts))
		return res
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), uint64(maxAttempts-1)),
		ctx,
	)

	operation := func() error {
		res.Attempts++
		return c.attempt(ctx, locator, timeout, &res)
	}

	if err := backoff.Retry(operation, policy); err != nil {
		res.Success = false
		if res.LastErr == nil {
			// Context expiry between attempts surfaces here.
			res.LastErr = err
			res.Outcome = OutcomeTransient
		}
		c.logger.Warn("Click exhausted all attempts.",
			zap.String("locator", locator),
			zap.Int("attempts", res.Attempts),
			zap.Error(res.LastErr))
		return res
	}

	res.Success = true
	res.Outcome = OutcomeSuccess
	return res
}

// attempt runs one wait -> settle -> click -> forced-click cycle and
// records the outcome on res. It returns nil exactly when a click
// landed.
func (c *Clicker) attempt(ctx context.Context, locator string, timeout time.Duration, res *Result) error {
	log := c.logger.With(
		zap.String("locator", locator),
		zap.Int("attempt", res.Attempts),
	)

	// 1. Wait for the element to attach. A timeout here burns the
	// whole attempt.
	if err := c.drv.WaitAttached(ctx, locator, timeout); err != nil {
		res.Outcome = OutcomeNotFound
		res.LastErr = err
		log.Warn("Element did not attach in time.", zap.Duration("timeout", timeout), zap.Error(err))
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	// 2. Settle pause so in-flight overlays and animations resolve.
	if c.settle > 0 {
		if err := c.drv.Sleep(ctx, c.settle); err != nil {
			res.Outcome = OutcomeTransient
			res.LastErr = err
			return backoff.Permanent(err)
		}
	}

	// 3. Normal click first.
	clickErr := c.drv.Click(ctx, locator, false)
	if clickErr == nil {
		log.Info("Click succeeded.")
		return nil
	}
	if ctx.Err() != nil {
		res.Outcome = OutcomeTransient
		res.LastErr = clickErr
		return backoff.Permanent(clickErr)
	}

	// 4. Second chance within the same attempt: force the click.
	// Deliberately permissive, the forced path runs after any click
	// failure rather than only confirmed interceptions.
	log.Debug("Normal click failed, retrying with force.", zap.Error(clickErr))
	forceErr := c.drv.Click(ctx, locator, true)
	if forceErr == nil {
		res.Forced = true
		log.Info("Forced click succeeded.")
		return nil
	}

	res.Outcome = OutcomeTransient
	res.LastErr = forceErr
	log.Warn("Click attempt failed.", zap.NamedError("click_error", clickErr), zap.NamedError("force_error", forceErr))
	if ctx.Err() != nil {
		return backoff.Permanent(forceErr)
	}
	return forceErr
}

// ClickWithFallbackChain walks locators strictly in order, giving each
// candidate up to maxAttemptsPerLocator retry cycles, and stops at the
// first success. Later candidates are never touched once one wins, so
// the preference order is deterministic. An empty chain fails without
// any driver calls.
func (c *Clicker) ClickWithFallbackChain(ctx context.Context, locators []string, timeout time.Duration, maxAttemptsPerLocator int) ChainResult {
	cr := ChainResult{UsedIndex: -1}

	if len(locators) == 0 {
		c.logger.Warn("Fallback chain is empty, nothing to click.")
		return cr
	}

	for i, locator := range locators {
		c.logger.Debug("Trying fallback candidate.",
			zap.Int("candidate", i+1),
			zap.Int("of", len(locators)),
			zap.String("locator", locator))

		res := c.ClickWithRetry(ctx, locator, timeout, maxAttemptsPerLocator)
		cr.Candidates = append(cr.Candidates, res)

		if res.Success {
			cr.Success = true
			cr.UsedIndex = i
			cr.UsedLocator = locator
			c.logger.Info("Fallback chain succeeded.",
				zap.Int("candidate", i+1),
				zap.String("locator", locator),
				zap.Bool("forced", res.Forced))
			return cr
		}

		if ctx.Err() != nil {
			// The whole operation was cancelled; do not burn the
			// remaining candidates on a dead context.
			break
		}
	}

	c.logger.Warn("Fallback chain exhausted.", zap.Int("candidates", len(cr.Candidates)))
	return cr
}
