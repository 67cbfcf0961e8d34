// File: internal/browser/mock/mock.go

// Package mock provides a scriptable in-memory page for testing click
// logic without a real browser. Behavior is configured per locator:
// how many attach waits fail before the element appears, and the
// ordered outcomes of normal and forced clicks.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hexbolt9/limpet-cli/internal/browser"
)

// Common failure modes a real driver reports.
var (
	ErrIntercepted = errors.New("click intercepted: element is obscured by another element")
	ErrDetached    = errors.New("element is detached from the document")
)

// Script describes how one locator behaves.
type Script struct {
	// AttachAfter is the number of WaitAttached calls that time out
	// before the element counts as attached. 0 means immediately.
	AttachAfter int
	// ClickErrs are consumed one per normal click; a nil entry is a
	// successful click. Once exhausted, clicks succeed.
	ClickErrs []error
	// ForceErrs are consumed one per forced click, same contract.
	ForceErrs []error
	// Text is returned by Text reads.
	Text string
}

// Calls records how often each operation ran for one locator.
type Calls struct {
	Waits        int
	Clicks       int
	ForcedClicks int
	Fills        int
}

// Page is a scriptable browser.Page implementation.
type Page struct {
	mu      sync.Mutex
	scripts map[string]*Script
	calls   map[string]*Calls

	navigated   []string
	screenshots []string
	sleeps      []time.Duration
	fills       map[string]string
	closed      bool
}

var _ browser.Page = (*Page)(nil)

// NewPage creates an empty mock page. Locators without a script behave
// as if they never match anything.
func NewPage() *Page {
	return &Page{
		scripts: make(map[string]*Script),
		calls:   make(map[string]*Calls),
		fills:   make(map[string]string),
	}
}

// SetScript installs the behavior for a locator.
func (p *Page) SetScript(locator string, script Script) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[locator] = &script
}

// CallsFor returns a copy of the call counters for a locator.
func (p *Page) CallsFor(locator string) Calls {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.calls[locator]; ok {
		return *c
	}
	return Calls{}
}

// TotalCalls sums every driver interaction across all locators,
// including navigations, sleeps and screenshots.
func (p *Page) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := len(p.navigated) + len(p.screenshots) + len(p.sleeps)
	for _, c := range p.calls {
		total += c.Waits + c.Clicks + c.ForcedClicks + c.Fills
	}
	return total
}

// Navigated returns the URLs loaded so far.
func (p *Page) Navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

// Screenshots returns the paths captured so far.
func (p *Page) Screenshots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.screenshots...)
}

// Sleeps returns the cooperative pauses requested so far.
func (p *Page) Sleeps() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.sleeps...)
}

// FilledValue returns the last value filled into a locator.
func (p *Page) FilledValue(locator string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fills[locator]
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) callsFor(locator string) *Calls {
	if c, ok := p.calls[locator]; ok {
		return c
	}
	c := &Calls{}
	p.calls[locator] = c
	return c
}

// Navigate records the URL and always succeeds.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return nil
}

// WaitAttached consults the locator's script: the first AttachAfter
// calls time out, later calls succeed. Unknown locators never attach.
func (p *Page) WaitAttached(ctx context.Context, locator string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.callsFor(locator)
	c.Waits++

	script, ok := p.scripts[locator]
	if !ok {
		return fmt.Errorf("element %q not attached within %s", locator, timeout)
	}
	if c.Waits <= script.AttachAfter {
		return fmt.Errorf("element %q not attached within %s", locator, timeout)
	}
	return nil
}

// Click consumes the next scripted outcome for the requested variant.
func (p *Page) Click(ctx context.Context, locator string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.callsFor(locator)
	script, ok := p.scripts[locator]
	if !ok {
		if force {
			c.ForcedClicks++
		} else {
			c.Clicks++
		}
		return fmt.Errorf("no element matches selector %q", locator)
	}

	if force {
		c.ForcedClicks++
		return popErr(&script.ForceErrs)
	}
	c.Clicks++
	return popErr(&script.ClickErrs)
}

func popErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

// Fill records the value for later inspection.
func (p *Page) Fill(ctx context.Context, locator, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.callsFor(locator)
	c.Fills++
	if _, ok := p.scripts[locator]; !ok {
		return fmt.Errorf("no element matches selector %q", locator)
	}
	p.fills[locator] = value
	return nil
}

// Text returns the scripted text for the locator.
func (p *Page) Text(ctx context.Context, locator string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if script, ok := p.scripts[locator]; ok {
		return script.Text, nil
	}
	return "", fmt.Errorf("no element matches selector %q", locator)
}

// Screenshot records the path without touching the filesystem.
func (p *Page) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenshots = append(p.screenshots, path)
	return nil
}

// Sleep records the duration without actually waiting, keeping tests
// fast and deterministic.
func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sleeps = append(p.sleeps, d)
	return nil
}

// Close marks the page closed.
func (p *Page) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Manager hands out mock pages so the "mock" engine can be selected
// through the normal factory path.
type Manager struct {
	mu    sync.Mutex
	pages []*Page
}

// NewManager creates a mock manager.
func NewManager() *Manager {
	return &Manager{}
}

// NewPage opens a fresh, scriptless mock page.
func (m *Manager) NewPage(context.Context) (browser.Page, error) {
	p := NewPage()
	m.mu.Lock()
	m.pages = append(m.pages, p)
	m.mu.Unlock()
	return p, nil
}

// Pages returns every page handed out so far.
func (m *Manager) Pages() []*Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Page(nil), m.pages...)
}

// Shutdown closes all pages.
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, p := range m.Pages() {
		p.Close(ctx)
	}
	return nil
}
