// File: internal/browser/browser.go

// Package browser defines the contract between the click logic and a
// concrete browser engine. Locators are opaque CSS selector strings;
// nothing in this package or its consumers inspects their structure.
package browser

import (
	"context"
	"time"
)

// Page is one open browser tab. Implementations live in the engine
// subpackages (cdp, pw, mock); its WaitAttached/Click/Sleep subset is
// what the resilient clicker consumes.
type Page interface {
	// Navigate loads the URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// WaitAttached blocks until the element matched by locator exists
	// in the document, or the timeout expires.
	WaitAttached(ctx context.Context, locator string, timeout time.Duration) error
	// Click clicks the matched element. With force set, visibility and
	// occlusion checks are bypassed.
	Click(ctx context.Context, locator string, force bool) error
	// Fill replaces the value of the matched input element.
	Fill(ctx context.Context, locator, value string) error
	// Text returns the text content of the matched element.
	Text(ctx context.Context, locator string) (string, error)
	// Screenshot captures the viewport as PNG and writes it to path.
	Screenshot(ctx context.Context, path string) error
	// Sleep pauses cooperatively for the given duration.
	Sleep(ctx context.Context, d time.Duration) error
	// Close releases the tab. Safe to call more than once.
	Close(ctx context.Context) error
}

// Manager owns a browser process (or its stand-in) and hands out pages.
type Manager interface {
	// NewPage opens a fresh page. The first call may lazily start the
	// underlying browser.
	NewPage(ctx context.Context) (Page, error)
	// Shutdown closes all pages and stops the browser process.
	Shutdown(ctx context.Context) error
}
