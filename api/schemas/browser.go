package schemas

import (
	"context"
	"time"
)

// PageDriver is the browser surface the rewards engine drives. It is
// implemented by internal/browser.Session on top of CDP and by test fakes.
// Every call blocks until it completes, times out, or the context is done;
// none of them are safe for concurrent use on the same session.
type PageDriver interface {
	// Navigate loads the URL in the active tab.
	Navigate(ctx context.Context, url string) error
	// Reload reloads the active tab.
	Reload(ctx context.Context) error
	// CurrentURL returns the active tab's location.
	CurrentURL(ctx context.Context) (string, error)

	// Evaluate runs the expression in the active tab and unmarshals the
	// result into out (out may be nil for fire-and-forget scripts).
	Evaluate(ctx context.Context, expr string, out interface{}) error

	// WaitVisible blocks until the selector is visible or the timeout lapses.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	// Click clicks the first match, recovering once from overlay
	// interception by dismissing known prompts.
	Click(ctx context.Context, sel string) error
	// Type focuses the first match and types the text into it.
	Type(ctx context.Context, sel, text string) error
	// Submit submits the form owning the first match.
	Submit(ctx context.Context, sel string) error
	// Text returns the visible text of the first match.
	Text(ctx context.Context, sel string) (string, error)
	// AttributeValue returns the attribute of the first match and whether it
	// was present.
	AttributeValue(ctx context.Context, sel, attr string) (string, bool, error)

	// SwitchToNewTab moves the driver to the most recently opened tab, if any.
	SwitchToNewTab(ctx context.Context) error
	// ResetTabs closes every tab except the primary one and returns the
	// driver to it.
	ResetTabs(ctx context.Context) error

	// DismissPrompts clicks through the known overlay/consent buttons.
	DismissPrompts(ctx context.Context) error

	// Sleep waits for the duration or until the context is done.
	Sleep(ctx context.Context, d time.Duration) error
}
