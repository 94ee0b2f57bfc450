// Package browser is the boundary between the engine and a real browser.
// The engine only sees Driver and Session; the CDP implementation lives
// behind them so tests can swap in fakes.
package browser

import (
	"context"
	"time"
)

// SessionOptions carries the per-task fingerprint applied before the first
// navigation.
type SessionOptions struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
}

// Driver opens isolated browser sessions. Each session owns its own page
// target so concurrent tasks cannot see each other's state.
type Driver interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
}

// Session is one page under automation. All methods honor ctx cancellation;
// Close releases the underlying target.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	PressEnter(ctx context.Context, selector string) error
	Scroll(ctx context.Context, pixels int) error
	Evaluate(ctx context.Context, expression string) (any, error)
	EvaluateString(ctx context.Context, expression string) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	CaptureScreenshot(ctx context.Context) (string, error)
	Close() error
}
