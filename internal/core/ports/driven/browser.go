package driven

import (
	"context"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// Element is an opaque handle to a node in the rendered page.
// Handles go stale when the page re-renders; operations on a stale handle
// return domain.ErrElementStale.
type Element interface {
	// Key identifies the node for the lifetime of the handle.
	Key() string
}

// Selector locates visible elements.
type Selector struct {
	// CSS is a CSS selector.
	CSS string

	// Within restricts the search to descendants of an element. Nil searches
	// the whole document.
	Within Element
}

// ScriptProbe is a no-op script. A session that cannot run it is gone.
const ScriptProbe = `() => 1`

// Condition is polled by WaitUntil until it reports true.
type Condition func(ctx context.Context) (bool, error)

// BrowserSession drives one rendered page of a remote storefront.
// A session is used from a single goroutine.
type BrowserSession interface {
	// Navigate loads a URL and waits for the document to load.
	Navigate(ctx context.Context, url string) error

	// FindVisible returns the visible elements matching the selector,
	// in document order.
	FindVisible(ctx context.Context, sel Selector) ([]Element, error)

	// TextOf returns the rendered text of an element.
	TextOf(ctx context.Context, el Element) (string, error)

	// AttributeOf returns an attribute value and whether it is present.
	AttributeOf(ctx context.Context, el Element, name string) (string, bool, error)

	// Click clicks an element.
	Click(ctx context.Context, el Element) error

	// RunScript evaluates a JavaScript function expression in the page.
	// Element arguments are passed to the function as DOM nodes.
	// The result is decoded into plain Go values (string, float64, bool,
	// []any, map[string]any or nil).
	RunScript(ctx context.Context, js string, args ...any) (any, error)

	// WaitUntil polls cond until it reports true or timeout elapses.
	// It returns false, without error, on timeout.
	WaitUntil(ctx context.Context, timeout time.Duration, cond Condition) (bool, error)

	// ScrollBy scrolls the viewport vertically by dy pixels.
	ScrollBy(ctx context.Context, dy int) error

	// Close releases the page and its browser. It is safe to call twice.
	Close() error
}

// BrowserConfig configures a session factory. It is built from
// domain.BrowserSettings; factories hold no other process-wide state.
type BrowserConfig struct {
	Headless          bool
	LoadImages        bool
	Locale            string
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	BinaryPath        string
}

// BrowserConfigFrom maps browser settings to a factory config.
func BrowserConfigFrom(s domain.BrowserSettings) BrowserConfig {
	return BrowserConfig{
		Headless:          s.Headless,
		LoadImages:        s.LoadImages,
		Locale:            s.Locale,
		UserAgent:         s.UserAgent,
		ViewportWidth:     s.ViewportWidth,
		ViewportHeight:    s.ViewportHeight,
		NavigationTimeout: s.NavigationTimeout,
		BinaryPath:        s.BinaryPath,
	}
}

// SessionFactory opens independent browser sessions.
type SessionFactory interface {
	// Open starts a new session. The caller must Close it.
	Open(ctx context.Context) (BrowserSession, error)
}
