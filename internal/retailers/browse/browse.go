// Package browse holds the interaction helpers retailer adapters compose:
// bounded waits, consent dismissal, DOM snapshots, scroll advancing and the
// next-page escalation policy.
//
// Everything here talks to a driven.BrowserSession and never to a browser
// engine directly.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// Timing holds the bounded waits used by adapters.
type Timing struct {
	WaitTimeout    time.Duration
	ConsentTimeout time.Duration
	StepTimeout    time.Duration
	PollInterval   time.Duration
	ScrollPause    time.Duration
	ScrollStep     int
}

// TimingFrom extracts the wait bounds from crawl settings.
func TimingFrom(s domain.CrawlSettings) Timing {
	return Timing{
		WaitTimeout:    s.WaitTimeout,
		ConsentTimeout: s.ConsentTimeout,
		StepTimeout:    s.StepTimeout,
		PollInterval:   s.PollInterval,
		ScrollPause:    s.ScrollPause,
		ScrollStep:     s.ScrollStep,
	}
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// First returns the first visible element matching any of the selectors,
// tried in order.
func First(ctx context.Context, s driven.BrowserSession, within driven.Element, selectors ...string) (driven.Element, bool, error) {
	for _, css := range selectors {
		els, err := s.FindVisible(ctx, driven.Selector{CSS: css, Within: within})
		if err != nil {
			return nil, false, err
		}
		if len(els) > 0 {
			return els[0], true, nil
		}
	}
	return nil, false, nil
}

// Unsettled is the result of a WaitUntil condition that failed with err.
// A stale handle means the DOM is still changing, so the poll goes on.
func Unsettled(err error) (bool, error) {
	if errors.Is(err, domain.ErrElementStale) {
		return false, nil
	}
	return false, err
}

// WaitForAny waits until an element matching css is visible. It reports
// false when the timeout elapses first.
func WaitForAny(ctx context.Context, s driven.BrowserSession, timeout time.Duration, css string) (bool, error) {
	return s.WaitUntil(ctx, timeout, func(ctx context.Context) (bool, error) {
		els, err := s.FindVisible(ctx, driven.Selector{CSS: css})
		if err != nil {
			return Unsettled(err)
		}
		return len(els) > 0, nil
	})
}

// WaitForCards waits for listing cards and maps a timeout to
// domain.ErrNoListings.
func WaitForCards(ctx context.Context, s driven.BrowserSession, timeout time.Duration, css string) error {
	ok, err := WaitForAny(ctx, s, timeout, css)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w within %s", domain.ErrNoListings, timeout)
	}
	return nil
}

// DismissConsent clicks the first cookie banner button that shows up within
// timeout. It is best-effort: a missing banner or a failed click is not an
// error, and it is safe to call on every navigation.
func DismissConsent(ctx context.Context, s driven.BrowserSession, timeout time.Duration, selectors ...string) bool {
	var button driven.Element
	ok, err := s.WaitUntil(ctx, timeout, func(ctx context.Context) (bool, error) {
		el, found, err := First(ctx, s, nil, selectors...)
		if err != nil {
			return Unsettled(err)
		}
		if !found {
			return false, nil
		}
		button = el
		return true, nil
	})
	if err != nil || !ok {
		return false
	}
	if err := s.Click(ctx, button); err != nil {
		logger.Debug("consent click failed: %v", err)
		return false
	}
	return true
}

// Snapshot reads the rendered document in one round trip and parses it.
func Snapshot(ctx context.Context, s driven.BrowserSession) (*goquery.Document, error) {
	res, err := s.RunScript(ctx, ScriptOuterHTML)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	html, ok := res.(string)
	if !ok {
		return nil, fmt.Errorf("snapshot: unexpected result %T", res)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return doc, nil
}

// Number converts a decoded script result to float64.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Offset returns the current vertical scroll offset.
func Offset(ctx context.Context, s driven.BrowserSession) (float64, error) {
	res, err := s.RunScript(ctx, ScriptPageOffset)
	if err != nil {
		return 0, err
	}
	return Number(res), nil
}
